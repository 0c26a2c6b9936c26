package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/ports/jobs"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
)

type scheduled struct {
	timer *time.Timer
	seq   uint64
}

// Scheduler разовые отложенные задачи по ключу (проверка отклика на заказ, напоминание об отзыве).
// Задачи не переживают рестарт процесса.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]scheduled
	seq     uint64
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc

	alerterService service.IAlerterService
	log            *slog.Logger
}

// NewScheduler создаёт новый планировщик отложенных задач
func NewScheduler(log *slog.Logger, alerterService service.IAlerterService) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:          make(map[string]scheduled),
		ctx:            ctx,
		cancel:         cancel,
		alerterService: alerterService,
		log:            log,
	}
}

var _ jobs.IDelayedScheduler = (*Scheduler)(nil)

// Schedule планирует задачу. Задача с тем же ключом отменяется и заменяется новой.
func (s *Scheduler) Schedule(key string, delay time.Duration, task jobs.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		s.log.Warn("scheduler stopped, task dropped", "key", key)
		return
	}

	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}

	s.seq++
	seq := s.seq
	timer := time.AfterFunc(delay, func() {
		s.run(key, seq, task)
	})
	s.tasks[key] = scheduled{timer: timer, seq: seq}

	s.log.Debug("task scheduled", "key", key, "delay", delay)
}

// Cancel отменяет задачу, false если её уже нет или она уже запущена.
// Сработавший, но ещё не начавший работу таймер после Cancel задачу не выполнит (см. run).
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	delete(s.tasks, key)
	t.timer.Stop()
	s.log.Debug("task cancelled", "key", key)
	return true
}

// Pending количество ожидающих задач
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop отменяет все ожидающие задачи и контекст уже запущенных
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	s.cancel()
	s.log.Info("delayed scheduler stopped")
}

func (s *Scheduler) run(key string, seq uint64, task jobs.Task) {
	s.mu.Lock()
	// задачу могли заменить между срабатыванием таймера и захватом мьютекса
	if t, ok := s.tasks[key]; !ok || t.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("delayed task panicked", "key", key, "panic", r)
			s.sendAlert(key, r)
		}
	}()

	s.log.Debug("running delayed task", "key", key)
	task(s.ctx)
}

// sendAlert алертит о панике в отложенной задаче
func (s *Scheduler) sendAlert(key string, panicValue any) {
	if s.alerterService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := fmt.Sprintf("⚠️ Паника в отложенной задаче\n\nКлюч: %s\nОшибка: %v", key, panicValue)
	if err := s.alerterService.SendAlert(ctx, message); err != nil {
		s.log.Warn("failed to send delayed task alert",
			"key", key,
			"error", err,
		)
	}
}
