package jobs

import (
	"context"
	"time"
)

// Task отложенное действие
type Task func(ctx context.Context)

// IDelayedScheduler разовые отложенные задачи по ключу.
// Задачи живут только в памяти процесса и теряются при рестарте.
type IDelayedScheduler interface {
	// Schedule планирует задачу; задача с тем же ключом заменяется
	Schedule(key string, delay time.Duration, task Task)
	// Cancel отменяет задачу, возвращает false если её уже нет
	Cancel(key string) bool
}
