package orders

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/jobs"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// orderStoreFake повторяет условные UPDATE из orderRepo под мьютексом
type orderStoreFake struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.Order
}

func newOrderStoreFake() *orderStoreFake {
	return &orderStoreFake{orders: make(map[uuid.UUID]domain.Order)}
}

func (f *orderStoreFake) Create(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.Status != domain.OrderPending || o.NannyID != nil {
		return domain.ErrInvalidTransition
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *orderStoreFake) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (f *orderStoreFake) GetByIDTx(ctx context.Context, _ persistence.Transaction, id uuid.UUID) (*domain.Order, error) {
	return f.GetByID(ctx, id)
}

func (f *orderStoreFake) Claim(_ context.Context, orderID, nannyID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.Status != domain.OrderPending || o.NannyID != nil {
		return false, nil
	}
	o.NannyID = &nannyID
	o.Status = domain.OrderAccepted
	o.AcceptedAt = &at
	f.orders[orderID] = o
	return true, nil
}

func (f *orderStoreFake) UpdateStatus(_ context.Context, orderID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if o.Status == st {
			o.Status = to
			o.UpdatedAt = at
			if to == domain.OrderCompleted {
				o.CompletedAt = &at
			}
			f.orders[orderID] = o
			return true, nil
		}
	}
	return false, nil
}

func (f *orderStoreFake) ListByParent(_ context.Context, parentID uuid.UUID, _ int) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*domain.Order
	for _, o := range f.orders {
		if o.ParentID == parentID {
			o := o
			res = append(res, &o)
		}
	}
	return res, nil
}

func (f *orderStoreFake) ListByNanny(_ context.Context, nannyID uuid.UUID, _ int) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*domain.Order
	for _, o := range f.orders {
		if o.IsAssignedTo(nannyID) {
			o := o
			res = append(res, &o)
		}
	}
	return res, nil
}

type usersFake struct {
	byID map[uuid.UUID]*domain.User
}

func (u *usersFake) Create(context.Context, *domain.User) error { return nil }
func (u *usersFake) GetByTelegramID(context.Context, int64) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (u *usersFake) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := u.byID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}
func (u *usersFake) UpdateName(context.Context, uuid.UUID, string) error  { return nil }
func (u *usersFake) UpdateConsent(context.Context, uuid.UUID, bool) error { return nil }
func (u *usersFake) UpdatePhone(context.Context, uuid.UUID, string) error { return nil }
func (u *usersFake) ListVerifiedNannies(context.Context) ([]*domain.User, error) {
	return nil, nil
}
func (u *usersFake) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return fn(ctx, nil)
}
func (u *usersFake) CreateTx(context.Context, persistence.Transaction, *domain.User) error { return nil }
func (u *usersFake) UpdateRatingTx(context.Context, persistence.Transaction, uuid.UUID, domain.RatingStats) error {
	return nil
}

type profilesFake struct {
	byUser map[uuid.UUID]*domain.Profile
}

func (p *profilesFake) Create(context.Context, *domain.Profile) error { return nil }
func (p *profilesFake) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if profile, ok := p.byUser[userID]; ok {
		return profile, nil
	}
	return nil, domain.ErrNotFound
}
func (p *profilesFake) Update(context.Context, *domain.Profile, domain.ProfileStatus) (bool, error) {
	return true, nil
}
func (p *profilesFake) UpdateStatus(context.Context, uuid.UUID, domain.ProfileStatus, domain.ProfileStatus, *string) (bool, error) {
	return false, nil
}
func (p *profilesFake) ConsumeGreeting(context.Context, uuid.UUID) (bool, error) { return false, nil }
func (p *profilesFake) ListByStatus(context.Context, domain.ProfileStatus) ([]*domain.PendingProfile, error) {
	return nil, nil
}
func (p *profilesFake) CreateTx(context.Context, persistence.Transaction, *domain.Profile) error {
	return nil
}
func (p *profilesFake) UpdateRatingTx(context.Context, persistence.Transaction, uuid.UUID, domain.RatingStats) error {
	return nil
}

type sentNotice struct {
	UserID   uuid.UUID
	Text     string
	Keyboard map[string]interface{}
}

type notifierFake struct {
	mu         sync.Mutex
	notices    []sentNotice
	broadcasts []uuid.UUID
	// noNannies рассылка никому не доставлена
	noNannies bool
}

func (n *notifierFake) BroadcastNewOrder(_ context.Context, order *domain.Order) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, order.ID)
	if n.noNannies {
		return 0, nil
	}
	return 2, nil
}

func (n *notifierFake) Notify(_ context.Context, userID uuid.UUID, text string, keyboard map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, sentNotice{UserID: userID, Text: text, Keyboard: keyboard})
	return nil
}

func (n *notifierFake) to(userID uuid.UUID) []sentNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var res []sentNotice
	for _, s := range n.notices {
		if s.UserID == userID {
			res = append(res, s)
		}
	}
	return res
}

// schedulerFake держит задачи до явного вызова fire
type schedulerFake struct {
	mu    sync.Mutex
	tasks map[string]jobs.Task
	delay map[string]time.Duration
}

func newSchedulerFake() *schedulerFake {
	return &schedulerFake{tasks: make(map[string]jobs.Task), delay: make(map[string]time.Duration)}
}

func (s *schedulerFake) Schedule(key string, delay time.Duration, task jobs.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[key] = task
	s.delay[key] = delay
}

func (s *schedulerFake) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	delete(s.tasks, key)
	return ok
}

func (s *schedulerFake) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

func (s *schedulerFake) fire(ctx context.Context, key string) {
	s.mu.Lock()
	task, ok := s.tasks[key]
	delete(s.tasks, key)
	s.mu.Unlock()
	if ok {
		task(ctx)
	}
}

type eventsFake struct {
	mu     sync.Mutex
	events []domain.OrderEventType
}

func (e *eventsFake) PublishOrderEvent(_ context.Context, event domain.OrderEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event.Type)
	return nil
}

type paymentsFake struct {
	requests []domain.PaymentRequest
}

func (p *paymentsFake) CreatePayment(_ context.Context, req domain.PaymentRequest) (*domain.PaymentLink, error) {
	p.requests = append(p.requests, req)
	return &domain.PaymentLink{PaymentID: "pay-1", ConfirmationURL: "https://pay.example/1"}, nil
}

type fixture struct {
	svc       *Service
	orders    *orderStoreFake
	users     *usersFake
	profiles  *profilesFake
	notifier  *notifierFake
	scheduler *schedulerFake
	events    *eventsFake
	payments  *paymentsFake

	parent *domain.User
}

func strPtr(s string) *string { return &s }

func newFixture() *fixture {
	f := &fixture{
		orders:    newOrderStoreFake(),
		users:     &usersFake{byID: make(map[uuid.UUID]*domain.User)},
		profiles:  &profilesFake{byUser: make(map[uuid.UUID]*domain.Profile)},
		notifier:  &notifierFake{},
		scheduler: newSchedulerFake(),
		events:    &eventsFake{},
		payments:  &paymentsFake{},
	}
	f.svc = New(f.orders, f.users, f.profiles, f.notifier, f.scheduler, f.events, f.payments,
		Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.parent = &domain.User{ID: uuid.New(), Role: domain.RoleParent, Name: strPtr("Анна"), TelegramChatID: 100}
	f.users.byID[f.parent.ID] = f.parent
	return f
}

func (f *fixture) addNanny(status domain.ProfileStatus, rate int64) *domain.User {
	nanny := &domain.User{ID: uuid.New(), Role: domain.RoleNanny, Name: strPtr("Мария"), TelegramChatID: int64(len(f.users.byID) + 200)}
	f.users.byID[nanny.ID] = nanny
	f.profiles.byUser[nanny.ID] = &domain.Profile{ID: uuid.New(), UserID: nanny.ID, Status: status, HourlyRate: &rate}
	return nanny
}

func (f *fixture) draft() *domain.OrderDraft {
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	timeRange := "14:00 - 18:00"
	hours := 4
	address := "ул. Ленина, 1"
	return &domain.OrderDraft{Date: &date, TimeRange: &timeRange, DurationHours: &hours, Address: &address}
}
