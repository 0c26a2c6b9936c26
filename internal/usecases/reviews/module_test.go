package reviews

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reviewStoreFake уникальность order_id как в таблице reviews
type reviewStoreFake struct {
	byID    map[uuid.UUID]*domain.Review
	byOrder map[uuid.UUID]bool
}

func (r *reviewStoreFake) GetByID(_ context.Context, id uuid.UUID) (*domain.Review, error) {
	if rv, ok := r.byID[id]; ok {
		return rv, nil
	}
	return nil, domain.ErrNotFound
}

func (r *reviewStoreFake) UpdateComment(_ context.Context, id uuid.UUID, comment string) error {
	r.byID[id].Comment = &comment
	return nil
}

func (r *reviewStoreFake) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return fn(ctx, nil)
}

func (r *reviewStoreFake) CreateTx(_ context.Context, _ persistence.Transaction, review *domain.Review) error {
	if r.byOrder[review.OrderID] {
		return domain.ErrReviewExists
	}
	r.byOrder[review.OrderID] = true
	r.byID[review.ID] = review
	return nil
}

func (r *reviewStoreFake) StatsForNannyTx(_ context.Context, _ persistence.Transaction, nannyID uuid.UUID) (domain.RatingStats, error) {
	var stats domain.RatingStats
	sum := 0
	for _, rv := range r.byID {
		if rv.NannyID == nannyID {
			sum += rv.Rating
			stats.TotalReviews++
		}
	}
	if stats.TotalReviews > 0 {
		stats.AvgRating = float64(sum) / float64(stats.TotalReviews)
	}
	return stats, nil
}

type ordersStub struct {
	byID map[uuid.UUID]*domain.Order
}

func (o *ordersStub) Create(context.Context, *domain.Order) error { return nil }
func (o *ordersStub) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	if order, ok := o.byID[id]; ok {
		return order, nil
	}
	return nil, domain.ErrNotFound
}
func (o *ordersStub) GetByIDTx(ctx context.Context, _ persistence.Transaction, id uuid.UUID) (*domain.Order, error) {
	return o.GetByID(ctx, id)
}
func (o *ordersStub) Claim(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}
func (o *ordersStub) UpdateStatus(context.Context, uuid.UUID, []domain.OrderStatus, domain.OrderStatus, time.Time) (bool, error) {
	return false, nil
}
func (o *ordersStub) ListByParent(context.Context, uuid.UUID, int) ([]*domain.Order, error) {
	return nil, nil
}
func (o *ordersStub) ListByNanny(context.Context, uuid.UUID, int) ([]*domain.Order, error) {
	return nil, nil
}

// ratingSink запоминает последний записанный агрегат
type ratingSink struct {
	stats map[uuid.UUID]domain.RatingStats
}

type usersStub struct{ ratingSink }

func (u *usersStub) Create(context.Context, *domain.User) error { return nil }
func (u *usersStub) GetByTelegramID(context.Context, int64) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (u *usersStub) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (u *usersStub) UpdateName(context.Context, uuid.UUID, string) error  { return nil }
func (u *usersStub) UpdateConsent(context.Context, uuid.UUID, bool) error { return nil }
func (u *usersStub) UpdatePhone(context.Context, uuid.UUID, string) error { return nil }
func (u *usersStub) ListVerifiedNannies(context.Context) ([]*domain.User, error) {
	return nil, nil
}
func (u *usersStub) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return fn(ctx, nil)
}
func (u *usersStub) CreateTx(context.Context, persistence.Transaction, *domain.User) error { return nil }
func (u *usersStub) UpdateRatingTx(_ context.Context, _ persistence.Transaction, id uuid.UUID, stats domain.RatingStats) error {
	u.stats[id] = stats
	return nil
}

type profilesStub struct{ ratingSink }

func (p *profilesStub) Create(context.Context, *domain.Profile) error { return nil }
func (p *profilesStub) GetByUserID(context.Context, uuid.UUID) (*domain.Profile, error) {
	return nil, domain.ErrNotFound
}
func (p *profilesStub) Update(context.Context, *domain.Profile, domain.ProfileStatus) (bool, error) {
	return true, nil
}
func (p *profilesStub) UpdateStatus(context.Context, uuid.UUID, domain.ProfileStatus, domain.ProfileStatus, *string) (bool, error) {
	return false, nil
}
func (p *profilesStub) ConsumeGreeting(context.Context, uuid.UUID) (bool, error) { return false, nil }
func (p *profilesStub) ListByStatus(context.Context, domain.ProfileStatus) ([]*domain.PendingProfile, error) {
	return nil, nil
}
func (p *profilesStub) CreateTx(context.Context, persistence.Transaction, *domain.Profile) error {
	return nil
}
func (p *profilesStub) UpdateRatingTx(_ context.Context, _ persistence.Transaction, userID uuid.UUID, stats domain.RatingStats) error {
	p.stats[userID] = stats
	return nil
}

type fixture struct {
	svc      *Service
	reviews  *reviewStoreFake
	orders   *ordersStub
	users    *usersStub
	profiles *profilesStub
	parent   *domain.User
	nannyID  uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		reviews:  &reviewStoreFake{byID: map[uuid.UUID]*domain.Review{}, byOrder: map[uuid.UUID]bool{}},
		orders:   &ordersStub{byID: map[uuid.UUID]*domain.Order{}},
		users:    &usersStub{ratingSink{stats: map[uuid.UUID]domain.RatingStats{}}},
		profiles: &profilesStub{ratingSink{stats: map[uuid.UUID]domain.RatingStats{}}},
		parent:   &domain.User{ID: uuid.New(), Role: domain.RoleParent},
		nannyID:  uuid.New(),
	}
	f.svc = New(f.reviews, f.orders, f.users, f.profiles, slog.New(slog.NewTextHandler(io.Discard, nil))).(*Service)
	return f
}

func (f *fixture) order(status domain.OrderStatus) *domain.Order {
	nanny := f.nannyID
	o := &domain.Order{ID: uuid.New(), ParentID: f.parent.ID, NannyID: &nanny, Status: status}
	f.orders.byID[o.ID] = o
	return o
}

func TestCreate_DuplicateKeepsFirstAggregate(t *testing.T) {
	f := newFixture()
	order := f.order(domain.OrderCompleted)
	ctx := context.Background()

	review, err := f.svc.Create(ctx, f.parent, order.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, f.nannyID, review.NannyID)

	_, err = f.svc.Create(ctx, f.parent, order.ID, 1)
	assert.ErrorIs(t, err, domain.ErrReviewExists)

	want := domain.RatingStats{AvgRating: 5, TotalReviews: 1}
	assert.Equal(t, want, f.profiles.stats[f.nannyID])
	assert.Equal(t, want, f.users.stats[f.nannyID])
}

func TestCreate_RecomputesFromAllReviews(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, rating := range []int{5, 4, 3} {
		_, err := f.svc.Create(ctx, f.parent, f.order(domain.OrderCompleted).ID, rating)
		require.NoError(t, err)
	}

	want := domain.RatingStats{AvgRating: 4, TotalReviews: 3}
	assert.Equal(t, want, f.profiles.stats[f.nannyID])
	assert.Equal(t, want, f.users.stats[f.nannyID])
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.parent, f.order(domain.OrderCompleted).ID, 6)
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	_, err = f.svc.Create(ctx, f.parent, f.order(domain.OrderInProgress).ID, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stranger := &domain.User{ID: uuid.New(), Role: domain.RoleParent}
	_, err = f.svc.Create(ctx, stranger, f.order(domain.OrderCompleted).ID, 5)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Create(ctx, f.parent, uuid.New(), 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, f.profiles.stats)
}

func TestAddComment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	review, err := f.svc.Create(ctx, f.parent, f.order(domain.OrderCompleted).ID, 4)
	require.NoError(t, err)

	require.NoError(t, f.svc.AddComment(ctx, f.parent, review.ID, "  Всё отлично  "))
	require.NotNil(t, f.reviews.byID[review.ID].Comment)
	assert.Equal(t, "Всё отлично", *f.reviews.byID[review.ID].Comment)

	stranger := &domain.User{ID: uuid.New()}
	assert.ErrorIs(t, f.svc.AddComment(ctx, stranger, review.ID, "x"), domain.ErrForbidden)
}
