package orders

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) mustCreate(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), f.parent, f.draft())
	require.NoError(t, err)
	return order
}

func (f *fixture) assertConsistent(t *testing.T, id uuid.UUID) {
	t.Helper()
	stored, err := f.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.AssignmentConsistent(), "status %s nanny %v", stored.Status, stored.NannyID)
}

func TestCreate_BroadcastsAndSchedulesNoResponse(t *testing.T) {
	f := newFixture()

	ctx, cancel := context.WithCancel(context.Background())
	order, err := f.svc.Create(ctx, f.parent, f.draft())
	require.NoError(t, err)
	// апдейт родителя завершился, его контекст отменён
	cancel()

	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Nil(t, order.NannyID)
	assert.True(t, f.scheduler.has(noResponseKey(order.ID)))
	assert.Equal(t, DefaultNoResponseTimeout, f.scheduler.delay[noResponseKey(order.ID)])
	assert.Equal(t, []domain.OrderEventType{domain.OrderEventCreated}, f.events.events)

	// рассылка не выполняется внутри Create, она поставлена в планировщик без задержки
	assert.Empty(t, f.notifier.broadcasts)
	require.True(t, f.scheduler.has(broadcastKey(order.ID)))
	assert.Equal(t, time.Duration(0), f.scheduler.delay[broadcastKey(order.ID)])

	f.scheduler.fire(context.Background(), broadcastKey(order.ID))
	assert.Equal(t, []uuid.UUID{order.ID}, f.notifier.broadcasts)
	assert.Empty(t, f.notifier.to(f.parent.ID))
}

func TestCreate_NoNanniesReachedNotifiesParent(t *testing.T) {
	f := newFixture()
	f.notifier.noNannies = true

	order := f.mustCreate(t)
	f.scheduler.fire(context.Background(), broadcastKey(order.ID))

	notices := f.notifier.to(f.parent.ID)
	require.Len(t, notices, 1)
	assert.Equal(t, texts.OrderNoNannies, notices[0].Text)
}

func TestClaim_UnknownOrderIsNotFound(t *testing.T) {
	f := newFixture()
	nanny := f.addNanny(domain.ProfileVerified, 500)

	_, err := f.svc.Claim(context.Background(), uuid.New(), nanny)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrOrderTaken)
}

func TestCreate_IncompleteDraft(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), f.parent, &domain.OrderDraft{})
	assert.ErrorIs(t, err, domain.ErrDraftIncomplete)
	assert.Empty(t, f.scheduler.tasks)
}

func TestClaim_RaceHasSingleWinner(t *testing.T) {
	f := newFixture()
	order := f.mustCreate(t)

	const racers = 50
	nannies := make([]*domain.User, racers)
	for i := range nannies {
		nannies[i] = f.addNanny(domain.ProfileVerified, 500)
	}

	var (
		wg     sync.WaitGroup
		won    int32
		taken  int32
		winner atomic.Value
		start  = make(chan struct{})
	)
	for _, nanny := range nannies {
		wg.Add(1)
		go func(n *domain.User) {
			defer wg.Done()
			<-start
			_, err := f.svc.Claim(context.Background(), order.ID, n)
			switch {
			case err == nil:
				atomic.AddInt32(&won, 1)
				winner.Store(n.ID)
			case assert.ErrorIs(t, err, domain.ErrOrderTaken):
				atomic.AddInt32(&taken, 1)
			}
		}(nanny)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), won)
	assert.Equal(t, int32(racers-1), taken)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, stored.Status)
	require.NotNil(t, stored.NannyID)
	assert.Equal(t, winner.Load().(uuid.UUID), *stored.NannyID)
	assert.False(t, f.scheduler.has(noResponseKey(order.ID)))

	notices := f.notifier.to(f.parent.ID)
	require.Len(t, notices, 1)
	assert.Equal(t, texts.ParentDecisionKeyboard(order.ID), notices[0].Keyboard)
}

func TestClaim_RequiresVerifiedNanny(t *testing.T) {
	f := newFixture()
	order := f.mustCreate(t)

	pending := f.addNanny(domain.ProfilePending, 500)
	_, err := f.svc.Claim(context.Background(), order.ID, pending)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Claim(context.Background(), order.ID, f.parent)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.assertConsistent(t, order.ID)
}

func TestReject_ThenSecondClaimFails(t *testing.T) {
	f := newFixture()
	order := f.mustCreate(t)
	nannyA := f.addNanny(domain.ProfileVerified, 500)
	nannyB := f.addNanny(domain.ProfileVerified, 600)
	ctx := context.Background()

	claimed, err := f.svc.Claim(ctx, order.ID, nannyA)
	require.NoError(t, err)
	assert.True(t, claimed.IsAssignedTo(nannyA.ID))
	f.assertConsistent(t, order.ID)

	rejected, err := f.svc.Reject(ctx, order.ID, f.parent)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, rejected.Status)
	assert.True(t, rejected.IsAssignedTo(nannyA.ID))
	f.assertConsistent(t, order.ID)
	assert.Len(t, f.notifier.to(nannyA.ID), 1)

	_, err = f.svc.Claim(ctx, order.ID, nannyB)
	assert.ErrorIs(t, err, domain.ErrOrderTaken)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, stored.Status)
	assert.True(t, stored.IsAssignedTo(nannyA.ID))
}

func TestFullLifecycle_PaymentAndReviewNudge(t *testing.T) {
	f := newFixture()
	order := f.mustCreate(t)
	nanny := f.addNanny(domain.ProfileVerified, 500)
	ctx := context.Background()

	_, err := f.svc.Claim(ctx, order.ID, nanny)
	require.NoError(t, err)

	confirmed, err := f.svc.Confirm(ctx, order.ID, f.parent)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, confirmed.Status)
	f.assertConsistent(t, order.ID)

	completed, err := f.svc.Complete(ctx, order.ID, nanny)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	f.assertConsistent(t, order.ID)

	require.Len(t, f.payments.requests, 1)
	assert.Equal(t, int64(500*4*100), f.payments.requests[0].Amount)
	assert.Equal(t, order.ID, f.payments.requests[0].Reference)

	require.True(t, f.scheduler.has(reviewKey(order.ID)))
	assert.Equal(t, DefaultReviewDelay, f.scheduler.delay[reviewKey(order.ID)])
	before := len(f.notifier.to(f.parent.ID))
	f.scheduler.fire(ctx, reviewKey(order.ID))
	after := f.notifier.to(f.parent.ID)
	require.Len(t, after, before+1)
	assert.Equal(t, texts.RatingKeyboard(order.ID), after[len(after)-1].Keyboard)

	assert.Equal(t, []domain.OrderEventType{
		domain.OrderEventCreated,
		domain.OrderEventClaimed,
		domain.OrderEventConfirmed,
		domain.OrderEventCompleted,
	}, f.events.events)
}

func TestOwnershipChecks(t *testing.T) {
	f := newFixture()
	order := f.mustCreate(t)
	nanny := f.addNanny(domain.ProfileVerified, 500)
	other := f.addNanny(domain.ProfileVerified, 500)
	stranger := &domain.User{ID: uuid.New(), Role: domain.RoleParent}
	ctx := context.Background()

	_, err := f.svc.Claim(ctx, order.ID, nanny)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, order.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Reject(ctx, order.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Complete(ctx, order.ID, other)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, stored.Status)
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture()
	order := f.mustCreate(t)
	nanny := f.addNanny(domain.ProfileVerified, 500)
	ctx := context.Background()

	// у заказа в PENDING нет назначенной няни
	_, err := f.svc.Complete(ctx, order.ID, nanny)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Cancel(ctx, order.ID, f.parent)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Claim(ctx, order.ID, nanny)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, order.ID, f.parent)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, order.ID, f.parent)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	cancelled, err := f.svc.Cancel(ctx, order.ID, f.parent)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)

	_, err = f.svc.Complete(ctx, order.ID, nanny)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.Confirm(ctx, order.ID, f.parent)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.assertConsistent(t, order.ID)
}

func TestTimeout_OnlyNotifiesWhilePending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	stale := f.mustCreate(t)
	f.scheduler.fire(ctx, noResponseKey(stale.ID))
	notices := f.notifier.to(f.parent.ID)
	require.Len(t, notices, 1)
	assert.Equal(t, texts.OrderNoResponse(stale), notices[0].Text)

	stored, err := f.orders.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, stored.Status)

	claimed := f.mustCreate(t)
	nanny := f.addNanny(domain.ProfileVerified, 500)
	_, err = f.svc.Claim(ctx, claimed.ID, nanny)
	require.NoError(t, err)

	// задача уже отменена, прямой вызов тоже ничего не отправляет
	f.svc.Timeout(ctx, claimed.ID)
	notices = f.notifier.to(f.parent.ID)
	assert.Len(t, notices, 2)
}

func TestListForUser(t *testing.T) {
	f := newFixture()
	order := f.mustCreate(t)
	nanny := f.addNanny(domain.ProfileVerified, 500)
	ctx := context.Background()

	_, err := f.svc.Claim(ctx, order.ID, nanny)
	require.NoError(t, err)

	list, err := f.svc.ListForUser(ctx, f.parent)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.ListForUser(ctx, nanny)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListForUser(ctx, &domain.User{Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}
