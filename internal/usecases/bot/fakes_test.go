package bot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/inmemory"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	draftRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/draft"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/moderation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type usersFake struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.User
}

func (u *usersFake) Create(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.TelegramUserID == user.TelegramUserID {
			return domain.ErrRoleAlreadySet
		}
	}
	stored := *user
	u.byID[user.ID] = &stored
	return nil
}

func (u *usersFake) GetByTelegramID(_ context.Context, tgID int64) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.TelegramUserID == tgID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (u *usersFake) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (u *usersFake) update(id uuid.UUID, fn func(*domain.User)) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(user)
	return nil
}

func (u *usersFake) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	return u.update(id, func(user *domain.User) { user.Name = &name })
}

func (u *usersFake) UpdateConsent(_ context.Context, id uuid.UUID, consent bool) error {
	return u.update(id, func(user *domain.User) { user.Consent = consent })
}

func (u *usersFake) UpdatePhone(_ context.Context, id uuid.UUID, phone string) error {
	return u.update(id, func(user *domain.User) { user.Phone = &phone })
}

func (u *usersFake) ListVerifiedNannies(context.Context) ([]*domain.User, error) { return nil, nil }

func (u *usersFake) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return fn(ctx, nil)
}

func (u *usersFake) CreateTx(ctx context.Context, _ persistence.Transaction, user *domain.User) error {
	return u.Create(ctx, user)
}

func (u *usersFake) UpdateRatingTx(context.Context, persistence.Transaction, uuid.UUID, domain.RatingStats) error {
	return nil
}

type childrenFake struct {
	byID map[uuid.UUID]*domain.Child
}

func (c *childrenFake) Create(_ context.Context, child *domain.Child) error {
	stored := *child
	c.byID[child.ID] = &stored
	return nil
}

func (c *childrenFake) GetByID(_ context.Context, id uuid.UUID) (*domain.Child, error) {
	child, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *child
	return &copied, nil
}

func (c *childrenFake) Update(_ context.Context, child *domain.Child) error {
	stored := *child
	c.byID[child.ID] = &stored
	return nil
}

func (c *childrenFake) ListByParent(_ context.Context, parentID uuid.UUID) ([]*domain.Child, error) {
	var res []*domain.Child
	for _, child := range c.byID {
		if child.ParentID == parentID {
			res = append(res, child)
		}
	}
	return res, nil
}

type stateKey struct {
	userID uuid.UUID
	role   domain.Role
}

// statesFake хранит состояние строкой, как колонки parent_state / nanny_state
type statesFake struct {
	raw map[stateKey]string
}

func (s *statesFake) Get(_ context.Context, userID uuid.UUID, role domain.Role) (*domain.ConversationState, error) {
	if role == domain.RoleAdmin {
		return nil, domain.ErrInvalidRole
	}
	state, err := domain.ParseState(s.raw[stateKey{userID, role}])
	if err != nil {
		return nil, nil
	}
	return state, nil
}

func (s *statesFake) Set(_ context.Context, userID uuid.UUID, role domain.Role, state *domain.ConversationState) error {
	if role == domain.RoleAdmin {
		return domain.ErrInvalidRole
	}
	s.raw[stateKey{userID, role}] = state.String()
	return nil
}

type profilesFake struct {
	byUser map[uuid.UUID]domain.Profile
}

func (p *profilesFake) Create(_ context.Context, profile *domain.Profile) error {
	p.byUser[profile.UserID] = *profile
	return nil
}

func (p *profilesFake) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, ok := p.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &profile, nil
}

func (p *profilesFake) Update(_ context.Context, profile *domain.Profile, from domain.ProfileStatus) (bool, error) {
	current, ok := p.byUser[profile.UserID]
	if !ok || current.Status != from {
		return false, nil
	}
	p.byUser[profile.UserID] = *profile
	return true, nil
}

func (p *profilesFake) UpdateStatus(_ context.Context, userID uuid.UUID, from, to domain.ProfileStatus, reason *string) (bool, error) {
	profile, ok := p.byUser[userID]
	if !ok || profile.Status != from {
		return false, nil
	}
	profile.Status = to
	profile.RejectionReason = reason
	profile.ShowGreeting = to == domain.ProfileVerified
	p.byUser[userID] = profile
	return true, nil
}

func (p *profilesFake) ConsumeGreeting(_ context.Context, userID uuid.UUID) (bool, error) {
	profile, ok := p.byUser[userID]
	if !ok || !profile.ShowGreeting {
		return false, nil
	}
	profile.ShowGreeting = false
	p.byUser[userID] = profile
	return true, nil
}

func (p *profilesFake) ListByStatus(context.Context, domain.ProfileStatus) ([]*domain.PendingProfile, error) {
	return nil, nil
}

func (p *profilesFake) CreateTx(ctx context.Context, _ persistence.Transaction, profile *domain.Profile) error {
	return p.Create(ctx, profile)
}

func (p *profilesFake) UpdateRatingTx(context.Context, persistence.Transaction, uuid.UUID, domain.RatingStats) error {
	return nil
}

type ordersFake struct {
	created []*domain.Order
	claims  map[uuid.UUID]uuid.UUID
}

func (o *ordersFake) Create(_ context.Context, parent *domain.User, draft *domain.OrderDraft) (*domain.Order, error) {
	order, err := draft.ToOrder(parent.ID)
	if err != nil {
		return nil, err
	}
	order.ID = uuid.New()
	o.created = append(o.created, order)
	return order, nil
}

func (o *ordersFake) Claim(_ context.Context, orderID uuid.UUID, nanny *domain.User) (*domain.Order, error) {
	if _, taken := o.claims[orderID]; taken {
		return nil, domain.ErrOrderTaken
	}
	o.claims[orderID] = nanny.ID
	return &domain.Order{ID: orderID, NannyID: &nanny.ID, Status: domain.OrderAccepted}, nil
}

func (o *ordersFake) Confirm(context.Context, uuid.UUID, *domain.User) (*domain.Order, error) {
	return nil, domain.ErrInvalidTransition
}

func (o *ordersFake) Reject(context.Context, uuid.UUID, *domain.User) (*domain.Order, error) {
	return nil, domain.ErrInvalidTransition
}

func (o *ordersFake) Complete(context.Context, uuid.UUID, *domain.User) (*domain.Order, error) {
	return nil, domain.ErrForbidden
}

func (o *ordersFake) Cancel(context.Context, uuid.UUID, *domain.User) (*domain.Order, error) {
	return nil, domain.ErrInvalidTransition
}

func (o *ordersFake) Get(context.Context, uuid.UUID) (*domain.Order, error) {
	return nil, domain.ErrNotFound
}

func (o *ordersFake) ListForUser(context.Context, *domain.User) ([]*domain.Order, error) {
	return o.created, nil
}

type reviewsFake struct {
	byOrder  map[uuid.UUID]*domain.Review
	comments map[uuid.UUID]string
}

func (r *reviewsFake) Create(_ context.Context, parent *domain.User, orderID uuid.UUID, rating int) (*domain.Review, error) {
	if _, ok := r.byOrder[orderID]; ok {
		return nil, domain.ErrReviewExists
	}
	review := &domain.Review{ID: uuid.New(), OrderID: orderID, ParentID: parent.ID, Rating: rating}
	r.byOrder[orderID] = review
	return review, nil
}

func (r *reviewsFake) AddComment(_ context.Context, _ *domain.User, reviewID uuid.UUID, comment string) error {
	r.comments[reviewID] = comment
	return nil
}

type outgoing struct {
	ChatID   int64
	Text     string
	Keyboard map[string]interface{}
}

type telegramFake struct {
	messages []outgoing
	answers  []string
	edits    []int64
	files    map[string][]byte
}

func (t *telegramFake) SendMessage(_ context.Context, _ domain.BotId, chatID int64, text string) error {
	t.messages = append(t.messages, outgoing{ChatID: chatID, Text: text})
	return nil
}

func (t *telegramFake) SendMessageWithKeyboard(_ context.Context, _ domain.BotId, chatID int64, text string, keyboard map[string]interface{}) error {
	t.messages = append(t.messages, outgoing{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

func (t *telegramFake) EditMessageReplyMarkup(_ context.Context, _ domain.BotId, _ int64, messageID int64, _ map[string]interface{}) error {
	t.edits = append(t.edits, messageID)
	return nil
}

func (t *telegramFake) AnswerCallbackQuery(_ context.Context, _ domain.BotId, _ string, text string, _ bool) error {
	t.answers = append(t.answers, text)
	return nil
}

func (t *telegramFake) DownloadFile(_ context.Context, _ domain.BotId, fileID string) ([]byte, error) {
	return t.files[fileID], nil
}

func (t *telegramFake) last() outgoing {
	if len(t.messages) == 0 {
		return outgoing{}
	}
	return t.messages[len(t.messages)-1]
}

func (t *telegramFake) sent() []string {
	res := make([]string, 0, len(t.messages))
	for _, m := range t.messages {
		res = append(res, m.Text)
	}
	return res
}

type s3Fake struct {
	objects map[string][]byte
}

func (s *s3Fake) PutFile(_ context.Context, path string, data []byte, _ string) error {
	s.objects[path] = data
	return nil
}

func (s *s3Fake) GetPresignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://s3.local/" + path, nil
}

type fixture struct {
	svc      *Service
	users    *usersFake
	children *childrenFake
	states   *statesFake
	profiles *profilesFake
	orders   *ordersFake
	reviews  *reviewsFake
	tg       *telegramFake
	s3       *s3Fake
}

const botID domain.BotId = "nanny"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		users:    &usersFake{byID: make(map[uuid.UUID]*domain.User)},
		children: &childrenFake{byID: make(map[uuid.UUID]*domain.Child)},
		states:   &statesFake{raw: make(map[stateKey]string)},
		profiles: &profilesFake{byUser: make(map[uuid.UUID]domain.Profile)},
		orders:   &ordersFake{claims: make(map[uuid.UUID]uuid.UUID)},
		reviews:  &reviewsFake{byOrder: make(map[uuid.UUID]*domain.Review), comments: make(map[uuid.UUID]string)},
		tg:       &telegramFake{files: map[string][]byte{"photo-1": []byte("jpeg")}},
		s3:       &s3Fake{objects: make(map[string][]byte)},
	}

	drafts := draftRepo.New(inmemory.NewCache(), 0, log)
	mod := moderation.New(f.profiles, f.users, nil, nil, log)

	svc, err := New(f.users, f.children, f.states, drafts, f.orders, f.reviews, mod, f.tg, f.s3, log)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

// tgUser пользователь Telegram; chat_id личного чата совпадает с id
func tgUser(id int64) *domain.TelegramUser {
	return &domain.TelegramUser{ID: id, FirstName: "test"}
}

func (f *fixture) text(t *testing.T, from int64, text string) {
	t.Helper()
	require.NoError(t, f.svc.HandleText(context.Background(), botID, tgUser(from), from, text))
}

func (f *fixture) command(t *testing.T, from int64, command string) {
	t.Helper()
	require.NoError(t, f.svc.HandleCommand(context.Background(), botID, tgUser(from), from, command))
}

func (f *fixture) press(t *testing.T, from int64, data string) error {
	t.Helper()
	query := &domain.CallbackQuery{
		ID:   uuid.NewString(),
		From: tgUser(from),
		Data: &data,
		Message: &domain.Message{
			MessageID: 42,
			Chat:      &domain.Chat{ID: from, Type: "private"},
		},
	}
	return f.svc.HandleCallback(context.Background(), botID, query)
}

func (f *fixture) user(t *testing.T, tgID int64) *domain.User {
	t.Helper()
	user, err := f.users.GetByTelegramID(context.Background(), tgID)
	require.NoError(t, err)
	return user
}

func (f *fixture) state(t *testing.T, tgID int64) string {
	t.Helper()
	user := f.user(t, tgID)
	return f.states.raw[stateKey{user.ID, user.Role}]
}
