package fsm

import (
	"context"
	"fmt"
	"sync"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

type stateStoreFake struct {
	mu     sync.Mutex
	states map[string]string
	writes int
}

func newStateStoreFake() *stateStoreFake {
	return &stateStoreFake{states: make(map[string]string)}
}

func stateKey(userID uuid.UUID, role domain.Role) string {
	return fmt.Sprintf("%s/%s", userID, role)
}

func (f *stateStoreFake) Get(_ context.Context, userID uuid.UUID, role domain.Role) (*domain.ConversationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.ParseState(f.states[stateKey(userID, role)])
}

func (f *stateStoreFake) Set(_ context.Context, userID uuid.UUID, role domain.Role, state *domain.ConversationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.states[stateKey(userID, role)] = state.String()
	return nil
}

func (f *stateStoreFake) raw(userID uuid.UUID, role domain.Role) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[stateKey(userID, role)]
}

type draftStoreFake struct {
	drafts map[int64]domain.OrderDraft
}

func newDraftStoreFake() *draftStoreFake {
	return &draftStoreFake{drafts: make(map[int64]domain.OrderDraft)}
}

func (f *draftStoreFake) Get(_ context.Context, chatID int64) (*domain.OrderDraft, error) {
	d := f.drafts[chatID]
	return &d, nil
}

func (f *draftStoreFake) Save(_ context.Context, chatID int64, draft *domain.OrderDraft) error {
	f.drafts[chatID] = *draft
	return nil
}

func (f *draftStoreFake) Delete(_ context.Context, chatID int64) error {
	delete(f.drafts, chatID)
	return nil
}

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard map[string]interface{}
}

type senderFake struct {
	sent []sentMessage
}

func (s *senderFake) SendMessage(_ context.Context, _ domain.BotId, chatID int64, text string) error {
	s.sent = append(s.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (s *senderFake) SendMessageWithKeyboard(_ context.Context, _ domain.BotId, chatID int64, text string, keyboard map[string]interface{}) error {
	s.sent = append(s.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

func (s *senderFake) last() string {
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].Text
}
