package fsm

import (
	"context"
	"strings"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// Outcome решение обработчика шага
type Outcome int

const (
	// Advance поле сохранено, переходим к следующему шагу
	Advance Outcome = iota
	// Retry ввод не принят, повторяем вопрос без перехода
	Retry
	// Finish мастер завершён, состояние сбрасывается через FINISH
	Finish
)

// Input входящее событие для шага мастера
type Input struct {
	Text        string
	Skip        bool
	Contact     *domain.Contact
	PhotoFileID string
}

// Empty во входе нет ничего, что можно применить к шагу
func (in Input) Empty() bool {
	return !in.Skip && strings.TrimSpace(in.Text) == "" && in.Contact == nil && in.PhotoFileID == ""
}

// Turn один ход диалога конкретного пользователя в конкретной роли
type Turn struct {
	BotID  domain.BotId
	ChatID int64
	User   *domain.User
	Role   domain.Role

	// LinkedID сущность подпотока из состояния (ребёнок, отзыв)
	LinkedID *uuid.UUID
	// Draft черновик заказа, загружается только для мастеров с UsesDraft
	Draft *domain.OrderDraft
}

// Result результат обработчика шага
type Result struct {
	Outcome Outcome
	// Hint сообщение перед повтором вопроса (Retry)
	Hint string
	// LinkedID привязать подпоток к сущности; nil - оставить текущую
	LinkedID *uuid.UUID
	// Next явный следующий шаг; пусто - следующий по списку
	Next domain.Step
}

func Next() Result { return Result{Outcome: Advance} }

func NextLinked(id uuid.UUID) Result { return Result{Outcome: Advance, LinkedID: &id} }

func Jump(step domain.Step) Result { return Result{Outcome: Advance, Next: step} }

func Again(hint string) Result { return Result{Outcome: Retry, Hint: hint} }

func Done() Result { return Result{Outcome: Finish} }

// Handler обработчик поля шага
type Handler func(ctx context.Context, turn *Turn, in Input) (Result, error)

// Renderer динамический вопрос (например, сводка заказа)
type Renderer func(ctx context.Context, turn *Turn) (string, map[string]interface{}, error)

// Step шаг мастера. Keyboard для движка непрозрачна.
type Step struct {
	Key       domain.Step
	Prompt    string
	Field     string
	Keyboard  map[string]interface{}
	Skippable bool
	Render    Renderer
	Handle    Handler
}

// Wizard статическая упорядоченная таблица шагов
type Wizard struct {
	Name  string
	Role  domain.Role
	Steps []Step
	// Entry мастер, с которого начинается роль при пустом состоянии
	Entry bool
	// UsesDraft поля пишутся в черновик, а не в БД
	UsesDraft bool

	// IsDone конечное поле уже заполнено: вернувшийся пользователь, мастер не запускается
	IsDone func(ctx context.Context, turn *Turn) (bool, error)
	// OnFinish меню после завершения
	OnFinish func(ctx context.Context, turn *Turn) error
	// Fallback меню по умолчанию: неизвестный шаг или выход за последний шаг
	Fallback func(ctx context.Context, turn *Turn) error
}

func (w *Wizard) step(key domain.Step) (int, *Step) {
	for i := range w.Steps {
		if w.Steps[i].Key == key {
			return i, &w.Steps[i]
		}
	}
	return -1, nil
}

func (w *Wizard) first() *Step {
	if len(w.Steps) == 0 {
		return nil
	}
	return &w.Steps[0]
}
