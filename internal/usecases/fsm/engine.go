package fsm

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/google/uuid"
)

// TurnResult чем закончился ход
type TurnResult int

const (
	// Prompted задан (или повторён) вопрос шага
	Prompted TurnResult = iota
	// Finished мастер завершён, показано меню после мастера
	Finished
	// Exited состояния нет, мастер не нужен (вернувшийся пользователь)
	Exited
	// Reset состояние было битым или мастер закончился без FINISH, показано меню по умолчанию
	Reset
)

func (r TurnResult) String() string {
	switch r {
	case Prompted:
		return "prompted"
	case Finished:
		return "finished"
	case Exited:
		return "exited"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("turn_result(%d)", int(r))
	}
}

// Sender отправка вопросов в чат
type Sender interface {
	SendMessage(ctx context.Context, botID domain.BotId, chatID int64, text string) error
	SendMessageWithKeyboard(ctx context.Context, botID domain.BotId, chatID int64, text string, keyboard map[string]interface{}) error
}

// Engine ведёт пользователя по таблицам шагов.
// Состояние читается один раз в начале хода и записывается при каждом переходе.
type Engine struct {
	states  repository.IStateRepo
	drafts  repository.IDraftStore
	sender  Sender
	wizards map[domain.Role][]*Wizard
	Log     *slog.Logger
}

func NewEngine(states repository.IStateRepo, drafts repository.IDraftStore, sender Sender, log *slog.Logger) *Engine {
	return &Engine{
		states:  states,
		drafts:  drafts,
		sender:  sender,
		wizards: make(map[domain.Role][]*Wizard),
		Log:     log,
	}
}

// Register добавляет мастер. Ключи шагов должны быть уникальны в пределах роли.
func (e *Engine) Register(w *Wizard) error {
	for _, other := range e.wizards[w.Role] {
		for _, s := range w.Steps {
			if _, dup := other.step(s.Key); dup != nil {
				return fmt.Errorf("step %s of wizard %s already registered by %s", s.Key, w.Name, other.Name)
			}
		}
		if w.Entry && other.Entry {
			return fmt.Errorf("role %s already has entry wizard %s", w.Role, other.Name)
		}
	}
	e.wizards[w.Role] = append(e.wizards[w.Role], w)
	return nil
}

func (e *Engine) entry(role domain.Role) *Wizard {
	for _, w := range e.wizards[role] {
		if w.Entry {
			return w
		}
	}
	return nil
}

func (e *Engine) lookup(role domain.Role, key domain.Step) (*Wizard, int, *Step) {
	for _, w := range e.wizards[role] {
		if i, s := w.step(key); s != nil {
			return w, i, s
		}
	}
	return nil, -1, nil
}

// State текущее состояние роли
func (e *Engine) State(ctx context.Context, turn *Turn) (*domain.ConversationState, error) {
	return e.states.Get(ctx, turn.User.ID, turn.Role)
}

// Active идёт ли у пользователя какой-то мастер
func (e *Engine) Active(ctx context.Context, turn *Turn) (bool, error) {
	state, err := e.State(ctx, turn)
	if err != nil {
		return false, err
	}
	return state != nil, nil
}

// Clear сбрасывает состояние роли
func (e *Engine) Clear(ctx context.Context, turn *Turn) error {
	return e.states.Set(ctx, turn.User.ID, turn.Role, nil)
}

// Handle один входящий ход
func (e *Engine) Handle(ctx context.Context, turn *Turn, in Input) (TurnResult, error) {
	state, err := e.State(ctx, turn)
	if err != nil {
		return Prompted, fmt.Errorf("failed to load conversation state: %w", err)
	}

	if state == nil {
		entry := e.entry(turn.Role)
		if entry == nil {
			return Exited, nil
		}
		if entry.IsDone != nil {
			done, err := entry.IsDone(ctx, turn)
			if err != nil {
				return Prompted, err
			}
			if done {
				return Exited, nil
			}
		}
		return e.begin(ctx, entry, turn, entry.first(), nil)
	}

	turn.LinkedID = state.LinkedID

	if state.Step == domain.StepFinish {
		return e.finish(ctx, e.entry(turn.Role), turn)
	}

	wizard, idx, step := e.lookup(turn.Role, state.Step)
	if step == nil {
		e.Log.Warn("unknown conversation step, resetting",
			"user_id", turn.User.ID,
			"role", turn.Role,
			"step", state.Step)
		return e.reset(ctx, e.entry(turn.Role), turn)
	}

	if in.Empty() || (in.Skip && !step.Skippable) {
		return Prompted, e.prompt(ctx, wizard, turn, step)
	}

	if wizard.UsesDraft {
		if turn.Draft, err = e.drafts.Get(ctx, turn.ChatID); err != nil {
			return Prompted, err
		}
	}

	res, err := step.Handle(ctx, turn, in)
	if err != nil {
		return Prompted, fmt.Errorf("step %s: %w", step.Key, err)
	}

	switch res.Outcome {
	case Retry:
		if res.Hint != "" {
			if err := e.sender.SendMessage(ctx, turn.BotID, turn.ChatID, res.Hint); err != nil {
				return Prompted, err
			}
		}
		return Prompted, e.prompt(ctx, wizard, turn, step)

	case Finish:
		if err := e.states.Set(ctx, turn.User.ID, turn.Role, domain.NewState(domain.StepFinish, nil)); err != nil {
			return Prompted, err
		}
		return e.finish(ctx, wizard, turn)
	}

	if wizard.UsesDraft {
		if err := e.drafts.Save(ctx, turn.ChatID, turn.Draft); err != nil {
			return Prompted, err
		}
	}

	linked := turn.LinkedID
	if res.LinkedID != nil {
		linked = res.LinkedID
	}

	var next *Step
	if res.Next != "" {
		if res.Next == domain.StepFinish {
			if err := e.states.Set(ctx, turn.User.ID, turn.Role, domain.NewState(domain.StepFinish, nil)); err != nil {
				return Prompted, err
			}
			return e.finish(ctx, wizard, turn)
		}
		if _, next = wizard.step(res.Next); next == nil {
			return Prompted, fmt.Errorf("step %s: jump to unknown step %s", step.Key, res.Next)
		}
	} else if idx+1 < len(wizard.Steps) {
		next = &wizard.Steps[idx+1]
	}

	if next == nil {
		e.Log.Debug("wizard ran past last step", "wizard", wizard.Name, "user_id", turn.User.ID)
		return e.reset(ctx, wizard, turn)
	}

	return e.begin(ctx, wizard, turn, next, linked)
}

// Start запускает мастер с первого шага (кнопка "добавить ребёнка", "создать заказ")
func (e *Engine) Start(ctx context.Context, turn *Turn, w *Wizard) error {
	_, err := e.begin(ctx, w, turn, w.first(), nil)
	return err
}

// StartAt ставит мастер на конкретный шаг с привязанной сущностью
func (e *Engine) StartAt(ctx context.Context, turn *Turn, w *Wizard, key domain.Step, linked *uuid.UUID) error {
	_, step := w.step(key)
	if step == nil {
		return fmt.Errorf("wizard %s has no step %s", w.Name, key)
	}
	_, err := e.begin(ctx, w, turn, step, linked)
	return err
}

func (e *Engine) begin(ctx context.Context, w *Wizard, turn *Turn, step *Step, linked *uuid.UUID) (TurnResult, error) {
	if step == nil {
		return Exited, fmt.Errorf("wizard %s has no steps", w.Name)
	}
	if err := e.states.Set(ctx, turn.User.ID, turn.Role, domain.NewState(step.Key, linked)); err != nil {
		return Prompted, err
	}
	turn.LinkedID = linked
	return Prompted, e.prompt(ctx, w, turn, step)
}

func (e *Engine) finish(ctx context.Context, w *Wizard, turn *Turn) (TurnResult, error) {
	if err := e.Clear(ctx, turn); err != nil {
		return Finished, err
	}
	if w != nil && w.OnFinish != nil {
		return Finished, w.OnFinish(ctx, turn)
	}
	return Finished, nil
}

func (e *Engine) reset(ctx context.Context, w *Wizard, turn *Turn) (TurnResult, error) {
	if err := e.Clear(ctx, turn); err != nil {
		return Reset, err
	}
	if w != nil && w.Fallback != nil {
		return Reset, w.Fallback(ctx, turn)
	}
	return Reset, nil
}

func (e *Engine) prompt(ctx context.Context, w *Wizard, turn *Turn, step *Step) error {
	text, keyboard := step.Prompt, step.Keyboard
	if step.Render != nil {
		if w.UsesDraft && turn.Draft == nil {
			draft, err := e.drafts.Get(ctx, turn.ChatID)
			if err != nil {
				return err
			}
			turn.Draft = draft
		}
		var err error
		if text, keyboard, err = step.Render(ctx, turn); err != nil {
			return fmt.Errorf("failed to render step %s: %w", step.Key, err)
		}
	}

	if keyboard != nil {
		return e.sender.SendMessageWithKeyboard(ctx, turn.BotID, turn.ChatID, text, keyboard)
	}
	return e.sender.SendMessage(ctx, turn.BotID, turn.ChatID, text)
}
