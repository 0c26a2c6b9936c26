package bot

import (
	"context"
	"errors"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/fsm"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
	"github.com/google/uuid"
)

// callback контекст нажатия кнопки
type callback struct {
	botID     domain.BotId
	queryID   string
	chatID    int64
	messageID int64
	user      *domain.User
	data      texts.Callback
}

// HandleCallback нажатие inline-кнопки. На каждый callback отвечаем, чтобы у пользователя пропали "часики".
func (s *Service) HandleCallback(ctx context.Context, botID domain.BotId, query *domain.CallbackQuery) error {
	if query.Data == nil {
		return s.answer(ctx, botID, query.ID, "", false)
	}

	cb := &callback{
		botID:   botID,
		queryID: query.ID,
		chatID:  query.From.ID,
		data:    texts.ParseCallback(*query.Data),
	}
	if query.Message != nil {
		cb.messageID = query.Message.MessageID
		if query.Message.Chat != nil {
			cb.chatID = query.Message.Chat.ID
		}
	}

	user, err := s.resolveUser(ctx, query.From)
	if err != nil {
		return s.failCallback(ctx, cb, err)
	}

	if cb.data.Action == texts.ActionRole {
		return s.handleRoleChoice(ctx, cb, query.From, user)
	}
	if user == nil {
		if err := s.answer(ctx, botID, query.ID, "", false); err != nil {
			return err
		}
		return s.sendMessageWithKeyboard(ctx, botID, cb.chatID, texts.ChooseRole, texts.RoleKeyboard())
	}
	cb.user = user
	s.greet(ctx, botID, cb.chatID, user)

	s.Log.Debug("callback received",
		"user_id", user.ID,
		"action", cb.data.Action,
		"chat_id", cb.chatID)

	switch cb.data.Action {
	case texts.ActionConsent, texts.ActionMedical:
		return s.feedCallback(ctx, cb, fsm.Input{Text: cb.data.Arg(0)})
	case texts.ActionSkip:
		return s.feedCallback(ctx, cb, fsm.Input{Skip: true})
	case texts.ActionOrderConfirm, texts.ActionOrderEdit:
		return s.feedCallback(ctx, cb, fsm.Input{Text: cb.data.Action})
	case texts.ActionAddChild:
		return s.startWizard(ctx, cb, domain.RoleParent, s.child)
	case texts.ActionNewOrder:
		return s.handleNewOrder(ctx, cb)
	case texts.ActionEditProfile:
		return s.startWizard(ctx, cb, domain.RoleNanny, s.nanny)
	case texts.ActionLater:
		if err := s.answer(ctx, botID, cb.queryID, "", false); err != nil {
			return err
		}
		return s.HandleStart(ctx, botID, cb.chatID, user)
	case texts.ActionMyOrders:
		if err := s.answer(ctx, botID, cb.queryID, "", false); err != nil {
			return err
		}
		return s.HandleMyOrders(ctx, botID, cb.chatID, user)
	case texts.ActionClaim:
		return s.handleClaim(ctx, cb)
	case texts.ActionConfirm, texts.ActionReject, texts.ActionCancel, texts.ActionComplete:
		return s.handleOrderAction(ctx, cb)
	case texts.ActionRate:
		return s.handleRate(ctx, cb)
	default:
		s.Log.Warn("unknown callback action", "action", cb.data.Action, "user_id", user.ID)
		return s.answer(ctx, botID, cb.queryID, texts.ActionNotAllowed, false)
	}
}

// handleRoleChoice создаёт пользователя с выбранной ролью и запускает стартовый мастер роли.
// Роль выбирается один раз.
func (s *Service) handleRoleChoice(ctx context.Context, cb *callback, from *domain.TelegramUser, existing *domain.User) error {
	if existing != nil {
		if err := s.answer(ctx, cb.botID, cb.queryID, texts.ActionNotAllowed, false); err != nil {
			return err
		}
		return s.HandleStart(ctx, cb.botID, cb.chatID, existing)
	}

	role, err := domain.ParseRole(cb.data.Arg(0))
	if err != nil || role == domain.RoleAdmin {
		s.Log.Warn("bad role in callback", "data", cb.data.Arg(0), "tg_id", from.ID)
		return s.answer(ctx, cb.botID, cb.queryID, texts.ActionNotAllowed, false)
	}

	now := s.now()
	user := &domain.User{
		ID:             uuid.New(),
		TelegramUserID: from.ID,
		TelegramChatID: cb.chatID,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return s.failCallback(ctx, cb, err)
	}
	s.Log.Info("user registered", "user_id", user.ID, "role", role)

	if err := s.answer(ctx, cb.botID, cb.queryID, "", false); err != nil {
		return err
	}
	s.removeKeyboard(ctx, cb)
	return s.HandleStart(ctx, cb.botID, cb.chatID, user)
}

func (s *Service) feedCallback(ctx context.Context, cb *callback, in fsm.Input) error {
	if err := s.answer(ctx, cb.botID, cb.queryID, "", false); err != nil {
		return err
	}
	s.removeKeyboard(ctx, cb)
	return s.feed(ctx, cb.botID, cb.chatID, cb.user, in)
}

func (s *Service) startWizard(ctx context.Context, cb *callback, role domain.Role, w *fsm.Wizard) error {
	if cb.user.Role != role {
		return s.answer(ctx, cb.botID, cb.queryID, texts.ActionNotAllowed, false)
	}
	if err := s.answer(ctx, cb.botID, cb.queryID, "", false); err != nil {
		return err
	}
	if err := s.Engine.Start(ctx, s.turn(cb.botID, cb.chatID, cb.user), w); err != nil {
		return s.replyError(ctx, cb.botID, cb.chatID, err)
	}
	return nil
}

// handleNewOrder новый заказ начинается с чистого черновика
func (s *Service) handleNewOrder(ctx context.Context, cb *callback) error {
	if cb.user.Role != domain.RoleParent || !cb.user.Consent {
		return s.answer(ctx, cb.botID, cb.queryID, texts.ActionNotAllowed, false)
	}
	if err := s.Drafts.Delete(ctx, cb.chatID); err != nil {
		s.Log.Warn("failed to reset order draft", "error", err, "chat_id", cb.chatID)
	}
	return s.startWizard(ctx, cb, domain.RoleParent, s.order)
}

// handleClaim отклик няни. Победителю убираем кнопку, остальным - "уже занят".
func (s *Service) handleClaim(ctx context.Context, cb *callback) error {
	orderID, err := cb.data.OrderID()
	if err != nil {
		return s.answer(ctx, cb.botID, cb.queryID, texts.OrderNotFound, false)
	}

	_, err = s.Orders.Claim(ctx, orderID, cb.user)
	if errors.Is(err, domain.ErrOrderTaken) {
		s.removeKeyboard(ctx, cb)
		return s.answer(ctx, cb.botID, cb.queryID, texts.OrderTaken, true)
	}
	if err != nil {
		return s.failCallback(ctx, cb, err)
	}

	s.removeKeyboard(ctx, cb)
	return s.answer(ctx, cb.botID, cb.queryID, texts.OrderClaimedSelf, true)
}

// handleOrderAction решения по заказу: подтвердить, отклонить, отменить, завершить
func (s *Service) handleOrderAction(ctx context.Context, cb *callback) error {
	orderID, err := cb.data.OrderID()
	if err != nil {
		return s.answer(ctx, cb.botID, cb.queryID, texts.OrderNotFound, false)
	}

	var reply string
	switch cb.data.Action {
	case texts.ActionConfirm:
		_, err = s.Orders.Confirm(ctx, orderID, cb.user)
	case texts.ActionReject:
		_, err = s.Orders.Reject(ctx, orderID, cb.user)
		reply = texts.OrderRejectedForParent()
	case texts.ActionCancel:
		_, err = s.Orders.Cancel(ctx, orderID, cb.user)
		reply = texts.Cancelled
	case texts.ActionComplete:
		_, err = s.Orders.Complete(ctx, orderID, cb.user)
		reply = texts.OrderCompletedForNanny()
	}
	if err != nil {
		return s.failCallback(ctx, cb, err)
	}

	if err := s.answer(ctx, cb.botID, cb.queryID, "", false); err != nil {
		return err
	}
	s.removeKeyboard(ctx, cb)
	if reply == "" {
		return nil
	}
	return s.sendMessage(ctx, cb.botID, cb.chatID, reply)
}

// handleRate оценка из кнопок 1-5, затем вопрос о комментарии
func (s *Service) handleRate(ctx context.Context, cb *callback) error {
	orderID, err := cb.data.OrderID()
	if err != nil {
		return s.answer(ctx, cb.botID, cb.queryID, texts.OrderNotFound, false)
	}
	rating, err := cb.data.Rating()
	if err != nil {
		return s.answer(ctx, cb.botID, cb.queryID, texts.ActionNotAllowed, false)
	}

	review, err := s.Reviews.Create(ctx, cb.user, orderID, rating)
	if err != nil {
		return s.failCallback(ctx, cb, err)
	}

	if err := s.answer(ctx, cb.botID, cb.queryID, "", false); err != nil {
		return err
	}
	s.removeKeyboard(ctx, cb)
	err = s.Engine.StartAt(ctx, s.turn(cb.botID, cb.chatID, cb.user), s.review, domain.StepReviewAskComment, &review.ID)
	if err != nil {
		return s.replyError(ctx, cb.botID, cb.chatID, err)
	}
	return nil
}

// failCallback ответ на callback и сообщение об ошибке
func (s *Service) failCallback(ctx context.Context, cb *callback, err error) error {
	text, expected := userMessage(err)
	if expected {
		// ожидаемые ошибки показываем во всплывающем ответе
		if answerErr := s.answer(ctx, cb.botID, cb.queryID, text, true); answerErr != nil {
			return answerErr
		}
		return domain.WrapBusinessError(err)
	}
	if answerErr := s.answer(ctx, cb.botID, cb.queryID, "", false); answerErr != nil {
		s.Log.Warn("failed to answer callback", "error", answerErr)
	}
	return s.replyError(ctx, cb.botID, cb.chatID, err)
}

func (s *Service) answer(ctx context.Context, botID domain.BotId, queryID, text string, alert bool) error {
	if err := s.TelegramService.AnswerCallbackQuery(ctx, botID, queryID, text, alert); err != nil {
		s.Log.Warn("failed to answer callback", "error", err, "callback_id", queryID)
		return err
	}
	return nil
}

// removeKeyboard убирает кнопки у сообщения, на котором нажали кнопку
func (s *Service) removeKeyboard(ctx context.Context, cb *callback) {
	if cb.messageID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.TelegramService.EditMessageReplyMarkup(ctx, cb.botID, cb.chatID, cb.messageID, texts.RemoveKeyboard()); err != nil {
		s.Log.Debug("failed to remove keyboard", "error", err, "message_id", cb.messageID)
	}
}
