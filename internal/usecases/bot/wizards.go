package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/fsm"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
	"github.com/google/uuid"
)

const maxTextLen = 1000

// cleanText текст ответа без лишних пробелов; пустая строка - ответа нет
func cleanText(in fsm.Input) string {
	text := strings.TrimSpace(in.Text)
	if len([]rune(text)) > maxTextLen {
		text = string([]rune(text)[:maxTextLen])
	}
	return text
}

// parseYesNo ответ кнопкой (yes/no) или текстом
func parseYesNo(text string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "да", "д", "ага", "есть":
		return true, true
	case "no", "нет", "н", "не", "нету":
		return false, true
	default:
		return false, false
	}
}

// ---------- регистрация родителя ----------

func (s *Service) registrationWizard() *fsm.Wizard {
	return &fsm.Wizard{
		Name:  "registration",
		Role:  domain.RoleParent,
		Entry: true,
		Steps: []fsm.Step{
			{
				Key:    domain.StepAskName,
				Prompt: texts.AskName,
				Field:  "name",
				Handle: s.handleUserName,
			},
			{
				Key:      domain.StepAskConsent,
				Prompt:   texts.AskConsent,
				Field:    "consent",
				Keyboard: texts.YesNoKeyboard(texts.ActionConsent),
				Handle:   s.handleConsent,
			},
		},
		// имя есть - пользователь вернувшийся, даже если от согласия отказался
		IsDone: func(_ context.Context, turn *fsm.Turn) (bool, error) {
			return turn.User.HasName(), nil
		},
		OnFinish: func(ctx context.Context, turn *fsm.Turn) error {
			if !turn.User.Consent {
				return s.sendMessage(ctx, turn.BotID, turn.ChatID, texts.ConsentDenied)
			}
			return s.sendMessageWithKeyboard(ctx, turn.BotID, turn.ChatID, texts.RegistrationOK, texts.AfterRegistrationKeyboard())
		},
		Fallback: s.menuFallback,
	}
}

func (s *Service) handleUserName(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	name := cleanText(in)
	if name == "" {
		return fsm.Again(""), nil
	}
	if err := s.UserRepo.UpdateName(ctx, turn.User.ID, name); err != nil {
		return fsm.Result{}, err
	}
	turn.User.Name = &name
	return fsm.Next(), nil
}

func (s *Service) handleConsent(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	consent, ok := parseYesNo(in.Text)
	if !ok {
		return fsm.Again(texts.ConsentUnclear), nil
	}
	if err := s.UserRepo.UpdateConsent(ctx, turn.User.ID, consent); err != nil {
		return fsm.Result{}, err
	}
	turn.User.Consent = consent
	return fsm.Done(), nil
}

// ---------- анкета ребёнка ----------

func (s *Service) childWizard() *fsm.Wizard {
	return &fsm.Wizard{
		Name: "child",
		Role: domain.RoleParent,
		Steps: []fsm.Step{
			{
				Key:    domain.StepAskChildName,
				Prompt: texts.AskChildName,
				Field:  "name",
				Handle: s.handleChildName,
			},
			{
				Key:    domain.StepAskChildAge,
				Prompt: texts.AskChildAge,
				Field:  "age",
				Handle: s.handleChildAge,
			},
			{
				Key:       domain.StepAskChildNotes,
				Prompt:    texts.AskChildNotes,
				Field:     "notes",
				Keyboard:  texts.SkipKeyboard(),
				Skippable: true,
				Handle:    s.handleChildNotes,
			},
		},
		// после последнего шага - общее завершение подпотока
		Fallback: func(ctx context.Context, turn *fsm.Turn) error {
			return s.sendMessageWithKeyboard(ctx, turn.BotID, turn.ChatID, texts.ChildSaved, texts.ParentMenuKeyboard())
		},
	}
}

// handleChildName создаёт ребёнка и привязывает подпоток к нему
func (s *Service) handleChildName(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	name := cleanText(in)
	if name == "" {
		return fsm.Again(""), nil
	}
	child := &domain.Child{
		ID:        uuid.New(),
		ParentID:  turn.User.ID,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.ChildRepo.Create(ctx, child); err != nil {
		return fsm.Result{}, err
	}
	return fsm.NextLinked(child.ID), nil
}

func (s *Service) handleChildAge(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	age, err := strconv.Atoi(cleanText(in))
	if err != nil || age < 0 || age > domain.MaxChildAge {
		return fsm.Again(texts.BadChildAge), nil
	}
	child, err := s.linkedChild(ctx, turn)
	if err != nil {
		return fsm.Result{}, err
	}
	child.Age = &age
	return fsm.Next(), s.ChildRepo.Update(ctx, child)
}

func (s *Service) handleChildNotes(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	if in.Skip {
		return fsm.Next(), nil
	}
	notes := cleanText(in)
	if notes == "" {
		return fsm.Again(""), nil
	}
	child, err := s.linkedChild(ctx, turn)
	if err != nil {
		return fsm.Result{}, err
	}
	child.Notes = &notes
	return fsm.Next(), s.ChildRepo.Update(ctx, child)
}

func (s *Service) linkedChild(ctx context.Context, turn *fsm.Turn) (*domain.Child, error) {
	if turn.LinkedID == nil {
		return nil, fmt.Errorf("%w: child step without linked child", domain.ErrInvalidState)
	}
	child, err := s.ChildRepo.GetByID(ctx, *turn.LinkedID)
	if err != nil {
		return nil, err
	}
	if child.ParentID != turn.User.ID {
		return nil, domain.ErrForbidden
	}
	return child, nil
}

// ---------- анкета няни ----------

func (s *Service) nannyWizard() *fsm.Wizard {
	return &fsm.Wizard{
		Name:  "nanny_onboarding",
		Role:  domain.RoleNanny,
		Entry: true,
		Steps: []fsm.Step{
			{Key: domain.StepNannyAskName, Prompt: texts.NannyAskName, Field: "name", Handle: s.handleUserName},
			{Key: domain.StepNannyAskPhone, Prompt: texts.NannyAskPhone, Field: "phone", Keyboard: texts.ContactKeyboard(), Handle: s.handleNannyPhone},
			{Key: domain.StepNannyAskRate, Prompt: texts.NannyAskRate, Field: "hourly_rate", Handle: s.handleNannyRate},
			{Key: domain.StepNannyAskExperience, Prompt: texts.NannyAskExperience, Field: "experience", Handle: s.profileText(func(p *domain.Profile, v string) { p.Experience = &v })},
			{Key: domain.StepNannyAskOccupation, Prompt: texts.NannyAskOccupation, Field: "occupation", Handle: s.profileText(func(p *domain.Profile, v string) { p.Occupation = &v })},
			{Key: domain.StepNannyAskMedical, Prompt: texts.NannyAskMedical, Field: "has_medical_card", Keyboard: texts.YesNoKeyboard(texts.ActionMedical), Handle: s.handleNannyMedical},
			{Key: domain.StepNannyAskAvatar, Prompt: texts.NannyAskAvatar, Field: "avatar", Keyboard: texts.SkipKeyboard(), Skippable: true, Handle: s.handleNannyAvatar},
		},
		IsDone: func(ctx context.Context, turn *fsm.Turn) (bool, error) {
			profile, err := s.Moderation.GetProfile(ctx, turn.User.ID)
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return turn.User.HasName() && profile.IsComplete(), nil
		},
		OnFinish: func(ctx context.Context, turn *fsm.Turn) error {
			if err := s.Moderation.SubmitForReview(ctx, turn.User); err != nil {
				return err
			}
			profile, err := s.Moderation.GetProfile(ctx, turn.User.ID)
			if err != nil {
				return err
			}
			if profile.Status == domain.ProfileVerified {
				return s.sendMessageWithKeyboard(ctx, turn.BotID, turn.ChatID, texts.NannyUpdated, texts.NannyMenuKeyboard())
			}
			return s.sendMessageWithKeyboard(ctx, turn.BotID, turn.ChatID, texts.NannySubmitted, texts.NannyMenuKeyboard())
		},
		Fallback: s.menuFallback,
	}
}

func (s *Service) handleNannyPhone(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	if in.Contact == nil || in.Contact.PhoneNumber == "" {
		return fsm.Again(texts.NannyNeedContact), nil
	}
	if err := s.UserRepo.UpdatePhone(ctx, turn.User.ID, in.Contact.PhoneNumber); err != nil {
		return fsm.Result{}, err
	}
	phone := in.Contact.PhoneNumber
	turn.User.Phone = &phone
	return fsm.Next(), nil
}

func (s *Service) handleNannyRate(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	raw := strings.TrimSuffix(strings.ReplaceAll(cleanText(in), " ", ""), "₽")
	rate, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rate <= 0 {
		return fsm.Again(texts.NannyBadRate), nil
	}
	return s.editProfile(ctx, turn, func(p *domain.Profile) { p.HourlyRate = &rate })
}

func (s *Service) profileText(set func(p *domain.Profile, v string)) fsm.Handler {
	return func(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
		value := cleanText(in)
		if value == "" {
			return fsm.Again(""), nil
		}
		return s.editProfile(ctx, turn, func(p *domain.Profile) { set(p, value) })
	}
}

func (s *Service) handleNannyMedical(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	has, ok := parseYesNo(in.Text)
	if !ok {
		return fsm.Again(""), nil
	}
	return s.editProfile(ctx, turn, func(p *domain.Profile) { p.HasMedicalCard = has })
}

// handleNannyAvatar сохраняет фото в S3, без S3 запоминает file_id
func (s *Service) handleNannyAvatar(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	if in.Skip {
		return fsm.Done(), nil
	}
	if in.PhotoFileID == "" {
		return fsm.Again(texts.NannyNeedPhoto), nil
	}

	key := "tg:" + in.PhotoFileID
	if s.S3Client != nil {
		data, err := s.TelegramService.DownloadFile(ctx, turn.BotID, in.PhotoFileID)
		if err != nil {
			return fsm.Result{}, fmt.Errorf("failed to download avatar: %w", err)
		}
		key = fmt.Sprintf("avatars/%s.jpg", turn.User.ID)
		if err := s.S3Client.PutFile(ctx, key, data, "image/jpeg"); err != nil {
			return fsm.Result{}, fmt.Errorf("failed to upload avatar: %w", err)
		}
	}

	if _, err := s.Moderation.EditProfile(ctx, turn.User.ID, func(p *domain.Profile) { p.AvatarKey = &key }); err != nil {
		return fsm.Result{}, err
	}
	return fsm.Done(), nil
}

func (s *Service) editProfile(ctx context.Context, turn *fsm.Turn, mutate func(*domain.Profile)) (fsm.Result, error) {
	if _, err := s.Moderation.EditProfile(ctx, turn.User.ID, mutate); err != nil {
		return fsm.Result{}, err
	}
	return fsm.Next(), nil
}

// ---------- заказ ----------

func (s *Service) orderWizard() *fsm.Wizard {
	return &fsm.Wizard{
		Name:      "order",
		Role:      domain.RoleParent,
		UsesDraft: true,
		Steps: []fsm.Step{
			{Key: domain.StepOrderAskDate, Prompt: texts.OrderAskDate, Field: "date", Handle: s.handleOrderDate},
			{Key: domain.StepOrderAskTime, Prompt: texts.OrderAskTime, Field: "time_range", Handle: s.handleOrderTime},
			{Key: domain.StepOrderAskAddress, Prompt: texts.OrderAskAddress, Field: "address", Handle: s.handleOrderAddress},
			{Key: domain.StepOrderAskNotes, Prompt: texts.OrderAskNotes, Field: "notes", Keyboard: texts.SkipKeyboard(), Skippable: true, Handle: s.handleOrderNotes},
			{Key: domain.StepOrderConfirm, Render: s.renderOrderSummary, Handle: s.handleOrderConfirm},
		},
		Fallback: s.menuFallback,
	}
}

func (s *Service) handleOrderDate(_ context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	date, ok := parseOrderDate(cleanText(in), s.now())
	if !ok {
		return fsm.Again(texts.OrderBadDate), nil
	}
	turn.Draft.Date = &date
	return fsm.Next(), nil
}

func (s *Service) handleOrderTime(_ context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	timeRange := cleanText(in)
	if timeRange == "" {
		return fsm.Again(""), nil
	}
	hours := fsm.ParseDurationHours(timeRange)
	turn.Draft.TimeRange = &timeRange
	turn.Draft.DurationHours = &hours
	return fsm.Next(), nil
}

func (s *Service) handleOrderAddress(_ context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	address := cleanText(in)
	if address == "" {
		return fsm.Again(""), nil
	}
	turn.Draft.Address = &address
	return fsm.Next(), nil
}

func (s *Service) handleOrderNotes(_ context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	if in.Skip {
		turn.Draft.Notes = nil
		return fsm.Next(), nil
	}
	notes := cleanText(in)
	if notes == "" {
		return fsm.Again(""), nil
	}
	turn.Draft.Notes = &notes
	return fsm.Next(), nil
}

func (s *Service) renderOrderSummary(_ context.Context, turn *fsm.Turn) (string, map[string]interface{}, error) {
	return texts.OrderSummary(turn.Draft), texts.OrderConfirmKeyboard(), nil
}

// handleOrderConfirm подтверждение сводки: создать заказ или вернуться к дате
func (s *Service) handleOrderConfirm(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	switch in.Text {
	case texts.ActionOrderEdit:
		return fsm.Jump(domain.StepOrderAskDate), nil
	case texts.ActionOrderConfirm:
	default:
		return fsm.Again(""), nil
	}

	order, err := s.Orders.Create(ctx, turn.User, turn.Draft)
	if errors.Is(err, domain.ErrDraftIncomplete) {
		// черновик истёк, собираем заново
		return fsm.Jump(domain.StepOrderAskDate), nil
	}
	if err != nil {
		return fsm.Result{}, err
	}
	if err := s.Drafts.Delete(ctx, turn.ChatID); err != nil {
		s.Log.Warn("failed to delete order draft", "error", err, "chat_id", turn.ChatID)
	}

	s.Log.Info("order submitted from chat", "order_id", order.ID, "user_id", turn.User.ID)
	if err := s.sendMessageWithKeyboard(ctx, turn.BotID, turn.ChatID, texts.OrderCreated, texts.ParentMenuKeyboard()); err != nil {
		return fsm.Result{}, err
	}
	return fsm.Done(), nil
}

// ---------- комментарий к отзыву ----------

func (s *Service) reviewWizard() *fsm.Wizard {
	return &fsm.Wizard{
		Name: "review",
		Role: domain.RoleParent,
		Steps: []fsm.Step{
			{
				Key:       domain.StepReviewAskComment,
				Prompt:    texts.ReviewAskComment,
				Field:     "comment",
				Keyboard:  texts.SkipKeyboard(),
				Skippable: true,
				Handle:    s.handleReviewComment,
			},
		},
		OnFinish: func(ctx context.Context, turn *fsm.Turn) error {
			return s.sendMessageWithKeyboard(ctx, turn.BotID, turn.ChatID, texts.ReviewThanks, texts.ParentMenuKeyboard())
		},
		Fallback: s.menuFallback,
	}
}

func (s *Service) handleReviewComment(ctx context.Context, turn *fsm.Turn, in fsm.Input) (fsm.Result, error) {
	if in.Skip {
		return fsm.Done(), nil
	}
	if turn.LinkedID == nil {
		return fsm.Result{}, fmt.Errorf("%w: review comment without review id", domain.ErrInvalidState)
	}
	comment := cleanText(in)
	if comment == "" {
		return fsm.Again(""), nil
	}
	if err := s.Reviews.AddComment(ctx, turn.User, *turn.LinkedID, comment); err != nil {
		return fsm.Result{}, err
	}
	return fsm.Done(), nil
}

func (s *Service) menuFallback(ctx context.Context, turn *fsm.Turn) error {
	return s.showMenu(ctx, turn.BotID, turn.ChatID, turn.User)
}
