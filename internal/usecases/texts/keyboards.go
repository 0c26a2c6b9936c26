package texts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// Действия inline-кнопок. Формат callback_data: "action" или "action:arg[:arg]"
const (
	ActionRole         = "role"
	ActionConsent      = "consent"
	ActionMedical      = "medical"
	ActionSkip         = "skip"
	ActionAddChild     = "child_add"
	ActionLater        = "later"
	ActionNewOrder     = "order_new"
	ActionOrderConfirm = "order_confirm"
	ActionOrderEdit    = "order_edit"
	ActionMyOrders     = "my_orders"
	ActionEditProfile  = "profile_edit"
	ActionClaim        = "claim"
	ActionConfirm      = "confirm"
	ActionReject       = "reject"
	ActionComplete     = "complete"
	ActionCancel       = "cancel"
	ActionRate         = "rate"
)

// Callback разобранные данные кнопки
type Callback struct {
	Action string
	Args   []string
}

func (c Callback) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// OrderID первый аргумент как id заказа
func (c Callback) OrderID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Arg(0))
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad order id in callback %q: %w", c.Action, err)
	}
	return id, nil
}

// Rating второй аргумент как оценка
func (c Callback) Rating() (int, error) {
	return strconv.Atoi(c.Arg(1))
}

func ParseCallback(data string) Callback {
	parts := strings.Split(data, ":")
	return Callback{Action: parts[0], Args: parts[1:]}
}

func data(action string, args ...string) string {
	if len(args) == 0 {
		return action
	}
	return action + ":" + strings.Join(args, ":")
}

func button(text, callback string) map[string]interface{} {
	return map[string]interface{}{
		"text":          text,
		"callback_data": callback,
	}
}

func inline(rows ...[]map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"inline_keyboard": rows,
	}
}

func row(buttons ...map[string]interface{}) []map[string]interface{} {
	return buttons
}

// RemoveKeyboard пустая inline-клавиатура для editMessageReplyMarkup
func RemoveKeyboard() map[string]interface{} {
	return map[string]interface{}{"inline_keyboard": [][]map[string]interface{}{}}
}

func RoleKeyboard() map[string]interface{} {
	return inline(row(
		button("Я родитель", data(ActionRole, string(domain.RoleParent))),
		button("Я няня", data(ActionRole, string(domain.RoleNanny))),
	))
}

func YesNoKeyboard(action string) map[string]interface{} {
	return inline(row(
		button("Да", data(action, "yes")),
		button("Нет", data(action, "no")),
	))
}

func SkipKeyboard() map[string]interface{} {
	return inline(row(button("Пропустить", ActionSkip)))
}

// ContactKeyboard reply-клавиатура с запросом номера
func ContactKeyboard() map[string]interface{} {
	return map[string]interface{}{
		"keyboard": [][]map[string]interface{}{
			{{"text": "📱 Поделиться номером", "request_contact": true}},
		},
		"resize_keyboard":   true,
		"one_time_keyboard": true,
	}
}

func AfterRegistrationKeyboard() map[string]interface{} {
	return inline(row(
		button("Добавить ребёнка", ActionAddChild),
		button("Позже", ActionLater),
	))
}

func ParentMenuKeyboard() map[string]interface{} {
	return inline(
		row(button("🔍 Найти няню", ActionNewOrder)),
		row(button("👶 Добавить ребёнка", ActionAddChild)),
		row(button("📋 Мои заказы", ActionMyOrders)),
	)
}

func NannyMenuKeyboard() map[string]interface{} {
	return inline(
		row(button("📋 Мои заказы", ActionMyOrders)),
		row(button("✏️ Изменить анкету", ActionEditProfile)),
	)
}

func OrderConfirmKeyboard() map[string]interface{} {
	return inline(row(
		button("✅ Подтвердить", ActionOrderConfirm),
		button("✏️ Изменить", ActionOrderEdit),
	))
}

func ClaimKeyboard(orderID uuid.UUID) map[string]interface{} {
	return inline(row(button("Беру заказ", data(ActionClaim, orderID.String()))))
}

func ParentDecisionKeyboard(orderID uuid.UUID) map[string]interface{} {
	id := orderID.String()
	return inline(row(
		button("✅ Подтвердить", data(ActionConfirm, id)),
		button("❌ Отклонить", data(ActionReject, id)),
	))
}

func NannyVisitKeyboard(orderID uuid.UUID) map[string]interface{} {
	return inline(row(button("Визит завершён", data(ActionComplete, orderID.String()))))
}

func ParentCancelKeyboard(orderID uuid.UUID) map[string]interface{} {
	return inline(row(button("Отменить заказ", data(ActionCancel, orderID.String()))))
}

func RatingKeyboard(orderID uuid.UUID) map[string]interface{} {
	id := orderID.String()
	buttons := make([]map[string]interface{}, 0, domain.MaxRating)
	for r := domain.MinRating; r <= domain.MaxRating; r++ {
		buttons = append(buttons, button("⭐"+strconv.Itoa(r), data(ActionRate, id, strconv.Itoa(r))))
	}
	return inline(buttons)
}

// BackToMenuKeyboard кнопка возврата после ошибки
func BackToMenuKeyboard() map[string]interface{} {
	return inline(row(button("В меню", ActionLater)))
}
