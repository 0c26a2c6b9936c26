package texts

import (
	"fmt"
	"strings"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

const dateLayout = "02.01.2006"

const (
	ChooseRole = "👋 Здравствуйте! Это сервис подбора нянь.\n\nКто вы?"

	AskName        = "Как вас зовут?"
	AskConsent     = "Согласны ли вы на обработку персональных данных?"
	ConsentUnclear = "Ответьте, пожалуйста, кнопкой ниже: да или нет."
	RegistrationOK = "Спасибо, регистрация завершена! Добавим информацию о ребёнке?"
	ConsentDenied  = "Без согласия мы не сможем подобрать няню. Вы можете вернуться к этому в любой момент через /start."

	AskChildName  = "Как зовут ребёнка?"
	AskChildAge   = "Сколько лет ребёнку? Напишите число от 0 до 18."
	BadChildAge   = "Не получилось распознать возраст. Нужно целое число от 0 до 18."
	AskChildNotes = "Есть ли особенности, о которых няне стоит знать (аллергии, режим, привычки)?"
	ChildSaved    = "Ребёнок добавлен ✅"

	NannyAskName       = "Как вас зовут? Это имя увидят родители."
	NannyAskPhone      = "Поделитесь номером телефона кнопкой ниже."
	NannyNeedContact   = "Нужен номер телефона: нажмите кнопку «Поделиться номером»."
	NannyAskRate       = "Ваша ставка в рублях за час?"
	NannyBadRate       = "Ставка должна быть целым положительным числом, например 500."
	NannyAskExperience = "Расскажите о своём опыте работы с детьми."
	NannyAskOccupation = "Чем вы занимаетесь сейчас (учёба, работа)?"
	NannyAskMedical    = "Есть ли у вас медицинская книжка?"
	NannyAskAvatar     = "Пришлите фото для анкеты или нажмите «Пропустить»."
	NannyNeedPhoto     = "Пришлите, пожалуйста, фотографию (не файлом) или нажмите «Пропустить»."
	NannySubmitted     = "Анкета отправлена на модерацию. Мы напишем, как только её проверят."
	NannyVerified      = "🎉 Поздравляем! Ваша анкета прошла проверку. Теперь вам будут приходить новые заказы."
	NannyApproved      = "Анкета проверена ✅ Нажмите /menu, чтобы продолжить."
	NannyUpdated       = "Анкета обновлена."
	NannyUnderReview   = "Ваша анкета на проверке. Как только модератор её одобрит, начнут приходить заказы."

	OrderAskDate    = "На какую дату нужна няня? Формат ДД.ММ или ДД.ММ.ГГГГ, можно «сегодня» или «завтра»."
	OrderBadDate    = "Не получилось распознать дату или она уже прошла. Пример: 25.12"
	OrderAskTime    = "В какое время? Например, 14:00 - 18:00"
	OrderAskAddress = "Адрес, куда приехать няне?"
	OrderAskNotes   = "Что нужно будет делать? Пожелания к няне."
	OrderCreated    = "Заказ создан и отправлен няням. Мы сообщим, когда кто-то откликнется."
	OrderNoNannies  = "Сейчас нет свободных нянь, заказ никому не отправлен. Мы сообщим, когда кто-то откликнется."

	OrderTaken       = "Этот заказ уже взяла другая няня."
	OrderClaimedSelf = "Заказ ваш! Ждём подтверждения от родителя."
	OrderNotFound    = "Заказ не найден."
	ActionNotAllowed = "Это действие сейчас недоступно."

	ReviewAskComment = "Спасибо за оценку! Хотите добавить комментарий?"
	ReviewThanks     = "Спасибо за отзыв!"
	ReviewExists     = "Отзыв на этот заказ уже оставлен."

	MainMenu      = "Главное меню"
	Help          = "Команды:\n/start - начать\n/menu - главное меню\n/orders - мои заказы\n/cancel - прервать текущий шаг\n\nЗаказ можно отменить после того, как на него откликнулась няня. Пока откликов нет, заказ остаётся в ленте нянь."
	Cancelled     = "Хорошо, прервали. Возвращаемся в меню."
	NoOrders      = "Заказов пока нет."
	UnknownInput  = "Не понял сообщение. Воспользуйтесь меню."
	GenericError  = "Что-то пошло не так 😔 Попробуйте ещё раз чуть позже."
	PhoneSaved    = "Номер телефона сохранён."
	NoChildrenYet = "Вы ещё не добавили детей."
)

func nannyName(u *domain.User) string {
	if u == nil {
		return "Няня"
	}
	return u.DisplayName()
}

// OrderSummary сводка черновика перед подтверждением
func OrderSummary(d *domain.OrderDraft) string {
	var b strings.Builder
	b.WriteString("Проверьте заказ:\n\n")
	if d.Date != nil {
		fmt.Fprintf(&b, "📅 Дата: %s\n", d.Date.Format(dateLayout))
	}
	if d.TimeRange != nil {
		fmt.Fprintf(&b, "🕑 Время: %s", *d.TimeRange)
		if d.DurationHours != nil {
			fmt.Fprintf(&b, " (%d ч)", *d.DurationHours)
		}
		b.WriteString("\n")
	}
	if d.Address != nil {
		fmt.Fprintf(&b, "📍 Адрес: %s\n", *d.Address)
	}
	if d.Notes != nil {
		fmt.Fprintf(&b, "📝 Пожелания: %s\n", *d.Notes)
	}
	return b.String()
}

func orderLines(o *domain.Order) string {
	s := fmt.Sprintf("📅 %s, %s (%d ч)\n📍 %s", o.Date.Format(dateLayout), o.TimeRange, o.DurationHours, o.Address)
	if o.Notes != nil && *o.Notes != "" {
		s += "\n📝 " + *o.Notes
	}
	return s
}

// NewOrderForNanny рассылка нового заказа
func NewOrderForNanny(o *domain.Order) string {
	return "🔔 Новый заказ!\n\n" + orderLines(o)
}

// OrderClaimedForParent няня откликнулась
func OrderClaimedForParent(o *domain.Order, nanny *domain.User, profile *domain.Profile) string {
	s := fmt.Sprintf("Няня %s откликнулась на заказ:\n\n%s", nannyName(nanny), orderLines(o))
	if nanny != nil && nanny.TotalReviews > 0 {
		s += fmt.Sprintf("\n\n⭐ Рейтинг: %.1f (%d отзывов)", nanny.AvgRating, nanny.TotalReviews)
	}
	if profile != nil && profile.HourlyRate != nil {
		s += fmt.Sprintf("\n💰 Ставка: %d ₽/ч", *profile.HourlyRate)
	}
	return s
}

func OrderConfirmedForNanny(o *domain.Order, parent *domain.User) string {
	s := fmt.Sprintf("Родитель подтвердил заказ ✅\n\n%s", orderLines(o))
	if parent != nil && parent.Phone != nil {
		s += "\n📞 " + *parent.Phone
	}
	return s
}

func OrderConfirmedForParent(o *domain.Order, nanny *domain.User) string {
	s := fmt.Sprintf("Заказ подтверждён. Няня: %s", nannyName(nanny))
	if nanny != nil && nanny.Phone != nil {
		s += "\n📞 " + *nanny.Phone
	}
	return s
}

func OrderRejectedForNanny(o *domain.Order) string {
	return "К сожалению, родитель выбрал другой вариант по заказу:\n\n" + orderLines(o)
}

func OrderRejectedForParent() string {
	return "Отклик отклонён, заказ закрыт. Вы можете создать новый заказ из меню."
}

func OrderCancelledForNanny(o *domain.Order) string {
	return "Родитель отменил заказ:\n\n" + orderLines(o)
}

func OrderCompletedForParent(o *domain.Order, nanny *domain.User) string {
	return fmt.Sprintf("Няня %s отметила визит %s как завершённый.", nannyName(nanny), o.Date.Format(dateLayout))
}

func OrderCompletedForNanny() string {
	return "Визит завершён. Спасибо за работу!"
}

func OrderNoResponse(o *domain.Order) string {
	return "Пока никто не откликнулся на заказ " + o.Date.Format(dateLayout) + ". Мы продолжаем искать, заказ остаётся активным."
}

func PaymentLink(url string, amountRub int64) string {
	return fmt.Sprintf("Оплата визита: %d ₽\n%s", amountRub, url)
}

func AskRating(o *domain.Order) string {
	return fmt.Sprintf("Как прошёл визит %s? Оцените няню от 1 до 5.", o.Date.Format(dateLayout))
}

func ProfileRejected(reason *string) string {
	s := "Анкета не прошла проверку."
	if reason != nil && *reason != "" {
		s += "\nПричина: " + *reason
	}
	return s + "\n\nВы можете исправить анкету через меню, после этого она снова уйдёт на проверку."
}

func ModerationAlert(u *domain.User, p *domain.Profile) string {
	var b strings.Builder
	b.WriteString("🆕 Новая анкета няни на проверку\n\n")
	fmt.Fprintf(&b, "Имя: %s\n", u.DisplayName())
	if u.Phone != nil {
		fmt.Fprintf(&b, "Телефон: %s\n", *u.Phone)
	}
	if p.HourlyRate != nil {
		fmt.Fprintf(&b, "Ставка: %d ₽/ч\n", *p.HourlyRate)
	}
	if p.Experience != nil {
		fmt.Fprintf(&b, "Опыт: %s\n", *p.Experience)
	}
	if p.Occupation != nil {
		fmt.Fprintf(&b, "Занятость: %s\n", *p.Occupation)
	}
	fmt.Fprintf(&b, "Медкнижка: %s\n", yesNo(p.HasMedicalCard))
	fmt.Fprintf(&b, "\nuser_id: %s", u.ID)
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

var statusNames = map[domain.OrderStatus]string{
	domain.OrderPending:    "ищем няню",
	domain.OrderAccepted:   "ждёт подтверждения",
	domain.OrderInProgress: "подтверждён",
	domain.OrderCompleted:  "завершён",
	domain.OrderCancelled:  "отменён",
}

// OrderListItem строка списка "мои заказы"
func OrderListItem(o *domain.Order) string {
	return fmt.Sprintf("• %s %s, %s: %s", o.Date.Format(dateLayout), o.TimeRange, o.Address, statusNames[o.Status])
}

func ChildListItem(c *domain.Child) string {
	s := "• " + c.Name
	if c.Age != nil {
		s += fmt.Sprintf(", %d", *c.Age)
	}
	return s
}
