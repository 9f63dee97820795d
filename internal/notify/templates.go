package notify

import (
	"fmt"

	"golang.org/x/text/language"

	"haat/internal/models"
)

var matcher = language.NewMatcher([]language.Tag{language.English, language.Hindi})

// ResolveLanguage maps a stored preference or an Accept-Language value to
// one of the supported languages, defaulting to English.
func ResolveLanguage(pref string) models.Language {
	if pref == "" {
		return models.LangEnglish
	}
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return models.LangEnglish
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return models.LangEnglish
	}
	if idx == 1 {
		return models.LangHindi
	}
	return models.LangEnglish
}

type template struct {
	subject string
	body    string
}

var templates = map[models.Language]map[models.NotificationKind]template{
	models.LangEnglish: {
		models.NotifyOrderPlaced:    {"Order %s received", "Hi %s, we have received your order %s. We will confirm it shortly."},
		models.NotifyConfirmed:      {"Order %s confirmed", "Hi %s, your order %s has been confirmed by the artisan."},
		models.NotifyShipped:        {"Order %s shipped", "Hi %s, your order %s is on its way."},
		models.NotifyOutForDelivery: {"Order %s is out for delivery", "Hi %s, your order %s will reach you today."},
		models.NotifyDelivered:      {"Order %s delivered", "Hi %s, your order %s has been delivered. Thank you for supporting our artisans."},
		models.NotifyCancelled:      {"Order %s cancelled", "Hi %s, your order %s has been cancelled."},
		models.NotifyRefunded:       {"Refund for order %s", "Hi %s, the refund for your order %s has been issued."},
	},
	models.LangHindi: {
		models.NotifyOrderPlaced:    {"ऑर्डर %s प्राप्त हुआ", "नमस्ते %s, हमें आपका ऑर्डर %s मिल गया है। हम जल्द ही इसकी पुष्टि करेंगे।"},
		models.NotifyConfirmed:      {"ऑर्डर %s की पुष्टि हुई", "नमस्ते %s, कारीगर ने आपके ऑर्डर %s की पुष्टि कर दी है।"},
		models.NotifyShipped:        {"ऑर्डर %s भेज दिया गया", "नमस्ते %s, आपका ऑर्डर %s रास्ते में है।"},
		models.NotifyOutForDelivery: {"ऑर्डर %s डिलीवरी के लिए निकला", "नमस्ते %s, आपका ऑर्डर %s आज आप तक पहुँचेगा।"},
		models.NotifyDelivered:      {"ऑर्डर %s डिलीवर हुआ", "नमस्ते %s, आपका ऑर्डर %s डिलीवर हो गया है। हमारे कारीगरों का साथ देने के लिए धन्यवाद।"},
		models.NotifyCancelled:      {"ऑर्डर %s रद्द किया गया", "नमस्ते %s, आपका ऑर्डर %s रद्द कर दिया गया है।"},
		models.NotifyRefunded:       {"ऑर्डर %s का रिफंड", "नमस्ते %s, आपके ऑर्डर %s का रिफंड जारी कर दिया गया है।"},
	},
}

// Render builds the localized message for ev. Unknown kinds fall back to a
// generic status line.
func Render(lang models.Language, ev Event) Message {
	name := ev.Name
	if name == "" {
		name = map[models.Language]string{models.LangEnglish: "there", models.LangHindi: "ग्राहक"}[lang]
	}
	tpl, ok := templates[lang][ev.Kind]
	if !ok {
		tpl, ok = templates[models.LangEnglish][ev.Kind]
	}
	if !ok {
		return Message{
			Subject: fmt.Sprintf("Order %s update", ev.OrderNumber),
			Body:    fmt.Sprintf("Order %s is now %s.", ev.OrderNumber, ev.Status),
		}
	}
	return Message{
		Subject: fmt.Sprintf(tpl.subject, ev.OrderNumber),
		Body:    fmt.Sprintf(tpl.body, name, ev.OrderNumber),
	}
}
