package registration

import (
	"net/url"
	"strings"

	"startloft-api/internal/models"
)

const WhatsappPhone = "7718215088"

// ContactLink builds the wa.me link with the registration summary as the
// pre-filled message.
func ContactLink(tournamentTitle string, r models.RegistrationCreate) string {
	var b strings.Builder
	b.WriteString("Здравствуйте!\n")
	b.WriteString("Я хочу зарегистрироваться на турнир:\n")
	b.WriteString("🏆 *" + tournamentTitle + "*\n")
	b.WriteString("\n")
	b.WriteString("👤 *ФИО:* " + r.Fio + "\n")
	b.WriteString("🌍 *Город:* " + r.CityCountry + "\n")
	b.WriteString("🎯 *Категория:* " + r.Category + "\n")
	b.WriteString("🏅 *Разряд:* " + r.Rank + "\n")

	return "https://wa.me/" + WhatsappPhone + "?text=" + encodeComponent(b.String())
}

// componentUnescaper undoes the escapes url.QueryEscape applies to characters
// that are unreserved in a URI component.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s the way browsers encode a URI component:
// spaces as %20 and !'()* left as is.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
