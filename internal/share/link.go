package share

import (
	"net/url"
	"strings"
)

// JoinURL is the public link players open to see the game and sign up.
func JoinURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/join/" + token
}

// WhatsAppURL builds a wa.me deep link to the player, optionally prefilled
// with text. wa.me only accepts bare digits, so anything else in the phone
// means no link.
func WhatsAppURL(phone, text string) string {
	digits := strings.TrimPrefix(phone, "+")
	if digits == "" {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}

	u := "https://wa.me/" + digits
	if text != "" {
		u += "?text=" + url.QueryEscape(text)
	}
	return u
}

// InviteMessage is the canned text an admin pastes into the group chat.
func InviteMessage(title, joinURL string) string {
	return title + ". Anotate acá: " + joinURL
}
