package notify

import (
	"context"

	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/share"
	"github.com/rs/zerolog"
)

// LogSender is the default delivery transport: it writes the notification to
// the log. Swap it for a real SMS/WhatsApp sender without touching the
// engine.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "sender").Logger()}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	ev := s.log.Info().
		Str("type", n.Type).
		Str("game_id", n.GameID.String()).
		Str("to", n.RecipientPhone).
		RawJSON("payload", []byte(n.Payload))
	if wa := share.WhatsAppURL(n.RecipientPhone, ""); wa != "" {
		ev = ev.Str("wa_link", wa)
	}
	ev.Msg("notification")
	return nil
}
