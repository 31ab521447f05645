package httputil

import (
	"errors"
	"net/http"

	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/rs/zerolog"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	GameStatus string `json:"game_status,omitempty"`
	Confirmed  *int   `json:"confirmed_count,omitempty"`
	Requested  *int   `json:"requested_max,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(w http.ResponseWriter, status int, body ErrorBody) {
	JSON(w, status, errorResponse{Error: body})
}

// Error renders a service error with the right status code. Ownership
// failures render as not found, so a game's existence is never revealed to
// an admin who doesn't own it.
func Error(w http.ResponseWriter, log zerolog.Logger, err error) {
	var verr *game.ValidationError
	var serr *game.StateError
	var cerr *game.CapacityReductionError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, ErrorBody{
			Code:    "VALIDATION",
			Message: verr.Error(),
			Field:   verr.Field,
		})
	case errors.As(err, &cerr):
		writeError(w, http.StatusConflict, ErrorBody{
			Code:      "CAPACITY_BELOW_CONFIRMED",
			Message:   cerr.Error(),
			Confirmed: &cerr.Confirmed,
			Requested: &cerr.Requested,
		})
	case errors.Is(err, game.ErrDuplicateRegistration):
		writeError(w, http.StatusConflict, ErrorBody{
			Code:    "DUPLICATE_REGISTRATION",
			Message: game.ErrDuplicateRegistration.Error(),
		})
	case errors.As(err, &serr):
		writeError(w, http.StatusConflict, ErrorBody{
			Code:       stateCode(serr),
			Message:    serr.Error(),
			GameStatus: string(serr.Status),
		})
	case errors.Is(err, game.ErrNotFound), errors.Is(err, game.ErrNotOwner):
		writeError(w, http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: "not found"})
	case errors.Is(err, game.ErrStorageUnavailable):
		log.Error().Err(err).Msg("storage unavailable")
		writeError(w, http.StatusServiceUnavailable, ErrorBody{Code: "UNAVAILABLE", Message: "try again shortly"})
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, ErrorBody{Code: "INTERNAL", Message: "internal server error"})
	}
}

func stateCode(serr *game.StateError) string {
	switch {
	case errors.Is(serr.Err, game.ErrRegistrationClosed):
		return "REGISTRATION_CLOSED"
	case errors.Is(serr.Err, game.ErrCancellationNotAllowed):
		return "CANCELLATION_CLOSED"
	}
	return "INVALID_STATE"
}
