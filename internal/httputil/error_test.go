package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderError(t *testing.T, err error) (int, ErrorBody) {
	t.Helper()

	rec := httptest.NewRecorder()
	Error(rec, zerolog.Nop(), err)

	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body.Error
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    &game.ValidationError{Field: "title", Reason: "is required"},
			status: http.StatusBadRequest,
			code:   "VALIDATION",
		},
		{
			name:   "duplicate registration",
			err:    game.ErrDuplicateRegistration,
			status: http.StatusConflict,
			code:   "DUPLICATE_REGISTRATION",
		},
		{
			name:   "registration closed",
			err:    game.NewStateError(game.ErrRegistrationClosed, game.StatusClosed),
			status: http.StatusConflict,
			code:   "REGISTRATION_CLOSED",
		},
		{
			name:   "cancellation closed",
			err:    game.NewStateError(game.ErrCancellationNotAllowed, game.StatusInProgress),
			status: http.StatusConflict,
			code:   "CANCELLATION_CLOSED",
		},
		{
			name:   "other state conflicts",
			err:    game.NewStateError(game.ErrInvalidStatus, game.StatusCompleted),
			status: http.StatusConflict,
			code:   "INVALID_STATE",
		},
		{
			name:   "not found",
			err:    game.ErrNotFound,
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "wrapped errors unwrap",
			err:    fmt.Errorf("loading game: %w", game.ErrNotFound),
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "storage unavailable",
			err:    fmt.Errorf("ping: %w", game.ErrStorageUnavailable),
			status: http.StatusServiceUnavailable,
			code:   "UNAVAILABLE",
		},
		{
			name:   "anything else is internal",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := renderError(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestErrorValidationCarriesField(t *testing.T) {
	_, body := renderError(t, &game.ValidationError{Field: "player_phone", Reason: "must include an area code"})
	assert.Equal(t, "player_phone", body.Field)
	assert.Contains(t, body.Message, "area code")
}

func TestErrorStateCarriesGameStatus(t *testing.T) {
	_, body := renderError(t, game.NewStateError(game.ErrRegistrationClosed, game.StatusCancelled))
	assert.Equal(t, "cancelled", body.GameStatus)
}

func TestErrorCapacityReductionCarriesCounts(t *testing.T) {
	status, body := renderError(t, &game.CapacityReductionError{Confirmed: 8, Requested: 5})

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CAPACITY_BELOW_CONFIRMED", body.Code)
	require.NotNil(t, body.Confirmed)
	require.NotNil(t, body.Requested)
	assert.Equal(t, 8, *body.Confirmed)
	assert.Equal(t, 5, *body.Requested)
}

// Ownership failures must be indistinguishable from missing games.
func TestErrorHidesOwnership(t *testing.T) {
	status, body := renderError(t, game.ErrNotOwner)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.NotContains(t, body.Message, "own")
}

func TestInternalErrorHidesDetails(t *testing.T) {
	_, body := renderError(t, errors.New("pq: relation does not exist"))
	assert.NotContains(t, body.Message, "pq:")
}
