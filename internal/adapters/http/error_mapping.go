package httpadapter

import (
	"net/http"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

// mapErrorToHTTPStatus folds every backend failure, open breaker included,
// into 500.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
