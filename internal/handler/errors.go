package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/service"
)

// writeServiceError maps service errors onto the JSON error envelope:
// validation 400, not found 404, anything else 500 with the cause logged.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	var validationErr *service.ValidationError
	var notFoundErr *service.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Message})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": capitalize(notFoundErr.Error())})
	default:
		log.Error(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// --- pgtype helpers for responses ---

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func money(n pgtype.Numeric) string {
	return service.NumericToDecimal(n).StringFixed(2)
}

func moneyPtr(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := money(n)
	return &s
}
