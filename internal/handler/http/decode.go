package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alphabotai/webappshop/pkg/httputil"
	"github.com/alphabotai/webappshop/pkg/validator"
)

// decodeRequest decodes and validates the JSON body into dst. On failure it
// writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any, l *slog.Logger) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteError(w, r, err, l)
		return false
	}
	httputil.WriteBadRequest(w, "invalid request body: "+err.Error())
	return false
}
