package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request ID. The client gets the
// mapped core.UserMessage as an HTMX fragment, JSON (API routes and JSON
// clients) or a full error page.

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cardadmin/internal/cardcsv"
	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/core"
	"github.com/JonMunkholm/cardadmin/internal/importer"
	"github.com/JonMunkholm/cardadmin/internal/logging"
	"github.com/JonMunkholm/cardadmin/internal/web/templates"
)

var (
	errRateLimited  = errors.New("rate limit exceeded")
	errPageNotFound = fmt.Errorf("%w: no such page", catalog.ErrNotFound)
)

// ErrorResponse is the JSON body of a failed API request.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Action   string            `json:"action,omitempty"`
	Code     string            `json:"code"`
	Fields   map[string]string `json:"fields,omitempty"`
	ImportID string            `json:"import_id,omitempty"`
}

// errorStatus picks the HTTP status for err.
func errorStatus(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, core.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, cardcsv.ErrFileTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, importer.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case isValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, cardcsv.ErrNotCSV),
		errors.Is(err, cardcsv.ErrEmptyFile),
		errors.Is(err, importer.ErrNoFile),
		errors.Is(err, importer.ErrNoSet),
		errors.Is(err, importer.ErrMissingHeaders),
		errors.Is(err, importer.ErrNoRows):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isValidation(err error) bool {
	var verr *catalog.ValidationError
	return errors.As(err, &verr)
}

// respondError logs err and writes the mapped message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	respondImportError(w, r, "", err)
}

// respondImportError is respondError for requests that opened an import
// session before failing, so API clients can keep using it.
func respondImportError(w http.ResponseWriter, r *http.Request, importID string, err error) {
	status := errorStatus(err)
	msg := mapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		resp := ErrorResponse{
			Error:    msg.Message,
			Message:  msg.Message,
			Action:   msg.Action,
			Code:     msg.Code,
			ImportID: importID,
		}
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
		writeJSON(w, r, status, resp)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorPage(status, msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	}
}

// mapError is core.MapError with the body-limit error folded into the
// file size message.
func mapError(err error) core.UserMessage {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return core.MapError(cardcsv.ErrFileTooLarge)
	}
	return core.MapError(err)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client should get JSON: API routes and
// requests that send or accept JSON.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
