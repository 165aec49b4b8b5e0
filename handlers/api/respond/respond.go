// Package respond holds the response helpers shared by the resource handlers.
package respond

import (
	"errors"
	"nest-server/core"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// View renders a view model as JSON. fields are merged next to the view name
// and the source token.
func View(w http.ResponseWriter, r *http.Request, view string, source core.Source, fields map[string]any) {
	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	body["view"] = view
	body["source"] = source
	render.JSON(w, r, body)
}

// Redirect sends the client to the destination of a completed mutation.
func Redirect(w http.ResponseWriter, r *http.Request, dest core.Destination) {
	http.Redirect(w, r, dest.Path(), http.StatusSeeOther)
}

// Error maps a service error onto a status code. Recoverable failures echo
// the submitted form back so the client can redisplay it.
func Error(w http.ResponseWriter, r *http.Request, err error, form any) {
	log := logrus.WithFields(logrus.Fields{"path": r.URL.Path, "method": r.Method})

	var ve *core.ValidationError
	switch {
	case errors.Is(err, core.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Not found"})
	case errors.Is(err, core.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, map[string]string{"error": "Forbidden"})
	case errors.As(err, &ve):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]any{"error": "Validation failed", "fields": ve.Fields, "form": form})
	case errors.Is(err, core.ErrStorage):
		log.WithError(err).Error("Asset storage failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{"error": "Failed to store file", "form": form})
	case errors.Is(err, core.ErrPersistence):
		log.WithError(err).Error("Persistence failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{"error": "Failed to save changes", "form": form})
	default:
		log.WithError(err).Error("Request failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Internal server error"})
	}
}

// BadRequest reports a malformed request.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]string{"error": msg})
}

// ID parses the numeric {id} URL parameter. Anything else is reported as not found.
func ID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		Error(w, r, core.ErrNotFound, nil)
		return 0, false
	}
	return id, true
}

// Source reads the source token from the form or the query string.
func Source(r *http.Request) core.Source {
	return core.ParseSource(r.FormValue("source"))
}
