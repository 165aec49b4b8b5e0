package pictures

import (
	"errors"
	"nest-server/core"
	"nest-server/handlers/api/respond"
	"nest-server/middleware"
	"nest-server/services"
	"net/http"

	"github.com/sirupsen/logrus"
)

func HandleGrid(svc *services.Pictures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.View(w, r, "Picture.Grid", core.SourceGrid, map[string]any{
			"pictures": svc.Grid(r.Context()),
		})
	}
}

func HandleMyPage(svc *services.Pictures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pictures, err := svc.MyPage(r.Context(), middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Picture.MyPage", core.SourceMyPage, map[string]any{"pictures": pictures})
	}
}

func HandleCreateView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.View(w, r, "Picture.Create", respond.Source(r), map[string]any{"form": core.PictureForm{}})
	}
}

func HandleDetails(svc *services.Pictures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		details, err := svc.Details(r.Context(), id)
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Picture.Details", respond.Source(r), map[string]any{
			"picture":  details.Picture,
			"comments": details.Comments,
			"canEdit":  core.Authorize(details.Picture.Owner, middleware.UserName(r.Context())) == nil,
		})
	}
}

func HandleEditView(svc *services.Pictures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		picture, err := svc.EditView(r.Context(), id, middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Picture.Edit", respond.Source(r), map[string]any{"picture": picture})
	}
}

func HandleDeleteView(svc *services.Pictures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		picture, err := svc.DeleteView(r.Context(), id, middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Picture.Delete", respond.Source(r), map[string]any{"picture": picture})
	}
}

func HandleCreate(svc *services.Pictures, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, upload, cleanup, ok := parseForm(w, r, maxUploadBytes)
		if !ok {
			return
		}
		defer cleanup()

		_, dest, err := svc.Create(r.Context(), middleware.UserName(r.Context()), form, upload, respond.Source(r))
		if err != nil {
			respond.Error(w, r, err, form)
			return
		}
		respond.Redirect(w, r, dest)
	}
}

func HandleEdit(svc *services.Pictures, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		form, upload, cleanup, ok := parseForm(w, r, maxUploadBytes)
		if !ok {
			return
		}
		defer cleanup()

		dest, err := svc.Edit(r.Context(), id, middleware.UserName(r.Context()), form, upload, respond.Source(r))
		if err != nil {
			respond.Error(w, r, err, form)
			return
		}
		respond.Redirect(w, r, dest)
	}
}

func HandleDelete(svc *services.Pictures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		dest, err := svc.Delete(r.Context(), id, middleware.UserName(r.Context()), respond.Source(r))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.Redirect(w, r, dest)
	}
}

// parseForm reads the multipart picture form. The returned cleanup closes the
// uploaded file and removes any temporary parts.
func parseForm(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (core.PictureForm, *core.Upload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, &core.ValidationError{Fields: map[string]string{"picture": "file is too large"}}, nil)
			return core.PictureForm{}, nil, nil, false
		}
		logrus.WithError(err).Warn("Failed to parse picture form")
		respond.BadRequest(w, r, "Invalid form")
		return core.PictureForm{}, nil, nil, false
	}

	form := core.PictureForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		// No file is fine; the picture keeps or gets no asset.
		return form, nil, cleanup, true
	}
	upload := &core.Upload{Filename: header.Filename, Size: header.Size, Content: file}
	return form, upload, func() {
		file.Close()
		cleanup()
	}, true
}
