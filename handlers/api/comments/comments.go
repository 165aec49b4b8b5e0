package comments

import (
	"errors"
	"nest-server/core"
	"nest-server/handlers/api/respond"
	"nest-server/middleware"
	"nest-server/services"
	"net/http"
	"strconv"
)

func formFrom(r *http.Request) core.CommentForm {
	return core.CommentForm{Description: r.FormValue("description")}
}

// HandleCreateForPicture serves POST /pictures/{id}/comments. Any note id in
// the form is ignored.
func HandleCreateForPicture(svc *services.Comments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		form := formFrom(r)
		_, dest, err := svc.CreateForPicture(r.Context(), middleware.UserName(r.Context()), id, form, respond.Source(r))
		if err != nil {
			respond.Error(w, r, err, form)
			return
		}
		respond.Redirect(w, r, dest)
	}
}

// HandleCreateForNote serves POST /notes/{id}/comments.
func HandleCreateForNote(svc *services.Comments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		form := formFrom(r)
		_, dest, err := svc.CreateForNote(r.Context(), middleware.UserName(r.Context()), id, form, respond.Source(r))
		if err != nil {
			respond.Error(w, r, err, form)
			return
		}
		respond.Redirect(w, r, dest)
	}
}

// HandleList serves GET /comments. A pictureId or noteId query narrows the
// list to one parent.
func HandleList(svc *services.Comments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parent, filtered, err := parentFilter(r)
		if err != nil {
			respond.BadRequest(w, r, err.Error())
			return
		}

		var list []*core.Comment
		if filtered {
			list = svc.ListFor(r.Context(), parent)
		} else {
			list = svc.List(r.Context())
		}
		respond.View(w, r, "Comment.Index", respond.Source(r), map[string]any{"comments": list})
	}
}

func parentFilter(r *http.Request) (core.ParentRef, bool, error) {
	q := r.URL.Query()
	pictureID, noteID := q.Get("pictureId"), q.Get("noteId")
	switch {
	case pictureID != "" && noteID != "":
		return core.ParentRef{}, false, errors.New("filter by pictureId or noteId, not both")
	case pictureID != "":
		id, err := strconv.ParseInt(pictureID, 10, 64)
		if err != nil {
			return core.ParentRef{}, false, errors.New("invalid pictureId")
		}
		return core.PictureParent(id), true, nil
	case noteID != "":
		id, err := strconv.ParseInt(noteID, 10, 64)
		if err != nil {
			return core.ParentRef{}, false, errors.New("invalid noteId")
		}
		return core.NoteParent(id), true, nil
	default:
		return core.ParentRef{}, false, nil
	}
}

func HandleEditView(svc *services.Comments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		comment, err := svc.EditView(r.Context(), id, middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Comment.Edit", respond.Source(r), map[string]any{"comment": comment})
	}
}

func HandleDeleteView(svc *services.Comments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		comment, err := svc.DeleteView(r.Context(), id, middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Comment.Delete", respond.Source(r), map[string]any{"comment": comment})
	}
}

func HandleEdit(svc *services.Comments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		form := formFrom(r)
		dest, err := svc.Edit(r.Context(), id, middleware.UserName(r.Context()), form, respond.Source(r))
		if err != nil {
			respond.Error(w, r, err, form)
			return
		}
		respond.Redirect(w, r, dest)
	}
}

func HandleDelete(svc *services.Comments) http.HandlerFunc {
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
