package notes

import (
	"nest-server/core"
	"nest-server/handlers/api/respond"
	"nest-server/middleware"
	"nest-server/services"
	"net/http"
)

func formFrom(r *http.Request) core.NoteForm {
	return core.NoteForm{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
}

func HandleFeed(svc *services.Notes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.View(w, r, "Note.Notes", core.SourceNotes, map[string]any{"notes": svc.Feed(r.Context())})
	}
}

func HandleMyPage(svc *services.Notes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notes, err := svc.MyPage(r.Context(), middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Note.MyPage", core.SourceMyPage, map[string]any{"notes": notes})
	}
}

func HandleCreateView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.View(w, r, "Note.Create", respond.Source(r), map[string]any{"form": core.NoteForm{}})
	}
}

func HandleDetails(svc *services.Notes) http.HandlerFunc {
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
		respond.View(w, r, "Note.Details", respond.Source(r), map[string]any{
			"note":     details.Note,
			"comments": details.Comments,
			"canEdit":  core.Authorize(details.Note.Owner, middleware.UserName(r.Context())) == nil,
		})
	}
}

func HandleEditView(svc *services.Notes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		note, err := svc.EditView(r.Context(), id, middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Note.Edit", respond.Source(r), map[string]any{"note": note})
	}
}

func HandleDeleteView(svc *services.Notes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r)
		if !ok {
			return
		}
		note, err := svc.DeleteView(r.Context(), id, middleware.UserName(r.Context()))
		if err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		respond.View(w, r, "Note.Delete", respond.Source(r), map[string]any{"note": note})
	}
}

func HandleCreate(svc *services.Notes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := formFrom(r)
		_, dest, err := svc.Create(r.Context(), middleware.UserName(r.Context()), form, respond.Source(r))
		if err != nil {
			respond.Error(w, r, err, form)
			return
		}
		respond.Redirect(w, r, dest)
	}
}

func HandleEdit(svc *services.Notes) http.HandlerFunc {
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

func HandleDelete(svc *services.Notes) http.HandlerFunc {
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
