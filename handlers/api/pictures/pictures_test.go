package pictures

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"nest-server/handlers/auth"
	"nest-server/middleware"
	"nest-server/services"
	"nest-server/stores/filesystem"
	"nest-server/stores/memory"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newService(t *testing.T) *services.Pictures {
	t.Helper()
	assets, err := filesystem.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := memory.NewStore()
	return services.NewPictures(store, store, assets)
}

func withUser(req *http.Request, user string) *http.Request {
	claims := &auth.AppClaims{Login: user}
	return req.WithContext(context.WithValue(req.Context(), middleware.ClaimsContextKey, claims))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func pictureRequest(t *testing.T, title, source string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("title", title)
	mw.WriteField("source", source)
	if file != nil {
		fw, err := mw.CreateFormFile("picture", "cat.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/pictures", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleCreate_Success(t *testing.T) {
	svc := newService(t)

	rr := httptest.NewRecorder()
	HandleCreate(svc, 1<<20)(rr, withUser(pictureRequest(t, "Cat", "MyPage", []byte("png")), "alice"))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/pictures/mypage" {
		t.Errorf("Location = %q, want /pictures/mypage", loc)
	}

	grid := svc.Grid(context.Background())
	if len(grid) != 1 || grid[0].Owner != "alice" || grid[0].AssetPath == "" {
		t.Fatalf("grid = %+v", grid)
	}
}

func TestHandleCreate_ValidationEchoesForm(t *testing.T) {
	svc := newService(t)

	rr := httptest.NewRecorder()
	HandleCreate(svc, 1<<20)(rr, withUser(pictureRequest(t, "", "", []byte("png")), "alice"))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Fields["title"] == "" {
		t.Errorf("fields = %v, want title error", body.Fields)
	}
	if n := len(svc.Grid(context.Background())); n != 0 {
		t.Errorf("pictures = %d, want 0", n)
	}
}

func TestHandleCreate_Unauthenticated(t *testing.T) {
	svc := newService(t)

	rr := httptest.NewRecorder()
	HandleCreate(svc, 1<<20)(rr, pictureRequest(t, "Cat", "", nil))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestHandleEditView_Forbidden(t *testing.T) {
	svc := newService(t)
	rr := httptest.NewRecorder()
	HandleCreate(svc, 1<<20)(rr, withUser(pictureRequest(t, "Cat", "", nil), "alice"))

	req := withID(withUser(httptest.NewRequest(http.MethodGet, "/pictures/1/edit", nil), "bob"), "1")
	rr = httptest.NewRecorder()
	HandleEditView(svc)(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestHandleDetails_InvalidID(t *testing.T) {
	svc := newService(t)

	for _, id := range []string{"abc", "0", "-4", "99"} {
		rr := httptest.NewRecorder()
		HandleDetails(svc)(rr, withID(httptest.NewRequest(http.MethodGet, "/pictures/"+id, nil), id))
		if rr.Code != http.StatusNotFound {
			t.Errorf("id %q: status = %d, want 404", id, rr.Code)
		}
	}
}
