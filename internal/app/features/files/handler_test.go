package files_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/features/files"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/stratadrive/internal/testutil"
	"github.com/dalemusser/stratadrive/internal/testutil/memstore"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	users  *memstore.Users
	files  *memstore.Files
	blobs  *memstore.Blobs
}

func newEnv(t *testing.T) env {
	t.Helper()
	users := memstore.NewUsers()
	fs := memstore.NewFiles()
	blobs := memstore.NewBlobs()
	srv := httptest.NewServer(blobs)
	t.Cleanup(srv.Close)
	blobs.BaseURL = srv.URL

	svc := drive.New(drive.Deps{
		Authz:      authz.New(users, fs, authz.PolicyMember),
		Files:      fs,
		Stars:      memstore.NewStars(),
		Blobs:      blobs,
		HTTPClient: srv.Client(),
		Log:        zap.NewNop(),
	})
	h := files.NewHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/api/files", files.Routes(h))
	r.Mount("/api/scopes", files.ScopeRoutes(h))

	ctx := context.Background()
	for _, u := range []models.User{
		{PrincipalID: "u1", Memberships: []models.Membership{{OrgID: "org1", Role: models.RoleMember}}},
		{PrincipalID: "u2"},
	} {
		if _, err := users.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	return env{router: r, users: users, files: fs, blobs: blobs}
}

func (e env) do(t *testing.T, method, target, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, testutil.Request(t, method, target, principal, body))
	return rec
}

func (e env) commit(t *testing.T, principal, scope, name string) models.File {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/files", principal, drive.UploadInput{
		ScopeID: scope, Name: name, MIMEType: "application/pdf", BlobKey: e.blobs.Seed(name),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("commit: status %d body %s", rec.Code, rec.Body.String())
	}
	var f models.File
	testutil.DecodeJSON(t, rec, &f)
	return f
}

func TestUploadTicket(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/files/upload-ticket", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status %d, want 401", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/files/upload-ticket", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var tk struct {
		UploadURL string `json:"upload_url"`
		BlobKey   string `json:"blob_key"`
	}
	testutil.DecodeJSON(t, rec, &tk)
	if tk.UploadURL == "" || tk.BlobKey == "" {
		t.Errorf("incomplete ticket: %+v", tk)
	}
}

func TestCommit(t *testing.T) {
	e := newEnv(t)

	f := e.commit(t, "u1", "u1", "notes.pdf")
	if f.ContentType != models.ContentTypePDF || f.ScopeID != "u1" || f.Trashed {
		t.Errorf("unexpected file: %+v", f)
	}

	tests := []struct {
		name      string
		principal string
		body      any
		want      int
	}{
		{"unsupported type", "u1", drive.UploadInput{ScopeID: "u1", Name: "a.zip", MIMEType: "application/zip", BlobKey: e.blobs.Seed("z")}, http.StatusBadRequest},
		{"denied scope", "u2", drive.UploadInput{ScopeID: "org1", Name: "a.pdf", MIMEType: "application/pdf", BlobKey: e.blobs.Seed("p")}, http.StatusForbidden},
		{"unknown field", "u1", map[string]string{"scope": "u1"}, http.StatusBadRequest},
		{"anonymous", "", drive.UploadInput{}, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/files", tc.principal, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
	if e.files.Len() != 1 {
		t.Errorf("expected only the first commit to be stored, got %d files", e.files.Len())
	}
}

func TestList(t *testing.T) {
	e := newEnv(t)
	e.commit(t, "u1", "org1", "a.pdf")
	e.commit(t, "u1", "org1", "b.pdf")

	rec := e.do(t, http.MethodGet, "/api/scopes/org1/files", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var list []models.FileWithStar
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 2 {
		t.Errorf("expected 2 files, got %d", len(list))
	}

	// No access degrades to an empty array.
	for _, principal := range []string{"u2", ""} {
		rec = e.do(t, http.MethodGet, "/api/scopes/org1/files", principal, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: status %d", principal, rec.Code)
		}
		if got := rec.Body.String(); got != "[]\n" {
			t.Errorf("%q: body %q, want []", principal, got)
		}
	}

	rec = e.do(t, http.MethodGet, "/api/scopes/org1/files?view=bogus", "u1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad view: status %d, want 400", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/api/scopes/org1/files?since=yesterday", "u1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad since: status %d, want 400", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/api/scopes/org1/files?q=B.PDF&view=active", "u1", nil)
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].Name != "b.pdf" {
		t.Errorf("search: got %+v", list)
	}
}

func TestLifecycle(t *testing.T) {
	e := newEnv(t)
	f := e.commit(t, "u1", "org1", "a.pdf")
	base := "/api/files/" + f.ID.Hex()

	rec := e.do(t, http.MethodPatch, base, "u1", map[string]string{"name": "renamed.pdf"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status %d", rec.Code)
	}
	var renamed models.File
	testutil.DecodeJSON(t, rec, &renamed)
	if renamed.Name != "renamed.pdf" {
		t.Errorf("rename: name %q", renamed.Name)
	}

	rec = e.do(t, http.MethodPost, base+"/star", "u1", nil)
	var star struct {
		Starred bool `json:"starred"`
	}
	testutil.DecodeJSON(t, rec, &star)
	if !star.Starred {
		t.Error("first star toggle should star")
	}

	if rec = e.do(t, http.MethodPost, base+"/trash", "u1", nil); rec.Code != http.StatusNoContent {
		t.Errorf("trash: status %d", rec.Code)
	}
	if rec = e.do(t, http.MethodPost, base+"/restore", "u1", nil); rec.Code != http.StatusNoContent {
		t.Errorf("restore: status %d", rec.Code)
	}

	if rec = e.do(t, http.MethodPost, base+"/trash", "u2", nil); rec.Code != http.StatusForbidden {
		t.Errorf("trash by outsider: status %d, want 403", rec.Code)
	}
	if rec = e.do(t, http.MethodDelete, "/api/files/not-an-id", "u1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete malformed id: status %d, want 404", rec.Code)
	}

	if rec = e.do(t, http.MethodDelete, base, "u1", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	if rec = e.do(t, http.MethodPost, base+"/star", "u1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("star after delete: status %d, want 404", rec.Code)
	}
}

func TestDelete_StorageFailure(t *testing.T) {
	e := newEnv(t)
	f := e.commit(t, "u1", "u1", "a.pdf")
	e.blobs.FailDelete = true

	rec := e.do(t, http.MethodDelete, "/api/files/"+f.ID.Hex(), "u1", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Error != "something went wrong, please try again later" {
		t.Errorf("error = %q", body.Error)
	}
	if e.files.Len() != 1 {
		t.Error("record must survive a failed blob delete")
	}
}

func TestDuplicate(t *testing.T) {
	e := newEnv(t)
	f := e.commit(t, "u1", "u1", "a.pdf")
	url := "/api/files/" + f.ID.Hex() + "/duplicate"

	if rec := e.do(t, http.MethodPost, url, "u1", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing target: status %d, want 400", rec.Code)
	}

	rec := e.do(t, http.MethodPost, url, "u1", map[string]string{"target_scope_id": "org1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var dup models.File
	testutil.DecodeJSON(t, rec, &dup)
	if dup.ScopeID != "org1" || dup.BlobKey == f.BlobKey {
		t.Errorf("unexpected duplicate: %+v", dup)
	}
}
