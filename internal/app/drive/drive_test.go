package drive_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/stratadrive/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	svc   *drive.Service
	users *memstore.Users
	files *memstore.Files
	stars *memstore.Stars
	blobs *memstore.Blobs
}

func newEnv(t *testing.T, policy authz.Policy) env {
	t.Helper()
	users := memstore.NewUsers()
	files := memstore.NewFiles()
	stars := memstore.NewStars()
	blobs := memstore.NewBlobs()

	srv := httptest.NewServer(blobs)
	t.Cleanup(srv.Close)
	blobs.BaseURL = srv.URL

	svc := drive.New(drive.Deps{
		Authz:      authz.New(users, files, policy),
		Files:      files,
		Stars:      stars,
		Blobs:      blobs,
		HTTPClient: srv.Client(),
		Log:        zap.NewNop(),
	})
	return env{svc: svc, users: users, files: files, stars: stars, blobs: blobs}
}

func (e env) user(t *testing.T, principalID string, ms ...models.Membership) models.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), models.User{PrincipalID: principalID, Memberships: ms})
	require.NoError(t, err)
	return u
}

func (e env) upload(t *testing.T, principalID, scopeID, name, mimeType string) models.File {
	t.Helper()
	f, err := e.svc.UploadCommit(context.Background(), principalID, drive.UploadInput{
		ScopeID:  scopeID,
		Name:     name,
		MIMEType: mimeType,
		BlobKey:  e.blobs.Seed("bytes of " + name),
	})
	require.NoError(t, err)
	return f
}

func member(orgID string) models.Membership {
	return models.Membership{OrgID: orgID, Role: models.RoleMember}
}

func TestUploadCommit_PersonalScopeScenario(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	u := e.user(t, "u1")

	f := e.upload(t, "u1", "u1", "notes.csv", "text/csv")
	assert.Equal(t, u.ID, f.OwnerUserID)
	assert.Equal(t, "u1", f.OwnerPrincipalID)
	assert.NotEmpty(t, f.DownloadURL)

	list, err := e.svc.ListFiles(ctx, "u1", "u1", drive.ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "notes.csv", list[0].Name)
	assert.Equal(t, models.ContentTypeCSV, list[0].ContentType)
	assert.False(t, list[0].Trashed)
	assert.False(t, list[0].IsStarred)
}

func TestUploadCommit_ContentTypes(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	e.user(t, "u1")

	tests := []struct {
		mime string
		want string
	}{
		{"application/pdf", models.ContentTypePDF},
		{"text/csv", models.ContentTypeCSV},
		{"image/png", models.ContentTypeImage},
		{"image/jpeg", models.ContentTypeImage},
	}
	for _, tc := range tests {
		t.Run(tc.mime, func(t *testing.T) {
			f := e.upload(t, "u1", "u1", "file", tc.mime)
			assert.Equal(t, tc.want, f.ContentType)
		})
	}
}

func TestUploadCommit_RejectsBeforeWriting(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	key := e.blobs.Seed("zip")

	tests := []struct {
		name string
		in   drive.UploadInput
	}{
		{"unsupported mime", drive.UploadInput{ScopeID: "u1", Name: "a.zip", MIMEType: "application/zip", BlobKey: key}},
		{"empty name", drive.UploadInput{ScopeID: "u1", Name: "  ", MIMEType: "text/csv", BlobKey: key}},
		{"markup only name", drive.UploadInput{ScopeID: "u1", Name: "<b></b>", MIMEType: "text/csv", BlobKey: key}},
		{"bad key", drive.UploadInput{ScopeID: "u1", Name: "a.csv", MIMEType: "text/csv", BlobKey: "../etc/passwd"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.UploadCommit(ctx, "u1", tc.in)
			assert.ErrorIs(t, err, drive.ErrValidation)
		})
	}
	assert.Equal(t, 0, e.files.Len())
}

func TestUploadCommit_AccessAndStorage(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")

	in := drive.UploadInput{ScopeID: "org1", Name: "a.pdf", MIMEType: "application/pdf", BlobKey: e.blobs.Seed("x")}

	_, err := e.svc.UploadCommit(ctx, "", in)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	_, err = e.svc.UploadCommit(ctx, "u1", in)
	assert.ErrorIs(t, err, authz.ErrDenied)

	_, err = e.svc.UploadCommit(ctx, "ghost", drive.UploadInput{ScopeID: "ghost", Name: "a.pdf", MIMEType: "application/pdf", BlobKey: in.BlobKey})
	assert.ErrorIs(t, err, authz.ErrInconsistentState)

	// Key was never uploaded, so no download URL resolves.
	in.ScopeID = "u1"
	in.BlobKey = "0b5a3c9e-1111-4222-8333-944455556666"
	_, err = e.svc.UploadCommit(ctx, "u1", in)
	assert.ErrorIs(t, err, drive.ErrStorage)

	assert.Equal(t, 0, e.files.Len())
}

func TestUploadCommit_BlobKeyOwnedByOneFile(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1", member("org1"))
	e.user(t, "u2")
	orgFile := e.upload(t, "u1", "org1", "report.pdf", "application/pdf")

	// u2 has seen the org file's key and tries to claim the same blob.
	_, err := e.svc.UploadCommit(ctx, "u2", drive.UploadInput{
		ScopeID:  "u2",
		Name:     "mine.pdf",
		MIMEType: "application/pdf",
		BlobKey:  orgFile.BlobKey,
	})
	assert.ErrorIs(t, err, drive.ErrValidation)

	mine, err := e.svc.ListFiles(ctx, "u2", "u2", drive.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	org, err := e.svc.ListFiles(ctx, "u1", "org1", drive.ListQuery{})
	require.NoError(t, err)
	require.Len(t, org, 1)
	assert.True(t, e.blobs.Has(orgFile.BlobKey))

	// The owner committing the same key twice is refused as well.
	_, err = e.svc.UploadCommit(ctx, "u1", drive.UploadInput{
		ScopeID:  "org1",
		Name:     "again.pdf",
		MIMEType: "application/pdf",
		BlobKey:  orgFile.BlobKey,
	})
	assert.ErrorIs(t, err, drive.ErrValidation)
	assert.Equal(t, 1, e.files.Len())
}

func TestGenerateUploadTicket(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()

	_, err := e.svc.GenerateUploadTicket(ctx, "")
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	tk, err := e.svc.GenerateUploadTicket(ctx, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, tk.BlobKey)
	assert.Contains(t, tk.UploadURL, tk.BlobKey)
}

func TestListFiles_ScopeIsolation(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	e.user(t, "u2", member("org1"))
	e.user(t, "u3", member("org2"))

	e.upload(t, "u1", "u1", "private.csv", "text/csv")
	e.upload(t, "u2", "org1", "shared.pdf", "application/pdf")
	e.upload(t, "u2", "u2", "mine.pdf", "application/pdf")
	e.upload(t, "u3", "org2", "other.pdf", "application/pdf")

	list, err := e.svc.ListFiles(ctx, "u2", "org1", drive.ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "shared.pdf", list[0].Name)
	assert.Equal(t, "org1", list[0].ScopeID)

	for _, tc := range []struct{ principal, scope string }{
		{"u1", "org1"},
		{"u2", "u1"},
		{"u3", "org1"},
		{"", "org1"},
	} {
		list, err := e.svc.ListFiles(ctx, tc.principal, tc.scope, drive.ListQuery{})
		require.NoError(t, err, "%s/%s", tc.principal, tc.scope)
		assert.Empty(t, list, "%s must not see %s", tc.principal, tc.scope)
		assert.NotNil(t, list)
	}
}

func TestListFiles_Views(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1", member("org1"))
	uploader := e.user(t, "u2", member("org1"))

	a := e.upload(t, "u1", "org1", "Budget.csv", "text/csv")
	b := e.upload(t, "u2", "org1", "photo.png", "image/png")
	c := e.upload(t, "u1", "org1", "report.pdf", "application/pdf")

	_, err := e.svc.ToggleStar(ctx, "u1", b.ID.Hex())
	require.NoError(t, err)
	_, err = e.svc.ToggleStar(ctx, "u1", c.ID.Hex())
	require.NoError(t, err)
	require.NoError(t, e.svc.MoveToTrash(ctx, "u1", c.ID.Hex()))

	names := func(q drive.ListQuery) []string {
		t.Helper()
		list, err := e.svc.ListFiles(ctx, "u1", "org1", q)
		require.NoError(t, err)
		out := []string{}
		for _, f := range list {
			out = append(out, f.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Budget.csv", "photo.png", "report.pdf"}, names(drive.ListQuery{}))
	assert.Equal(t, []string{"Budget.csv", "photo.png"}, names(drive.ListQuery{View: drive.ViewActive}))
	assert.Equal(t, []string{"photo.png"}, names(drive.ListQuery{View: drive.ViewStarred}))
	assert.Equal(t, []string{"report.pdf"}, names(drive.ListQuery{View: drive.ViewTrash}))
	assert.Equal(t, []string{"photo.png"}, names(drive.ListQuery{ContentType: models.ContentTypeImage}))
	assert.Equal(t, []string{"photo.png"}, names(drive.ListQuery{Uploader: uploader.ID.Hex()}))
	assert.Equal(t, []string{"Budget.csv"}, names(drive.ListQuery{Search: "budg"}))
	assert.Equal(t, []string{a.Name}, names(drive.ListQuery{Search: "BUDGET"}))

	// Stars are per user.
	list, err := e.svc.ListFiles(ctx, "u2", "org1", drive.ListQuery{})
	require.NoError(t, err)
	for _, f := range list {
		assert.False(t, f.IsStarred, f.Name)
	}

	for _, q := range []drive.ListQuery{
		{View: "recent"},
		{ContentType: "zip"},
		{Uploader: "not-hex"},
	} {
		_, err := e.svc.ListFiles(ctx, "u1", "org1", q)
		assert.ErrorIs(t, err, drive.ErrValidation)
	}
}

func TestToggleStar_TwiceRoundTrips(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	f := e.upload(t, "u1", "u1", "a.csv", "text/csv")

	on, err := e.svc.ToggleStar(ctx, "u1", f.ID.Hex())
	require.NoError(t, err)
	assert.True(t, on)
	n, _ := e.stars.CountForFile(ctx, f.ID)
	assert.EqualValues(t, 1, n)

	off, err := e.svc.ToggleStar(ctx, "u1", f.ID.Hex())
	require.NoError(t, err)
	assert.False(t, off)
	n, _ = e.stars.CountForFile(ctx, f.ID)
	assert.EqualValues(t, 0, n)

	e.user(t, "u2")
	_, err = e.svc.ToggleStar(ctx, "u2", f.ID.Hex())
	assert.ErrorIs(t, err, authz.ErrDenied)
	_, err = e.svc.ToggleStar(ctx, "u1", primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, authz.ErrFileNotFound)
}

func TestTrashRestore_RoundTrip(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	f := e.upload(t, "u1", "u1", "a.pdf", "application/pdf")

	require.NoError(t, e.svc.MoveToTrash(ctx, "u1", f.ID.Hex()))
	require.NoError(t, e.svc.MoveToTrash(ctx, "u1", f.ID.Hex()))
	trashed, err := e.files.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, trashed.Trashed)
	assert.NotNil(t, trashed.TrashedAt)

	require.NoError(t, e.svc.RestoreFile(ctx, "u1", f.ID.Hex()))
	got, err := e.files.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, got.Trashed)
	assert.Nil(t, got.TrashedAt)
	assert.Equal(t, f.Name, got.Name)
	assert.Equal(t, f.ContentType, got.ContentType)
	assert.Equal(t, f.BlobKey, got.BlobKey)
}

func TestRenameFile(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	e.user(t, "u2")
	f := e.upload(t, "u1", "u1", "a.pdf", "application/pdf")

	got, err := e.svc.RenameFile(ctx, "u1", f.ID.Hex(), "  <i>b</i>.pdf ")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", got.Name)

	_, err = e.svc.RenameFile(ctx, "u1", f.ID.Hex(), "")
	assert.ErrorIs(t, err, drive.ErrValidation)
	_, err = e.svc.RenameFile(ctx, "u2", f.ID.Hex(), "c.pdf")
	assert.ErrorIs(t, err, authz.ErrDenied)
	_, err = e.svc.RenameFile(ctx, "", f.ID.Hex(), "c.pdf")
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
	_, err = e.svc.RenameFile(ctx, "u1", "nope", "c.pdf")
	assert.ErrorIs(t, err, authz.ErrFileNotFound)

	stored, err := e.files.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", stored.Name)
}

func TestMutationPolicies(t *testing.T) {
	tests := []struct {
		policy    authz.Policy
		otherErr  error
		memberErr error
	}{
		{authz.PolicyMember, nil, nil},
		{authz.PolicyAdmin, authz.ErrDenied, authz.ErrDenied},
		{authz.PolicyOwnerOrAdmin, authz.ErrDenied, nil},
	}
	for _, tc := range tests {
		t.Run(string(tc.policy), func(t *testing.T) {
			e := newEnv(t, tc.policy)
			ctx := context.Background()
			e.user(t, "owner", member("org1"))
			e.user(t, "other", member("org1"))
			e.user(t, "boss", models.Membership{OrgID: "org1", Role: models.RoleAdmin})
			f := e.upload(t, "owner", "org1", "a.pdf", "application/pdf")

			err := e.svc.MoveToTrash(ctx, "other", f.ID.Hex())
			if tc.otherErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.otherErr)
			}

			err = e.svc.RestoreFile(ctx, "owner", f.ID.Hex())
			if tc.memberErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.memberErr)
			}

			assert.NoError(t, e.svc.MoveToTrash(ctx, "boss", f.ID.Hex()))

			// Starring never needs more than scope access.
			_, err = e.svc.ToggleStar(ctx, "other", f.ID.Hex())
			assert.NoError(t, err)
		})
	}
}

func TestDeleteForever(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1", member("org1"))
	e.user(t, "u2", member("org1"))
	f := e.upload(t, "u1", "org1", "a.pdf", "application/pdf")
	keep := e.upload(t, "u1", "org1", "b.pdf", "application/pdf")

	_, err := e.svc.ToggleStar(ctx, "u1", f.ID.Hex())
	require.NoError(t, err)
	_, err = e.svc.ToggleStar(ctx, "u2", f.ID.Hex())
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteForever(ctx, "u2", f.ID.Hex()))

	list, err := e.svc.ListFiles(ctx, "u1", "org1", drive.ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	n, err := e.stars.CountForFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, e.blobs.Has(f.BlobKey))
	assert.True(t, e.blobs.Has(keep.BlobKey))

	assert.ErrorIs(t, e.svc.DeleteForever(ctx, "u1", f.ID.Hex()), authz.ErrFileNotFound)
}

func TestDeleteForever_BlobFailureKeepsRecord(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	f := e.upload(t, "u1", "u1", "a.pdf", "application/pdf")
	_, err := e.svc.ToggleStar(ctx, "u1", f.ID.Hex())
	require.NoError(t, err)

	e.blobs.FailDelete = true
	assert.ErrorIs(t, e.svc.DeleteForever(ctx, "u1", f.ID.Hex()), drive.ErrStorage)

	_, err = e.files.GetByID(ctx, f.ID)
	assert.NoError(t, err)
	n, _ := e.stars.CountForFile(ctx, f.ID)
	assert.EqualValues(t, 1, n)
}

func TestDuplicateFileTo(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1", member("org1"))
	src := e.upload(t, "u1", "u1", "plan.pdf", "application/pdf")

	dst, err := e.svc.DuplicateFileTo(ctx, "u1", src.ID.Hex(), "org1")
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dst.ID)
	assert.NotEqual(t, src.BlobKey, dst.BlobKey)
	assert.Equal(t, "org1", dst.ScopeID)
	assert.Equal(t, src.Name, dst.Name)
	assert.Equal(t, src.ContentType, dst.ContentType)
	assert.False(t, dst.Trashed)
	assert.True(t, e.blobs.Has(dst.BlobKey))

	resp, err := http.Get(dst.DownloadURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	list, err := e.svc.ListFiles(ctx, "u1", "org1", drive.ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, dst.ID, list[0].ID)
}

func TestDuplicateFileTo_Access(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	e.user(t, "u2", member("org1"))
	src := e.upload(t, "u1", "u1", "plan.pdf", "application/pdf")
	blobsBefore := e.blobs.Len()

	_, err := e.svc.DuplicateFileTo(ctx, "u1", src.ID.Hex(), "org1")
	assert.ErrorIs(t, err, authz.ErrDenied)
	_, err = e.svc.DuplicateFileTo(ctx, "u2", src.ID.Hex(), "org1")
	assert.ErrorIs(t, err, authz.ErrDenied)

	assert.Equal(t, blobsBefore, e.blobs.Len())
	assert.Equal(t, 1, e.files.Len())
}

func TestDuplicateFileTo_StorageFailures(t *testing.T) {
	t.Run("source blob missing", func(t *testing.T) {
		e := newEnv(t, authz.PolicyMember)
		ctx := context.Background()
		e.user(t, "u1")
		src := e.upload(t, "u1", "u1", "a.pdf", "application/pdf")
		require.NoError(t, e.blobs.Delete(ctx, src.BlobKey))

		_, err := e.svc.DuplicateFileTo(ctx, "u1", src.ID.Hex(), "u1")
		assert.ErrorIs(t, err, drive.ErrStorage)
		assert.Equal(t, 1, e.files.Len())
	})

	t.Run("put fails", func(t *testing.T) {
		e := newEnv(t, authz.PolicyMember)
		ctx := context.Background()
		e.user(t, "u1")
		src := e.upload(t, "u1", "u1", "a.pdf", "application/pdf")
		e.blobs.FailPut = true

		_, err := e.svc.DuplicateFileTo(ctx, "u1", src.ID.Hex(), "u1")
		assert.ErrorIs(t, err, drive.ErrStorage)
		assert.Equal(t, 1, e.blobs.Len())
		assert.Equal(t, 1, e.files.Len())
	})

	t.Run("record insert fails removes new blob", func(t *testing.T) {
		e := newEnv(t, authz.PolicyMember)
		ctx := context.Background()
		e.user(t, "u1")
		src := e.upload(t, "u1", "u1", "a.pdf", "application/pdf")
		e.files.FailCreate = true

		_, err := e.svc.DuplicateFileTo(ctx, "u1", src.ID.Hex(), "u1")
		assert.ErrorIs(t, err, memstore.ErrInjected)
		assert.Equal(t, 1, e.blobs.Len())
		assert.True(t, e.blobs.Has(src.BlobKey))
		assert.Equal(t, 1, e.files.Len())
	})
}

func TestPurgeFile_BypassesAuthorization(t *testing.T) {
	e := newEnv(t, authz.PolicyAdmin)
	ctx := context.Background()
	e.user(t, "u1", member("org1"))
	f := e.upload(t, "u1", "org1", "a.pdf", "application/pdf")
	_, err := e.svc.ToggleStar(ctx, "u1", f.ID.Hex())
	require.NoError(t, err)

	// u1 is not an org admin so the policy would refuse a user delete.
	assert.ErrorIs(t, e.svc.DeleteForever(ctx, "u1", f.ID.Hex()), authz.ErrDenied)

	// Only trashed files are purged.
	purged, err := e.svc.PurgeFile(ctx, f)
	require.NoError(t, err)
	assert.False(t, purged)
	assert.True(t, e.blobs.Has(f.BlobKey))

	require.NoError(t, e.files.SetTrashed(ctx, f.ID, true))
	purged, err = e.svc.PurgeFile(ctx, f)
	require.NoError(t, err)
	assert.True(t, purged)
	assert.Equal(t, 0, e.files.Len())
	assert.False(t, e.blobs.Has(f.BlobKey))
	n, _ := e.stars.CountForFile(ctx, f.ID)
	assert.Zero(t, n)

	// Already gone.
	purged, err = e.svc.PurgeFile(ctx, f)
	require.NoError(t, err)
	assert.False(t, purged)
}

func TestPurgeFile_SkipsRestoredFile(t *testing.T) {
	e := newEnv(t, authz.PolicyMember)
	ctx := context.Background()
	e.user(t, "u1")
	f := e.upload(t, "u1", "u1", "a.pdf", "application/pdf")
	require.NoError(t, e.svc.MoveToTrash(ctx, "u1", f.ID.Hex()))

	listed, err := e.svc.TrashedFiles(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, e.svc.RestoreFile(ctx, "u1", f.ID.Hex()))

	purged, err := e.svc.PurgeFile(ctx, listed[0])
	require.NoError(t, err)
	assert.False(t, purged)
	assert.True(t, e.blobs.Has(f.BlobKey))
	list, err := e.svc.ListFiles(ctx, "u1", "u1", drive.ListQuery{View: drive.ViewActive})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
