// Package memstore holds in-memory repositories with the same contracts as
// the Mongo stores, for service and handler tests that do not need a database.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	filestore "github.com/dalemusser/stratadrive/internal/app/store/files"
	userstore "github.com/dalemusser/stratadrive/internal/app/store/users"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected failure")

// NoTx runs fn directly; the in-memory stores have nothing to roll back.
func NoTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

/* -------------------------------------------------------------------------- */
/* Users                                                                      */
/* -------------------------------------------------------------------------- */

type Users struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
	// FailAddMembership makes AddMembership return ErrInjected.
	FailAddMembership bool
}

func NewUsers() *Users {
	return &Users{byID: map[primitive.ObjectID]models.User{}}
}

func cloneUser(u models.User) models.User {
	u.Memberships = append([]models.Membership{}, u.Memberships...)
	return u
}

func (s *Users) Create(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.byID {
		if ex.PrincipalID == u.PrincipalID {
			return models.User{}, userstore.ErrDuplicateUser
		}
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	if u.Memberships == nil {
		u.Memberships = []models.Membership{}
	}
	u.CreatedAt, u.UpdatedAt = now, now
	s.byID[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (s *Users) GetByPrincipal(_ context.Context, principalID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.PrincipalID == principalID {
			return cloneUser(u), nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return cloneUser(u), nil
}

func (s *Users) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *Users) UpdateProfile(_ context.Context, principalID, displayName, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.byID {
		if u.PrincipalID == principalID {
			u.DisplayName, u.AvatarURL, u.UpdatedAt = displayName, avatarURL, time.Now().UTC()
			s.byID[id] = u
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *Users) AddMembership(_ context.Context, userID primitive.ObjectID, m models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAddMembership {
		return ErrInjected
	}
	u, ok := s.byID[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if _, exists := u.MembershipFor(m.OrgID); exists {
		return nil
	}
	u.Memberships = append(u.Memberships, m)
	s.byID[userID] = u
	return nil
}

func (s *Users) SetMembershipRole(_ context.Context, userID primitive.ObjectID, orgID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for i := range u.Memberships {
		if u.Memberships[i].OrgID == orgID {
			u.Memberships[i].Role = role
			s.byID[userID] = u
			return nil
		}
	}
	return userstore.ErrMembershipNotFound
}

func (s *Users) RemoveMembership(_ context.Context, userID primitive.ObjectID, orgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	kept := u.Memberships[:0]
	for _, m := range u.Memberships {
		if m.OrgID != orgID {
			kept = append(kept, m)
		}
	}
	u.Memberships = kept
	s.byID[userID] = u
	return nil
}

func (s *Users) ListByMembership(_ context.Context, orgID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.byID {
		if _, ok := u.MembershipFor(orgID); ok {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

/* -------------------------------------------------------------------------- */
/* Organizations                                                              */
/* -------------------------------------------------------------------------- */

type Orgs struct {
	mu    sync.Mutex
	byExt map[string]models.Organization
}

func NewOrgs() *Orgs {
	return &Orgs{byExt: map[string]models.Organization{}}
}

func cloneOrg(o models.Organization) models.Organization {
	o.MemberUserIDs = append([]primitive.ObjectID{}, o.MemberUserIDs...)
	return o
}

func (s *Orgs) Upsert(_ context.Context, externalID, displayName, avatarURL string) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	o, ok := s.byExt[externalID]
	if !ok {
		o = models.Organization{
			ID:            primitive.NewObjectID(),
			ExternalOrgID: externalID,
			MemberUserIDs: []primitive.ObjectID{},
			CreatedAt:     now,
		}
	}
	if displayName != "" {
		o.DisplayName = displayName
	}
	if avatarURL != "" {
		o.AvatarURL = avatarURL
	}
	o.UpdatedAt = now
	s.byExt[externalID] = o
	return cloneOrg(o), nil
}

func (s *Orgs) GetByExternalID(_ context.Context, externalID string) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byExt[externalID]
	if !ok {
		return models.Organization{}, mongo.ErrNoDocuments
	}
	return cloneOrg(o), nil
}

func (s *Orgs) GetByExternalIDs(_ context.Context, externalIDs []string) ([]models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Organization
	for _, id := range externalIDs {
		if o, ok := s.byExt[id]; ok {
			out = append(out, cloneOrg(o))
		}
	}
	return out, nil
}

func (s *Orgs) Update(_ context.Context, externalID, displayName, avatarURL string) error {
	return s.mutate(externalID, func(o *models.Organization) {
		o.DisplayName, o.AvatarURL = displayName, avatarURL
	})
}

func (s *Orgs) AddMember(_ context.Context, externalID string, userID primitive.ObjectID) error {
	return s.mutate(externalID, func(o *models.Organization) {
		for _, id := range o.MemberUserIDs {
			if id == userID {
				return
			}
		}
		o.MemberUserIDs = append(o.MemberUserIDs, userID)
	})
}

func (s *Orgs) RemoveMember(_ context.Context, externalID string, userID primitive.ObjectID) error {
	return s.mutate(externalID, func(o *models.Organization) {
		kept := []primitive.ObjectID{}
		for _, id := range o.MemberUserIDs {
			if id != userID {
				kept = append(kept, id)
			}
		}
		o.MemberUserIDs = kept
	})
}

func (s *Orgs) SetMembers(_ context.Context, externalID string, userIDs []primitive.ObjectID) error {
	return s.mutate(externalID, func(o *models.Organization) {
		o.MemberUserIDs = append([]primitive.ObjectID{}, userIDs...)
	})
}

func (s *Orgs) mutate(externalID string, fn func(*models.Organization)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byExt[externalID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	fn(&o)
	o.UpdatedAt = time.Now().UTC()
	s.byExt[externalID] = o
	return nil
}

/* -------------------------------------------------------------------------- */
/* Files                                                                      */
/* -------------------------------------------------------------------------- */

type Files struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]models.File
	order []primitive.ObjectID
	// FailCreate makes Create return ErrInjected.
	FailCreate bool
	// FailDelete makes Delete return ErrInjected for these ids.
	FailDelete map[primitive.ObjectID]bool
}

func NewFiles() *Files {
	return &Files{byID: map[primitive.ObjectID]models.File{}, FailDelete: map[primitive.ObjectID]bool{}}
}

func (s *Files) Create(_ context.Context, f models.File) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate {
		return models.File{}, ErrInjected
	}
	for _, other := range s.byID {
		if other.BlobKey == f.BlobKey {
			return models.File{}, filestore.ErrDuplicateBlobKey
		}
	}
	now := time.Now().UTC()
	f.ID = primitive.NewObjectID()
	f.NameCI = text.Fold(f.Name)
	f.Trashed, f.TrashedAt = false, nil
	f.CreatedAt, f.UpdatedAt = now, now
	s.byID[f.ID] = f
	s.order = append(s.order, f.ID)
	return f, nil
}

// Seed inserts f as-is (keeping its ID and trash state).
func (s *Files) Seed(f models.File) models.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	f.NameCI = text.Fold(f.Name)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.Trashed && f.TrashedAt == nil {
		t := f.CreatedAt
		f.TrashedAt = &t
	}
	s.byID[f.ID] = f
	s.order = append(s.order, f.ID)
	return f
}

func (s *Files) GetByID(_ context.Context, id primitive.ObjectID) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	if !ok {
		return models.File{}, mongo.ErrNoDocuments
	}
	return f, nil
}

func (s *Files) ListByScope(_ context.Context, scopeID string, flt filestore.Filter) ([]models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids map[primitive.ObjectID]bool
	if flt.IDs != nil {
		ids = map[primitive.ObjectID]bool{}
		for _, id := range flt.IDs {
			ids[id] = true
		}
	}
	q := text.Fold(strings.TrimSpace(flt.NameQuery))

	out := []models.File{}
	for _, id := range s.order {
		f, ok := s.byID[id]
		switch {
		case !ok, f.ScopeID != scopeID:
			continue
		case flt.Trashed != nil && f.Trashed != *flt.Trashed:
			continue
		case flt.ContentType != "" && f.ContentType != flt.ContentType:
			continue
		case !flt.OwnerUserID.IsZero() && f.OwnerUserID != flt.OwnerUserID:
			continue
		case q != "" && !strings.Contains(f.NameCI, q):
			continue
		case !flt.CreatedSince.IsZero() && f.CreatedAt.Before(flt.CreatedSince):
			continue
		case ids != nil && !ids[f.ID]:
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Files) Rename(_ context.Context, id primitive.ObjectID, name string) error {
	return s.mutate(id, func(f *models.File) {
		f.Name, f.NameCI = name, text.Fold(name)
	})
}

func (s *Files) SetTrashed(_ context.Context, id primitive.ObjectID, trashed bool) error {
	return s.mutate(id, func(f *models.File) {
		if trashed && f.Trashed {
			return
		}
		f.Trashed = trashed
		if trashed {
			now := time.Now().UTC()
			f.TrashedAt = &now
		} else {
			f.TrashedAt = nil
		}
	})
}

func (s *Files) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete[id] {
		return 0, ErrInjected
	}
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func (s *Files) ListTrashed(_ context.Context, before time.Time) ([]models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.File
	for _, id := range s.order {
		f, ok := s.byID[id]
		if !ok || !f.Trashed {
			continue
		}
		if !before.IsZero() && f.TrashedAt != nil && f.TrashedAt.After(before) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Len returns the number of stored files.
func (s *Files) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Files) mutate(id primitive.ObjectID, fn func(*models.File)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	fn(&f)
	f.UpdatedAt = time.Now().UTC()
	s.byID[id] = f
	return nil
}

/* -------------------------------------------------------------------------- */
/* Stars                                                                      */
/* -------------------------------------------------------------------------- */

type starKey struct {
	user  primitive.ObjectID
	scope string
	file  primitive.ObjectID
}

type Stars struct {
	mu  sync.Mutex
	set map[starKey]time.Time
}

func NewStars() *Stars {
	return &Stars{set: map[starKey]time.Time{}}
}

func (s *Stars) Toggle(_ context.Context, userID primitive.ObjectID, f models.File) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := starKey{userID, f.ScopeID, f.ID}
	if _, ok := s.set[k]; ok {
		delete(s.set, k)
		return false, nil
	}
	s.set[k] = time.Now().UTC()
	return true, nil
}

func (s *Stars) StarredFileIDs(_ context.Context, userID primitive.ObjectID, scopeID string) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []primitive.ObjectID{}
	for k := range s.set {
		if k.user == userID && k.scope == scopeID {
			ids = append(ids, k.file)
		}
	}
	return ids, nil
}

func (s *Stars) DeleteByFile(_ context.Context, fileID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.set {
		if k.file == fileID {
			delete(s.set, k)
			n++
		}
	}
	return n, nil
}

// CountForFile counts stars on fileID across users.
func (s *Stars) CountForFile(_ context.Context, fileID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.set {
		if k.file == fileID {
			n++
		}
	}
	return n, nil
}
