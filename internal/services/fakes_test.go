package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

// Keep the fakes honest: a repo method added without a fake counterpart
// breaks the build here instead of in whichever test trips over it.
var (
	_ repos.LectureRepo             = (*fakeLectureRepo)(nil)
	_ repos.LecturePrerequisiteRepo = (*fakeEdgeRepo)(nil)
	_ repos.LectureProgressRepo     = (*fakeProgressRepo)(nil)
	_ repos.UserRepo                = (*fakeUserRepo)(nil)
	_ repos.UserTokenRepo           = (*fakeTokenRepo)(nil)
)

// Shared in-memory fakes for the service tests in this package. The
// fake repos operate on one memStore so a test can wire several
// services over the same data.

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fakeTxRunner struct {
	calls int
	fail  error
}

func (f *fakeTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type memStore struct {
	lectures map[uuid.UUID]*types.Lecture
	edges    []*types.LecturePrerequisite
	progress map[string]*types.LectureProgress
	users    map[uuid.UUID]*types.User
	tokens   map[uuid.UUID]*types.UserToken
}

func newMemStore() *memStore {
	return &memStore{
		lectures: map[uuid.UUID]*types.Lecture{},
		progress: map[string]*types.LectureProgress{},
		users:    map[uuid.UUID]*types.User{},
		tokens:   map[uuid.UUID]*types.UserToken{},
	}
}

func progressKey(userID, lectureID uuid.UUID) string {
	return userID.String() + "/" + lectureID.String()
}

func (m *memStore) addLecture(title, category string, order int) *types.Lecture {
	l := &types.Lecture{
		ID:         uuid.New(),
		Title:      title,
		Category:   category,
		OrderIndex: order,
	}
	m.lectures[l.ID] = l
	return l
}

func (m *memStore) addEdge(lectureID, prereqID uuid.UUID, required bool) *types.LecturePrerequisite {
	e := &types.LecturePrerequisite{
		ID:                    uuid.New(),
		LectureID:             lectureID,
		PrerequisiteLectureID: prereqID,
		IsRequired:            required,
		ImportanceLevel:       types.ImportanceLevelDefault,
	}
	m.edges = append(m.edges, e)
	return e
}

func (m *memStore) setProgress(userID, lectureID uuid.UUID, status types.WorkflowStatus) *types.LectureProgress {
	row := &types.LectureProgress{
		ID:        uuid.New(),
		UserID:    userID,
		LectureID: lectureID,
		Status:    status,
	}
	if status == types.StatusMastered {
		now := time.Now().UTC()
		row.CompletedAt = &now
	}
	m.progress[progressKey(userID, lectureID)] = row
	return row
}

type fakeLectureRepo struct {
	store *memStore
}

func (f *fakeLectureRepo) Create(_ dbctx.Context, rows []*types.Lecture) ([]*types.Lecture, error) {
	for _, l := range rows {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		f.store.lectures[l.ID] = l
	}
	return rows, nil
}

func (f *fakeLectureRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.Lecture, error) {
	out := []*types.Lecture{}
	for _, id := range ids {
		if l, ok := f.store.lectures[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLectureRepo) GetByTitleAndCategory(_ dbctx.Context, title, category string) (*types.Lecture, error) {
	for _, l := range f.store.lectures {
		if strings.EqualFold(l.Title, title) && strings.EqualFold(l.Category, category) {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeLectureRepo) List(_ dbctx.Context, category string) ([]*types.Lecture, error) {
	out := []*types.Lecture{}
	for _, l := range f.store.lectures {
		if category != "" && !strings.EqualFold(l.Category, category) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakeLectureRepo) ExistsByIDs(_ dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	for _, id := range ids {
		if _, ok := f.store.lectures[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeLectureRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	l, ok := f.store.lectures[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "title":
			l.Title, _ = v.(string)
		case "description":
			l.Description, _ = v.(string)
		case "category":
			l.Category, _ = v.(string)
		case "order_index":
			if n, ok := v.(int); ok {
				l.OrderIndex = n
			}
		case "duration_minutes":
			if n, ok := v.(int); ok {
				l.DurationMinutes = n
			}
		case "video_url":
			l.VideoURL, _ = v.(string)
		}
	}
	return nil
}

func (f *fakeLectureRepo) SoftDeleteByIDs(_ dbctx.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.store.lectures, id)
	}
	return nil
}

func (f *fakeLectureRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	return f.SoftDeleteByIDs(dbc, ids)
}

type fakeEdgeRepo struct {
	store     *memStore
	lockCalls int
	lockErr   error
}

func (f *fakeEdgeRepo) Create(_ dbctx.Context, rows []*types.LecturePrerequisite) ([]*types.LecturePrerequisite, error) {
	for _, e := range rows {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		f.store.edges = append(f.store.edges, e)
	}
	return rows, nil
}

func (f *fakeEdgeRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.LecturePrerequisite, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []*types.LecturePrerequisite{}
	for _, e := range f.store.edges {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEdgeRepo) GetByLectureIDs(_ dbctx.Context, lectureIDs []uuid.UUID) ([]*types.LecturePrerequisite, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range lectureIDs {
		want[id] = true
	}
	out := []*types.LecturePrerequisite{}
	for _, e := range f.store.edges {
		if want[e.LectureID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEdgeRepo) GetByPrerequisiteLectureIDs(_ dbctx.Context, prereqIDs []uuid.UUID) ([]*types.LecturePrerequisite, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range prereqIDs {
		want[id] = true
	}
	out := []*types.LecturePrerequisite{}
	for _, e := range f.store.edges {
		if want[e.PrerequisiteLectureID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEdgeRepo) GetByPair(_ dbctx.Context, lectureID, prereqID uuid.UUID) (*types.LecturePrerequisite, error) {
	for _, e := range f.store.edges {
		if e.LectureID == lectureID && e.PrerequisiteLectureID == prereqID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEdgeRepo) ListAll(_ dbctx.Context) ([]*types.LecturePrerequisite, error) {
	return append([]*types.LecturePrerequisite{}, f.store.edges...), nil
}

func (f *fakeEdgeRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	for _, e := range f.store.edges {
		if e.ID != id {
			continue
		}
		for k, v := range updates {
			switch k {
			case "is_required":
				if b, ok := v.(bool); ok {
					e.IsRequired = b
				}
			case "importance_level":
				if n, ok := v.(int); ok {
					e.ImportanceLevel = n
				}
			}
		}
	}
	return nil
}

func (f *fakeEdgeRepo) SoftDeleteByIDs(_ dbctx.Context, ids []uuid.UUID) error {
	drop := map[uuid.UUID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.store.edges[:0]
	for _, e := range f.store.edges {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	f.store.edges = kept
	return nil
}

func (f *fakeEdgeRepo) SoftDeleteByLectureIDs(_ dbctx.Context, lectureIDs []uuid.UUID) error {
	drop := map[uuid.UUID]bool{}
	for _, id := range lectureIDs {
		drop[id] = true
	}
	kept := f.store.edges[:0]
	for _, e := range f.store.edges {
		if !drop[e.LectureID] && !drop[e.PrerequisiteLectureID] {
			kept = append(kept, e)
		}
	}
	f.store.edges = kept
	return nil
}

func (f *fakeEdgeRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	return f.SoftDeleteByIDs(dbc, ids)
}

func (f *fakeEdgeRepo) LockGraph(_ dbctx.Context) error {
	f.lockCalls++
	return f.lockErr
}

type fakeProgressRepo struct {
	store *memStore
}

func (f *fakeProgressRepo) GetByUserAndLecture(_ dbctx.Context, userID, lectureID uuid.UUID) (*types.LectureProgress, error) {
	return f.store.progress[progressKey(userID, lectureID)], nil
}

func (f *fakeProgressRepo) GetByUserAndLectureIDs(_ dbctx.Context, userID uuid.UUID, lectureIDs []uuid.UUID) ([]*types.LectureProgress, error) {
	out := []*types.LectureProgress{}
	for _, id := range lectureIDs {
		if row, ok := f.store.progress[progressKey(userID, id)]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) ListByUser(_ dbctx.Context, userID uuid.UUID) ([]*types.LectureProgress, error) {
	out := []*types.LectureProgress{}
	for _, row := range f.store.progress {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) Upsert(_ dbctx.Context, row *types.LectureProgress) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.store.progress[progressKey(row.UserID, row.LectureID)] = row
	return nil
}

func (f *fakeProgressRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	for _, row := range f.store.progress {
		if row.ID != id {
			continue
		}
		for k, v := range updates {
			switch k {
			case "status":
				if s, ok := v.(types.WorkflowStatus); ok {
					row.Status = s
				}
			case "last_score":
				if n, ok := v.(*int); ok {
					row.LastScore = n
				}
			}
		}
	}
	return nil
}

func (f *fakeProgressRepo) SoftDeleteByLectureIDs(_ dbctx.Context, lectureIDs []uuid.UUID) error {
	drop := map[uuid.UUID]bool{}
	for _, id := range lectureIDs {
		drop[id] = true
	}
	for k, row := range f.store.progress {
		if drop[row.LectureID] {
			delete(f.store.progress, k)
		}
	}
	return nil
}

func (f *fakeProgressRepo) FullDeleteByIDs(_ dbctx.Context, ids []uuid.UUID) error {
	drop := map[uuid.UUID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	for k, row := range f.store.progress {
		if drop[row.ID] {
			delete(f.store.progress, k)
		}
	}
	return nil
}

type fakeUserRepo struct {
	store *memStore
}

func (f *fakeUserRepo) Create(_ dbctx.Context, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		f.store.users[u.ID] = u
	}
	return users, nil
}

func (f *fakeUserRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	out := []*types.User{}
	for _, id := range ids {
		if u, ok := f.store.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByEmails(_ dbctx.Context, emails []string) ([]*types.User, error) {
	out := []*types.User{}
	for _, email := range emails {
		for _, u := range f.store.users {
			if strings.EqualFold(u.Email, email) {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeUserRepo) EmailExists(_ dbctx.Context, email string) (bool, error) {
	for _, u := range f.store.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) UpdateName(_ dbctx.Context, id uuid.UUID, firstName, lastName string) error {
	if u, ok := f.store.users[id]; ok {
		u.FirstName = firstName
		u.LastName = lastName
	}
	return nil
}

func (f *fakeUserRepo) UpdateRole(_ dbctx.Context, id uuid.UUID, role string) error {
	if u, ok := f.store.users[id]; ok {
		u.Role = role
	}
	return nil
}

type fakeTokenRepo struct {
	store *memStore
}

func (f *fakeTokenRepo) Create(_ dbctx.Context, rows []*types.UserToken) ([]*types.UserToken, error) {
	for _, tok := range rows {
		if tok.ID == uuid.Nil {
			tok.ID = uuid.New()
		}
		f.store.tokens[tok.ID] = tok
	}
	return rows, nil
}

func (f *fakeTokenRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.UserToken, error) {
	out := []*types.UserToken{}
	for _, id := range ids {
		if tok, ok := f.store.tokens[id]; ok {
			out = append(out, tok)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) GetByUserIDs(_ dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	out := []*types.UserToken{}
	for _, tok := range f.store.tokens {
		if want[tok.UserID] {
			out = append(out, tok)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) GetByAccessTokens(_ dbctx.Context, accessTokens []string) ([]*types.UserToken, error) {
	out := []*types.UserToken{}
	for _, s := range accessTokens {
		for _, tok := range f.store.tokens {
			if tok.AccessToken == s {
				out = append(out, tok)
			}
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) GetByRefreshTokens(_ dbctx.Context, refreshTokens []string) ([]*types.UserToken, error) {
	out := []*types.UserToken{}
	for _, s := range refreshTokens {
		for _, tok := range f.store.tokens {
			if tok.RefreshToken == s {
				out = append(out, tok)
			}
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) SoftDeleteByIDs(_ dbctx.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.store.tokens, id)
	}
	return nil
}

func (f *fakeTokenRepo) SoftDeleteByUserIDs(_ dbctx.Context, userIDs []uuid.UUID) error {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	for id, tok := range f.store.tokens {
		if want[tok.UserID] {
			delete(f.store.tokens, id)
		}
	}
	return nil
}

func (f *fakeTokenRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	return f.SoftDeleteByIDs(dbc, ids)
}

func (f *fakeTokenRepo) DeleteExpired(_ dbctx.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, tok := range f.store.tokens {
		if tok.ExpiresAt.Before(cutoff) {
			delete(f.store.tokens, id)
			n++
		}
	}
	return n, nil
}
