package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
	"github.com/stoalearn/stoa-backend/internal/realtime"
	"github.com/stoalearn/stoa-backend/internal/services"
)

// Shared plumbing for the handler tests. Services are faked with
// per-method funcs so each test overrides only what it exercises; the
// middleware stack is replaced by asUser, which seeds the same request
// context RequireAuth and AttachRequestContext would.

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser stands in for AttachRequestContext + RequireAuth: an SSE buffer
// plus a fixed caller identity on the request context.
func asUser(userID, sessionID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithSSEData(c.Request.Context())
		ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
			UserID:    userID,
			SessionID: sessionID,
			Role:      role,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// withSSEBuffer seeds only the SSE buffer, for unauthenticated routes.
func withSSEBuffer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithSSEData(c.Request.Context()))
		c.Next()
	}
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	env, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %q", rec.Body.String())
	}
	code, _ := env["code"].(string)
	return code
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	e.msgs = append(e.msgs, msg)
	e.mu.Unlock()
}

func (e *recordingEmitter) messages() []realtime.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.SSEMessage, len(e.msgs))
	copy(out, e.msgs)
	return out
}

// queueSSE appends a message to the request's SSE buffer the way services
// do inside a transaction.
func queueSSE(ctx context.Context, msg realtime.SSEMessage) {
	if ssd := ctxutil.GetSSEData(ctx); ssd != nil {
		ssd.AppendMessage(msg)
	}
}

type fakeAuthService struct {
	registerFn func(ctx context.Context, input services.RegisterInput) (*types.User, services.AuthTokens, error)
	loginFn    func(ctx context.Context, email, password string) (*types.User, services.AuthTokens, error)
	refreshFn  func(ctx context.Context, refreshToken string) (services.AuthTokens, error)
	logoutFn   func(ctx context.Context) error
}

func (f *fakeAuthService) RegisterUser(ctx context.Context, input services.RegisterInput) (*types.User, services.AuthTokens, error) {
	if f.registerFn == nil {
		return nil, services.AuthTokens{}, nil
	}
	return f.registerFn(ctx, input)
}

func (f *fakeAuthService) LoginUser(ctx context.Context, email, password string) (*types.User, services.AuthTokens, error) {
	if f.loginFn == nil {
		return nil, services.AuthTokens{}, nil
	}
	return f.loginFn(ctx, email, password)
}

func (f *fakeAuthService) RefreshUser(ctx context.Context, refreshToken string) (services.AuthTokens, error) {
	if f.refreshFn == nil {
		return services.AuthTokens{}, nil
	}
	return f.refreshFn(ctx, refreshToken)
}

func (f *fakeAuthService) LogoutUser(ctx context.Context) error {
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(ctx)
}

func (f *fakeAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	return ctx, nil
}

func (f *fakeAuthService) GetAccessTTL() time.Duration { return time.Hour }

type fakeUserService struct {
	getMeFn      func(ctx context.Context) (*types.User, error)
	updateNameFn func(ctx context.Context, firstName, lastName string) (*types.User, error)
}

func (f *fakeUserService) GetMe(ctx context.Context) (*types.User, error) {
	if f.getMeFn == nil {
		return nil, nil
	}
	return f.getMeFn(ctx)
}

func (f *fakeUserService) UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error) {
	if f.updateNameFn == nil {
		return nil, nil
	}
	return f.updateNameFn(ctx, firstName, lastName)
}

type fakeLectureService struct {
	createFn func(ctx context.Context, input services.CreateLectureInput) (*types.Lecture, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*types.Lecture, error)
	listFn   func(ctx context.Context, category string) ([]*types.Lecture, error)
	updateFn func(ctx context.Context, id uuid.UUID, patch services.UpdateLectureInput) (*types.Lecture, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeLectureService) CreateLecture(ctx context.Context, input services.CreateLectureInput) (*types.Lecture, error) {
	if f.createFn == nil {
		return nil, nil
	}
	return f.createFn(ctx, input)
}

func (f *fakeLectureService) GetLecture(ctx context.Context, id uuid.UUID) (*types.Lecture, error) {
	if f.getFn == nil {
		return nil, nil
	}
	return f.getFn(ctx, id)
}

func (f *fakeLectureService) ListLectures(ctx context.Context, category string) ([]*types.Lecture, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, category)
}

func (f *fakeLectureService) UpdateLecture(ctx context.Context, id uuid.UUID, patch services.UpdateLectureInput) (*types.Lecture, error) {
	if f.updateFn == nil {
		return nil, nil
	}
	return f.updateFn(ctx, id, patch)
}

func (f *fakeLectureService) DeleteLecture(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakePrerequisiteService struct {
	addFn       func(ctx context.Context, input services.AddPrerequisiteInput) (*services.PrerequisiteEdgeView, error)
	removeFn    func(ctx context.Context, edgeID uuid.UUID) error
	updateFn    func(ctx context.Context, edgeID uuid.UUID, patch services.PrerequisitePatch) (*services.PrerequisiteEdgeView, error)
	listFn      func(ctx context.Context, lectureID uuid.UUID) ([]*services.PrerequisiteEdgeView, error)
	checkFn     func(ctx context.Context, userID, lectureID uuid.UUID) (services.ReadinessResult, error)
	availableFn func(ctx context.Context, userID uuid.UUID, opts services.AvailabilityOptions) ([]*services.LectureAvailability, error)
	suggestFn   func(ctx context.Context, userID uuid.UUID, opts services.SuggestionOptions) ([]*services.LectureAvailability, error)
}

func (f *fakePrerequisiteService) AddPrerequisite(ctx context.Context, input services.AddPrerequisiteInput) (*services.PrerequisiteEdgeView, error) {
	if f.addFn == nil {
		return nil, nil
	}
	return f.addFn(ctx, input)
}

func (f *fakePrerequisiteService) RemovePrerequisite(ctx context.Context, edgeID uuid.UUID) error {
	if f.removeFn == nil {
		return nil
	}
	return f.removeFn(ctx, edgeID)
}

func (f *fakePrerequisiteService) UpdatePrerequisite(ctx context.Context, edgeID uuid.UUID, patch services.PrerequisitePatch) (*services.PrerequisiteEdgeView, error) {
	if f.updateFn == nil {
		return nil, nil
	}
	return f.updateFn(ctx, edgeID, patch)
}

func (f *fakePrerequisiteService) ListPrerequisites(ctx context.Context, lectureID uuid.UUID) ([]*services.PrerequisiteEdgeView, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, lectureID)
}

func (f *fakePrerequisiteService) CheckPrerequisitesSatisfied(ctx context.Context, userID, lectureID uuid.UUID) (services.ReadinessResult, error) {
	if f.checkFn == nil {
		return services.ReadinessResult{}, nil
	}
	return f.checkFn(ctx, userID, lectureID)
}

func (f *fakePrerequisiteService) GetAvailableLecturesForStudent(ctx context.Context, userID uuid.UUID, opts services.AvailabilityOptions) ([]*services.LectureAvailability, error) {
	if f.availableFn == nil {
		return nil, nil
	}
	return f.availableFn(ctx, userID, opts)
}

func (f *fakePrerequisiteService) SuggestNextLectures(ctx context.Context, userID uuid.UUID, opts services.SuggestionOptions) ([]*services.LectureAvailability, error) {
	if f.suggestFn == nil {
		return nil, nil
	}
	return f.suggestFn(ctx, userID, opts)
}

type fakeProgressService struct {
	getFn    func(ctx context.Context, userID, lectureID uuid.UUID) (*types.LectureProgress, error)
	listFn   func(ctx context.Context, userID uuid.UUID) ([]*types.LectureProgress, error)
	updateFn func(ctx context.Context, userID, lectureID uuid.UUID, target types.WorkflowStatus, score *int) (*types.LectureProgress, error)
}

func (f *fakeProgressService) GetProgress(ctx context.Context, userID, lectureID uuid.UUID) (*types.LectureProgress, error) {
	if f.getFn == nil {
		return nil, nil
	}
	return f.getFn(ctx, userID, lectureID)
}

func (f *fakeProgressService) ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.LectureProgress, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, userID)
}

func (f *fakeProgressService) UpdateProgressStatus(ctx context.Context, userID, lectureID uuid.UUID, target types.WorkflowStatus, score *int) (*types.LectureProgress, error) {
	if f.updateFn == nil {
		return nil, nil
	}
	return f.updateFn(ctx, userID, lectureID, target, score)
}

type fakeCurriculumService struct {
	seedFn func(ctx context.Context, path string) (*services.SeedReport, error)
}

func (f *fakeCurriculumService) SeedFromFile(ctx context.Context, path string) (*services.SeedReport, error) {
	if f.seedFn == nil {
		return &services.SeedReport{}, nil
	}
	return f.seedFn(ctx, path)
}
