package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"solveit/internal/api/middleware"
	"solveit/internal/dto"
	"solveit/internal/model"
	"solveit/internal/service"
	pkgerrors "solveit/pkg/errors"
	"solveit/pkg/jwt"
	"solveit/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	refreshGot    string
	logoutErr     error
	logoutClaims  *jwt.Claims
	logoutRefresh string
	meResult      *dto.UserResponse
	meErr         error
	changePassErr error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshGot = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, access *jwt.Claims, refreshToken string) error {
	m.logoutClaims = access
	m.logoutRefresh = refreshToken
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}

// ── ComplaintService ──

type mockComplaintService struct {
	submitResult *dto.SubmitComplaintResponse
	result       *dto.ComplaintResponse
	list         []dto.ComplaintResponse
	total        int64
	history      []dto.ComplaintUpdateResponse
	err          error
	gotActor     service.Actor
	gotStatus    *dto.UpdateStatusRequest
}

func (m *mockComplaintService) Submit(_ context.Context, _ *dto.SubmitComplaintRequest, actor service.Actor) (*dto.SubmitComplaintResponse, error) {
	m.gotActor = actor
	return m.submitResult, m.err
}
func (m *mockComplaintService) RetryAssignment(_ context.Context, _ string, actor service.Actor) (*dto.ComplaintResponse, error) {
	m.gotActor = actor
	return m.result, m.err
}
func (m *mockComplaintService) Get(_ context.Context, _ string, actor service.Actor) (*dto.ComplaintResponse, error) {
	m.gotActor = actor
	return m.result, m.err
}
func (m *mockComplaintService) GetByTicket(_ context.Context, _ string, actor service.Actor) (*dto.ComplaintResponse, error) {
	m.gotActor = actor
	return m.result, m.err
}
func (m *mockComplaintService) List(_ context.Context, _ *dto.ComplaintListQuery, actor service.Actor) ([]dto.ComplaintResponse, int64, error) {
	m.gotActor = actor
	return m.list, m.total, m.err
}
func (m *mockComplaintService) UpdateStatus(_ context.Context, _ string, req *dto.UpdateStatusRequest, actor service.Actor) (*dto.ComplaintResponse, error) {
	m.gotActor = actor
	m.gotStatus = req
	return m.result, m.err
}
func (m *mockComplaintService) Rate(_ context.Context, _ string, _ *dto.RateComplaintRequest, actor service.Actor) (*dto.ComplaintResponse, error) {
	m.gotActor = actor
	return m.result, m.err
}
func (m *mockComplaintService) History(_ context.Context, _ string, actor service.Actor) ([]dto.ComplaintUpdateResponse, error) {
	m.gotActor = actor
	return m.history, m.err
}

// ── EscalationService ──

type mockEscalationService struct {
	sweep  *dto.SweepResponse
	one    *dto.EscalationResult
	err    error
	called bool
}

func (m *mockEscalationService) Sweep(_ context.Context, _ time.Time) (*dto.SweepResponse, error) {
	m.called = true
	return m.sweep, m.err
}
func (m *mockEscalationService) EscalateOne(_ context.Context, _ string, _ time.Time) (*dto.EscalationResult, error) {
	m.called = true
	return m.one, m.err
}

// ── StaffService ──

type mockStaffService struct {
	calendar   []byte
	calendarID string
	result     *dto.StaffResponse
	err        error
}

func (m *mockStaffService) Create(_ context.Context, _ *dto.CreateStaffRequest, _ string) (*dto.CreateStaffResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CreateStaffResponse{Staff: *m.result, TempPassword: "tmp-pass-123"}, nil
}
func (m *mockStaffService) Get(_ context.Context, _ string) (*dto.StaffResponse, error) {
	return m.result, m.err
}
func (m *mockStaffService) List(_ context.Context, _ *dto.StaffListQuery) ([]dto.StaffResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockStaffService) Update(_ context.Context, _ string, _ *dto.UpdateStaffRequest, _ string) (*dto.StaffResponse, error) {
	return m.result, m.err
}
func (m *mockStaffService) SetActive(_ context.Context, _ string, _ bool) (*dto.StaffResponse, error) {
	return m.result, m.err
}
func (m *mockStaffService) Leaderboard(_ context.Context, _ *dto.LeaderboardQuery) ([]dto.StaffResponse, error) {
	return nil, m.err
}
func (m *mockStaffService) DeadlineCalendar(_ context.Context, staffID string) ([]byte, error) {
	m.calendarID = staffID
	return m.calendar, m.err
}

// ── ExportService ──

type mockExportService struct {
	buf       *bytes.Buffer
	filename  string
	err       error
	gotFilter service.ExportFilter
	gotDept   model.Category
}

func (m *mockExportService) ExportComplaints(_ context.Context, filter service.ExportFilter) (*bytes.Buffer, string, error) {
	m.gotFilter = filter
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportStaff(_ context.Context, department model.Category) (*bytes.Buffer, string, error) {
	m.gotDept = department
	return m.buf, m.filename, m.err
}

// ── NotificationService ──

type mockNotificationService struct {
	list    []dto.NotificationResponse
	total   int64
	unread  int64
	err     error
	gotUser string
}

func (m *mockNotificationService) List(_ context.Context, userID string, _ *dto.NotificationListQuery) ([]dto.NotificationResponse, int64, error) {
	m.gotUser = userID
	return m.list, m.total, m.err
}
func (m *mockNotificationService) UnreadCount(_ context.Context, userID string) (int64, error) {
	m.gotUser = userID
	return m.unread, m.err
}
func (m *mockNotificationService) MarkRead(_ context.Context, userID, _ string) error {
	m.gotUser = userID
	return m.err
}
func (m *mockNotificationService) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.gotUser = userID
	return m.unread, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const (
	testUserID  = "5d7c0a52-1111-4000-8000-000000000001"
	testStaffID = "5d7c0a52-2222-4000-8000-000000000002"
)

// withClaims stands in for JWTAuth
func withClaims(role model.Role, staffID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &jwt.Claims{
			Identity: jwt.Identity{
				UserID:  testUserID,
				Role:    string(role),
				Name:    "Test Caller",
				Email:   "caller@college.edu",
				StaffID: staffID,
			},
			TokenType: jwt.TokenTypeAccess,
		}
		c.Set(middleware.ClaimsKey, claims)
		c.Set(middleware.UserIDKey, claims.UserID)
		c.Set(middleware.RoleKey, claims.Role)
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_SetsRefreshCookie(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r-token", ExpiresIn: 900}}
	h := NewAuthHandler(mock, CookieConfig{MaxAge: time.Hour})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Email: "s@college.edu", Password: "secret123"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			found = true
			if c.Value != "r-token" || !c.HttpOnly {
				t.Errorf("unexpected cookie %+v", c)
			}
		}
	}
	if !found {
		t.Error("expected refresh_token cookie")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, CookieConfig{})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := serve(r, "POST", "/auth/login", strings.NewReader("not json"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != CodeBadRequest {
		t.Errorf("expected code %d, got %d", CodeBadRequest, resp.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials}, CookieConfig{})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Email: "s@college.edu", Password: "wrong"}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != CodeInvalidCredential {
		t.Errorf("expected code %d, got %d", CodeInvalidCredential, resp.Code)
	}
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	mock := &mockAuthService{refreshResult: &dto.TokenResponse{AccessToken: "a2", RefreshToken: "r2"}}
	h := NewAuthHandler(mock, CookieConfig{})
	r := gin.New()
	r.POST("/auth/refresh", h.Refresh)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-token"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.refreshGot != "cookie-token" {
		t.Errorf("expected cookie token to be used, got %q", mock.refreshGot)
	}
}

func TestAuthHandler_Refresh_Missing(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, CookieConfig{})
	r := gin.New()
	r.POST("/auth/refresh", h.Refresh)

	w := serve(r, "POST", "/auth/refresh", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Refresh_Revoked(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidToken}, CookieConfig{})
	r := gin.New()
	r.POST("/auth/refresh", h.Refresh)

	w := serve(r, "POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "old"}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != CodeInvalidToken {
		t.Errorf("expected code %d, got %d", CodeInvalidToken, resp.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, CookieConfig{})
	r := gin.New()
	r.POST("/auth/logout", withClaims(model.RoleStudent, ""), h.Logout)

	w := serve(r, "POST", "/auth/logout", jsonBody(dto.RefreshTokenRequest{RefreshToken: "r-token"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.logoutClaims == nil || mock.logoutClaims.UserID != testUserID {
		t.Errorf("expected caller claims to reach the service, got %+v", mock.logoutClaims)
	}
	if mock.logoutRefresh != "r-token" {
		t.Errorf("expected refresh token r-token, got %q", mock.logoutRefresh)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, CookieConfig{})
	r := gin.New()
	r.GET("/auth/me", h.Me)

	w := serve(r, "GET", "/auth/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ComplaintHandler
// ═══════════════════════════════════════════════════════════

func validSubmit() dto.SubmitComplaintRequest {
	return dto.SubmitComplaintRequest{
		Title:       "Wi-Fi down in library",
		Description: "No connectivity on the second floor since morning",
		Category:    "Library",
		Priority:    "high",
	}
}

func TestComplaintHandler_Submit_Created(t *testing.T) {
	mock := &mockComplaintService{submitResult: &dto.SubmitComplaintResponse{
		Complaint: dto.ComplaintResponse{TicketCode: "CMP-001", Status: "assigned"},
	}}
	h := NewComplaintHandler(mock)
	r := gin.New()
	r.POST("/complaints", withClaims(model.RoleStudent, ""), h.Submit)

	w := serve(r, "POST", "/complaints", jsonBody(validSubmit()))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotActor.UserID != testUserID || mock.gotActor.Role != model.RoleStudent {
		t.Errorf("actor not built from claims: %+v", mock.gotActor)
	}
}

func TestComplaintHandler_Submit_BindingRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.SubmitComplaintRequest)
	}{
		{"unknown priority", func(r *dto.SubmitComplaintRequest) { r.Priority = "critical" }},
		{"missing title", func(r *dto.SubmitComplaintRequest) { r.Title = "" }},
		{"short description", func(r *dto.SubmitComplaintRequest) { r.Description = "bad" }},
		{"bad attachment", func(r *dto.SubmitComplaintRequest) { r.Attachments = []string{"not a url"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockComplaintService{}
			h := NewComplaintHandler(mock)
			r := gin.New()
			r.POST("/complaints", withClaims(model.RoleStudent, ""), h.Submit)

			req := validSubmit()
			tt.mutate(&req)
			w := serve(r, "POST", "/complaints", jsonBody(req))
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if mock.gotActor.UserID != "" {
				t.Error("service must not be called for an invalid request")
			}
		})
	}
}

func TestComplaintHandler_Submit_UnknownCategoryPassesThrough(t *testing.T) {
	mock := &mockComplaintService{submitResult: &dto.SubmitComplaintResponse{}}
	h := NewComplaintHandler(mock)
	r := gin.New()
	r.POST("/complaints", withClaims(model.RoleStudent, ""), h.Submit)

	req := validSubmit()
	req.Category = "Parking"
	w := serve(r, "POST", "/complaints", jsonBody(req))
	if w.Code != http.StatusCreated {
		t.Errorf("unknown categories are routed by the service, expected 201, got %d", w.Code)
	}
}

func TestComplaintHandler_UpdateStatus_PassesVersion(t *testing.T) {
	mock := &mockComplaintService{result: &dto.ComplaintResponse{Status: "resolved"}}
	h := NewComplaintHandler(mock)
	r := gin.New()
	r.PUT("/complaints/:id/status", withClaims(model.RoleStaff, testStaffID), h.UpdateStatus)

	w := serve(r, "PUT", "/complaints/c1/status", strings.NewReader(`{"status":"resolved","note":"fixed","version":3}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotStatus == nil || mock.gotStatus.Version == nil || *mock.gotStatus.Version != 3 {
		t.Errorf("expected version 3, got %+v", mock.gotStatus)
	}
	if mock.gotActor.StaffID != testStaffID {
		t.Errorf("expected staff id in actor, got %q", mock.gotActor.StaffID)
	}
}

func TestComplaintHandler_UpdateStatus_UnknownStatus(t *testing.T) {
	h := NewComplaintHandler(&mockComplaintService{})
	r := gin.New()
	r.PUT("/complaints/:id/status", withClaims(model.RoleStaff, testStaffID), h.UpdateStatus)

	w := serve(r, "PUT", "/complaints/c1/status", strings.NewReader(`{"status":"done"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestComplaintHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrComplaintNotFound, 404, CodeNotFound},
		{"AccessDenied", service.ErrAccessDenied, 403, CodeForbidden},
		{"NotAssignee", service.ErrNotAssignee, 403, CodeForbidden},
		{"StaleVersion", pkgerrors.ErrOptimisticLock, 409, CodeConflict},
		{"AlreadyRated", service.ErrAlreadyRated, 409, CodeConflict},
		{"Transition", service.ErrInvalidTransition, 422, CodeValidation},
		{"FieldValidation", pkgerrors.Invalid("note", "is required when resolving"), 422, CodeValidation},
		{"NoStaff", fmt.Errorf("Library: %w", pkgerrors.ErrNoEligibleStaff), 422, CodeNoEligibleStaff},
		{"Internal", errors.New("disk on fire"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewComplaintHandler(&mockComplaintService{err: tt.err})
			r := gin.New()
			r.GET("/complaints/:id", withClaims(model.RoleAdmin, ""), h.Get)

			w := serve(r, "GET", "/complaints/c1", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestComplaintHandler_FieldValidationDetails(t *testing.T) {
	h := NewComplaintHandler(&mockComplaintService{err: pkgerrors.Invalid("note", "is required when resolving")})
	r := gin.New()
	r.PUT("/complaints/:id/status", withClaims(model.RoleStaff, testStaffID), h.UpdateStatus)

	w := serve(r, "PUT", "/complaints/c1/status", strings.NewReader(`{"status":"resolved"}`))
	resp := parseResponse(w)
	if resp.Details != "note" {
		t.Errorf("expected details to name the field, got %q", resp.Details)
	}
}

func TestComplaintHandler_List_Paged(t *testing.T) {
	mock := &mockComplaintService{list: []dto.ComplaintResponse{{TicketCode: "CMP-001"}}, total: 41}
	h := NewComplaintHandler(mock)
	r := gin.New()
	r.GET("/complaints", withClaims(model.RoleAdmin, ""), h.List)

	w := serve(r, "GET", "/complaints?page=2&page_size=20&status=escalated&overdue=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 || body.Data.Pagination.Page != 2 {
		t.Errorf("unexpected pagination %+v", body.Data.Pagination)
	}
}

// ═══════════════════════════════════════════════════════════
// EscalationHandler
// ═══════════════════════════════════════════════════════════

func TestEscalationHandler_Sweep(t *testing.T) {
	mock := &mockEscalationService{sweep: &dto.SweepResponse{Scanned: 4, Escalated: 3, Skipped: 1}}
	h := NewEscalationHandler(mock)
	r := gin.New()
	r.POST("/escalations/sweep", h.Sweep)

	w := serve(r, "POST", "/escalations/sweep", nil)
	if w.Code != http.StatusOK || !mock.called {
		t.Fatalf("expected sweep to run and answer 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"escalated":3`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestEscalationHandler_EscalateOne_AtTop(t *testing.T) {
	h := NewEscalationHandler(&mockEscalationService{err: service.ErrMaxEscalation})
	r := gin.New()
	r.POST("/complaints/:id/escalate", h.EscalateOne)

	w := serve(r, "POST", "/complaints/c1/escalate", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StaffHandler
// ═══════════════════════════════════════════════════════════

func TestStaffHandler_MyCalendar(t *testing.T) {
	mock := &mockStaffService{calendar: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}
	h := NewStaffHandler(mock)
	r := gin.New()
	r.GET("/staff/me/calendar.ics", withClaims(model.RoleStaff, testStaffID), h.MyCalendar)

	w := serve(r, "GET", "/staff/me/calendar.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type %q", ct)
	}
	if mock.calendarID != testStaffID {
		t.Errorf("expected feed for %s, got %s", testStaffID, mock.calendarID)
	}
}

func TestStaffHandler_MyCalendar_NotLinked(t *testing.T) {
	h := NewStaffHandler(&mockStaffService{})
	r := gin.New()
	r.GET("/staff/me/calendar.ics", withClaims(model.RoleStaff, ""), h.MyCalendar)

	w := serve(r, "GET", "/staff/me/calendar.ics", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestStaffHandler_Create_BadRank(t *testing.T) {
	h := NewStaffHandler(&mockStaffService{})
	r := gin.New()
	r.POST("/staff", withClaims(model.RoleAdmin, ""), h.Create)

	w := serve(r, "POST", "/staff", jsonBody(dto.CreateStaffRequest{
		Name: "Lib Intern", Email: "intern@college.edu", Department: "Library", Rank: "Intern",
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestStaffHandler_Create_Duplicate(t *testing.T) {
	h := NewStaffHandler(&mockStaffService{err: service.ErrEmailExists})
	r := gin.New()
	r.POST("/staff", withClaims(model.RoleAdmin, ""), h.Create)

	w := serve(r, "POST", "/staff", jsonBody(dto.CreateStaffRequest{
		Name: "Lib Sup", Email: "sup@college.edu", Department: "library", Rank: "supervisor",
	}))
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestStaffHandler_SetActive_RequiresFlag(t *testing.T) {
	h := NewStaffHandler(&mockStaffService{result: &dto.StaffResponse{}})
	r := gin.New()
	r.PUT("/staff/:id/active", h.SetActive)

	if w := serve(r, "PUT", "/staff/s1/active", strings.NewReader(`{}`)); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without active, got %d", w.Code)
	}
	if w := serve(r, "PUT", "/staff/s1/active", strings.NewReader(`{"active":false}`)); w.Code != http.StatusOK {
		t.Errorf("expected 200 with active=false, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler_ScopedToCaller(t *testing.T) {
	mock := &mockNotificationService{unread: 2}
	h := NewNotificationHandler(mock)
	r := gin.New()
	r.GET("/notifications/unread-count", withClaims(model.RoleStudent, ""), h.UnreadCount)

	w := serve(r, "GET", "/notifications/unread-count", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotUser != testUserID {
		t.Errorf("expected caller's inbox, got %q", mock.gotUser)
	}
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{err: service.ErrNotificationNotFound})
	r := gin.New()
	r.PUT("/notifications/:id/read", withClaims(model.RoleStudent, ""), h.MarkRead)

	w := serve(r, "PUT", "/notifications/n1/read", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Complaints(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "complaints_20260303.xlsx"}
	h := NewExportHandler(mock)
	r := gin.New()
	r.GET("/export/complaints", h.ExportComplaints)

	w := serve(r, "GET", "/export/complaints?category=library&status=escalated&from=2026-03-01&to=2026-03-02", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "complaints_20260303.xlsx") {
		t.Errorf("unexpected disposition %q", cd)
	}

	f := mock.gotFilter
	if f.Category != model.CategoryLibrary || f.Status != model.StatusEscalated {
		t.Errorf("unexpected filter %+v", f)
	}
	if f.From == nil || !f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected from %v", f.From)
	}
	if f.To == nil || !f.To.After(time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)) || !f.To.Before(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to should cover the whole day, got %v", f.To)
	}
}

func TestExportHandler_BadDate(t *testing.T) {
	h := NewExportHandler(&mockExportService{})
	r := gin.New()
	r.GET("/export/complaints", h.ExportComplaints)

	w := serve(r, "GET", "/export/complaints?from=03/01/2026", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_Staff(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "staff.xlsx"}
	h := NewExportHandler(mock)
	r := gin.New()
	r.GET("/export/staff", h.ExportStaff)

	w := serve(r, "GET", "/export/staff?department=Hostel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotDept != model.CategoryHostel {
		t.Errorf("expected Hostel, got %q", mock.gotDept)
	}
}

// ═══════════════════════════════════════════════════════════
// HealthHandler
// ═══════════════════════════════════════════════════════════

func TestHealthHandler(t *testing.T) {
	ok := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	r := gin.New()
	r.GET("/healthy", NewHealthHandler(ok).Health)
	r.GET("/degraded", NewHealthHandler(ok, down).Health)

	if w := serve(r, "GET", "/healthy", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	w := serve(r, "GET", "/degraded", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("expected failing check in body, got %s", w.Body.String())
	}
}
