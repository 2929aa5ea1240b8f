package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/auth"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/club-membership/internal/service"
)

const testSecret = "handler-test-secret"

type testAPI struct {
	svc    Services
	server http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memstore.New()
	svc := Services{
		Users:     service.NewUserService(store, nil),
		Events:    service.NewEventService(store, nil),
		RSVPs:     service.NewRSVPService(store, nil),
		Tokens:    service.NewTokenService(store, nil),
		Purchases: service.NewPurchaseService(store, nil),
		Content:   service.NewContentService(store, nil),
		Stats:     service.NewStatsService(store, nil),
	}
	verifier, err := auth.NewVerifier(auth.Config{HMACSecret: []byte(testSecret)})
	require.NoError(t, err)

	log, _ := logtest.NewNullLogger()
	return &testAPI{svc: svc, server: NewRouter(New(svc, log), verifier)}
}

func token(t *testing.T, uid string) string {
	t.Helper()
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uid,
		"email": uid + "@club.test",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (a *testAPI) do(t *testing.T, method, path, uid string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, uid))
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) register(t *testing.T, uid string, role model.Role, balance int) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", uid, model.RegisterRequest{
		UID: uid, Email: uid + "@club.test", FirstName: "Test", LastName: uid,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	ctx := context.Background()
	if role != model.RoleMember {
		_, err := a.svc.Users.ChangeRole(ctx, "bootstrap", uid, role)
		require.NoError(t, err)
	}
	if balance > 0 {
		_, err := a.svc.Tokens.Credit(ctx, "bootstrap", model.AdjustTokensRequest{UserID: uid, Amount: balance})
		require.NoError(t, err)
	}
}

func (a *testAPI) event(t *testing.T, capacity, tokens int, status model.EventStatus) *model.Event {
	t.Helper()
	start := time.Now().Add(48 * time.Hour)
	e, err := a.svc.Events.Create(context.Background(), "admin", model.CreateEventRequest{
		Title:          "Tuesday Padel",
		Category:       model.CategoryWeeklySports,
		SportID:        "padel",
		StartTime:      start,
		EndTime:        start.Add(90 * time.Minute),
		Capacity:       capacity,
		TokensRequired: &tokens,
		Status:         status,
	})
	require.NoError(t, err)
	return e
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestHealthAndPreflight(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodOptions, "/api/member/rsvps", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPublicEventsHideDrafts(t *testing.T) {
	api := newTestAPI(t)
	published := api.event(t, 10, 1, model.EventPublished)
	draft := api.event(t, 10, 1, model.EventDraft)

	rec := api.do(t, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Events []model.EventSummary `json:"events"`
	}](t, rec)
	require.Len(t, body.Events, 1)
	assert.Equal(t, published.ID, body.Events[0].ID)
	assert.Equal(t, 10, body.Events[0].SpotsLeft)

	rec = api.do(t, http.MethodGet, "/api/events/"+draft.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/member/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(apperr.KindUnauthorized), decode[model.ErrorResponse](t, rec).Kind)

	req := httptest.NewRequest(http.MethodGet, "/api/member/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	bad := httptest.NewRecorder()
	api.server.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	// Verified but never registered.
	rec = api.do(t, http.MethodGet, "/api/auth/me", "ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/auth/register", "mallory", model.RegisterRequest{
		UID: "someone-else", Email: "m@club.test", FirstName: "M", LastName: "X",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInactiveUserIsUnauthenticated(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "dana", model.RoleAdmin, 0)
	_, err := api.svc.Users.SetActive(context.Background(), "bootstrap", "dana", false)
	require.NoError(t, err)

	for _, path := range []string{"/api/member/profile", "/api/auth/me", "/api/admin/stats"} {
		rec := api.do(t, http.MethodGet, path, "dana", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, string(apperr.KindUnauthorized), decode[model.ErrorResponse](t, rec).Kind)
	}
}

func TestMemberCalendar(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "cal", model.RoleMember, 5)
	e := api.event(t, 5, 1, model.EventPublished)

	rec := api.do(t, http.MethodPost, "/api/member/rsvps", "cal", model.RSVPRequest{EventID: e.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/member/calendar", "cal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Events []model.CalendarEntry `json:"events"`
	}](t, rec)
	require.Len(t, body.Events, 1)
	assert.Equal(t, e.ID, body.Events[0].ID)
	assert.Equal(t, model.RSVPConfirmed, body.Events[0].RSVPStatus)

	// A bare endDate of today excludes an event two days out.
	today := time.Now().UTC().Format(time.DateOnly)
	rec = api.do(t, http.MethodGet, "/api/member/calendar?endDate="+today, "cal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct {
		Events []model.CalendarEntry `json:"events"`
	}](t, rec).Events)

	rec = api.do(t, http.MethodGet, "/api/member/calendar?startDate=soon", "cal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemberRSVPFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alex", model.RoleMember, 5)
	e := api.event(t, 1, 2, model.EventPublished)

	rec := api.do(t, http.MethodPost, "/api/member/rsvps", "alex", model.RSVPRequest{EventID: e.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Success          bool             `json:"success"`
		Status           model.RSVPStatus `json:"status"`
		WaitlistPosition *int             `json:"waitlistPosition"`
	}](t, rec)
	assert.True(t, created.Success)
	assert.Equal(t, model.RSVPConfirmed, created.Status)
	assert.Nil(t, created.WaitlistPosition)

	rec = api.do(t, http.MethodPost, "/api/member/rsvps", "alex", model.RSVPRequest{EventID: e.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperr.KindInvalidState), decode[model.ErrorResponse](t, rec).Kind)

	rec = api.do(t, http.MethodGet, "/api/member/tokens", "alex", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[service.Statement](t, rec).Balance)

	rec = api.do(t, http.MethodDelete, "/api/member/rsvps?eventId="+e.ID, "alex", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/member/tokens", "alex", nil)
	statement := decode[service.Statement](t, rec)
	assert.Equal(t, 5, statement.Balance)
	require.Len(t, statement.Transactions, 3)
	assert.Equal(t, model.Credit, statement.Transactions[0].Type)
}

func TestWaitlistThroughAdminPromotion(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "coach", model.RoleAdmin, 0)
	api.register(t, "first", model.RoleMember, 1)
	api.register(t, "second", model.RoleMember, 1)
	e := api.event(t, 1, 1, model.EventPublished)

	rec := api.do(t, http.MethodPost, "/api/member/rsvps", "first", model.RSVPRequest{EventID: e.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/member/rsvps", "second", model.RSVPRequest{EventID: e.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.RSVPWaitlisted, decode[model.RSVPResult](t, rec).Status)

	rsvps := "/api/admin/events/" + e.ID + "/rsvps"
	promote := model.AdminRSVPRequest{RSVPID: model.RSVPID(e.ID, "second"), Action: model.ActionPromote}
	rec = api.do(t, http.MethodPatch, rsvps, "coach", promote)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperr.KindCapacityExceeded), decode[model.ErrorResponse](t, rec).Kind)

	remove := model.AdminRSVPRequest{RSVPID: model.RSVPID(e.ID, "first"), Action: model.ActionRemove}
	rec = api.do(t, http.MethodPatch, rsvps, "coach", remove)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPatch, rsvps, "coach", promote)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, rsvps, "coach", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[model.EventRSVPs](t, rec)
	require.Len(t, view.Confirmed, 1)
	assert.Equal(t, "second", view.Confirmed[0].UserID)
	assert.Empty(t, view.Waitlisted)
}

func TestRoleGuards(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "member", model.RoleMember, 0)
	api.register(t, "admin", model.RoleAdmin, 0)
	api.register(t, "root", model.RoleSuperAdmin, 0)

	cases := []struct {
		uid, path string
		want      int
	}{
		{"member", "/api/admin/stats", http.StatusForbidden},
		{"admin", "/api/admin/stats", http.StatusOK},
		{"admin", "/api/superadmin/users", http.StatusForbidden},
		{"root", "/api/admin/stats", http.StatusOK},
		{"root", "/api/superadmin/users", http.StatusOK},
		{"root", "/api/superadmin/stats", http.StatusOK},
	}
	for _, tc := range cases {
		rec := api.do(t, http.MethodGet, tc.path, tc.uid, nil)
		assert.Equal(t, tc.want, rec.Code, "%s GET %s", tc.uid, tc.path)
	}
}

func TestSuperAdminTokenAdjustments(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "root", model.RoleSuperAdmin, 0)
	api.register(t, "sam", model.RoleMember, 0)

	rec := api.do(t, http.MethodPost, "/api/superadmin/tokens", "root", model.AdjustTokensRequest{UserID: "sam", Amount: 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodDelete, "/api/superadmin/tokens", "root", model.AdjustTokensRequest{UserID: "sam", Amount: 9})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperr.KindInsufficientFunds), decode[model.ErrorResponse](t, rec).Kind)

	rec = api.do(t, http.MethodDelete, "/api/superadmin/tokens", "root", model.AdjustTokensRequest{UserID: "sam", Amount: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/superadmin/tokens?userId=sam", "root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Transactions []model.LedgerEntry `json:"transactions"`
	}](t, rec)
	assert.Len(t, history.Transactions, 2)

	rec = api.do(t, http.MethodGet, "/api/superadmin/tokens/reconcile?userId=sam", "root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/superadmin/tokens/reconcile", "root", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/superadmin/audit", "root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	audit := decode[struct {
		Entries []model.AuditEntry `json:"entries"`
	}](t, rec)
	assert.NotEmpty(t, audit.Entries)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alex", model.RoleMember, 0)

	rec := api.do(t, http.MethodPost, "/api/member/rsvps", "alex", map[string]string{"event": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperr.KindValidation), decode[model.ErrorResponse](t, rec).Kind)
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindValidation:          http.StatusBadRequest,
		apperr.KindInvalidState:        http.StatusBadRequest,
		apperr.KindInsufficientFunds:   http.StatusBadRequest,
		apperr.KindCapacityExceeded:    http.StatusBadRequest,
		apperr.KindUnauthorized:        http.StatusUnauthorized,
		apperr.KindForbidden:           http.StatusForbidden,
		apperr.KindNotFound:            http.StatusNotFound,
		apperr.KindTransactionConflict: http.StatusConflict,
		apperr.Kind("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), kind)
	}
}

func TestFailHidesUncategorisedErrors(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	h := New(Services{}, log)

	rec := httptest.NewRecorder()
	h.fail(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil), errors.New("pool exhausted"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode[model.ErrorResponse](t, rec).Error)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
