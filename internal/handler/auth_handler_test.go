//go:build unit

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"soulbalance/internal/auth"
	"soulbalance/internal/logger"
	"soulbalance/internal/middleware"
	"soulbalance/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// mockSessionManager is a mock implementation of the session.Manager interface.
type mockSessionManager struct {
	destroyCalled bool
	values        map[string]interface{}
}

// Ensure mockSessionManager implements the session.Manager interface.
var _ session.Manager = (*mockSessionManager)(nil)

func newMockSession() *mockSessionManager {
	return &mockSessionManager{values: map[string]interface{}{}}
}

func (m *mockSessionManager) LoadAndSave(next http.Handler) http.Handler { return next }
func (m *mockSessionManager) Put(ctx context.Context, key string, val interface{}) {
	m.values[key] = val
}
func (m *mockSessionManager) GetString(ctx context.Context, key string) string {
	v, _ := m.values[key].(string)
	return v
}
func (m *mockSessionManager) GetInt64(ctx context.Context, key string) int64 {
	v, _ := m.values[key].(int64)
	return v
}
func (m *mockSessionManager) PopString(ctx context.Context, key string) string {
	v := m.GetString(ctx, key)
	delete(m.values, key)
	return v
}
func (m *mockSessionManager) Exists(ctx context.Context, key string) bool {
	_, ok := m.values[key]
	return ok
}
func (m *mockSessionManager) RenewToken(ctx context.Context) error { return nil }
func (m *mockSessionManager) Remove(ctx context.Context, key string) { delete(m.values, key) }
func (m *mockSessionManager) Destroy(ctx context.Context) error {
	m.destroyCalled = true
	m.values = map[string]interface{}{}
	return nil
}

// stubSSO is a single sign-on provider with a fixed answer.
type stubSSO struct {
	identity *auth.Identity
	err      error
}

func (s *stubSSO) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return "https://id.example.com/authorize?state=" + state
}

func (s *stubSSO) Exchange(ctx context.Context, code string) (*auth.Identity, error) {
	return s.identity, s.err
}

func withUser(r *http.Request, id int64) *http.Request {
	return r.WithContext(middleware.SetUserInfo(r.Context(), &middleware.UserInfo{ID: id, Username: "mira", Role: auth.RoleUser}))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestLogoutHandler(t *testing.T) {
	mockSession := newMockSession()
	authHandler := NewAuthHandler(nil, mockSession, nil, nil, logger.Nop())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rr := httptest.NewRecorder()

	authHandler.handleLogout(rr, req)

	assert.True(t, mockSession.destroyCalled, "expected session.Destroy to be called")
	assert.Equal(t, http.StatusFound, rr.Code)
	location, err := rr.Result().Location()
	require.NoError(t, err)
	assert.Equal(t, "/", location.Path)
}

func TestAPILogout(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		sm := newMockSession()
		h := NewAuthHandler(nil, sm, nil, nil, logger.Nop())
		rr := httptest.NewRecorder()

		h.handleAPILogout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, sm.destroyCalled)
		body := decodeBody(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Not logged in", body["message"])
	})

	t.Run("logged in", func(t *testing.T) {
		sm := newMockSession()
		h := NewAuthHandler(nil, sm, nil, nil, logger.Nop())
		rr := httptest.NewRecorder()

		h.handleAPILogout(rr, withUser(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), 7))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, sm.destroyCalled)
		assert.Equal(t, true, decodeBody(t, rr)["success"])
	})
}

func TestSSOLogin(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := NewAuthHandler(nil, newMockSession(), nil, nil, logger.Nop())
		appErr := h.handleSSOLogin(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/sso/login", nil))
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusNotFound, appErr.Code)
	})

	t.Run("redirects with state cookie", func(t *testing.T) {
		h := NewAuthHandler(nil, newMockSession(), nil, &stubSSO{}, logger.Nop())
		rr := httptest.NewRecorder()

		appErr := h.handleSSOLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/sso/login", nil))
		require.Nil(t, appErr)
		assert.Equal(t, http.StatusFound, rr.Code)

		var state string
		for _, c := range rr.Result().Cookies() {
			if c.Name == stateCookie {
				state = c.Value
			}
		}
		require.NotEmpty(t, state)
		assert.True(t, strings.HasSuffix(rr.Header().Get("Location"), "state="+state))
	})
}

func TestSSOCallback_StateMismatch(t *testing.T) {
	h := NewAuthHandler(nil, newMockSession(), nil, &stubSSO{err: errors.New("unused")}, logger.Nop())
	req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "expected"})

	appErr := h.handleSSOCallback(httptest.NewRecorder(), req)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestInteraction_EarlyRejections(t *testing.T) {
	h := NewInteractionHandler(nil, nil, logger.Nop())

	testCases := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "wrong method",
			req:        httptest.NewRequest(http.MethodGet, "/api/blog-interactions", nil),
			wantStatus: http.StatusMethodNotAllowed,
			wantMsg:    "Method not allowed",
		},
		{
			name:       "comment without login",
			req:        formRequest("action=add_comment&post_id=1&comment=hello"),
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Please login to interact",
		},
		{
			name:       "bad post id",
			req:        withUser(formRequest("action=add_comment&post_id=abc"), 3),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid post ID",
		},
		{
			name:       "post id with trailing letters",
			req:        withUser(formRequest("action=add_rating&post_id=5abc&rating=4"), 3),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid post ID",
		},
		{
			name:       "fractional post id",
			req:        formRequest("action=add_public_rating&post_id=4.5&rating=4"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid post ID",
		},
		{
			name:       "public rating with bad post id",
			req:        formRequest("action=add_public_rating&post_id=0&rating=5"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid post ID",
		},
		{
			name:       "unknown action",
			req:        withUser(formRequest("action=share&post_id=1"), 3),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid action",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.handleInteraction(rr, tc.req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.wantMsg, body["message"])
		})
	}
}

func TestFormNumbersAreStrict(t *testing.T) {
	testCases := []struct {
		value      string
		wantID     int64
		wantRating int
	}{
		{"4", 4, 4},
		{" 7 ", 7, 0},
		{"5abc", 0, 0},
		{"4.5", 0, 0},
		{"-2", 0, -2},
		{"", 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			req := formRequest("post_id=" + url.QueryEscape(tc.value) + "&rating=" + url.QueryEscape(tc.value))
			assert.Equal(t, tc.wantID, formID(req, "post_id"))
			assert.Equal(t, tc.wantRating, formRating(req))
		})
	}
}

func formRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/blog-interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestFlexID(t *testing.T) {
	var p postPayload
	require.NoError(t, json.Unmarshal([]byte(`{"id":"12","title":"t"}`), &p))
	assert.Equal(t, flexID(12), p.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":13}`), &p))
	assert.Equal(t, flexID(13), p.ID)

	p = postPayload{}
	require.NoError(t, json.Unmarshal([]byte(`{"title":"no id"}`), &p))
	assert.Equal(t, flexID(0), p.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"twelve"}`), &p))
}

func TestJSONError_HidesInternalErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	jsonError(rr, logger.Nop(), errors.New("database is on fire"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "An error occurred", body["message"])
}
