package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"soulbalance/internal/auth"
	"soulbalance/internal/data"
	"soulbalance/internal/logger"
	"soulbalance/internal/middleware"
	"soulbalance/internal/service"
	"soulbalance/internal/session"
	"soulbalance/internal/view"

	"golang.org/x/oauth2"
)

const stateCookie = "sso_state"

// SSOProvider is the single sign-on backend. *auth.Authenticator satisfies it.
type SSOProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	users *service.UserService
	sm    session.Manager
	view  *view.View
	sso   SSOProvider
	log   logger.Logger
}

// NewAuthHandler creates a new AuthHandler. sso may be nil when single sign-on is disabled.
func NewAuthHandler(users *service.UserService, sm session.Manager, v *view.View, sso SSOProvider, log logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, sm: sm, view: v, sso: sso, log: log}
}

// startSession renews the session token and stores the user's identity in it.
func (h *AuthHandler) startSession(ctx context.Context, u *data.User) error {
	if err := h.sm.RenewToken(ctx); err != nil {
		return err
	}
	h.sm.Put(ctx, session.KeyUserID, u.ID)
	h.sm.Put(ctx, session.KeyUsername, u.Username)
	h.sm.Put(ctx, session.KeyRole, u.Role)
	return nil
}

func (h *AuthHandler) renderForm(w http.ResponseWriter, r *http.Request, page string, code int, data map[string]interface{}) *middleware.AppError {
	data["SSOEnabled"] = h.sso != nil
	return renderPage(h.view, w, r, code, page, data)
}

// handleLoginPage shows the login form. Logged-in users go to their dashboard.
func (h *AuthHandler) handleLoginPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return nil
	}
	return h.renderForm(w, r, "login.html", http.StatusOK, map[string]interface{}{"Title": "Login"})
}

// handleLogin checks the submitted credentials and starts a session.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	email := r.FormValue("email")
	user, err := h.users.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			return appError(err, "Login failed")
		}
		return h.renderForm(w, r, "login.html", statusFor(err), map[string]interface{}{
			"Title": "Login", "Error": service.UserMessage(err), "Email": email,
		})
	}
	if err := h.startSession(r.Context(), user); err != nil {
		return &middleware.AppError{Error: err, Message: "Login failed", Code: http.StatusInternalServerError}
	}
	middleware.SetFlash(r.Context(), h.sm, fmt.Sprintf("Welcome back, %s!", user.Username))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	return nil
}

// handleRegisterPage shows the registration form.
func (h *AuthHandler) handleRegisterPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return nil
	}
	return h.renderForm(w, r, "register.html", http.StatusOK, map[string]interface{}{"Title": "Register"})
}

// handleRegister creates an account from the form and logs the new user in.
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username, email := r.FormValue("username"), r.FormValue("email")
	password := r.FormValue("password")
	formData := map[string]interface{}{"Title": "Register", "Username": username, "Email": email}

	if password != r.FormValue("confirm_password") {
		formData["Error"] = "Passwords do not match"
		return h.renderForm(w, r, "register.html", http.StatusBadRequest, formData)
	}
	user, err := h.users.Register(r.Context(), username, email, password)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			return appError(err, "Registration failed")
		}
		formData["Error"] = service.UserMessage(err)
		return h.renderForm(w, r, "register.html", statusFor(err), formData)
	}
	if err := h.startSession(r.Context(), user); err != nil {
		return &middleware.AppError{Error: err, Message: "Registration failed", Code: http.StatusInternalServerError}
	}
	middleware.SetFlash(r.Context(), h.sm, "Registration successful! Welcome to SoulBalance.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	return nil
}

// handleLogout destroys the session and sends the user home.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sm.Destroy(r.Context()); err != nil {
		h.log.Error(err, "Failed to destroy session")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// readCredentials accepts a JSON body or form fields.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&c)
		return c, err
	}
	c.Username, c.Email, c.Password = r.FormValue("username"), r.FormValue("email"), r.FormValue("password")
	return c, nil
}

func userPayload(u *data.User) map[string]interface{} {
	return map[string]interface{}{"id": u.ID, "username": u.Username, "email": u.Email, "role": u.Role}
}

// handleAPILogin is the JSON variant of handleLogin.
func (h *AuthHandler) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		jsonMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.users.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	if err := h.startSession(r.Context(), user); err != nil {
		jsonError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Login successful", "user": userPayload(user)})
}

// handleAPIRegister creates an account without logging in.
func (h *AuthHandler) handleAPIRegister(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		jsonMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.users.Register(r.Context(), c.Username, c.Email, c.Password)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Registration successful", "user": userPayload(user)})
}

// handleAPILogout ends the session; it answers 401 when there is none.
func (h *AuthHandler) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	if !middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		jsonMessage(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	if err := h.sm.Destroy(r.Context()); err != nil {
		jsonError(w, h.log, err)
		return
	}
	jsonMessage(w, http.StatusOK, "Logged out successfully")
}

// handleSSOLogin redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) handleSSOLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.sso == nil {
		return &middleware.AppError{Error: fmt.Errorf("sso disabled"), Message: "Single sign-on is not available", Code: http.StatusNotFound}
	}
	state, err := randString(16)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Login failed", Code: http.StatusInternalServerError}
	}
	// Store the state in a short-lived cookie to verify on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/sso",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.sso.AuthCodeURL(state), http.StatusFound)
	return nil
}

// handleSSOCallback is the redirect URL for the OIDC provider. It verifies
// the state, exchanges the code and logs in the matching local user.
func (h *AuthHandler) handleSSOCallback(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.sso == nil {
		return &middleware.AppError{Error: fmt.Errorf("sso disabled"), Message: "Single sign-on is not available", Code: http.StatusNotFound}
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || r.URL.Query().Get("state") != c.Value {
		return &middleware.AppError{Error: fmt.Errorf("state mismatch"), Message: "Login session expired, please try again", Code: http.StatusBadRequest}
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/sso", MaxAge: -1})

	identity, err := h.sso.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Single sign-on failed", Code: http.StatusUnauthorized}
	}
	user, err := h.users.FindOrCreateSSO(r.Context(), identity)
	if err != nil {
		return appError(err, "Single sign-on failed")
	}
	if err := h.startSession(r.Context(), user); err != nil {
		return &middleware.AppError{Error: err, Message: "Login failed", Code: http.StatusInternalServerError}
	}
	middleware.SetFlash(r.Context(), h.sm, fmt.Sprintf("Welcome, %s!", user.Username))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	return nil
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
