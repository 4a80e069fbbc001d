package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mkline/careshift/internal/email"
	"github.com/mkline/careshift/internal/middleware"
	"github.com/mkline/careshift/internal/store"
)

const loginTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sign in to CareShift</title></head>
<body>
<h1>CareShift</h1>
{{if .Sent}}
<p>If that address is registered, a sign-in link is on its way. It expires in 15 minutes.</p>
{{else}}
<form method="post" action="/login">
<label>Email <input type="email" name="email" required></label>
<button type="submit">Email me a sign-in link</button>
</form>
{{end}}
{{if .Error}}<p>{{.Error}}</p>{{end}}
</body>
</html>`

type AuthHandler struct {
	users      *store.UserStore
	sessions   *store.SessionStore
	magicLinks *store.MagicLinkStore
	email      *email.Client
	tmpl       *template.Template
	logger     *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, mls *store.MagicLinkStore, ec *email.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      us,
		sessions:   ss,
		magicLinks: mls,
		email:      ec,
		tmpl:       template.Must(template.New("login").Parse(loginTemplate)),
		logger:     logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.tmpl.Execute(w, map[string]any{"Sent": false})
}

// Login emails a single-use sign-in link. The response is identical whether
// or not the address belongs to a user, to prevent enumeration.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	emailAddr := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if emailAddr == "" {
		h.tmpl.Execute(w, map[string]any{"Sent": false, "Error": "Email is required"})
		return
	}

	defer h.tmpl.Execute(w, map[string]any{"Sent": true})

	user, err := h.users.GetByEmail(emailAddr)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		return
	}
	if user == nil {
		return
	}

	ml, err := h.magicLinks.Create(emailAddr)
	if err != nil {
		h.logger.Error("create magic link", "error", err)
		return
	}

	if err := h.email.SendMagicLink(emailAddr, ml.Token); err != nil {
		h.logger.Error("send magic link", "error", err)
	}
}

// Verify consumes the magic link token and starts a session.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	ml, err := h.magicLinks.Consume(token)
	if err != nil {
		h.logger.Error("consume magic link", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if ml == nil {
		h.tmpl.Execute(w, map[string]any{"Sent": false, "Error": "That link has expired or was already used. Request a new one."})
		return
	}

	user, err := h.users.GetByEmail(ml.Email)
	if err != nil || user == nil {
		h.logger.Error("verify user lookup", "error", err)
		http.Error(w, "User not found", http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, middleware.SessionCookie(sess.Token, 30*24*60*60))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessions.GetByToken(cookie.Value); err == nil && sess != nil {
			h.sessions.Delete(sess.ID)
		}
	}

	http.SetCookie(w, middleware.SessionCookie("", -1))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
