package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	sessionCookie = "session"
	sessionTTL    = 12 * time.Hour

	RoleAdmin     = "admin"
	RoleOffice    = "office"
	RoleWarehouse = "warehouse"
	RoleDriver    = "driver"
	RoleCustomer  = "customer"
)

// Session son los datos del token. El rol sólo lo usa la interfaz.
type Session struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	Exp   int64  `json:"exp"`
}

func (s *Server) roleFor(email string) string {
	if role, ok := s.auth.Staff[strings.ToLower(email)]; ok {
		return role
	}
	return RoleCustomer
}

func (s *Server) issueToken(sess Session, dur time.Duration) (string, time.Time, error) {
	head := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	exp := time.Now().Add(dur)
	claims := map[string]any{
		"sub":   sess.Email,
		"email": sess.Email,
		"name":  sess.Name,
		"role":  sess.Role,
		"exp":   exp.Unix(),
		"iat":   time.Now().Unix(),
		"iss":   "licores",
	}
	b, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	unsigned := head + "." + base64.RawURLEncoding.EncodeToString(b)
	h := hmac.New(sha256.New, s.auth.Secret)
	h.Write([]byte(unsigned))
	return unsigned + "." + base64.RawURLEncoding.EncodeToString(h.Sum(nil)), exp, nil
}

func (s *Server) verifyToken(tok string) (*Session, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("formato")
	}
	unsigned := parts[0] + "." + parts[1]
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("sig")
	}
	h := hmac.New(sha256.New, s.auth.Secret)
	h.Write([]byte(unsigned))
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil, fmt.Errorf("firma")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("payload")
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("json")
	}
	if sess.Email == "" || sess.Role == "" {
		return nil, fmt.Errorf("claims")
	}
	if time.Now().Unix() > sess.Exp {
		return nil, fmt.Errorf("exp")
	}
	return &sess, nil
}

func readToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// requireSession corta la request con 401 si no hay un token válido.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	if tok := readToken(r); tok != "" {
		if sess, err := s.verifyToken(tok); err == nil {
			return sess, true
		}
	}
	writeMsg(w, http.StatusUnauthorized, "sesión requerida")
	return nil, false
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, tok string, maxAge int) {
	secure := s.auth.Secure || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: tok, Path: "/", MaxAge: maxAge, HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, email, name string) (string, *Session, error) {
	sess := Session{Email: strings.ToLower(email), Name: name, Role: s.roleFor(email)}
	tok, exp, err := s.issueToken(sess, sessionTTL)
	if err != nil {
		return "", nil, err
	}
	sess.Exp = exp.Unix()
	s.setSessionCookie(w, r, tok, int(sessionTTL.Seconds()))
	return tok, &sess, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeMsg(w, 422, "email requerido")
		return
	}
	if s.auth.DemoPassword == "" || !secureCompare(req.Password, s.auth.DemoPassword) {
		writeMsg(w, 401, "credenciales inválidas")
		return
	}
	tok, sess, err := s.startSession(w, r, email, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("email", email).Str("role", sess.Role).Msg("inicio de sesión")
	writeJSON(w, 200, map[string]any{"token": tok, "exp": sess.Exp, "email": sess.Email, "role": sess.Role})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.setSessionCookie(w, r, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, 200, sess)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		writeMsg(w, 503, "oauth no configurado")
		return
	}
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: state, Path: "/", MaxAge: 300, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		writeMsg(w, 503, "oauth no configurado")
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie("oauth_state")
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		writeMsg(w, 400, "state inválido")
		return
	}
	tok, err := s.oauthCfg.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("exchange oauth")
		writeMsg(w, 400, "oauth")
		return
	}
	resp, err := s.oauthCfg.Client(r.Context(), tok).Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		log.Error().Err(err).Msg("userinfo")
		writeMsg(w, 502, "userinfo")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("userinfo")
		writeMsg(w, 502, "userinfo")
		return
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	_ = json.Unmarshal(body, &info)
	if info.Email == "" {
		writeMsg(w, 400, "email")
		return
	}
	if _, _, err := s.startSession(w, r, info.Email, info.Name); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := 0; i < len(a); i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
