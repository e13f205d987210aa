package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/render"
)

type fieldResponse struct {
	Field string `json:"field"`
	Error string `json:"error,omitempty"`
	Valid bool   `json:"valid"`
}

type stateResponse struct {
	contact.State
	Phase contact.Phase `json:"phase"`
}

type validationResponse struct {
	Errors map[string]string `json:"errors"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.mu.Lock()
	state := sess.controller.State()
	sess.mu.Unlock()

	s.writePage(w, r, sess, state, http.StatusOK)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}
	sess := s.session(w, r)
	if !validCSRF(sess, r.PostForm.Get(render.CSRFFieldName)) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	sess.mu.Lock()
	for _, field := range contact.Fields() {
		if _, posted := r.PostForm[string(field)]; !posted {
			continue
		}
		// Known fields only, so SetField cannot fail here.
		_ = sess.controller.SetField(field, r.PostForm.Get(string(field)))
	}
	accepted := sess.controller.Submit()
	state := sess.controller.State()
	sess.mu.Unlock()

	status := http.StatusOK
	if !accepted {
		status = http.StatusUnprocessableEntity
	}
	s.logger.Info("form submitted",
		zap.String("session", sess.id),
		zap.Bool("accepted", accepted),
		zap.Int("errors", len(state.Errors)),
	)
	s.writePage(w, r, sess, state, status)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form payload"})
		return
	}
	sess, ok := s.existingSession(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "session expired"})
		return
	}
	if !validCSRF(sess, r.PostForm.Get(render.CSRFFieldName)) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid csrf token"})
		return
	}
	field, known := contact.ParseField(r.PostForm.Get("name"))
	if !known {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: contact.ErrUnknownField.Error()})
		return
	}

	sess.mu.Lock()
	_ = sess.controller.SetField(field, r.PostForm.Get("value"))
	message, invalid := sess.controller.Errors()[field]
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, fieldResponse{Field: string(field), Error: message, Valid: !invalid})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.mu.Lock()
	state := sess.controller.State()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, stateResponse{State: state, Phase: state.Phase()})
}

func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var payload contact.Values
	if err := dec.Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json payload"})
		return
	}

	c := s.newController()
	for field, value := range payload.Map() {
		_ = c.SetField(contact.Field(field), value)
	}
	if !c.Submit() {
		verr := &contact.ValidationError{Errors: c.Errors()}
		s.logger.Debug("api submission rejected", zap.Error(verr))
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verr.Errors.Strings()})
		return
	}
	snapshot, _ := c.Submitted()
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	data, err := s.contract.MarshalJSON()
	if err != nil {
		s.logger.Error("marshal contract", zap.Error(err))
		http.Error(w, "contract unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, sess *session, state contact.State, status int) {
	opts := render.OptionsFromState(state)
	opts.Action = "/"
	opts.HiddenFields = render.MergeHiddenFields(nil, render.CSRFToken(sess.csrf))
	opts.Theme = s.theme

	body, err := s.renderer.Render(r.Context(), s.contract.Form, opts)
	if err != nil {
		s.logger.Error("render form", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

// session returns the caller's session, starting one (and setting the cookie)
// when the cookie is missing or its session expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	if sess, ok := s.existingSession(r); ok {
		return sess
	}
	sess := s.sessions.create()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionTTL / time.Second),
	})
	s.logger.Debug("session started", zap.String("session", sess.id))
	return sess
}

func (s *Server) existingSession(r *http.Request) (*session, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, false
	}
	return s.sessions.lookup(cookie.Value)
}

func validCSRF(sess *session, token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(sess.csrf), []byte(token)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
