package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
	"github.com/goliatone/go-contactform/pkg/testsupport"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()

	renderer, err := vanilla.New(vanilla.WithFieldEndpoint("/field"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	srv, err := New(testsupport.LoadContract(t), renderer, opts...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

// browser replays the session cookie across recorder round trips.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) csrf() string {
	b.t.Helper()
	rec := b.get("/")
	doc := testsupport.MustParseHTML(b.t, rec.Body.Bytes())
	token, ok := doc.Find(`input[name="_csrf"]`).Attr("value")
	if !ok || token == "" {
		b.t.Fatalf("csrf token missing from page")
	}
	return token
}

func TestServer_FormPageStartsSession(t *testing.T) {
	srv := newTestServer(t)
	b := &browser{t: t, handler: srv.Handler()}

	rec := b.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(b.cookies) != 1 || b.cookies[0].Name != defaultCookieName {
		t.Fatalf("expected session cookie, got %v", b.cookies)
	}
	doc := testsupport.MustParseHTML(t, rec.Body.Bytes())
	if got := doc.Find("form").AttrOr("data-field-endpoint", ""); got != "/field" {
		t.Fatalf("unexpected field endpoint %q", got)
	}
	if testsupport.CountTestID(doc, "error") != 0 {
		t.Fatalf("fresh session must render without errors")
	}

	b.get("/")
	if srv.Sessions().Len() != 1 {
		t.Fatalf("expected the cookie to reuse the session, got %d sessions", srv.Sessions().Len())
	}
}

func TestServer_SubmitFlow(t *testing.T) {
	srv := newTestServer(t)
	b := &browser{t: t, handler: srv.Handler()}
	token := b.csrf()

	rec := b.postForm("/", url.Values{"_csrf": {token}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty submit, got %d", rec.Code)
	}
	doc := testsupport.MustParseHTML(t, rec.Body.Bytes())
	if got := testsupport.CountTestID(doc, "error"); got != 3 {
		t.Fatalf("expected 3 error indicators, got %d", got)
	}

	rec = b.postForm("/", url.Values{
		"_csrf":     {token},
		"firstName": {"Isaac"},
		"lastName":  {"Malin"},
		"email":     {"Isaac@email.com"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid submit, got %d", rec.Code)
	}
	doc = testsupport.MustParseHTML(t, rec.Body.Bytes())
	if got := testsupport.TestIDText(doc, "firstnameDisplay"); got != "Isaac" {
		t.Fatalf("unexpected display %q", got)
	}
	if testsupport.CountTestID(doc, "messageDisplay") != 0 {
		t.Fatalf("empty message must not be displayed")
	}

	rec = b.get("/state")
	var state struct {
		Phase     contact.Phase     `json:"phase"`
		Submitted *contact.Values   `json:"submitted"`
		Errors    map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Phase != contact.PhaseSubmitted || state.Submitted == nil || state.Submitted.Email != "Isaac@email.com" {
		t.Fatalf("unexpected state %+v", state)
	}
	if len(state.Errors) != 0 {
		t.Fatalf("expected no errors after success, got %v", state.Errors)
	}
}

func TestServer_RejectsBadCSRF(t *testing.T) {
	srv := newTestServer(t)
	b := &browser{t: t, handler: srv.Handler()}
	b.csrf()

	if rec := b.postForm("/", url.Values{"_csrf": {"forged"}}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := b.postForm("/field", url.Values{"name": {"email"}, "value": {"x"}}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for field without token, got %d", rec.Code)
	}
}

func TestServer_FieldValidation(t *testing.T) {
	srv := newTestServer(t)
	b := &browser{t: t, handler: srv.Handler()}
	token := b.csrf()

	cases := []struct {
		name   string
		value  string
		status int
		want   fieldResponse
	}{
		{name: "email", value: "nope", status: http.StatusOK, want: fieldResponse{Field: "email", Error: "email must be a valid email address."}},
		{name: "email", value: "a@b.co", status: http.StatusOK, want: fieldResponse{Field: "email", Valid: true}},
		{name: "firstName", value: "Al", status: http.StatusOK, want: fieldResponse{Field: "firstName", Error: "firstName must have at least 5 characters."}},
		{name: "message", value: "", status: http.StatusOK, want: fieldResponse{Field: "message", Valid: true}},
	}
	for _, tc := range cases {
		rec := b.postForm("/field", url.Values{"_csrf": {token}, "name": {tc.name}, "value": {tc.value}})
		if rec.Code != tc.status {
			t.Fatalf("%s=%q: unexpected status %d", tc.name, tc.value, rec.Code)
		}
		var got fieldResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s=%q mismatch (-want +got):\n%s", tc.name, tc.value, diff)
		}
	}

	if rec := b.postForm("/field", url.Values{"_csrf": {token}, "name": {"phone"}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}

	anon := &browser{t: t, handler: srv.Handler()}
	if rec := anon.postForm("/field", url.Values{"name": {"email"}}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}
}

func TestServer_APISubmit(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"firstName":"Isaac","lastName":"Malin","email":"Isaac@email.com","message":"Hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snapshot contact.Values
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.Message != "Hi" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	rec = post(`{"firstName":"Ed","email":"bad"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var verr validationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &verr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		"firstName": "firstName must have at least 5 characters.",
		"lastName":  "lastName is a required field.",
		"email":     "email must be a valid email address.",
	}
	if diff := cmp.Diff(want, verr.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if rec := post(`{"phone":"1"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown key, got %d", rec.Code)
	}
}

func TestServer_StaticRoutes(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	for path, contentType := range map[string]string{
		"/openapi.json":                        "application/json",
		"/assets/" + vanilla.StylesheetName:    "text/css",
		"/assets/" + vanilla.RuntimeScriptName: "javascript",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); !strings.Contains(got, contentType) {
			t.Fatalf("%s: unexpected content type %q", path, got)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if !strings.Contains(rec.Body.String(), `"submitContact"`) {
		t.Fatalf("expected contract operation in openapi output")
	}
}

func TestSessionStore_ExpiryAndSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Minute, nil)
	store.now = func() time.Time { return now }

	first := store.create()
	second := store.create()
	if first.id == second.id || first.csrf == first.id {
		t.Fatalf("expected distinct ids and tokens")
	}

	now = now.Add(45 * time.Second)
	if _, ok := store.lookup(first.id); !ok {
		t.Fatalf("first session should still be live")
	}

	now = now.Add(30 * time.Second)
	if _, ok := store.lookup(second.id); ok {
		t.Fatalf("second session should have expired")
	}
	if got := store.Sweep(); got != 0 {
		t.Fatalf("expected nothing left to sweep, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	if got := store.Sweep(); got != 1 {
		t.Fatalf("expected first session swept, got %d", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestSessionStore_JanitorStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewSessionStore(time.Nanosecond, nil)
	store.create()

	swept := make(chan int, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.RunJanitor(ctx, time.Millisecond, func(n int) {
			select {
			case swept <- n:
			default:
			}
		})
	}()

	select {
	case n := <-swept:
		if n != 1 {
			t.Fatalf("expected one session swept, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("janitor never swept")
	}
	cancel()
	<-done
}

func TestServer_ServeShutsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ctx, ln, time.Millisecond, time.Second)
	}()

	transport := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: transport, Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	transport.CloseIdleConnections()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func TestServer_ServeFallsBackOnZeroDurations(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ctx, ln, 0, 0)
	}()

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestSessionStore_JanitorNegativeInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewSessionStore(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.RunJanitor(ctx, -time.Second, nil)
	}()
	cancel()
	<-done
}

func TestNew_RequiresDependencies(t *testing.T) {
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := New(nil, renderer); err == nil {
		t.Fatalf("expected error without contract")
	}
	if _, err := New(testsupport.LoadContract(t), nil); err == nil {
		t.Fatalf("expected error without renderer")
	}
}
