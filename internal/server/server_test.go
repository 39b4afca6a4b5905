package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"chomikai/internal/config"
	"chomikai/internal/google"
	"chomikai/internal/loader"
	"chomikai/internal/sse"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		ListenAddr:         ":0",
		BaseURL:            "http://localhost:8000",
		GoogleClientID:     "test-client-id",
		GoogleClientSecret: "test-client-secret",
		SessionSecret:      "test-session-secret",
		ScanWorkers:        4,
		ThumbnailSize:      "MEDIUM",
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return s
}

func testHandler(t *testing.T, s *Server) http.Handler {
	t.Helper()
	handler, err := s.Handler()
	if err != nil {
		t.Fatalf("Handler() failed: %v", err)
	}
	return handler
}

// loginCookies fabricates a session holding valid-looking credentials,
// the state a browser ends up in after completing the consent flow.
func loginCookies(t *testing.T, s *Server) []*http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session := s.getSession(req)
	token := &oauth2.Token{
		AccessToken: "test-access-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	if err := s.saveCredentials(rec, req, session, token); err != nil {
		t.Fatalf("saveCredentials failed: %v", err)
	}
	return rec.Result().Cookies()
}

func addCookies(req *http.Request, cookies []*http.Cookie) {
	for _, c := range cookies {
		req.AddCookie(c)
	}
}

func TestIndexRendersLoginPage(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sign in with Google") {
		t.Error("Expected login page to contain the sign-in link")
	}
}

func TestIndexRedirectsWhenAuthenticated(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	addCookies(req, loginCookies(t, s))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/presentations" {
		t.Errorf("Expected redirect to /presentations, got %q", loc)
	}
}

func TestIndexUnknownPath(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/no-such-page", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestPresentationsRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/presentations", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected status 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Expected redirect to /login, got %q", loc)
	}
}

func TestLoginRedirectsToConsent(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Failed to parse redirect location: %v", err)
	}
	if loc.Host != "accounts.google.com" {
		t.Errorf("Expected redirect to accounts.google.com, got %q", loc.Host)
	}
	if loc.Query().Get("state") == "" {
		t.Error("Expected state parameter in consent URL")
	}
	if got := loc.Query().Get("access_type"); got != "offline" {
		t.Errorf("Expected access_type=offline, got %q", got)
	}
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	// Start the flow to get a session with a real state
	loginReq := httptest.NewRequest(http.MethodGet, "/login", nil)
	loginRec := httptest.NewRecorder()
	handler.ServeHTTP(loginRec, loginReq)

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?state=forged&code=abc", nil)
	addCookies(req, loginRec.Result().Cookies())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestOAuthCallbackConsentDenied(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestOAuthCallbackSuccess(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"exchanged-token","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	s := newTestServer(t)
	s.oauth.Endpoint.TokenURL = tokenSrv.URL
	handler := testHandler(t, s)

	loginReq := httptest.NewRequest(http.MethodGet, "/login", nil)
	loginRec := httptest.NewRecorder()
	handler.ServeHTTP(loginRec, loginReq)

	loc, err := url.Parse(loginRec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Failed to parse consent URL: %v", err)
	}
	state := loc.Query().Get("state")

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?state="+state+"&code=good-code", nil)
	addCookies(req, loginRec.Result().Cookies())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/presentations" {
		t.Errorf("Expected redirect to /presentations, got %q", loc)
	}

	// The new session must carry usable credentials
	pageReq := httptest.NewRequest(http.MethodGet, "/presentations", nil)
	addCookies(pageReq, rec.Result().Cookies())
	pageRec := httptest.NewRecorder()
	handler.ServeHTTP(pageRec, pageReq)

	if pageRec.Code != http.StatusOK {
		t.Errorf("Expected status 200 after login, got %d", pageRec.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	addCookies(req, loginCookies(t, s))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Expected redirect to /, got %q", loc)
	}

	// Reusing the cleared cookie must not grant access
	pageReq := httptest.NewRequest(http.MethodGet, "/presentations", nil)
	addCookies(pageReq, rec.Result().Cookies())
	pageRec := httptest.NewRecorder()
	handler.ServeHTTP(pageRec, pageReq)

	if pageRec.Code != http.StatusSeeOther {
		t.Errorf("Expected redirect after logout, got %d", pageRec.Code)
	}
}

func TestPresentationsRendersPage(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/presentations", nil)
	req.Header.Set("Accept", "text/html")
	addCookies(req, loginCookies(t, s))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "EventSource") {
		t.Error("Expected progress page to wire up an EventSource")
	}
	if !strings.Contains(body, "progress-fill") {
		t.Error("Expected progress page to contain the progress bar")
	}
}

// fakeGoogleBackend serves just enough of the Drive and Slides APIs for a
// full scan: a one-page file listing plus slide and thumbnail lookups.
func fakeGoogleBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files":[
			{"id":"pres-1","name":"Quarterly Review","createdTime":"2024-01-15T10:00:00Z","modifiedTime":"2024-02-01T10:00:00Z","webViewLink":"https://docs.google.com/presentation/d/pres-1"},
			{"id":"pres-2","name":"Roadmap","createdTime":"2024-03-01T10:00:00Z","modifiedTime":"2024-03-02T10:00:00Z","webViewLink":"https://docs.google.com/presentation/d/pres-2"}
		]}`)
	})
	mux.HandleFunc("/presentations/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/thumbnail") {
			fmt.Fprint(w, `{"contentUrl":"https://lh3.example.com/thumb","width":800,"height":450}`)
			return
		}
		fmt.Fprint(w, `{"slides":[{"objectId":"slide-1"}]}`)
	})
	return httptest.NewServer(mux)
}

// stubClientFactory builds API clients pointed at a local fake backend.
func stubClientFactory(backend *httptest.Server) func(context.Context, *oauth2.Token) *google.Client {
	return func(ctx context.Context, token *oauth2.Token) *google.Client {
		client := google.NewClientWithHTTP(backend.Client())
		client.DriveBaseURL = backend.URL
		client.SlidesBaseURL = backend.URL
		return client
	}
}

func readEvents(t *testing.T, body io.Reader) []*sse.Event {
	t.Helper()
	var events []*sse.Event
	reader := sse.NewReader(body)
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Failed to read event: %v", err)
		}
		events = append(events, ev)
	}
}

func TestPresentationsStreamProgressAndComplete(t *testing.T) {
	backend := fakeGoogleBackend(t)
	defer backend.Close()

	s := newTestServer(t)
	s.newAPIClient = stubClientFactory(backend)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/presentations", nil)
	req.Header.Set("Accept", "text/event-stream")
	addCookies(req, loginCookies(t, s))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Expected event stream content type, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, ": scan started\n\n") {
		t.Error("Expected a keep-alive comment before the first event")
	}

	events := readEvents(t, strings.NewReader(body))
	if len(events) < 2 {
		t.Fatalf("Expected at least a progress and a complete event, got %d", len(events))
	}

	first := events[0]
	if first.Name != "progress" {
		t.Fatalf("Expected first event to be progress, got %q", first.Name)
	}
	var p struct {
		Percent   float64 `json:"percent"`
		Processed int     `json:"processed"`
		Total     int     `json:"total"`
	}
	if err := json.Unmarshal([]byte(first.Data), &p); err != nil {
		t.Fatalf("Failed to decode progress payload: %v", err)
	}
	if p.Percent != 0 || p.Total != 2 {
		t.Errorf("Expected initial progress 0%% of 2, got %+v", p)
	}

	last := events[len(events)-1]
	if last.Name != "complete" {
		t.Fatalf("Expected final event to be complete, got %q", last.Name)
	}
	var c struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal([]byte(last.Data), &c); err != nil {
		t.Fatalf("Failed to decode complete payload: %v", err)
	}
	if !strings.Contains(c.HTML, "Quarterly Review") {
		t.Error("Expected rendered grid to contain the presentation name")
	}
	if !strings.Contains(c.HTML, "https://lh3.example.com/thumb") {
		t.Error("Expected rendered grid to contain the thumbnail URL")
	}

	// Every event between first and last must be a progress update
	for _, ev := range events[1 : len(events)-1] {
		if ev.Name != "progress" {
			t.Errorf("Unexpected event %q mid-stream", ev.Name)
		}
	}
}

func TestPresentationsStreamListingError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500}}`, http.StatusInternalServerError)
	}))
	defer backend.Close()

	s := newTestServer(t)
	s.newAPIClient = stubClientFactory(backend)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/presentations", nil)
	req.Header.Set("Accept", "text/event-stream")
	addCookies(req, loginCookies(t, s))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	events := readEvents(t, rec.Body)
	if len(events) == 0 {
		t.Fatal("Expected an error event")
	}
	last := events[len(events)-1]
	if last.Name != "error" {
		t.Fatalf("Expected error event, got %q", last.Name)
	}
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(last.Data), &e); err != nil {
		t.Fatalf("Failed to decode error payload: %v", err)
	}
	if !strings.HasPrefix(e.Message, "An error occurred:") {
		t.Errorf("Unexpected error message: %q", e.Message)
	}
}

// sessionTransport attaches a logged-in session's cookies to every request.
type sessionTransport struct {
	cookies []*http.Cookie
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, c := range t.cookies {
		req.AddCookie(c)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// pageView records the mutations a loader makes while consuming a stream.
type pageView struct {
	progress [][3]int
	statuses []string
	content  []string
}

func (v *pageView) SetProgress(percent, processed, total int) {
	v.progress = append(v.progress, [3]int{percent, processed, total})
}

func (v *pageView) SetStatus(text string) {
	v.statuses = append(v.statuses, text)
}

func (v *pageView) ShowContent(html string) {
	v.content = append(v.content, html)
}

func TestLoaderAgainstServerStream(t *testing.T) {
	backend := fakeGoogleBackend(t)
	defer backend.Close()

	s := newTestServer(t)
	s.newAPIClient = stubClientFactory(backend)

	ts := httptest.NewServer(testHandler(t, s))
	defer ts.Close()

	client := &http.Client{Transport: &sessionTransport{cookies: loginCookies(t, s)}}
	view := &pageView{}
	ctrl := loader.NewWithClient(view, client)

	if err := ctrl.Run(context.Background(), ts.URL+"/presentations"); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if ctrl.State() != loader.StateComplete {
		t.Fatalf("State = %v, want complete", ctrl.State())
	}

	// Initial render, the scan's 0% report, then one render per deck
	wantProgress := [][3]int{{0, 0, 0}, {0, 0, 2}, {50, 1, 2}, {100, 2, 2}}
	if len(view.progress) != len(wantProgress) {
		t.Fatalf("Got %d progress renders %v, want %d", len(view.progress), view.progress, len(wantProgress))
	}
	for i, want := range wantProgress {
		if view.progress[i] != want {
			t.Errorf("Progress render %d = %v, want %v", i, view.progress[i], want)
		}
	}

	if len(view.content) != 1 {
		t.Fatalf("ShowContent called %d times, want 1", len(view.content))
	}
	if !strings.Contains(view.content[0], "Quarterly Review") {
		t.Error("Swapped content is missing the rendered grid")
	}
	if got := view.statuses[len(view.statuses)-1]; got != loader.StatusDone {
		t.Errorf("Final status = %q, want %q", got, loader.StatusDone)
	}
}

func TestSystemVitalsRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	handler := testHandler(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/system-vitals", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("Expected redirect for unauthenticated request, got %d", rec.Code)
	}
}
