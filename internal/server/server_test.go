package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"slackistrano/internal/config"
	"slackistrano/internal/logging"
	"slackistrano/internal/server"
	"slackistrano/internal/testsupport"
)

type slackStub struct {
	mu     sync.Mutex
	bodies []string
	status int
}

func newSlackStub(t *testing.T, status int) (*slackStub, *httptest.Server) {
	t.Helper()
	stub := &slackStub{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.bodies = append(stub.bodies, string(body))
		stub.mu.Unlock()
		w.WriteHeader(stub.status)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *slackStub) texts(t *testing.T) []string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.bodies))
	for _, body := range s.bodies {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(body), &decoded); err != nil {
			t.Fatalf("decode webhook body %q: %v", body, err)
		}
		text, _ := decoded["text"].(string)
		out = append(out, text)
	}
	return out
}

func newTestServer(t *testing.T, cfg *config.Config, client *http.Client) *server.Server {
	t.Helper()
	srv, err := server.New(cfg, logging.NewNop(), server.WithHTTPClient(client))
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return srv
}

func TestHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected correlation id header")
	}
}

func TestPostEventDeliversWithOverrides(t *testing.T) {
	stub, slack := newSlackStub(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(slack.URL))
	srv := newTestServer(t, cfg, slack.Client())

	body := strings.NewReader(`{"application":"shop","stage":"production","branch":"release"}`)
	req := httptest.NewRequest(http.MethodPost, "/events/slack:deploy:updating", body)
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp server.EventResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Event != "updating" || resp.Status != "accepted" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := w.Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("expected caller correlation id echoed, got %q", got)
	}

	texts := stub.texts(t)
	want := "tester has started deploying branch release of shop to production"
	if len(texts) != 1 || texts[0] != want {
		t.Fatalf("unexpected webhook texts %q", texts)
	}
}

func TestPostEventWithoutBodyUsesConfig(t *testing.T) {
	stub, slack := newSlackStub(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(slack.URL))
	srv := newTestServer(t, cfg, slack.Client())

	req := httptest.NewRequest(http.MethodPost, "/events/failed", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	texts := stub.texts(t)
	want := "tester has failed to deploy branch main of app to staging"
	if len(texts) != 1 || texts[0] != want {
		t.Fatalf("unexpected webhook texts %q", texts)
	}
}

func TestPostEventRollbackOverride(t *testing.T) {
	stub, slack := newSlackStub(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(slack.URL))
	srv := newTestServer(t, cfg, slack.Client())

	req := httptest.NewRequest(http.MethodPost, "/events/failed", strings.NewReader(`{"rollback":true}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	texts := stub.texts(t)
	want := "tester has failed to rollback branch main of app to staging"
	if len(texts) != 1 || texts[0] != want {
		t.Fatalf("unexpected webhook texts %q", texts)
	}
}

func TestPostEventAcceptedWhenSlackFails(t *testing.T) {
	stub, slack := newSlackStub(t, http.StatusInternalServerError)
	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(slack.URL))
	srv := newTestServer(t, cfg, slack.Client())

	req := httptest.NewRequest(http.MethodPost, "/events/updated", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 despite Slack failure, got %d", w.Code)
	}
	if len(stub.texts(t)) != 1 {
		t.Fatal("expected one delivery attempt")
	}
}

func TestPostEventWithoutPayloadSendsNothing(t *testing.T) {
	stub, slack := newSlackStub(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(slack.URL))
	srv := newTestServer(t, cfg, slack.Client())

	for _, event := range []string{"starting", "custom_event"} {
		req := httptest.NewRequest(http.MethodPost, "/events/"+event, nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusAccepted {
			t.Fatalf("%s: expected 202, got %d", event, w.Code)
		}
	}
	if texts := stub.texts(t); len(texts) != 0 {
		t.Fatalf("expected no deliveries, got %q", texts)
	}
}

func TestPostEventRejectsBadBody(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, nil)

	cases := []string{`{"application":`, `{"unknown":"field"}`, `[]`}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/events/updated", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAuthentication(t *testing.T) {
	stub, slack := newSlackStub(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(slack.URL), testsupport.WithServerToken("secret"))
	srv := newTestServer(t, cfg, slack.Client())

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/events/updated", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
	if len(stub.texts(t)) != 1 {
		t.Fatal("expected only the authorized request to deliver")
	}

	health := httptest.NewRecorder()
	srv.Handler().ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", health.Code)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

type urlRecorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *urlRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.urls = append(r.urls, req.URL.String())
	r.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestPostEventSlackbotFanOut(t *testing.T) {
	rec := &urlRecorder{}
	cfg := testsupport.NewConfig(t,
		testsupport.WithSlackbot("acme", "tok"),
		testsupport.WithChannels("#deploys", "#ops"),
	)
	srv := newTestServer(t, cfg, &http.Client{Transport: rec})

	req := httptest.NewRequest(http.MethodPost, "/events/updated", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	want := []string{
		"https://acme.slack.com/services/hooks/slackbot?token=tok&channel=%23deploys",
		"https://acme.slack.com/services/hooks/slackbot?token=tok&channel=%23ops",
	}
	if len(rec.urls) != len(want) {
		t.Fatalf("expected %d requests, got %v", len(want), rec.urls)
	}
	for i := range want {
		if rec.urls[i] != want[i] {
			t.Fatalf("request %d = %q, want %q", i, rec.urls[i], want[i])
		}
	}
}

func TestPostEventRichProviderPostsPerChannel(t *testing.T) {
	stub, slack := newSlackStub(t, http.StatusOK)
	cfg := testsupport.NewConfig(t,
		testsupport.WithWebhook(slack.URL),
		testsupport.WithProvider("rich"),
		testsupport.WithChannels("#a", "#b"),
	)
	srv := newTestServer(t, cfg, slack.Client())

	req := httptest.NewRequest(http.MethodPost, "/events/updated", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	stub.mu.Lock()
	bodies := append([]string(nil), stub.bodies...)
	stub.mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("expected one post per channel, got %d", len(bodies))
	}
	for _, body := range bodies {
		if !strings.Contains(body, `"attachments"`) {
			t.Fatalf("expected attachments in webhook body, got %s", body)
		}
	}
}

func TestPostEventSilentModes(t *testing.T) {
	cases := []struct {
		name string
		opt  testsupport.ConfigOption
	}{
		{"dry run", testsupport.WithDryRun(true)},
		{"disabled", testsupport.WithDisabled()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub, slack := newSlackStub(t, http.StatusOK)
			cfg := testsupport.NewConfig(t, testsupport.WithWebhook(slack.URL), tc.opt)
			srv := newTestServer(t, cfg, slack.Client())

			req := httptest.NewRequest(http.MethodPost, "/events/updated", nil)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusAccepted {
				t.Fatalf("expected 202, got %d", w.Code)
			}
			if got := stub.texts(t); len(got) != 0 {
				t.Fatalf("expected no deliveries, got %q", got)
			}
		})
	}
}
