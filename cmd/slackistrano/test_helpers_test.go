package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
	slack      *slackStub
}

type slackStub struct {
	mu     sync.Mutex
	status int
	texts  []string
	server *httptest.Server
}

func newSlackStub(t *testing.T) *slackStub {
	t.Helper()
	stub := &slackStub{status: http.StatusOK}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(body, &decoded)
		text, _ := decoded["text"].(string)

		stub.mu.Lock()
		stub.texts = append(stub.texts, text)
		status := stub.status
		stub.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *slackStub) setStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *slackStub) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

// isolateEnv points HOME and the working directory at temp dirs and unsets
// every variable the config layer reads.
func isolateEnv(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	home := filepath.Join(base, "home")
	work := filepath.Join(base, "work")
	for _, dir := range []string{home, work} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", home)
	for _, key := range []string{"SLACK_WEBHOOK_URL", "SLACK_TEAM", "SLACK_TOKEN", "SLACK_CHANNEL", "SLACKISTRANO_SERVER_TOKEN"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Chdir(work)
	return base
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := isolateEnv(t)
	stub := newSlackStub(t)
	configPath := filepath.Join(base, "slackistrano.toml")
	writeTestConfig(t, configPath, stub.server.URL)

	return &cliTestEnv{
		configPath: configPath,
		baseDir:    base,
		slack:      stub,
	}
}

func writeTestConfig(t *testing.T, path, webhook string) {
	t.Helper()
	content := fmt.Sprintf(`[slack]
webhook = %q

[deploy]
application = "app"
stage = "staging"
branch = "main"
deployer = "tester"

[logging]
format = "console"
level = "info"
`, webhook)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireTexts(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d deliveries, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery %d = %q, want %q", i, got[i], want[i])
		}
	}
}
