package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", WithLookup(noEnv))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLThenEnvFileThenProcessEnv(t *testing.T) {
	yamlPath := writeFile(t, "contactform.yaml", `
server:
  addr: ":9000"
  session_ttl: 5m
render:
  theme:
    name: acme
    tokens:
      brand: "#123456"
tui:
  output: pretty
log:
  level: debug
`)
	envPath := writeFile(t, ".env", "CONTACTFORM_ADDR=:9100\nCONTACTFORM_TUI_MAX_ATTEMPTS=5\n")

	env := map[string]string{"CONTACTFORM_ADDR": ":9200", "CONTACTFORM_SHUTDOWN_TIMEOUT": "3s"}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg, err := Load(yamlPath, WithEnvFile(envPath), WithLookup(lookup))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Default()
	want.Server.Addr = ":9200"
	want.Server.SessionTTL = 5 * time.Minute
	want.Server.ShutdownTimeout = 3 * time.Second
	want.Render.Theme.Name = "acme"
	want.Render.Theme.Tokens = map[string]string{"brand": "#123456"}
	want.TUI.Output = "pretty"
	want.TUI.MaxAttempts = 5
	want.Log.Level = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	if _, err := Load("", WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithLookup(noEnv)); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{name: "unknown yaml key", yaml: "server:\n  port: 80\n", want: "decode"},
		{name: "bad duration", env: map[string]string{"CONTACTFORM_SESSION_TTL": "soon"}, want: "CONTACTFORM_SESSION_TTL"},
		{name: "bad bool", env: map[string]string{"CONTACTFORM_SECURE_COOKIE": "maybe"}, want: "CONTACTFORM_SECURE_COOKIE"},
		{name: "bad output", env: map[string]string{"CONTACTFORM_TUI_OUTPUT": "xml"}, want: "tui.output"},
		{name: "bad attempts", env: map[string]string{"CONTACTFORM_TUI_MAX_ATTEMPTS": "0"}, want: "max_attempts"},
		{name: "bad level", env: map[string]string{"CONTACTFORM_LOG_LEVEL": "loud"}, want: "log.level"},
		{name: "empty addr", env: map[string]string{"CONTACTFORM_ADDR": " "}, want: "server.addr"},
		{name: "bad shutdown timeout", env: map[string]string{"CONTACTFORM_SHUTDOWN_TIMEOUT": "later"}, want: "CONTACTFORM_SHUTDOWN_TIMEOUT"},
		{name: "zero shutdown timeout", env: map[string]string{"CONTACTFORM_SHUTDOWN_TIMEOUT": "0s"}, want: "server.shutdown_timeout"},
		{name: "negative shutdown timeout", yaml: "server:\n  shutdown_timeout: -1s\n", want: "server.shutdown_timeout"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := ""
			if tc.yaml != "" {
				path = writeFile(t, "config.yaml", tc.yaml)
			}
			lookup := func(key string) (string, bool) {
				v, ok := tc.env[key]
				return v, ok
			}
			_, err := Load(path, WithLookup(lookup))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestThemeConfig_Manifest(t *testing.T) {
	if (ThemeConfig{}).Manifest() != nil {
		t.Fatalf("expected nil manifest without a name")
	}
	manifest := ThemeConfig{
		Name:     "acme",
		Tokens:   map[string]string{"brand": "#111"},
		Variants: map[string]map[string]string{"dark": {"brand": "#eee"}},
	}.Manifest()
	if manifest.Name != "acme" || manifest.Tokens["brand"] != "#111" {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
	if manifest.Variants["dark"].Tokens["brand"] != "#eee" {
		t.Fatalf("expected dark variant tokens, got %+v", manifest.Variants)
	}
}
