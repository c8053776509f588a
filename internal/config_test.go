package internal

import (
	"errors"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if got := cfg.App.HTTP.Address(); got != "127.0.0.1:8765" {
		t.Errorf("address = %q, want 127.0.0.1:8765", got)
	}
	if cfg.Auth.Configured() {
		t.Error("default config should have no token")
	}
}

func TestHTTPConfig_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("port out of range should fail")
	}
}

func TestHTTPConfig_IPv6Address(t *testing.T) {
	c := HTTPConfig{Host: "::1", Port: 9000}
	if got := c.Address(); got != "[::1]:9000" {
		t.Errorf("address = %q", got)
	}
}

func TestVaultConfig_EmptyAllowlistEntry(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Allowlist = []string{"Inbox/", ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("empty allowlist entry should fail")
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("error type = %T, want validation.Errors", err)
	}
	if _, ok := verrs["Allowlist"]; !ok {
		t.Errorf("expected an Allowlist error, got %v", err)
	}
}

func TestVaultConfig_MissingAllowlist(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Allowlist = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing allowlist should fail")
	}
}

func TestViewerConfig_Navigator(t *testing.T) {
	cfg := NewDefaultConfig()
	section := "intro"
	got := cfg.Viewer.Navigator().URL("sop/a.md", &section)
	if got != "/library/sop?path=sop%2Fa.md#intro" {
		t.Errorf("url = %q", got)
	}
}

func TestViewerConfig_Required(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Viewer.Route = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty viewer route should fail")
	}
}

func TestInstallLogger_Once(t *testing.T) {
	var out strings.Builder
	app := &application{config: NewDefaultConfig(), logOutput: &out}

	first := app.installLogger()
	second := app.installLogger()
	if first != second {
		t.Error("second install should return the installed logger")
	}
	if !app.loggerInstalled {
		t.Error("flag should be set after install")
	}

	first.Info("hello")
	if !strings.Contains(out.String(), `"msg":"hello"`) {
		t.Errorf("logger should write JSON to the configured output, got %q", out.String())
	}
}
