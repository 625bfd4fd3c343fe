package configuration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv_ReadsExistingFiles(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "MUNIGOV_TEST_ENV_LOAD=ok\n")

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	_ = os.Unsetenv("MUNIGOV_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("MUNIGOV_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded, got %q", got)
	}
}

func TestRosterImportOptions_Validate(t *testing.T) {
	cases := []struct {
		name    string
		opts    RosterImportOptions
		wantErr bool
	}{
		{"defaults", RosterImportOptions{MaxRows: 5000, MaxRetries: 3, IdentityKey: "name"}, false},
		{"email key", RosterImportOptions{MaxRows: 100, MaxRetries: 1, IdentityKey: "email"}, false},
		{"zero rows", RosterImportOptions{MaxRows: 0, MaxRetries: 3, IdentityKey: "name"}, true},
		{"zero retries", RosterImportOptions{MaxRows: 100, MaxRetries: 0, IdentityKey: "name"}, true},
		{"bad key", RosterImportOptions{MaxRows: 100, MaxRetries: 3, IdentityKey: "pernr"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
