package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	if realGot != filepath.Join(realTmpDir, defaultLogDirName) {
		t.Fatalf("unexpected log dir: %s", realGot)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	return string(content)
}

func TestReleaseLoggerRedactsKeyMaterial(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log"})
	log.Sugar().Infow("license_delivered",
		"order_id", "113-1234567-7654321",
		"license_key", "ABCDE-FGHIJ-KLMNO-PQRST-VWXYZ",
		"email", "buyer@example.com",
	)
	log.Sugar().With("installation_id", "123456789012345678").Infow("activation_attempt")
	_ = log.Sync()

	content := readLog(t, filepath.Join(tmpDir, "release.log"))
	if !strings.Contains(content, "license_delivered") || !strings.Contains(content, "113-1234567-7654321") {
		t.Fatalf("expected event and order id in log, got=%s", content)
	}
	for _, secret := range []string{"ABCDE-FGHIJ", "buyer@example", "12345678901234"} {
		if strings.Contains(content, secret) {
			t.Fatalf("log leaked %q: %s", secret, content)
		}
	}
	if !strings.Contains(content, "WXYZ") || !strings.Contains(content, "5678") {
		t.Fatalf("masked values should keep trailing characters, got=%s", content)
	}
}

func TestReleaseLoggerHonorsLevel(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "warn.log", Level: "warn"})
	log.Info("info-hidden")
	log.Warn("warn-visible")
	_ = log.Sync()

	content := readLog(t, filepath.Join(tmpDir, "warn.log"))
	if strings.Contains(content, "info-hidden") || !strings.Contains(content, "warn-visible") {
		t.Fatalf("level filter not applied, got=%s", content)
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"abc":         "***",
		"ABCDE-12345": "*******2345",
		"  7788  ":    "****",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) want %q got %q", in, want, got)
		}
	}
	if !IsSensitiveField(" License_Key ") || IsSensitiveField("order_id") {
		t.Fatalf("unexpected sensitive field classification")
	}
}
