package envutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "abc")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("ENVUTIL_INT", " 12 ")
	if got := Int("ENVUTIL_INT", 7); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"on": true, "YES": true, "0": false, "off": false, "maybe": true}
	for raw, want := range cases {
		t.Setenv("ENVUTIL_BOOL", raw)
		if got := Bool("ENVUTIL_BOOL", true); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestSecondsRejectsNonPositive(t *testing.T) {
	t.Setenv("ENVUTIL_SECS", "0")
	if got := Seconds("ENVUTIL_SECS", 30*time.Second); got != 30*time.Second {
		t.Fatalf("Seconds: want=30s got=%v", got)
	}
	t.Setenv("ENVUTIL_SECS", "5")
	if got := Seconds("ENVUTIL_SECS", 30*time.Second); got != 5*time.Second {
		t.Fatalf("Seconds: want=5s got=%v", got)
	}
}

func TestCSVTrimsAndDropsEmpty(t *testing.T) {
	t.Setenv("ENVUTIL_CSV", " http://a , ,http://b")
	got := CSV("ENVUTIL_CSV", nil)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Fatalf("CSV: got=%v", got)
	}
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("ENVUTIL_DOTENV_A=fromfile\nENVUTIL_DOTENV_B=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENVUTIL_DOTENV_A", "fromenv")
	t.Cleanup(func() { _ = os.Unsetenv("ENVUTIL_DOTENV_B") })

	if !LoadDotEnv(path) {
		t.Fatalf("LoadDotEnv: expected file to load")
	}
	if got := os.Getenv("ENVUTIL_DOTENV_A"); got != "fromenv" {
		t.Fatalf("A: want=fromenv got=%q", got)
	}
	if got := os.Getenv("ENVUTIL_DOTENV_B"); got != "fromfile" {
		t.Fatalf("B: want=fromfile got=%q", got)
	}
	if LoadDotEnv(filepath.Join(dir, "missing.env")) {
		t.Fatalf("LoadDotEnv: missing file should report false")
	}
}
