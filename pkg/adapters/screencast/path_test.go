package screencast

import (
	"os"
	"runtime"
	"testing"
)

func TestResolveChromePath_ExplicitPath(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")
	if got := ResolveChromePath("/custom/path/to/chrome"); got != "/custom/path/to/chrome" {
		t.Errorf("expected explicit path to take precedence, got %s", got)
	}
}

func TestResolveChromePath_EnvVar(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")
	if got := ResolveChromePath(""); got != "/env/chrome" {
		t.Errorf("expected CHROME_PATH to be used, got %s", got)
	}
}

func TestChromeCandidates(t *testing.T) {
	if got := chromeCandidates("linux"); len(got) != 4 || got[0] != "chromium" {
		t.Errorf("unexpected linux candidates %v", got)
	}
	if got := chromeCandidates("plan9"); got != nil {
		t.Errorf("expected no candidates, got %v", got)
	}

	t.Setenv("PROGRAMFILES", `C:\Program Files`)
	t.Setenv("PROGRAMFILES(X86)", "")
	t.Setenv("LOCALAPPDATA", "")
	if got := chromeCandidates("windows"); len(got) != 2 {
		t.Errorf("expected 2 windows candidates, got %v", got)
	}
}

func TestResolveExecutable(t *testing.T) {
	if got := resolveExecutable("definitely-not-a-real-command-xyz123"); got != "" {
		t.Errorf("expected empty, got %s", got)
	}
	if got := resolveExecutable("/definitely/not/a/real/path/chrome"); got != "" {
		t.Errorf("expected empty, got %s", got)
	}

	testPath := "/bin/sh"
	if runtime.GOOS == "windows" {
		testPath = os.Getenv("COMSPEC")
	}
	if testPath == "" {
		t.Skip("No known executable path for this platform")
	}
	if got := resolveExecutable(testPath); got != testPath {
		t.Errorf("expected %s, got %s", testPath, got)
	}
}
