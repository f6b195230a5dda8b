// Package e2e contains end-to-end tests for the vpxenc CLI.
// The binary links libvpx, so these tests need a cgo build with libvpx
// installed and are skipped unless VPXENC_E2E=1.
package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getBinaryName returns the test binary name with platform-specific extension
func getBinaryName() string {
	if runtime.GOOS == "windows" {
		return "vpxenc-test.exe"
	}
	return "vpxenc-test"
}

// getBinaryPath returns the path to execute the test binary
// If VPXENC_BINARY env var is set, use that instead (for CI with pre-built binaries)
func getBinaryPath(t *testing.T) string {
	if path := os.Getenv("VPXENC_BINARY"); path != "" {
		return path
	}
	return filepath.Join(getProjectRoot(t), getBinaryName())
}

// buildBinary builds the CLI unless a pre-built binary is provided.
func buildBinary(t *testing.T) {
	t.Helper()
	if os.Getenv("VPXENC_E2E") != "1" {
		t.Skip("Skipping E2E test (set VPXENC_E2E=1 to run)")
	}
	if os.Getenv("VPXENC_BINARY") != "" {
		return
	}

	buildCmd := exec.Command("go", "build", "-o", getBinaryName(), "./cmd/vpxenc")
	buildCmd.Dir = getProjectRoot(t)
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\n%s", err, out)
	}
	t.Cleanup(func() {
		os.Remove(filepath.Join(getProjectRoot(t), getBinaryName()))
	})
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(getBinaryPath(t), args...)
	cmd.Dir = getProjectRoot(t)
	cmd.Env = append(os.Environ(), "LANG=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestEncodePattern(t *testing.T) {
	buildBinary(t)

	for _, tt := range []struct {
		profile   string
		container string
		codec     string
	}{
		{"vp8", "ivf", "vp8"},
		{"vp9", "mp4", "vp9"},
		{"vp9-2", "ivf", "vp9"},
	} {
		t.Run(tt.profile+"-"+tt.container, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), "pattern."+tt.container)
			_, stderr, err := run(t,
				"--quiet",
				"encode",
				"--pattern", "--pattern-frames", "30",
				"-p", tt.profile,
				"--container", tt.container,
				"-b", "300000",
				"-o", output,
			)
			if err != nil {
				t.Fatalf("encode failed: %v\n%s", err, stderr)
			}

			stdout, stderr, err := run(t, "probe", output)
			if err != nil {
				t.Fatalf("probe failed: %v\n%s", err, stderr)
			}
			if !strings.Contains(stdout, "Codec: "+tt.codec) {
				t.Errorf("expected codec %s, got:\n%s", tt.codec, stdout)
			}
			if !strings.Contains(stdout, "Frames: 30") {
				t.Errorf("expected 30 frames, got:\n%s", stdout)
			}
		})
	}
}

func TestEncodeRawWithResize(t *testing.T) {
	buildBinary(t)
	dir := t.TempDir()

	// 20 mid-grey 64x48 I420 frames.
	frame := bytes.Repeat([]byte{128}, 64*48*3/2)
	input := filepath.Join(dir, "in.yuv")
	if err := os.WriteFile(input, bytes.Repeat(frame, 20), 0644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "out.ivf")
	summary := filepath.Join(dir, "summary.md")
	_, stderr, err := run(t,
		"--log-format", "json",
		"encode",
		"--input-size", "64x48",
		"--resize", "10:32x24",
		"--force-keyframe-every", "5",
		"--summary", summary,
		"-o", output,
		input,
	)
	if err != nil {
		t.Fatalf("encode failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, `"level":"info"`) || !strings.Contains(stderr, `"msg":`) {
		t.Errorf("expected JSON logs, got:\n%s", stderr)
	}

	data, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(data), "| Frames | 20 |") || !strings.Contains(string(data), "32x24") {
		t.Errorf("unexpected summary:\n%s", data)
	}
}

func TestEncodeWithDebugOutput(t *testing.T) {
	buildBinary(t)
	dir := t.TempDir()
	debugDir := filepath.Join(dir, "debug")

	_, stderr, err := run(t,
		"--quiet",
		"encode", "--pattern", "--pattern-frames", "5",
		"-d", "--debug-dir", debugDir,
		"-o", filepath.Join(dir, "out.ivf"),
	)
	if err != nil {
		t.Fatalf("encode failed: %v\n%s", err, stderr)
	}

	for _, name := range []string{"config.json", "frames/frame-0000.png", "packets/packet-0000-key.bin"} {
		if _, err := os.Stat(filepath.Join(debugDir, name)); err != nil {
			t.Errorf("expected debug file %s: %v", name, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	buildBinary(t)

	stdout, stderr, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "vpxenc version") || !strings.Contains(stdout, "libvpx") {
		t.Errorf("unexpected version output:\n%s", stdout)
	}
}

func TestInvalidProfile(t *testing.T) {
	buildBinary(t)

	_, stderr, err := run(t, "encode", "--pattern", "-p", "h264", "-o", filepath.Join(t.TempDir(), "x.ivf"))
	if err == nil {
		t.Fatal("expected failure for unknown profile")
	}
	if !strings.Contains(stderr, "h264") {
		t.Errorf("expected the profile in the error, got:\n%s", stderr)
	}
}

// getProjectRoot returns the directory containing go.mod.
func getProjectRoot(t *testing.T) string {
	// Start from current working directory and find go.mod
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find project root (go.mod)")
		}
		dir = parent
	}
}
