package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// envBinary overrides binary discovery when set.
const envBinary = "GRABTUNE_GYTMDL"

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "gytmdl.exe"
	}
	return "gytmdl"
}

// Locate finds the gytmdl binary. Search order: the GRABTUNE_GYTMDL
// environment variable, a bundled copy next to the running executable, the
// working directory, then PATH.
func Locate() (string, error) {
	if p := os.Getenv(envBinary); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s points at %q: %w", envBinary, p, err)
		}
		return p, nil
	}

	name := binaryName()

	if self, err := os.Executable(); err == nil {
		sidecar := filepath.Join(filepath.Dir(self), name)
		if _, err := os.Stat(sidecar); err == nil {
			return sidecar, nil
		}
	}

	if _, err := os.Stat(name); err == nil {
		return "./" + name, nil
	}

	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}

	return "", fmt.Errorf("gytmdl binary not found: set %s or place %q on PATH", envBinary, name)
}

// Version runs the binary with --version and returns the trimmed first line
// of its output. Used by the health endpoint to prove the downloader is
// actually runnable, not just present on disk.
func Version(ctx context.Context, bin string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("query %q version: %w", bin, err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
