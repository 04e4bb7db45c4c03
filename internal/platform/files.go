package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Linux has no standard reveal mechanism; xdg-open is tried first, then
// common file managers.
var linuxFileManagers = []string{"nautilus", "dolphin", "thunar", "pcmanfm"}

// OpenFolder shows a directory in the OS file manager.
func OpenFolder(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot open %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot open %q: not a directory", dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", dir, err)
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", abs).Run()
	case "windows":
		return exec.Command("explorer", abs).Run()
	case "linux":
		return openFolderLinux(abs)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func openFolderLinux(dir string) error {
	if err := exec.Command("xdg-open", dir).Run(); err == nil {
		return nil
	}

	for _, fm := range linuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, dir).Run()
		}
	}
	return fmt.Errorf("no suitable file manager found")
}
