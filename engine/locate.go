package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
)

// edgeNames are looked up on PATH before the well-known install locations.
var edgeNames = []string{"microsoft-edge", "microsoft-edge-stable", "msedge"}

func edgePaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles(x86)"), `Microsoft\Edge\Application\msedge.exe`),
			filepath.Join(os.Getenv("ProgramFiles"), `Microsoft\Edge\Application\msedge.exe`),
		}
	case "darwin":
		return []string{"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"}
	default:
		return []string{"/opt/microsoft/msedge/msedge", "/usr/bin/microsoft-edge"}
	}
}

// LocateBrowser finds the binary for t on this machine.
//
// Chrome uses rod's launcher lookup. Firefox always returns "": playwright
// needs its own patched build and only takes an explicit path from the
// stored preference.
func LocateBrowser(t BrowserType) (string, error) {
	switch t {
	case BrowserChrome:
		if p, ok := launcher.LookPath(); ok {
			return p, nil
		}
		return "", fmt.Errorf("chrome: no chromium-based binary found")
	case BrowserEdge:
		if p := lookFirst(edgeNames, edgePaths()); p != "" {
			return p, nil
		}
		return "", fmt.Errorf("edge: binary not found")
	case BrowserFirefox:
		return "", nil
	default:
		return "", fmt.Errorf("unknown browser type %q", t)
	}
}

// lookFirst returns the first name found on PATH, then the first existing
// absolute path, or "".
func lookFirst(names, paths []string) string {
	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			return p
		}
	}
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}
