package infra

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDirName = "expurgate"

// DefaultDataDir returns where state, keys, config and logs live:
// %LOCALAPPDATA%\expurgate on Windows, ~/.expurgate elsewhere.
func DefaultDataDir() string {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appDirName)
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+appDirName)
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	return expandHomeWith(path, userHome())
}

func expandHomeWith(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}
	return path
}

func userHome() string {
	home, _ := os.UserHomeDir()
	return home
}
