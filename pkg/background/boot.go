package background

import (
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
)

// NewLoginItem returns a registrar that starts the running executable at login
func NewLoginItem(name, displayName string) (*autostart.App, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	// Resolve symlinks if any
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	return &autostart.App{
		Name:        name,
		DisplayName: displayName,
		Exec:        []string{execPath},
	}, nil
}
