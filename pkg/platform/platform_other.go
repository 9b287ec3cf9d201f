//go:build !darwin

package platform

func HideFromDock() {}

// IsActive always returns true outside macOS
func IsActive() bool {
	return true
}

func BringToFront() {}
