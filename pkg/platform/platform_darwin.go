//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework AppKit
#import <Cocoa/Cocoa.h>
#import <AppKit/AppKit.h>

void setAccessoryPolicy(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
}

int isAppActive(void) {
    return [NSApp isActive] ? 1 : 0;
}

void activateApp(void) {
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"

// HideFromDock keeps the app in the menu bar only
func HideFromDock() {
	C.setAccessoryPolicy()
}

// IsActive reports whether the app owns keyboard focus
func IsActive() bool {
	return C.isAppActive() == 1
}

// BringToFront activates the app so a ringing window is not hidden behind others
func BringToFront() {
	if !IsActive() {
		C.activateApp()
	}
}
