package backend

import "github.com/pulseview/pulseview/internal/models"

// Default backend endpoints per platform. Mobile emulators cannot reach
// the host's loopback directly: the Android emulator maps it to
// 10.0.2.2, while the iOS simulator shares the host network stack.
const (
	defaultLocalURL      = "http://127.0.0.1:8000"
	defaultAndroidEmuURL = "http://10.0.2.2:8000"
	defaultDeviceURL     = "http://pulseband.local:8000"
)

// DefaultBaseURL maps a platform to its default backend base URL. Pure
// function; the result is resolved once at startup and treated as
// immutable for the process lifetime.
func DefaultBaseURL(p models.Platform) string {
	switch p {
	case models.PlatformAndroidEmu:
		return defaultAndroidEmuURL
	case models.PlatformDevice:
		return defaultDeviceURL
	case models.PlatformIOSSim, models.PlatformLocal:
		return defaultLocalURL
	default:
		return defaultLocalURL
	}
}
