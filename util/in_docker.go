package util

import "os"

// IsRunningInDocker reports whether the app runs inside a container
func IsRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return os.Getenv("IN_DOCKER") == "1"
}
