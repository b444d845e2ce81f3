//go:build !linux && !darwin

package helpers

// GetTotalSystemMemoryMB is unknown on this platform; callers fall back to
// a fixed limit.
func GetTotalSystemMemoryMB() int {
	return 0
}
