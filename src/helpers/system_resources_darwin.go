//go:build darwin

package helpers

import (
	"encoding/binary"
	"syscall"
)

// GetTotalSystemMemoryMB returns the total physical memory in MB.
func GetTotalSystemMemoryMB() int {
	raw, err := syscall.Sysctl("hw.memsize")
	if err != nil {
		return 0
	}
	b := []byte(raw)
	// Sysctl trims the trailing NUL of the 8-byte value.
	for len(b) < 8 {
		b = append(b, 0)
	}
	return int(binary.LittleEndian.Uint64(b[:8]) / 1024 / 1024)
}
