//go:build !windows

package hostlib

import "unsafe"

// The host library speaks UTF-8 char_t on this platform; the bridge's
// UTF-8 convention passes straight through with a terminating NUL.

type hostChar = byte

func hostString(s string) []hostChar {
	buf := make([]hostChar, len(s)+1)
	copy(buf, s)
	return buf
}

func hostStringPtr(buf []hostChar) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}
