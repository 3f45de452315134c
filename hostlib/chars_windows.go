//go:build windows

package hostlib

import (
	"unicode/utf16"
	"unsafe"
)

// The host library speaks UTF-16 char_t on this platform. Conversion
// from the bridge's UTF-8 convention happens here and only here.

type hostChar = uint16

func hostString(s string) []hostChar {
	enc := utf16.Encode([]rune(s))
	buf := make([]hostChar, len(enc)+1)
	copy(buf, enc)
	return buf
}

func hostStringPtr(buf []hostChar) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}
