// Package codec implements the argument encoding used across the
// native/managed call boundary.
//
// # Wire Format
//
// An argument buffer is a flat byte sequence of N arguments, each
// encoded as a one-byte type tag followed by its payload:
//
//	null    0x00
//	int32   0x01  4 bytes, little-endian
//	int64   0x02  8 bytes, little-endian
//	double  0x03  8 bytes, IEEE 754, little-endian
//	bool    0x04  1 byte, 0 or 1
//	string  0x05  uint32 LE byte count, then UTF-8 bytes
//	handle  0x06  4 bytes, little-endian managed handle
//
// Strings are UTF-8 throughout the bridge. Platforms whose host library
// speaks UTF-16 convert at the library boundary, not here, so one
// convention applies to every call.
//
// # Round Trip
//
// Deserialize(Serialize(v)) == v holds for every supported value.
// Unknown tags and payloads running past the end of the buffer fail
// with typed errors instead of misreading memory.
//
// # Ownership
//
// Buffers are caller-owned for the duration of a call and are never
// retained by the bridge past call return.
package codec
