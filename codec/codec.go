package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

// Tag is the one-byte type tag prefixing each encoded argument.
type Tag byte

const (
	TagNull   Tag = 0x00
	TagInt32  Tag = 0x01
	TagInt64  Tag = 0x02
	TagDouble Tag = 0x03
	TagBool   Tag = 0x04
	TagString Tag = 0x05 // uint32 LE byte count + UTF-8 payload
	TagHandle Tag = 0x06 // int32 LE managed handle reference
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagInt32:
		return "int32"
	case TagInt64:
		return "int64"
	case TagDouble:
		return "double"
	case TagBool:
		return "bool"
	case TagString:
		return "string"
	case TagHandle:
		return "handle"
	default:
		return fmt.Sprintf("tag(0x%02x)", byte(t))
	}
}

// Safety limits for decoding untrusted buffers.
const (
	// MaxStringSize caps a single string payload (16 MB).
	MaxStringSize = 16 << 20
	// MaxArgs caps the argument count of a single call.
	MaxArgs = 1 << 16
)

// Value is one argument or result crossing the boundary. Supported
// dynamic types: nil, int32, int64, float64, bool, string and
// clrhost.Handle. Anything else fails to encode with a typed error.
type Value = any

// Serialize encodes values into a freshly allocated argument buffer.
// The buffer is caller-owned; the bridge never retains it past call
// return.
func Serialize(values []Value) ([]byte, error) {
	if len(values) > MaxArgs {
		return nil, errors.InvalidInput(errors.PhaseEncode,
			fmt.Sprintf("%d arguments exceed limit %d", len(values), MaxArgs))
	}

	buf := make([]byte, 0, 16*len(values))
	for i, v := range values {
		var err error
		buf, err = AppendValue(buf, v)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = []string{argPath(i)}
			}
			return nil, err
		}
	}
	return buf, nil
}

// AppendValue encodes a single value onto dst and returns the extended
// buffer.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(dst, byte(TagNull)), nil
	case int32:
		dst = append(dst, byte(TagInt32))
		return binary.LittleEndian.AppendUint32(dst, uint32(x)), nil
	case int64:
		dst = append(dst, byte(TagInt64))
		return binary.LittleEndian.AppendUint64(dst, uint64(x)), nil
	case float64:
		dst = append(dst, byte(TagDouble))
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(x)), nil
	case bool:
		dst = append(dst, byte(TagBool))
		if x {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case string:
		if len(x) > MaxStringSize {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Detail("string of %d bytes exceeds limit %d", len(x), MaxStringSize).
				Build()
		}
		if !utf8.ValidString(x) {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Detail("string is not valid UTF-8").
				Build()
		}
		dst = append(dst, byte(TagString))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(x)))
		return append(dst, x...), nil
	case clrhost.Handle:
		dst = append(dst, byte(TagHandle))
		return binary.LittleEndian.AppendUint32(dst, uint32(x)), nil
	default:
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Value(v).
			Detail("unsupported Go type %T", v).
			Build()
	}
}

// Deserialize decodes exactly count values from buf. A buffer with
// trailing bytes after the last value, an unknown tag, or a payload
// running past the end of the buffer all fail with typed errors rather
// than misreading memory.
func Deserialize(buf []byte, count int) ([]Value, error) {
	if count < 0 || count > MaxArgs {
		return nil, errors.InvalidInput(errors.PhaseDecode,
			fmt.Sprintf("argument count %d out of range", count))
	}

	values := make([]Value, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		v, n, err := decodeOne(buf[off:], argPath(i))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		off += n
	}

	if off != len(buf) {
		return nil, errors.InvalidInput(errors.PhaseDecode,
			fmt.Sprintf("%d trailing bytes after %d arguments", len(buf)-off, count))
	}
	return values, nil
}

func decodeOne(buf []byte, path string) (Value, int, error) {
	if len(buf) < 1 {
		return nil, 0, errors.Truncated([]string{path}, 1, 0)
	}

	tag := Tag(buf[0])
	payload := buf[1:]

	switch tag {
	case TagNull:
		return nil, 1, nil
	case TagInt32:
		if len(payload) < 4 {
			return nil, 0, errors.Truncated([]string{path}, 4, len(payload))
		}
		return int32(binary.LittleEndian.Uint32(payload)), 5, nil
	case TagInt64:
		if len(payload) < 8 {
			return nil, 0, errors.Truncated([]string{path}, 8, len(payload))
		}
		return int64(binary.LittleEndian.Uint64(payload)), 9, nil
	case TagDouble:
		if len(payload) < 8 {
			return nil, 0, errors.Truncated([]string{path}, 8, len(payload))
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(payload)), 9, nil
	case TagBool:
		if len(payload) < 1 {
			return nil, 0, errors.Truncated([]string{path}, 1, 0)
		}
		return payload[0] != 0, 2, nil
	case TagString:
		if len(payload) < 4 {
			return nil, 0, errors.Truncated([]string{path}, 4, len(payload))
		}
		n := binary.LittleEndian.Uint32(payload)
		if n > MaxStringSize {
			return nil, 0, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
				Path(path).
				Detail("string of %d bytes exceeds limit %d", n, MaxStringSize).
				Build()
		}
		if len(payload)-4 < int(n) {
			return nil, 0, errors.Truncated([]string{path}, int(n), len(payload)-4)
		}
		s := string(payload[4 : 4+n])
		if !utf8.ValidString(s) {
			return nil, 0, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
				Path(path).
				Detail("string payload is not valid UTF-8").
				Build()
		}
		return s, 5 + int(n), nil
	case TagHandle:
		if len(payload) < 4 {
			return nil, 0, errors.Truncated([]string{path}, 4, len(payload))
		}
		return clrhost.Handle(binary.LittleEndian.Uint32(payload)), 5, nil
	default:
		return nil, 0, errors.UnsupportedTag([]string{path}, byte(tag))
	}
}

func argPath(i int) string {
	return fmt.Sprintf("arg[%d]", i)
}
