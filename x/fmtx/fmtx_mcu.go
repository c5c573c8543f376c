//go:build tinygo

package fmtx

import (
	"io"
	"strings"

	"magpie-bc840/x/conv"
)

// DefaultOutput receives Printf output. Bootstrap points this at the USB
// serial once it is up; until then output is dropped.
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Verbs: %s %q %d %x %X %t %v %%, plus .N precision on %s. No widths, no
// flags, no floats: the firmware logs integers and milli-units.

func Sprintf(format string, args ...any) string {
	var b strings.Builder
	b.Grow(len(format) + 16)
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		prec := -1
		if i < len(format) && format[i] == '.' {
			i++
			prec = 0
			for i < len(format) && '0' <= format[i] && format[i] <= '9' {
				prec = prec*10 + int(format[i]-'0')
				i++
			}
		}
		if i >= len(format) {
			b.WriteString("%!")
			break
		}
		verb := format[i]
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if ai >= len(args) {
			b.WriteString("%!")
			b.WriteByte(verb)
			b.WriteString("(MISSING)")
			continue
		}
		writeVerb(&b, verb, prec, args[ai])
		ai++
	}
	return b.String()
}

func Printf(format string, args ...any) {
	io.WriteString(DefaultOutput, Sprintf(format, args...))
}

func Fprintf(w io.Writer, format string, args ...any) {
	io.WriteString(w, Sprintf(format, args...))
}

func Errorf(format string, args ...any) error {
	return stringError(Sprintf(format, args...))
}

type stringError string

func (e stringError) Error() string { return string(e) }

func writeVerb(b *strings.Builder, verb byte, prec int, arg any) {
	var scratch [24]byte
	switch verb {
	case 's':
		s, ok := stringOf(arg)
		if !ok {
			bad(b, verb)
			return
		}
		if prec >= 0 && prec < len(s) {
			s = s[:prec]
		}
		b.WriteString(s)
	case 'q':
		s, ok := stringOf(arg)
		if !ok {
			bad(b, verb)
			return
		}
		quote(b, s)
	case 't':
		v, ok := arg.(bool)
		if !ok {
			bad(b, verb)
			return
		}
		writeBool(b, v)
	case 'd':
		if v, ok := int64Of(arg); ok {
			b.Write(conv.Itoa(scratch[:], v))
			return
		}
		if v, ok := uint64Of(arg); ok {
			b.Write(conv.Utoa(scratch[:], v))
			return
		}
		bad(b, verb)
	case 'x', 'X':
		if v, ok := int64Of(arg); ok {
			if v < 0 {
				b.WriteByte('-')
			}
			b.Write(conv.Hex(scratch[:], magnitude(v), verb == 'X'))
			return
		}
		if v, ok := uint64Of(arg); ok {
			b.Write(conv.Hex(scratch[:], v, verb == 'X'))
			return
		}
		bad(b, verb)
	case 'v':
		writeAny(b, scratch[:], arg)
	default:
		bad(b, verb)
	}
}

func writeAny(b *strings.Builder, scratch []byte, arg any) {
	switch v := arg.(type) {
	case string:
		b.WriteString(v)
	case []byte:
		b.Write(v)
	case bool:
		writeBool(b, v)
	case error:
		b.WriteString(v.Error())
	default:
		if v, ok := int64Of(arg); ok {
			b.Write(conv.Itoa(scratch, v))
			return
		}
		if v, ok := uint64Of(arg); ok {
			b.Write(conv.Utoa(scratch, v))
			return
		}
		bad(b, 'v')
	}
}

func writeBool(b *strings.Builder, v bool) {
	if v {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
}

func bad(b *strings.Builder, verb byte) {
	b.WriteString("%!")
	b.WriteByte(verb)
	b.WriteString("(BAD)")
}

func stringOf(arg any) (string, bool) {
	switch v := arg.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case error:
		return v.Error(), true
	}
	return "", false
}

func int64Of(arg any) (int64, bool) {
	switch v := arg.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func uint64Of(arg any) (uint64, bool) {
	switch v := arg.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case uintptr:
		return uint64(v), true
	}
	return 0, false
}

// magnitude of v; uint64(-v) holds the true value even at the minimum
// int64, where -v alone would overflow.
func magnitude(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

const lhex = "0123456789abcdef"

func quote(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c > 0x7E:
			b.WriteString(`\x`)
			b.WriteByte(lhex[c>>4])
			b.WriteByte(lhex[c&0xF])
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
