package conv

import "magpie-bc840/x/mathx"

// Utoa writes the base-10 form of n into the tail of buf and returns the
// used slice. 20 bytes fit any uint64. No allocations.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	for {
		if i == 0 {
			return buf[:0]
		}
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			return buf[i:]
		}
	}
}

// Itoa is Utoa with a sign. 20 bytes fit any int64.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	s := Utoa(buf, uint64(-n))
	i := len(buf) - len(s)
	if i == 0 {
		return s
	}
	buf[i-1] = '-'
	return buf[i-1:]
}

// Milli renders a milli-unit value with three fraction digits, the form
// temperatures are logged in: 23500 becomes "23.500", -10250 "-10.250".
// 25 bytes fit any int64.
func Milli(buf []byte, m int64) []byte {
	if len(buf) < 5 {
		return buf[:0]
	}
	u := uint64(mathx.Abs(m))
	i := len(buf)
	for j := 0; j < 3; j++ {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	i--
	buf[i] = '.'
	s := Utoa(buf[:i], u)
	start := i - len(s)
	if m < 0 && start > 0 {
		start--
		buf[start] = '-'
	}
	return buf[start:]
}
