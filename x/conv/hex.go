package conv

const (
	hexd = "0123456789ABCDEF"
	hexl = "0123456789abcdef"
)

// Hex writes the minimal hex form of n into the tail of buf, in either
// case. No 0x prefix, no padding; 16 bytes fit any uint64.
func Hex(buf []byte, n uint64, upper bool) []byte {
	digits := hexl
	if upper {
		digits = hexd
	}
	i := len(buf)
	for {
		if i == 0 {
			return buf[:0]
		}
		i--
		buf[i] = digits[n&0xF]
		n >>= 4
		if n == 0 {
			return buf[i:]
		}
	}
}

// U32Hex writes 8-digit uppercase hex without 0x, zero-padded.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// U24Hex writes 6-digit uppercase hex without 0x, zero-padded.
// Handy for 3-byte identifiers (JEDEC IDs and the like).
func U24Hex(buf []byte, n uint32) []byte {
	if len(buf) < 6 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 6; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}
