package strx

// Coalesce returns s unless it is empty, in which case it returns d.
func Coalesce(s, d string) string {
	if s != "" {
		return s
	}
	return d
}

// TrimNul cuts s at the first NUL byte, the convention for fixed-width
// name fields read back from flash.
func TrimNul(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return s[:i]
		}
	}
	return s
}
