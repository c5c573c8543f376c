package conv

import "testing"

func TestItoa(t *testing.T) {
	var buf [20]byte
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-1, "-1"},
		{1234567890, "1234567890"},
		{-9223372036854775808, "-9223372036854775808"},
	}
	for _, tc := range cases {
		if got := string(Itoa(buf[:], tc.n)); got != tc.want {
			t.Errorf("Itoa(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestUtoa(t *testing.T) {
	var buf [20]byte
	if got := string(Utoa(buf[:], 18446744073709551615)); got != "18446744073709551615" {
		t.Errorf("Utoa(max) = %q", got)
	}
	if got := string(Utoa(buf[:], 0)); got != "0" {
		t.Errorf("Utoa(0) = %q", got)
	}
}

func TestMilli(t *testing.T) {
	var buf [25]byte
	cases := []struct {
		m    int64
		want string
	}{
		{23500, "23.500"},
		{-10250, "-10.250"},
		{0, "0.000"},
		{999, "0.999"},
		{-1, "-0.001"},
		{25250, "25.250"},
	}
	for _, tc := range cases {
		if got := string(Milli(buf[:], tc.m)); got != tc.want {
			t.Errorf("Milli(%d) = %q, want %q", tc.m, got, tc.want)
		}
	}
}

func TestHex(t *testing.T) {
	var buf [16]byte
	if got := string(Hex(buf[:], 0xDEADBEEF, false)); got != "deadbeef" {
		t.Errorf("Hex lower = %q", got)
	}
	if got := string(Hex(buf[:], 255, true)); got != "FF" {
		t.Errorf("Hex upper = %q", got)
	}
	if got := string(Hex(buf[:], 0, false)); got != "0" {
		t.Errorf("Hex(0) = %q", got)
	}
}

func TestFixedWidthHex(t *testing.T) {
	var buf [8]byte
	if got := string(U24Hex(buf[:], 0xC22018)); got != "C22018" {
		t.Errorf("U24Hex = %q", got)
	}
	if got := string(U32Hex(buf[:], 0xBEEF)); got != "0000BEEF" {
		t.Errorf("U32Hex = %q", got)
	}
}
