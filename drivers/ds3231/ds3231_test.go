package ds3231

import (
	"errors"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*fakeRTC)(nil)

// fakeRTC is a register file behind an I2C transaction interface: a write
// sets the register pointer (and optionally data), a combined write+read
// returns registers starting at the pointer.
type fakeRTC struct {
	regs   [0x20]byte
	writes int
}

func (f *fakeRTC) Tx(addr uint16, w, r []byte) error {
	if addr != Address {
		return errors.New("fake: wrong address")
	}
	if len(w) == 0 {
		return errors.New("fake: transaction without register pointer")
	}
	p := int(w[0])
	if len(r) > 0 {
		if len(w) != 1 {
			return errors.New("fake: write+read with data bytes")
		}
		for i := range r {
			r[i] = f.regs[p+i]
		}
		return nil
	}
	copy(f.regs[p:], w[1:])
	f.writes++
	return nil
}

func TestConfigure_EnablesOscillatorKeepingOtherBits(t *testing.T) {
	f := &fakeRTC{}
	f.regs[regControl] = 0x9C // EOSC set, plus interrupt/rate bits
	d := New(f)
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got := f.regs[regControl]; got != 0x1C {
		t.Fatalf("control = %#02x, want %#02x (EOSC cleared, rest kept)", got, 0x1C)
	}
	running, err := d.Running()
	if err != nil || !running {
		t.Fatalf("Running = (%t, %v), want (true, nil)", running, err)
	}
}

func TestSetTime_EncodesBCD(t *testing.T) {
	f := &fakeRTC{}
	d := New(f)
	// A Friday; the weekday register counts Sunday as 1.
	if err := d.SetTime(time.Date(2026, time.August, 21, 15, 4, 5, 0, time.UTC)); err != nil {
		t.Fatalf("SetTime: %v", err)
	}
	want := []byte{0x05, 0x04, 0x15, 6, 0x21, 0x08, 0x26}
	for i, w := range want {
		if got := f.regs[regSeconds+i]; got != w {
			t.Fatalf("reg %#02x = %#02x, want %#02x", regSeconds+i, got, w)
		}
	}
	if f.writes != 1 {
		t.Fatalf("SetTime used %d write transactions, want 1", f.writes)
	}
}

func TestSetTime_RejectsYearOutOfRange(t *testing.T) {
	f := &fakeRTC{}
	d := New(f)
	for _, bad := range []int{1999, 2100} {
		err := d.SetTime(time.Date(bad, time.January, 1, 0, 0, 0, 0, time.UTC))
		if !errors.Is(err, ErrYearRange) {
			t.Fatalf("SetTime(%d) = %v, want ErrYearRange", bad, err)
		}
	}
	if f.writes != 0 {
		t.Fatal("rejected SetTime still touched the bus")
	}
}

func TestReadTime_RoundTrip(t *testing.T) {
	f := &fakeRTC{}
	d := New(f)
	set := time.Date(2031, time.December, 31, 23, 59, 58, 0, time.UTC)
	if err := d.SetTime(set); err != nil {
		t.Fatalf("SetTime: %v", err)
	}
	got, err := d.ReadTime()
	if err != nil {
		t.Fatalf("ReadTime: %v", err)
	}
	if !got.Equal(set) {
		t.Fatalf("ReadTime = %v, want %v", got, set)
	}
}

func TestReadTime_MasksControlBits(t *testing.T) {
	f := &fakeRTC{}
	// Hour with a stray high bit, month with the century flag set, and a
	// weekday register that disagrees with the date.
	f.regs[regSeconds] = 0x05
	f.regs[regMinutes] = 0x04
	f.regs[regHours] = 0x40 | 0x15
	f.regs[regWeekday] = 0x03
	f.regs[regDay] = 0x21
	f.regs[regMonth] = 0x80 | 0x08
	f.regs[regYear] = 0x26
	d := New(f)
	got, err := d.ReadTime()
	if err != nil {
		t.Fatalf("ReadTime: %v", err)
	}
	want := time.Date(2026, time.August, 21, 15, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ReadTime = %v, want %v", got, want)
	}
	if got.Weekday() != time.Friday {
		t.Fatalf("Weekday = %v, want Friday (recomputed, register ignored)", got.Weekday())
	}
}

func TestTemperature(t *testing.T) {
	cases := []struct {
		msb, lsb byte
		mC       int32
	}{
		{0x19, 0x40, 25250},  // +25.25 °C
		{0xF5, 0xC0, -10250}, // -10.25 °C
		{0x00, 0x00, 0},
	}
	for _, c := range cases {
		f := &fakeRTC{}
		f.regs[regTempMSB] = c.msb
		f.regs[regTempLSB] = c.lsb
		d := New(f)
		mc, err := d.Temp_mC()
		if err != nil {
			t.Fatalf("Temp_mC: %v", err)
		}
		if mc != c.mC {
			t.Fatalf("Temp_mC(%#02x,%#02x) = %d, want %d", c.msb, c.lsb, mc, c.mC)
		}
	}
	f := &fakeRTC{}
	f.regs[regTempMSB] = 0x19
	f.regs[regTempLSB] = 0x40
	d := New(f)
	if c, err := d.Celsius(); err != nil || c != 25.25 {
		t.Fatalf("Celsius = (%v, %v), want (25.25, nil)", c, err)
	}
}

func TestLostPower_ChecksAndClears(t *testing.T) {
	f := &fakeRTC{}
	f.regs[regStatus] = 0x88 // OSF plus an unrelated flag
	d := New(f)

	lost, err := d.LostPower()
	if err != nil || !lost {
		t.Fatalf("LostPower = (%t, %v), want (true, nil)", lost, err)
	}
	if got := f.regs[regStatus]; got != 0x08 {
		t.Fatalf("status = %#02x, want %#02x (OSF cleared, rest kept)", got, 0x08)
	}

	lost, err = d.LostPower()
	if err != nil || lost {
		t.Fatalf("second LostPower = (%t, %v), want (false, nil)", lost, err)
	}
}

func TestRunning_ReportsEOSC(t *testing.T) {
	f := &fakeRTC{}
	f.regs[regControl] = ctrlEOSC
	d := New(f)
	if running, err := d.Running(); err != nil || running {
		t.Fatalf("Running with EOSC set = (%t, %v), want (false, nil)", running, err)
	}
}
