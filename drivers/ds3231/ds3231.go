// Package ds3231 provides a driver for the DS3231 I2C real-time clock.
//
//	d := ds3231.New(bus)
//	err := d.Configure()      // enable the oscillator on battery
//	t, err := d.ReadTime()
//
// Design notes (datasheet references):
// • Time registers 0x00..0x06 hold BCD, control bits folded into the high
//   bits (century flag in the month register); reads mask them off.
// • The chip latches the time registers for the duration of a burst read,
//   so a 7-register read is a coherent snapshot.
// • The oscillator-stop flag (OSF) survives until written to 0; LostPower
//   reads and clears it in one call.
// • Temperature is a 10-bit two's-complement value at 0.25 °C per LSB,
//   updated every 64 s. The driver reports integer milli-degrees.
//
// The clock is kept in UTC: SetTime converts before writing and ReadTime
// reports UTC, era 2000 to 2099.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package ds3231

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// ErrYearRange is returned by SetTime for years the year register cannot hold.
var ErrYearRange = errors.New("ds3231: year outside 2000-2099")

// Config holds optional settings. All fields are optional.
type Config struct {
	// Address defaults to 0x68 if zero. The DS3231 address is fixed in
	// silicon; this exists for bus fakes and address-translating muxes.
	Address uint16
}

// Device wraps an I2C connection to a DS3231 chip.
type Device struct {
	bus     drivers.I2C
	Address uint16

	buf [8]byte // reuse buffer to avoid allocations
}

// New creates a new DS3231 connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not
// touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure starts the oscillator: the EOSC bit is cleared so the clock
// keeps running on battery power. The other control bits are preserved.
// 24-hour mode is the power-on default and is not touched.
func (d *Device) Configure(cfgs ...Config) error {
	if len(cfgs) > 0 && cfgs[0].Address != 0 {
		d.Address = cfgs[0].Address
	}
	ctrl, err := d.readReg(regControl)
	if err != nil {
		return err
	}
	return d.writeReg(regControl, ctrl&^byte(ctrlEOSC))
}

// SetTime writes t (converted to UTC) into the seven time registers in one
// bus transaction. Years outside 2000-2099 are rejected with ErrYearRange.
func (d *Device) SetTime(t time.Time) error {
	t = t.UTC()
	year := t.Year()
	if year < 2000 || year > 2099 {
		return ErrYearRange
	}
	d.buf[0] = regSeconds
	d.buf[1] = decToBCD(byte(t.Second()))
	d.buf[2] = decToBCD(byte(t.Minute()))
	d.buf[3] = decToBCD(byte(t.Hour()))
	d.buf[4] = byte(t.Weekday()) + 1 // chip counts 1..7, Sunday = 1
	d.buf[5] = decToBCD(byte(t.Day()))
	d.buf[6] = decToBCD(byte(t.Month()))
	d.buf[7] = decToBCD(byte(year % 100))
	return d.bus.Tx(d.Address, d.buf[:8], nil)
}

// ReadTime burst-reads the seven time registers and decodes them as UTC.
// The weekday register is not trusted; time.Date recomputes it from the
// date. Control bits folded into the registers are masked off.
func (d *Device) ReadTime() (time.Time, error) {
	d.buf[0] = regSeconds
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:8]); err != nil {
		return time.Time{}, err
	}
	sec := int(bcdToDec(d.buf[1] & maskSeconds))
	min := int(bcdToDec(d.buf[2] & maskMinutes))
	hour := int(bcdToDec(d.buf[3] & maskHours))
	day := int(bcdToDec(d.buf[5] & maskDay))
	month := time.Month(bcdToDec(d.buf[6] & maskMonth))
	year := 2000 + int(bcdToDec(d.buf[7]))
	return time.Date(year, month, day, hour, min, sec, 0, time.UTC), nil
}

// Temp_mC returns the die temperature in milli-degrees Celsius, resolution
// 250 m°C. The sensor tracks the board to about ±3 °C and updates every
// 64 s; it is a sanity signal, not a thermometer.
func (d *Device) Temp_mC() (int32, error) {
	d.buf[0] = regTempMSB
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:3]); err != nil {
		return 0, err
	}
	raw := int16(uint16(d.buf[1])<<8 | uint16(d.buf[2]))
	return int32(raw>>6) * 250, nil
}

// Celsius returns the die temperature in °C. Prefer Temp_mC for fixed-point.
func (d *Device) Celsius() (float32, error) {
	mc, err := d.Temp_mC()
	return float32(mc) / 1000, err
}

// LostPower reports whether the oscillator stopped since the flag was last
// cleared (battery removed or first power-up). A set flag is cleared, so a
// second call reports false; the caller is expected to set the clock.
func (d *Device) LostPower() (bool, error) {
	st, err := d.readReg(regStatus)
	if err != nil {
		return false, err
	}
	if st&statusOSF == 0 {
		return false, nil
	}
	if err := d.writeReg(regStatus, st&^byte(statusOSF)); err != nil {
		return true, err
	}
	return true, nil
}

// Running reports whether the oscillator is enabled (EOSC clear).
func (d *Device) Running() (bool, error) {
	ctrl, err := d.readReg(regControl)
	if err != nil {
		return false, err
	}
	return ctrl&ctrlEOSC == 0, nil
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.buf[0] = reg
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:2]); err != nil {
		return 0, err
	}
	return d.buf[1], nil
}

func (d *Device) writeReg(reg, val byte) error {
	d.buf[0] = reg
	d.buf[1] = val
	return d.bus.Tx(d.Address, d.buf[:2], nil)
}

func decToBCD(v byte) byte { return (v/10)<<4 | v%10 }
func bcdToDec(v byte) byte { return (v>>4)*10 + v&0x0F }
