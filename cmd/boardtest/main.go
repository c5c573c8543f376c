// cmd/boardtest/main.go
//go:build tinygo

package main

import (
	"machine"
	"time"

	"magpie-bc840/drivers/ds3231"
	"magpie-bc840/drivers/mx25l"
	"magpie-bc840/storage"
	"magpie-bc840/x/conv"
	"magpie-bc840/x/fmtx"
	"magpie-bc840/x/mathx"
	"magpie-bc840/x/timex"
)

// ---------- Configuration ----------

const (
	// Give the USB-CDC console time to enumerate before the first output.
	usbSettle = 2 * time.Second

	// Blink timing: double short = pass, single long = fail.
	blinkShort = 120 * time.Millisecond
	blinkLong  = 400 * time.Millisecond
	blinkGap   = 200 * time.Millisecond

	// Pause between cycles.
	cycleDwell = 2 * time.Second

	// Sanity windows for the RTC checks.
	tempMin_mC = -40_000
	tempMax_mC = 85_000
	yearMin    = 2020
	yearMax    = 2099

	// Cycles: 0 = loop forever.
	cyclesToRun = 1
)

// ---------- Board wiring (adjust per board revision) ----------

var (
	spiBus = machine.SPI1
	spiSCK = machine.P0_19
	spiSDO = machine.P0_20
	spiSDI = machine.P0_21

	flash1CS = machine.P0_04
	flash2CS = machine.P0_15

	i2cBus = machine.I2C0
	i2cSCL = machine.P0_27
	i2cSDA = machine.P0_26

	statusLED = machine.P0_13
)

// ---------- Helpers ----------

func ledFlashPassFail(led machine.Pin, pass bool) {
	if pass {
		// Double short
		for i := 0; i < 2; i++ {
			led.High()
			time.Sleep(blinkShort)
			led.Low()
			time.Sleep(blinkGap)
		}
	} else {
		// Single long
		led.High()
		time.Sleep(blinkLong)
		led.Low()
		time.Sleep(blinkGap)
	}
}

func checkFlashID(d *mx25l.Device) error {
	if err := d.Configure(); err != nil {
		return err
	}
	var scratch [8]byte
	fmtx.Printf("  JEDEC ID %s (%s, %d KiB)\r\n", conv.U24Hex(scratch[:], uint32(d.ID())), d.Name(), d.Size()/1024)
	return nil
}

func checkRTC(rtc *ds3231.Device) error {
	if err := rtc.Configure(); err != nil {
		return err
	}
	running, err := rtc.Running()
	if err != nil {
		return err
	}
	if !running {
		return fmtx.Errorf("oscillator stopped")
	}
	t, err := rtc.ReadTime()
	if err != nil {
		return err
	}
	fmtx.Printf("  RTC time %s\r\n", t.Format("2006-01-02 15:04:05"))
	if !mathx.Between(t.Year(), yearMin, yearMax) {
		return fmtx.Errorf("implausible year %d", t.Year())
	}
	return nil
}

func checkRTCTemp(rtc *ds3231.Device) error {
	mc, err := rtc.Temp_mC()
	if err != nil {
		return err
	}
	fmtx.Printf("  RTC temp %d m°C\r\n", mc)
	if !mathx.Between(mc, int32(tempMin_mC), int32(tempMax_mC)) {
		return fmtx.Errorf("temp %d out of range", mc)
	}
	return nil
}

// checkFilesystem mounts the bank, round-trips a scratch file and cleans
// up after itself so repeated cycles do not fill the volume.
func checkFilesystem(d *mx25l.Device, label string, cycle int) error {
	fs := storage.New(d, storage.Config{Name: label})
	if err := fs.Mount(); err != nil {
		return err
	}
	defer fs.Unmount()

	pattern := []byte{0xA5, 0x5A, byte(cycle), byte(cycle >> 8)}
	if err := fs.WriteFile("selftest.tmp", pattern); err != nil {
		return err
	}
	back, err := fs.ReadFile("selftest.tmp")
	if err != nil {
		return err
	}
	if len(back) != len(pattern) {
		return fmtx.Errorf("read %d bytes, want %d", len(back), len(pattern))
	}
	for i := range back {
		if back[i] != pattern[i] {
			return fmtx.Errorf("byte %d = %x, want %x", i, back[i], pattern[i])
		}
	}
	if err := fs.Remove("selftest.tmp"); err != nil {
		return err
	}
	used, total, err := fs.Size()
	if err != nil {
		return err
	}
	fmtx.Printf("  %s: used %d of %d KiB\r\n", label, mathx.CeilDiv(uint64(used), 1024), total/1024)
	return nil
}

// ---------- Main ----------

func main() {
	time.Sleep(usbSettle)
	fmtx.DefaultOutput = machine.Serial
	println("boardtest: boot")

	statusLED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	statusLED.Low()
	flash1CS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	flash1CS.High()
	flash2CS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	flash2CS.High()

	if err := spiBus.Configure(machine.SPIConfig{
		Frequency: 8 * machine.MHz,
		SCK:       spiSCK,
		SDO:       spiSDO,
		SDI:       spiSDI,
		Mode:      0,
	}); err != nil {
		fmtx.Printf("spi configure: %v\r\n", err)
	}
	if err := i2cBus.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SCL:       i2cSCL,
		SDA:       i2cSDA,
	}); err != nil {
		fmtx.Printf("i2c configure: %v\r\n", err)
	}

	flash1 := mx25l.New(spiBus, flash1CS.Set)
	flash2 := mx25l.New(spiBus, flash2CS.Set)
	rtc := ds3231.New(i2cBus)

	cycle := 0
	for {
		cycle++
		start := timex.NowMs()
		fmtx.Printf("=== boardtest: cycle %d ===\r\n", cycle)

		checks := []struct {
			name string
			fn   func() error
		}{
			{"flash1 id", func() error { return checkFlashID(flash1) }},
			{"flash2 id", func() error { return checkFlashID(flash2) }},
			{"rtc clock", func() error { return checkRTC(&rtc) }},
			{"rtc temp", func() error { return checkRTCTemp(&rtc) }},
			{"flash1 fs", func() error { return checkFilesystem(flash1, "flash1", cycle) }},
			{"flash2 fs", func() error { return checkFilesystem(flash2, "flash2", cycle) }},
		}

		miss := make([]string, 0, len(checks))
		for _, c := range checks {
			if err := c.fn(); err != nil {
				fmtx.Printf("[FAIL] %s: %v\r\n", c.name, err)
				miss = append(miss, c.name)
			} else {
				fmtx.Printf("[PASS] %s\r\n", c.name)
			}
		}

		pass := len(miss) == 0
		if pass {
			fmtx.Printf("[PASS] cycle %d clean in %d ms\r\n", cycle, timex.SinceMs(start))
		} else {
			fmtx.Printf("[FAIL] cycle %d: %d of %d checks failed\r\n", cycle, len(miss), len(checks))
		}
		ledFlashPassFail(statusLED, pass)

		if cyclesToRun > 0 && cycle >= cyclesToRun {
			break
		}
		time.Sleep(cycleDwell)
	}

	// Leave the flash banks in their lowest-power state.
	if err := flash1.DeepPowerDown(); err != nil {
		fmtx.Printf("flash1 power-down: %v\r\n", err)
	}
	if err := flash2.DeepPowerDown(); err != nil {
		fmtx.Printf("flash2 power-down: %v\r\n", err)
	}
	fmtx.Printf("completed %d cycles; halting\r\n", cycle)
	for {
		time.Sleep(time.Hour)
	}
}
