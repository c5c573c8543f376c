// cmd/bc840-demo/main.go
//
// Board demo for the Magpie BC840: brings up both NOR flash banks with
// littlefs, the DS3231 clock, the four button/LED pairs, then runs a
// filesystem round-trip, rewrites the setup record and settles into a
// status heartbeat.
//go:build tinygo

package main

import (
	"machine"
	"time"

	"magpie-bc840/drivers/ds3231"
	"magpie-bc840/drivers/mx25l"
	"magpie-bc840/errcode"
	"magpie-bc840/settings"
	"magpie-bc840/storage"
	"magpie-bc840/x/conv"
	"magpie-bc840/x/fmtx"
)

// ---------- Configuration ----------

const (
	usbSettle = 2 * time.Second

	device         = "bc840"
	configFile     = "config.json"
	setupFile      = "setup.bin"
	nrfSetupFile   = "nRFsetup.bin"
	testFile       = "test.txt"
	helloString    = "Hello, MX25L51245G NOR Flash with LittleFS!"
	recordID       = 42
	recordName     = "NRF Write"

	// Fallback loaded into an RTC that lost power, when the boot config
	// allows it. Update alongside releases.
	buildTime = "2026-08-21T00:00:00Z"
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

	buttons = [4]machine.Pin{machine.P0_11, machine.P0_12, machine.P0_24, machine.P0_25}
	leds    = [4]machine.Pin{machine.P0_13, machine.P0_14, machine.P0_16, machine.P0_17}
)

// ---------- Bring-up helpers ----------

// setupButtons wires each button to its paired LED: press toggles.
func setupButtons() {
	for i := range buttons {
		led := leds[i]
		led.Configure(machine.PinConfig{Mode: machine.PinOutput})
		led.Low()

		btn := buttons[i]
		btn.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		if err := btn.SetInterrupt(machine.PinFalling, func(machine.Pin) {
			led.Set(!led.Get())
		}); err != nil {
			fmtx.Printf("button %d interrupt: %v\r\n", i, err)
		}
	}
}

// setupFlash configures one bank and mounts a filestore on it, formatting
// on first boot. A different Macronix density than expected is a warning,
// not a failure.
func setupFlash(d *mx25l.Device, label string) *storage.Filestore {
	if err := d.Configure(mx25l.Config{Part: mx25l.MX25L51245G}); err != nil {
		fmtx.Printf("%s: configure: %v\r\n", label, err)
		return nil
	}
	var scratch [8]byte
	fmtx.Printf("%s: JEDEC ID %s (%s)\r\n", label, conv.U24Hex(scratch[:], uint32(d.ID())), d.Name())
	if d.ID() != mx25l.MX25L51245G.ID {
		fmtx.Printf("%s: warning: expected %s\r\n", label, conv.U24Hex(scratch[:], uint32(mx25l.MX25L51245G.ID)))
	}
	fs := storage.New(d, storage.Config{Name: label})
	if err := fs.Mount(); err != nil {
		fmtx.Printf("%s: mount: %v\r\n", label, err)
		return nil
	}
	used, total, err := fs.Size()
	if err == nil {
		fmtx.Printf("%s: mounted, %d of %d KiB used\r\n", label, used/1024, total/1024)
	}
	return fs
}

// setupClock starts the oscillator and, if the clock lost power and the
// config allows, loads the build-time fallback so timestamps stay sane.
func setupClock(rtc *ds3231.Device, cfg settings.BootConfig) {
	if err := rtc.Configure(); err != nil {
		fmtx.Printf("rtc: configure: %v\r\n", err)
		return
	}
	lost, err := rtc.LostPower()
	if err != nil {
		fmtx.Printf("rtc: power check: %v\r\n", err)
		return
	}
	if !lost {
		return
	}
	fmtx.Printf("rtc: lost power, time may be invalid\r\n")
	if !cfg.SetClockOnPowerLoss {
		return
	}
	t, err := time.Parse(time.RFC3339, buildTime)
	if err != nil {
		fmtx.Printf("rtc: bad build time: %v\r\n", err)
		return
	}
	if err := rtc.SetTime(t); err != nil {
		fmtx.Printf("rtc: set time: %v\r\n", err)
		return
	}
	fmtx.Printf("rtc: set to %s\r\n", buildTime)
}

// ---------- Demo steps ----------

// fileRoundTrip writes the hello string, reads it back and verifies it.
func fileRoundTrip(fs *storage.Filestore) {
	if err := fs.WriteFile(testFile, []byte(helloString)); err != nil {
		fmtx.Printf("write %s: %v\r\n", testFile, err)
		return
	}
	back, err := fs.ReadFile(testFile)
	if err != nil {
		fmtx.Printf("read %s: %v\r\n", testFile, err)
		return
	}
	fmtx.Printf("read data: %s\r\n", back)
	if string(back) != helloString {
		fmtx.Printf("data verification failed\r\n")
		return
	}
	fmtx.Printf("data verification successful\r\n")
}

func printRecord(title string, rec settings.Record) {
	var scratch [24]byte
	fmtx.Printf("%s:\r\n", title)
	fmtx.Printf("  id: %d\r\n", rec.ID)
	fmtx.Printf("  name: %s\r\n", rec.Name)
	fmtx.Printf("  temperature: %s C\r\n", conv.Milli(scratch[:], int64(rec.Temp_mC)))
	fmtx.Printf("  set at: %s\r\n", rec.SetAt.Format("2006-01-02 15:04:05Z"))
}

// setupRecords reads the provisioning record if present, then writes a
// fresh one stamped with the RTC's time and temperature and reads it back.
func setupRecords(fs *storage.Filestore, rtc *ds3231.Device) {
	fmtx.Printf("reading %s ...\r\n", setupFile)
	rec, err := settings.Load(fs, setupFile)
	switch {
	case err == nil:
		printRecord("setup data", rec)
	case errcode.Of(err) == errcode.NotFound:
		fmtx.Printf("%s does not exist\r\n", setupFile)
	default:
		fmtx.Printf("read %s: %v\r\n", setupFile, err)
	}

	now, err := rtc.ReadTime()
	if err != nil {
		fmtx.Printf("rtc: read time: %v\r\n", err)
		now = time.Time{}
	}
	mc, err := rtc.Temp_mC()
	if err != nil {
		fmtx.Printf("rtc: read temp: %v\r\n", err)
	}

	fmtx.Printf("writing %s ...\r\n", nrfSetupFile)
	out := settings.Record{ID: recordID, Name: recordName, Temp_mC: mc, SetAt: now}
	if err := settings.Save(fs, nrfSetupFile, out); err != nil {
		fmtx.Printf("write %s: %v\r\n", nrfSetupFile, err)
		return
	}
	back, err := settings.Load(fs, nrfSetupFile)
	if err != nil {
		fmtx.Printf("read back %s: %v\r\n", nrfSetupFile, err)
		return
	}
	printRecord("nrf setup data", back)
}

// ---------- Main ----------

func main() {
	time.Sleep(usbSettle)
	fmtx.DefaultOutput = machine.Serial
	println("boot")

	setupButtons()

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

	fs1 := setupFlash(flash1, "flash1")
	setupFlash(flash2, "flash2")

	cfg := settings.DefaultBootConfig()
	if fs1 != nil {
		loaded, err := settings.LoadBootConfig(fs1, configFile, device)
		if err != nil {
			fmtx.Printf("boot config: %v\r\n", err)
		}
		cfg = loaded
	}

	setupClock(&rtc, cfg)

	if fs1 != nil {
		fileRoundTrip(fs1)
		setupRecords(fs1, &rtc)
	}

	fmtx.Printf("all tests completed\r\n")

	// Status heartbeat: RTC time and temperature, with a short blink on
	// the first LED.
	var scratch [24]byte
	tick := time.NewTicker(time.Duration(cfg.HeartbeatSec) * time.Second)
	for range tick.C {
		t, terr := rtc.ReadTime()
		mc, merr := rtc.Temp_mC()
		if terr != nil || merr != nil {
			fmtx.Printf("heartbeat: rtc unavailable\r\n")
		} else {
			fmtx.Printf("%s heartbeat %s C\r\n", t.Format("15:04:05"), conv.Milli(scratch[:], int64(mc)))
		}
		leds[0].High()
		time.Sleep(time.Duration(cfg.BlinkMs) * time.Millisecond)
		leds[0].Low()
	}
}
