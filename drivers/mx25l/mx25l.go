// Package mx25l drives Macronix MX25L-family serial NOR flash over SPI.
//
// Design notes (datasheet references):
// • SPI mode 0, up to 8 MHz in this design; one command per CS window.
// • READ has no dummy cycles; transfers are capped at 512 data bytes and
//   looped for larger requests.
// • PAGE PROGRAM writes at most 256 bytes and must not cross a page
//   boundary; each page needs its own WREN and a BUSY poll afterwards.
// • SECTOR ERASE clears 4 KiB to 0xFF. CHIP ERASE can take minutes.
// • Parts above 128 Mbit are switched to 4-byte addressing (EN4B) during
//   Configure; smaller parts stay on 3-byte frames.
// • A chip in deep power-down ignores everything but RES (0xAB), so
//   Configure wakes the part before reading its JEDEC ID.
package mx25l

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"magpie-bc840/x/mathx"
)

// Largest data payload moved in one READ transaction.
const readChunk = 512

// Errors returned by the driver.
var (
	ErrTimeout       = errors.New("mx25l: busy timeout")
	ErrNotMacronix   = errors.New("mx25l: not a Macronix chip")
	ErrUnknownPart   = errors.New("mx25l: unrecognised JEDEC ID")
	ErrOutOfRange    = errors.New("mx25l: address out of range")
	ErrNotConfigured = errors.New("mx25l: not configured")
)

// PinOutput drives a logic level onto a pin. machine.Pin.Set satisfies it.
type PinOutput func(level bool)

// Config controls identification and polling behaviour. All fields are
// optional: a zero Part makes Configure adopt whatever part the JEDEC ID
// resolves to.
type Config struct {
	// Part is the chip expected on this chip-select. When set, Configure
	// tolerates a different Macronix ID (the actual ID stays readable via
	// ID()) but rejects foreign manufacturers.
	Part Part
	// PollInterval between BUSY polls. Default 1 ms.
	PollInterval time.Duration
	// ReadyTimeout bounds program/erase BUSY polling. Default 1 s.
	ReadyTimeout time.Duration
	// EraseAllTimeout bounds CHIP ERASE, which is specified in minutes on
	// the larger parts. Default 5 min.
	EraseAllTimeout time.Duration
	// WakeDelay after power-up and after RES before the chip is addressable.
	// Default 10 ms.
	WakeDelay time.Duration
}

// Device wraps one chip behind an SPI bus and a chip-select line.
type Device struct {
	bus drivers.SPI
	cs  PinOutput

	cfg        Config
	part       Part
	ident      JEDECID
	addr4      bool
	configured bool

	// Fixed buffers to avoid per-call heap allocations: command, up to
	// 4 address bytes, and one read chunk.
	w [5 + readChunk]byte
	r [5 + readChunk]byte
}

// New creates a driver for a chip on the given bus and chip-select. The SPI
// bus must already be configured. No hardware is touched.
func New(bus drivers.SPI, cs PinOutput) *Device {
	return &Device{bus: bus, cs: cs}
}

// Configure wakes the chip and verifies its identity: deselect, settle,
// RES (release deep power-down), settle, read JEDEC ID. With no expected
// part the ID must resolve against the part table; with one, a Macronix
// chip of a different density is accepted and left for the caller to
// inspect via ID().
func (d *Device) Configure(cfgs ...Config) error {
	if len(cfgs) > 0 {
		d.cfg = cfgs[0]
	}
	if d.cfg.PollInterval <= 0 {
		d.cfg.PollInterval = time.Millisecond
	}
	if d.cfg.ReadyTimeout <= 0 {
		d.cfg.ReadyTimeout = time.Second
	}
	if d.cfg.EraseAllTimeout <= 0 {
		d.cfg.EraseAllTimeout = 5 * time.Minute
	}
	if d.cfg.WakeDelay <= 0 {
		d.cfg.WakeDelay = 10 * time.Millisecond
	}

	d.cs(true)
	time.Sleep(d.cfg.WakeDelay)
	if err := d.ReleasePowerDown(); err != nil {
		return err
	}

	id, err := d.readID()
	if err != nil {
		return err
	}
	d.ident = id

	if d.cfg.Part.Size == 0 {
		p, ok := PartByID(id)
		if !ok {
			return ErrUnknownPart
		}
		d.part = p
	} else {
		d.part = d.cfg.Part
		if id != d.part.ID && id.Manufacturer() != ManufacturerMacronix {
			return ErrNotMacronix
		}
	}

	d.addr4 = d.part.Size > (16 << 20)
	if d.addr4 {
		d.w[0] = cmdEnter4B
		if err := d.txn(d.w[:1], nil); err != nil {
			return err
		}
	}
	d.configured = true
	return nil
}

// ID returns the JEDEC ID read during Configure.
func (d *Device) ID() JEDECID { return d.ident }

// Part returns the part descriptor in effect.
func (d *Device) Part() Part { return d.part }

// Name returns the configured part name.
func (d *Device) Name() string { return d.part.Name }

// Size returns the device capacity in bytes.
func (d *Device) Size() int64 { return d.part.Size }

// PageSize returns the program page size.
func (d *Device) PageSize() uint32 { return d.part.PageSize }

// SectorSize returns the erase sector size.
func (d *Device) SectorSize() uint32 { return d.part.SectorSize }

// SectorCount returns the number of erase sectors.
func (d *Device) SectorCount() uint32 { return d.part.SectorCount() }

// ReadAt fills p from flash starting at off, looping 512-byte transactions.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if err := d.checkRange(off, len(p)); err != nil {
		return 0, err
	}
	n := 0
	for n < len(p) {
		chunk := mathx.Min(len(p)-n, readChunk)
		hdr := d.cmdAddr(cmdReadData, uint32(off)+uint32(n))
		for i := 0; i < chunk; i++ {
			d.w[hdr+i] = 0xFF
		}
		if err := d.txn(d.w[:hdr+chunk], d.r[:hdr+chunk]); err != nil {
			return n, err
		}
		copy(p[n:n+chunk], d.r[hdr:hdr+chunk])
		n += chunk
	}
	return n, nil
}

// WriteAt programs p at off. Writes are split at 256-byte page boundaries;
// every page gets WREN, PAGE PROGRAM, and a BUSY wait. The flash must have
// been erased beforehand (programming only clears bits).
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if err := d.checkRange(off, len(p)); err != nil {
		return 0, err
	}
	page := int(d.part.PageSize)
	n := 0
	for n < len(p) {
		addr := uint32(off) + uint32(n)
		chunk := mathx.Min(len(p)-n, page-int(addr)%page)

		if err := d.writeEnable(); err != nil {
			return n, err
		}
		hdr := d.cmdAddr(cmdPageProgram, addr)
		copy(d.w[hdr:], p[n:n+chunk])
		if err := d.txn(d.w[:hdr+chunk], nil); err != nil {
			return n, err
		}
		if err := d.WaitUntilReady(); err != nil {
			return n, err
		}
		n += chunk
	}
	return n, nil
}

// EraseSector erases the 4 KiB sector with the given index.
func (d *Device) EraseSector(sector uint32) error {
	if !d.configured {
		return ErrNotConfigured
	}
	if sector >= d.part.SectorCount() {
		return ErrOutOfRange
	}
	if err := d.writeEnable(); err != nil {
		return err
	}
	hdr := d.cmdAddr(cmdSectorErase, sector*d.part.SectorSize)
	if err := d.txn(d.w[:hdr], nil); err != nil {
		return err
	}
	return d.WaitUntilReady()
}

// EraseAll issues CHIP ERASE and waits for completion. On the 512 Mbit part
// this takes on the order of minutes.
func (d *Device) EraseAll() error {
	if !d.configured {
		return ErrNotConfigured
	}
	if err := d.writeEnable(); err != nil {
		return err
	}
	d.w[0] = cmdChipErase
	if err := d.txn(d.w[:1], nil); err != nil {
		return err
	}
	return d.waitReady(d.cfg.EraseAllTimeout)
}

// Status reads the status register.
func (d *Device) Status() (byte, error) {
	d.w[0] = cmdReadStatus
	d.w[1] = 0
	if err := d.txn(d.w[:2], d.r[:2]); err != nil {
		return 0, err
	}
	return d.r[1], nil
}

// WaitUntilReady polls the status register until BUSY clears.
func (d *Device) WaitUntilReady() error {
	return d.waitReady(d.cfg.ReadyTimeout)
}

// DeepPowerDown puts the chip into its lowest-power state. Only
// ReleasePowerDown (or Configure) brings it back.
func (d *Device) DeepPowerDown() error {
	d.w[0] = cmdDeepPowerDown
	return d.txn(d.w[:1], nil)
}

// ReleasePowerDown wakes the chip from deep power-down and waits for it to
// become addressable.
func (d *Device) ReleasePowerDown() error {
	d.w[0] = cmdReleasePD
	d.w[1] = 0
	if err := d.txn(d.w[:2], nil); err != nil {
		return err
	}
	wake := d.cfg.WakeDelay
	if wake <= 0 {
		wake = 10 * time.Millisecond
	}
	time.Sleep(wake)
	return nil
}

// readID issues RDID (one command byte, three ID bytes clocked out) and
// assembles manufacturer, memory type and density into a JEDECID.
func (d *Device) readID() (JEDECID, error) {
	d.w[0] = cmdReadJEDECID
	d.w[1], d.w[2], d.w[3] = 0, 0, 0
	if err := d.txn(d.w[:4], d.r[:4]); err != nil {
		return 0, err
	}
	return JEDECID(uint32(d.r[1])<<16 | uint32(d.r[2])<<8 | uint32(d.r[3])), nil
}

// txn runs one CS-framed transaction. With r non-nil the transfer is full
// duplex and w and r must be the same length.
func (d *Device) txn(w, r []byte) error {
	d.cs(false)
	err := d.bus.Tx(w, r)
	d.cs(true)
	return err
}

// cmdAddr writes the command byte and the address into the scratch buffer
// and returns the header length (4 or 5 bytes depending on address width).
func (d *Device) cmdAddr(op byte, addr uint32) int {
	d.w[0] = op
	if d.addr4 {
		d.w[1] = byte(addr >> 24)
		d.w[2] = byte(addr >> 16)
		d.w[3] = byte(addr >> 8)
		d.w[4] = byte(addr)
		return 5
	}
	d.w[1] = byte(addr >> 16)
	d.w[2] = byte(addr >> 8)
	d.w[3] = byte(addr)
	return 4
}

func (d *Device) writeEnable() error {
	d.w[0] = cmdWriteEnable
	return d.txn(d.w[:1], nil)
}

func (d *Device) waitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		st, err := d.Status()
		if err != nil {
			return err
		}
		if st&StatusBusy == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

func (d *Device) checkRange(off int64, n int) error {
	if !d.configured {
		return ErrNotConfigured
	}
	if off < 0 || off+int64(n) > d.part.Size {
		return ErrOutOfRange
	}
	return nil
}
