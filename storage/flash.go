package storage

import "errors"

// ErrOutOfRange is returned by the host-side flash devices when an access
// falls outside the device.
var ErrOutOfRange = errors.New("storage: address out of range")

// Flash is the slice of a NOR flash device the filestore needs. The mx25l
// driver satisfies it on hardware; RAMFlash and FileFlash stand in on the
// host.
type Flash interface {
	// ReadAt fills p from the byte address off.
	ReadAt(p []byte, off int64) (int, error)
	// WriteAt programs p at the byte address off. The range must be in an
	// erased state first.
	WriteAt(p []byte, off int64) (int, error)
	// EraseSector erases the sector with the given index (not byte address).
	EraseSector(sector uint32) error
	// Size is the device capacity in bytes.
	Size() int64
	// SectorSize is the erase granularity in bytes.
	SectorSize() uint32
	// PageSize is the program granularity in bytes.
	PageSize() uint32
	// Name identifies the device in log lines and wrapped errors.
	Name() string
}

// Geometry shared by the host-side devices, matching the MX25L parts.
const (
	norSectorSize = 4096
	norPageSize   = 256
)

// RAMFlash is an in-memory Flash with NOR-like geometry. It backs tests
// and host tools that do not want a file on disk. A fresh device is fully
// erased.
type RAMFlash struct {
	mem []byte
}

// NewRAMFlash returns a device of the given capacity, which should be a
// multiple of the 4 KiB sector size.
func NewRAMFlash(size int64) *RAMFlash {
	r := &RAMFlash{mem: make([]byte, size)}
	for i := range r.mem {
		r.mem[i] = 0xFF
	}
	return r
}

func (r *RAMFlash) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(r.mem)) {
		return 0, ErrOutOfRange
	}
	copy(p, r.mem[off:])
	return len(p), nil
}

func (r *RAMFlash) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(r.mem)) {
		return 0, ErrOutOfRange
	}
	copy(r.mem[off:], p)
	return len(p), nil
}

func (r *RAMFlash) EraseSector(sector uint32) error {
	start := int64(sector) * norSectorSize
	if start+norSectorSize > int64(len(r.mem)) {
		return ErrOutOfRange
	}
	for i := start; i < start+norSectorSize; i++ {
		r.mem[i] = 0xFF
	}
	return nil
}

func (r *RAMFlash) Size() int64        { return int64(len(r.mem)) }
func (r *RAMFlash) SectorSize() uint32 { return norSectorSize }
func (r *RAMFlash) PageSize() uint32   { return norPageSize }
func (r *RAMFlash) Name() string       { return "ram" }
