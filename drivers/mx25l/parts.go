// Package mx25l provides constants for the command set and the supported
// part table of the Macronix MX25L serial NOR flash family.
package mx25l

// Command opcodes (3-byte addressing).
const (
	cmdReadData      = 0x03 // READ
	cmdPageProgram   = 0x02 // PP
	cmdSectorErase   = 0x20 // SE, 4 KiB
	cmdChipErase     = 0xC7 // CE
	cmdWriteEnable   = 0x06 // WREN
	cmdReadStatus    = 0x05 // RDSR
	cmdReadJEDECID   = 0x9F // RDID
	cmdReleasePD     = 0xAB // RES, exit deep power-down
	cmdDeepPowerDown = 0xB9 // DP
	cmdEnter4B       = 0xB7 // EN4B, parts above 128 Mbit
	cmdExit4B        = 0xE9 // EX4B
)

// Status register bits.
const (
	StatusBusy = 1 << 0 // write/erase in progress
	StatusWEL  = 1 << 1 // write enable latch
)

// JEDECID is the 3-byte identification code returned by RDID:
// manufacturer, memory type, density.
type JEDECID uint32

func (id JEDECID) Manufacturer() byte { return byte(id >> 16) }
func (id JEDECID) MemType() byte      { return byte(id >> 8) }
func (id JEDECID) Density() byte      { return byte(id) }

// ManufacturerMacronix is the JEDEC manufacturer byte for Macronix.
const ManufacturerMacronix = 0xC2

// Part describes one supported chip.
type Part struct {
	Name       string
	ID         JEDECID
	Size       int64
	PageSize   uint32
	SectorSize uint32
}

// SectorCount returns the number of erase sectors on the part.
func (p Part) SectorCount() uint32 {
	if p.SectorSize == 0 {
		return 0
	}
	return uint32(p.Size / int64(p.SectorSize))
}

// Supported parts. All share 256-byte pages and 4 KiB erase sectors.
var (
	MX25L12845G = Part{Name: "MX25L12845GZ2I-08G", ID: 0xC22018, Size: 16 << 20, PageSize: 256, SectorSize: 4096}
	MX25L25645G = Part{Name: "MX25L25645GZ2I-08G", ID: 0xC22019, Size: 32 << 20, PageSize: 256, SectorSize: 4096}
	MX25L51245G = Part{Name: "MX25L51245GZ2I-08G", ID: 0xC2201A, Size: 64 << 20, PageSize: 256, SectorSize: 4096}
)

// Parts lists every supported part.
var Parts = []Part{MX25L12845G, MX25L25645G, MX25L51245G}

// PartByID looks a part up by its JEDEC ID.
func PartByID(id JEDECID) (Part, bool) {
	for _, p := range Parts {
		if p.ID == id {
			return p, true
		}
	}
	return Part{}, false
}
