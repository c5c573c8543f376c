// Package settings persists the board's setup record and boot-time
// configuration on a filestore, with embedded per-device defaults as the
// fallback.
package settings

import (
	"errors"
	"time"

	"magpie-bc840/storage"
	"magpie-bc840/x/strx"
)

// ErrBadRecord is returned when stored bytes are not a valid Record.
var ErrBadRecord = errors.New("settings: bad record")

// RecordSize is the exact on-flash size of a marshalled Record. Files of
// any other size are rejected, which is what catches a stale or truncated
// setup file.
const RecordSize = 36

// nameLen is the fixed width of the name field on flash.
const nameLen = 20

// Record is the setup block kept in a fixed-size file on flash.
//
// Layout, little-endian:
//
//	[0:4)   id
//	[4:24)  name, NUL-padded
//	[24:28) temperature in milli-degrees C, signed
//	[28:36) set-at time, Unix seconds, signed
type Record struct {
	ID      uint32
	Name    string // longer than 20 bytes is cut on marshal
	Temp_mC int32
	SetAt   time.Time
}

// MarshalBinary encodes the record into its fixed flash layout.
func (r Record) MarshalBinary() ([]byte, error) {
	b := make([]byte, RecordSize)
	putU32(b[0:], r.ID)
	copy(b[4:4+nameLen], r.Name)
	putU32(b[24:], uint32(r.Temp_mC))
	putU64(b[28:], uint64(r.SetAt.Unix()))
	return b, nil
}

// UnmarshalBinary decodes a record, rejecting data of the wrong size.
// The name is cut at the first NUL and SetAt comes back in UTC.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return ErrBadRecord
	}
	r.ID = getU32(data[0:])
	r.Name = strx.TrimNul(string(data[4 : 4+nameLen]))
	r.Temp_mC = int32(getU32(data[24:]))
	r.SetAt = time.Unix(int64(getU64(data[28:])), 0).UTC()
	return nil
}

// Load reads the record stored in name on fs.
func Load(fs *storage.Filestore, name string) (Record, error) {
	var r Record
	if err := fs.LoadRecord(name, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Save writes r to name on fs, replacing any previous record.
func Save(fs *storage.Filestore, name string, r Record) error {
	return fs.SaveRecord(name, r)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putU64(b []byte, v uint64) {
	putU32(b, uint32(v))
	putU32(b[4:], uint32(v>>32))
}

func getU64(b []byte) uint64 {
	return uint64(getU32(b)) | uint64(getU32(b[4:]))<<32
}
