//go:build !tinygo

package storage

import (
	"os"
	"path/filepath"

	"magpie-bc840/x/mathx"
)

// FileFlash is a flash image in a host file, used to prepare and inspect
// littlefs volumes off-target. It has the same 4 KiB sector and 256-byte
// page geometry as the MX25L parts, and bytes never written hold 0xFF like
// erased NOR.
type FileFlash struct {
	file *os.File
	size int64
	name string
}

// NewFileFlash opens or creates the image at path with the given capacity.
// An existing shorter image is extended with erased bytes.
func NewFileFlash(path string, size int64) (*FileFlash, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.Size() < size {
		blank := make([]byte, norSectorSize)
		for i := range blank {
			blank[i] = 0xFF
		}
		for off := st.Size(); off < size; {
			n := mathx.Min(int64(len(blank)), size-off)
			if _, err := f.WriteAt(blank[:n], off); err != nil {
				f.Close()
				return nil, err
			}
			off += n
		}
	}
	return &FileFlash{file: f, size: size, name: filepath.Base(path)}, nil
}

func (d *FileFlash) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > d.size {
		return 0, ErrOutOfRange
	}
	if len(p) == 0 {
		return 0, nil
	}
	return d.file.ReadAt(p, off)
}

func (d *FileFlash) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > d.size {
		return 0, ErrOutOfRange
	}
	if len(p) == 0 {
		return 0, nil
	}
	return d.file.WriteAt(p, off)
}

func (d *FileFlash) EraseSector(sector uint32) error {
	start := int64(sector) * norSectorSize
	if start+norSectorSize > d.size {
		return ErrOutOfRange
	}
	blank := make([]byte, norSectorSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	_, err := d.file.WriteAt(blank, start)
	return err
}

func (d *FileFlash) Size() int64        { return d.size }
func (d *FileFlash) SectorSize() uint32 { return norSectorSize }
func (d *FileFlash) PageSize() uint32   { return norPageSize }
func (d *FileFlash) Name() string       { return d.name }

// Sync flushes the image to disk.
func (d *FileFlash) Sync() error { return d.file.Sync() }

// Close flushes and closes the image file.
func (d *FileFlash) Close() error { return d.file.Close() }
