// Package storage puts a littlefs filesystem on raw NOR flash and exposes
// the small set of file operations the firmware needs: mount-or-format,
// whole-file read and write, and fixed-size record persistence.
//
// One littlefs block is one 4 KiB flash sector. Geometry defaults follow
// the MX25L parts: 256-byte read, program, cache and lookahead sizes, and
// 100000 erase cycles per block for wear levelling.
package storage

import (
	"encoding"
	"io"
	"os"

	lfs "github.com/bgould/go-littlefs"

	"magpie-bc840/errcode"
	"magpie-bc840/x/strx"
)

// Config is the littlefs geometry for one volume. Zero fields are filled
// in from the device: read/prog/cache/lookahead sizes from the page size,
// block size from the sector size, block count from the capacity.
type Config struct {
	ReadSize      uint32
	ProgSize      uint32
	BlockSize     uint32
	BlockCount    uint32
	CacheSize     uint32
	LookaheadSize uint32
	BlockCycles   int32

	// Name labels the volume in wrapped errors, e.g. "flash1". Defaults
	// to the device name.
	Name string
}

// Filestore is one littlefs volume on one flash device.
type Filestore struct {
	dev     Flash
	cfg     Config
	name    string
	fs      *lfs.LFS
	mounted bool
}

// New prepares a filestore on dev without touching it. The volume becomes
// usable after Mount.
func New(dev Flash, cfgs ...Config) *Filestore {
	var cfg Config
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	page := dev.PageSize()
	if cfg.ReadSize == 0 {
		cfg.ReadSize = page
	}
	if cfg.ProgSize == 0 {
		cfg.ProgSize = page
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = page
	}
	if cfg.LookaheadSize == 0 {
		cfg.LookaheadSize = page
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = dev.SectorSize()
	}
	if cfg.BlockCount == 0 {
		cfg.BlockCount = uint32(dev.Size() / int64(cfg.BlockSize))
	}
	if cfg.BlockCycles == 0 {
		cfg.BlockCycles = 100000
	}
	return &Filestore{
		dev:  dev,
		cfg:  cfg,
		name: strx.Coalesce(cfg.Name, dev.Name()),
	}
}

// init builds the littlefs instance on first use. The block size must be
// the erase sector size: EraseBlock maps littlefs blocks straight onto
// flash sectors.
func (s *Filestore) init() error {
	if s.fs != nil {
		return nil
	}
	if s.cfg.BlockSize != s.dev.SectorSize() {
		return &errcode.E{
			C:   errcode.InvalidParams,
			Op:  s.name + ": init",
			Msg: "block size must equal the erase sector size",
		}
	}
	s.fs = lfs.New(lfs.Config{
		ReadSize:      s.cfg.ReadSize,
		ProgSize:      s.cfg.ProgSize,
		BlockSize:     s.cfg.BlockSize,
		BlockCount:    s.cfg.BlockCount,
		CacheSize:     s.cfg.CacheSize,
		LookaheadSize: s.cfg.LookaheadSize,
		BlockCycles:   s.cfg.BlockCycles,
	}, &blockDevice{dev: s.dev, blockSize: s.cfg.BlockSize})
	return nil
}

// Mount mounts the volume. A device that does not carry a filesystem yet,
// factory-fresh flash included, is formatted once and mounted again.
func (s *Filestore) Mount() error {
	if err := s.init(); err != nil {
		return err
	}
	if s.mounted {
		return nil
	}
	if err := s.fs.Mount(); err != nil {
		if ferr := s.fs.Format(); ferr != nil {
			return s.wrap("format", "", ferr)
		}
		if merr := s.fs.Mount(); merr != nil {
			return s.wrap("mount", "", merr)
		}
	}
	s.mounted = true
	return nil
}

// Format writes a fresh filesystem, discarding all contents. A mounted
// volume is unmounted first and must be mounted again afterwards.
func (s *Filestore) Format() error {
	if err := s.init(); err != nil {
		return err
	}
	if s.mounted {
		s.mounted = false
		if err := s.fs.Unmount(); err != nil {
			return s.wrap("unmount", "", err)
		}
	}
	return s.wrap("format", "", s.fs.Format())
}

// Unmount releases the volume. Unmounting an unmounted volume is a no-op.
func (s *Filestore) Unmount() error {
	if !s.mounted {
		return nil
	}
	s.mounted = false
	return s.wrap("unmount", "", s.fs.Unmount())
}

// Mounted reports whether the volume is usable.
func (s *Filestore) Mounted() bool { return s.mounted }

// Name returns the volume label used in wrapped errors.
func (s *Filestore) Name() string { return s.name }

// WriteFile replaces the contents of name with data, creating the file if
// needed. The file is truncated first so a shorter write cannot leave a
// stale tail behind.
func (s *Filestore) WriteFile(name string, data []byte) error {
	if err := s.guard(); err != nil {
		return err
	}
	f, err := s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return s.wrap("write_file", name, err)
	}
	if len(data) > 0 {
		n, werr := f.Write(data)
		if werr == nil && n != len(data) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			f.Close()
			return s.wrap("write_file", name, werr)
		}
	}
	return s.wrap("write_file", name, f.Close())
}

// ReadFile returns the whole contents of name.
func (s *Filestore) ReadFile(name string) ([]byte, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	f, err := s.fs.OpenFile(name, os.O_RDONLY)
	if err != nil {
		return nil, s.wrap("read_file", name, err)
	}
	defer f.Close()
	size, err := f.Size()
	if err != nil {
		return nil, s.wrap("read_file", name, err)
	}
	buf := make([]byte, size)
	for n := 0; n < len(buf); {
		m, rerr := f.Read(buf[n:])
		if rerr != nil {
			if rerr == io.EOF {
				rerr = lfs.ErrIO
			}
			return nil, s.wrap("read_file", name, rerr)
		}
		n += m
	}
	return buf, nil
}

// SaveRecord marshals rec and replaces the file name with the result.
func (s *Filestore) SaveRecord(name string, rec encoding.BinaryMarshaler) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return errcode.WrapCode(errcode.BadRecord, s.name+": save_record", err)
	}
	return s.WriteFile(name, data)
}

// LoadRecord reads the whole file name and unmarshals it into rec. Record
// types reject contents of the wrong size, which is what catches a stale
// or truncated file.
func (s *Filestore) LoadRecord(name string, rec encoding.BinaryUnmarshaler) error {
	data, err := s.ReadFile(name)
	if err != nil {
		return err
	}
	if err := rec.UnmarshalBinary(data); err != nil {
		return errcode.WrapCode(errcode.BadRecord, s.name+": load_record", err)
	}
	return nil
}

// Remove deletes a file or empty directory.
func (s *Filestore) Remove(name string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.wrap("remove", name, s.fs.Remove(name))
}

// Rename moves oldName to newName, replacing any existing file there.
func (s *Filestore) Rename(oldName, newName string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.wrap("rename", oldName, s.fs.Rename(oldName, newName))
}

// Mkdir creates a directory.
func (s *Filestore) Mkdir(name string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.wrap("mkdir", name, s.fs.Mkdir(name))
}

// Stat describes a file or directory.
func (s *Filestore) Stat(name string) (os.FileInfo, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	info, err := s.fs.Stat(name)
	if err != nil {
		return nil, s.wrap("stat", name, err)
	}
	return info, nil
}

// List returns the entries of the directory name, "." and ".." excluded.
func (s *Filestore) List(name string) ([]os.FileInfo, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	f, err := s.fs.OpenFile(name, os.O_RDONLY)
	if err != nil {
		return nil, s.wrap("list", name, err)
	}
	defer f.Close()
	if !f.IsDir() {
		return nil, s.wrap("list", name, lfs.ErrNotDir)
	}
	infos, err := f.Readdir(0)
	if err != nil {
		return nil, s.wrap("list", name, err)
	}
	return infos, nil
}

// Size reports used and total bytes. Used is littlefs's allocated-block
// count times the block size, a best-effort figure.
func (s *Filestore) Size() (used, total int64, err error) {
	if err := s.guard(); err != nil {
		return 0, 0, err
	}
	blocks, err := s.fs.Size()
	if err != nil {
		return 0, 0, s.wrap("size", "", err)
	}
	bs := int64(s.cfg.BlockSize)
	return int64(blocks) * bs, int64(s.cfg.BlockCount) * bs, nil
}

func (s *Filestore) guard() error {
	if !s.mounted {
		return &errcode.E{C: errcode.NotMounted, Op: s.name}
	}
	return nil
}

// wrap classifies a littlefs error and tags it with the volume label, the
// operation and the path, e.g. "flash1: read_file: not_found: setup.bin".
func (s *Filestore) wrap(verb, detail string, err error) error {
	if err == nil {
		return nil
	}
	return &errcode.E{
		C:   errcode.MapStorageErr(err),
		Op:  s.name + ": " + verb,
		Msg: detail,
		Err: err,
	}
}
