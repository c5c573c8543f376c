package storage

import (
	"bytes"
	"errors"
	"testing"

	lfs "github.com/bgould/go-littlefs"

	"magpie-bc840/errcode"
)

var _ Flash = (*RAMFlash)(nil)

// 64 sectors, 256 KiB. Small enough to keep the tests quick, big enough
// for littlefs to breathe.
const testVolumeSize = 64 * 4096

func newStore(t *testing.T, dev Flash, cfgs ...Config) *Filestore {
	t.Helper()
	s := New(dev, cfgs...)
	if err := s.Mount(); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { s.Unmount() })
	return s
}

func TestMount_FormatsBlankDevice(t *testing.T) {
	dev := NewRAMFlash(testVolumeSize)
	s := New(dev)
	if s.Mounted() {
		t.Fatal("mounted before Mount")
	}
	if err := s.Mount(); err != nil {
		t.Fatalf("Mount on blank device: %v", err)
	}
	if !s.Mounted() {
		t.Fatal("not mounted after Mount")
	}
	if err := s.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
}

func TestWriteFile_RoundTripAcrossRemount(t *testing.T) {
	dev := NewRAMFlash(testVolumeSize)
	s := newStore(t, dev)
	want := []byte("Hello, MX25L51245G NOR Flash with LittleFS!")
	if err := s.WriteFile("test.txt", want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := s.ReadFile("test.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadFile = %q, want %q", got, want)
	}
	if err := s.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}

	// A second filestore on the same device must find the file, not a
	// blank filesystem.
	s2 := newStore(t, dev)
	got, err = s2.ReadFile("test.txt")
	if err != nil {
		t.Fatalf("ReadFile after remount: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadFile after remount = %q, want %q", got, want)
	}
}

func TestWriteFile_TruncatesOldContent(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize))
	long := bytes.Repeat([]byte{0xAB}, 100)
	if err := s.WriteFile("setup.bin", long); err != nil {
		t.Fatalf("WriteFile long: %v", err)
	}
	short := []byte{1, 2, 3}
	if err := s.WriteFile("setup.bin", short); err != nil {
		t.Fatalf("WriteFile short: %v", err)
	}
	got, err := s.ReadFile("setup.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, short) {
		t.Fatalf("ReadFile = % x, want % x (stale tail not truncated?)", got, short)
	}
}

func TestWriteFile_Empty(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize))
	if err := s.WriteFile("empty.bin", nil); err != nil {
		t.Fatalf("WriteFile(nil): %v", err)
	}
	got, err := s.ReadFile("empty.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ReadFile = % x, want empty", got)
	}
}

func TestReadFile_Missing(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize), Config{Name: "flash1"})
	_, err := s.ReadFile("setup.bin")
	if err == nil {
		t.Fatal("ReadFile on missing file: no error")
	}
	if c := errcode.Of(err); c != errcode.NotFound {
		t.Fatalf("code = %v, want %v", c, errcode.NotFound)
	}
	if !errors.Is(err, lfs.ErrNoEntry) {
		t.Fatalf("error %v does not unwrap to lfs.ErrNoEntry", err)
	}
	if got, want := err.Error(), "flash1: read_file: not_found: setup.bin"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

type testRecord struct {
	A uint32
	B uint16
}

var errBadTestRecord = errors.New("bad test record")

func (r testRecord) MarshalBinary() ([]byte, error) {
	return []byte{
		byte(r.A), byte(r.A >> 8), byte(r.A >> 16), byte(r.A >> 24),
		byte(r.B), byte(r.B >> 8),
	}, nil
}

func (r *testRecord) UnmarshalBinary(data []byte) error {
	if len(data) != 6 {
		return errBadTestRecord
	}
	r.A = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	r.B = uint16(data[4]) | uint16(data[5])<<8
	return nil
}

func TestRecord_RoundTrip(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize))
	want := testRecord{A: 0xDEADBEEF, B: 42}
	if err := s.SaveRecord("rec.bin", want); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	var got testRecord
	if err := s.LoadRecord("rec.bin", &got); err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if got != want {
		t.Fatalf("LoadRecord = %+v, want %+v", got, want)
	}
}

func TestLoadRecord_RejectsWrongSize(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize))
	if err := s.WriteFile("rec.bin", make([]byte, 40)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var rec testRecord
	err := s.LoadRecord("rec.bin", &rec)
	if err == nil {
		t.Fatal("LoadRecord on oversized file: no error")
	}
	if c := errcode.Of(err); c != errcode.BadRecord {
		t.Fatalf("code = %v, want %v", c, errcode.BadRecord)
	}
	if !errors.Is(err, errBadTestRecord) {
		t.Fatalf("error %v does not unwrap to the record error", err)
	}
}

func TestRemoveRenameStat(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize))
	if err := s.WriteFile("a.bin", []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := s.Stat("a.bin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 5 || info.IsDir() {
		t.Fatalf("Stat = size %d dir %t, want size 5 file", info.Size(), info.IsDir())
	}
	if err := s.Rename("a.bin", "b.bin"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := s.Stat("a.bin"); errcode.Of(err) != errcode.NotFound {
		t.Fatalf("Stat old name after rename: %v", err)
	}
	if err := s.Remove("b.bin"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Stat("b.bin"); errcode.Of(err) != errcode.NotFound {
		t.Fatalf("Stat after remove: %v", err)
	}
}

func TestMkdirList(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize))
	if err := s.Mkdir("logs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := s.WriteFile("logs/a.bin", []byte{1}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := s.WriteFile("logs/b.bin", []byte{1, 2}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	infos, err := s.List("logs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sizes := make(map[string]int64, len(infos))
	for _, info := range infos {
		sizes[info.Name()] = info.Size()
	}
	if len(sizes) != 2 || sizes["a.bin"] != 1 || sizes["b.bin"] != 2 {
		t.Fatalf("List = %v, want a.bin:1 b.bin:2", sizes)
	}

	// Listing a file is an error, not an empty listing.
	if _, err := s.List("logs/a.bin"); errcode.Of(err) != errcode.NotDir {
		t.Fatalf("List on a file: %v", err)
	}
}

func TestSize_ReportsUsage(t *testing.T) {
	s := newStore(t, NewRAMFlash(testVolumeSize))
	used0, total, err := s.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if total != testVolumeSize {
		t.Fatalf("total = %d, want %d", total, testVolumeSize)
	}
	if used0 <= 0 || used0 > total {
		t.Fatalf("used = %d out of range", used0)
	}
	if err := s.WriteFile("big.bin", make([]byte, 3*4096)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	used1, _, err := s.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if used1 <= used0 {
		t.Fatalf("used did not grow: %d -> %d", used0, used1)
	}
}

func TestOps_RequireMount(t *testing.T) {
	s := New(NewRAMFlash(testVolumeSize), Config{Name: "flash1"})
	_, err := s.ReadFile("test.txt")
	if errcode.Of(err) != errcode.NotMounted {
		t.Fatalf("ReadFile unmounted: %v", err)
	}
	if got, want := err.Error(), "flash1: not_mounted"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if err := s.WriteFile("test.txt", []byte{1}); errcode.Of(err) != errcode.NotMounted {
		t.Fatalf("WriteFile unmounted: %v", err)
	}
}

func TestMount_RejectsBlockSectorMismatch(t *testing.T) {
	s := New(NewRAMFlash(testVolumeSize), Config{BlockSize: 2048})
	err := s.Mount()
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("Mount with 2 KiB blocks on 4 KiB sectors: %v", err)
	}
}

func TestNew_DefaultsGeometryFromDevice(t *testing.T) {
	s := New(NewRAMFlash(testVolumeSize))
	if s.cfg.ReadSize != 256 || s.cfg.ProgSize != 256 || s.cfg.CacheSize != 256 || s.cfg.LookaheadSize != 256 {
		t.Fatalf("granularity defaults = %+v, want 256 across the board", s.cfg)
	}
	if s.cfg.BlockSize != 4096 || s.cfg.BlockCount != 64 {
		t.Fatalf("block geometry = %d x %d, want 4096 x 64", s.cfg.BlockSize, s.cfg.BlockCount)
	}
	if s.cfg.BlockCycles != 100000 {
		t.Fatalf("BlockCycles = %d, want 100000", s.cfg.BlockCycles)
	}
	if s.Name() != "ram" {
		t.Fatalf("Name = %q, want device name", s.Name())
	}
}
