package storage

import (
	lfs "github.com/bgould/go-littlefs"
)

// blockDevice adapts a Flash to the littlefs block-device callbacks. One
// littlefs block is one flash sector, so a block/offset pair maps to the
// byte address BlockSize*block+offset and an erase maps straight onto
// EraseSector.
type blockDevice struct {
	dev       Flash
	blockSize uint32
}

var _ lfs.BlockDevice = (*blockDevice)(nil)

func (bd *blockDevice) ReadBlock(block, offset uint32, buf []byte) error {
	_, err := bd.dev.ReadAt(buf, int64(bd.blockSize)*int64(block)+int64(offset))
	return err
}

func (bd *blockDevice) ProgramBlock(block, offset uint32, buf []byte) error {
	_, err := bd.dev.WriteAt(buf, int64(bd.blockSize)*int64(block)+int64(offset))
	return err
}

func (bd *blockDevice) EraseBlock(block uint32) error {
	return bd.dev.EraseSector(block)
}

func (bd *blockDevice) Sync() error { return nil }
