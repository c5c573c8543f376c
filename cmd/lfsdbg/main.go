// cmd/lfsdbg/main.go
//
// Host-side littlefs image tool. Prepares and inspects the flash images
// the board carries — setup records, boot config, plain files — without
// hardware in the loop. The image is byte-compatible with the NOR banks:
// flash it as-is.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"magpie-bc840/drivers/mx25l"
	"magpie-bc840/settings"
	"magpie-bc840/storage"
	"magpie-bc840/x/conv"
)

const sessionKey = "$session"

var (
	imgPath  string
	partMB   int
	evalOnly bool
)

func init() {
	flag.StringVar(&imgPath, "img", "flash.img", "flash image file")
	flag.IntVar(&partMB, "part", 64, "flash part size in MB: 16, 32 or 64")
	flag.BoolVar(&evalOnly, "e", evalOnly, "evaluation only, no interactive shell")
}

type session struct {
	dev  *storage.FileFlash
	fs   *storage.Filestore
	part mx25l.Part
}

func sessionFrom(c *ishell.Context) *session {
	return c.Get(sessionKey).(*session)
}

func partForMB(mb int) (mx25l.Part, bool) {
	switch mb {
	case 16:
		return mx25l.MX25L12845G, true
	case 32:
		return mx25l.MX25L25645G, true
	case 64:
		return mx25l.MX25L51245G, true
	}
	return mx25l.Part{}, false
}

// ---------- Commands ----------

var commands = []*ishell.Cmd{
	&formatCmd,
	&wipeCmd,
	&lsCmd,
	&catCmd,
	&writeCmd,
	&rmCmd,
	&mvCmd,
	&mkdirCmd,
	&statCmd,
	&dfCmd,
	&hexCmd,
	&setupCmd,
}

var formatCmd = ishell.Cmd{
	Name: "format",
	Help: "write a fresh filesystem, discarding all contents",
	Func: func(c *ishell.Context) {
		s := sessionFrom(c)
		if err := s.fs.Format(); err != nil {
			c.Err(err)
			return
		}
		if err := s.fs.Mount(); err != nil {
			c.Err(err)
			return
		}
		c.Println("formatted")
	},
}

var wipeCmd = ishell.Cmd{
	Name: "wipe",
	Help: "erase every sector (chip erase) and reformat",
	Func: func(c *ishell.Context) {
		s := sessionFrom(c)
		if err := s.fs.Unmount(); err != nil {
			c.Err(err)
			return
		}
		for i := uint32(0); i < s.part.SectorCount(); i++ {
			if err := s.dev.EraseSector(i); err != nil {
				c.Err(err)
				return
			}
		}
		if err := s.fs.Mount(); err != nil {
			c.Err(err)
			return
		}
		c.Println("wiped and reformatted")
	},
}

var lsCmd = ishell.Cmd{
	Name:    "ls",
	Aliases: []string{"dir"},
	Help:    "[PATH] list a directory",
	Func: func(c *ishell.Context) {
		path := "/"
		if len(c.Args) > 0 {
			path = c.Args[0]
		}
		infos, err := sessionFrom(c).fs.List(path)
		if err != nil {
			c.Err(err)
			return
		}
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
		for _, info := range infos {
			if info.IsDir() {
				c.Printf("%10s  %s/\n", "-", info.Name())
			} else {
				c.Printf("%10d  %s\n", info.Size(), info.Name())
			}
		}
	},
}

var catCmd = ishell.Cmd{
	Name: "cat",
	Help: "FILE print file contents",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 1 {
			c.Err(errors.New("usage: cat FILE"))
			return
		}
		data, err := sessionFrom(c).fs.ReadFile(c.Args[0])
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(data))
	},
}

var writeCmd = ishell.Cmd{
	Name: "write",
	Help: "FILE TEXT... write text to a file",
	Func: func(c *ishell.Context) {
		if len(c.Args) < 2 {
			c.Err(errors.New("usage: write FILE TEXT..."))
			return
		}
		data := []byte(strings.Join(c.Args[1:], " "))
		if err := sessionFrom(c).fs.WriteFile(c.Args[0], data); err != nil {
			c.Err(err)
			return
		}
		c.Printf("wrote %d bytes\n", len(data))
	},
}

var rmCmd = ishell.Cmd{
	Name: "rm",
	Help: "NAME remove a file or empty directory",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 1 {
			c.Err(errors.New("usage: rm NAME"))
			return
		}
		if err := sessionFrom(c).fs.Remove(c.Args[0]); err != nil {
			c.Err(err)
			return
		}
	},
}

var mvCmd = ishell.Cmd{
	Name: "mv",
	Help: "OLD NEW rename a file or directory",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 2 {
			c.Err(errors.New("usage: mv OLD NEW"))
			return
		}
		if err := sessionFrom(c).fs.Rename(c.Args[0], c.Args[1]); err != nil {
			c.Err(err)
			return
		}
	},
}

var mkdirCmd = ishell.Cmd{
	Name: "mkdir",
	Help: "NAME create a directory",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 1 {
			c.Err(errors.New("usage: mkdir NAME"))
			return
		}
		if err := sessionFrom(c).fs.Mkdir(c.Args[0]); err != nil {
			c.Err(err)
			return
		}
	},
}

var statCmd = ishell.Cmd{
	Name: "stat",
	Help: "NAME describe a file or directory",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 1 {
			c.Err(errors.New("usage: stat NAME"))
			return
		}
		info, err := sessionFrom(c).fs.Stat(c.Args[0])
		if err != nil {
			c.Err(err)
			return
		}
		kind := "file"
		if info.IsDir() {
			kind = "dir"
		}
		c.Printf("%s  %s  %d bytes\n", info.Name(), kind, info.Size())
	},
}

var dfCmd = ishell.Cmd{
	Name: "df",
	Help: "show volume usage",
	Func: func(c *ishell.Context) {
		s := sessionFrom(c)
		used, total, err := s.fs.Size()
		if err != nil {
			c.Err(err)
			return
		}
		c.Printf("%s: %d of %d KiB used (%d%%), %d B sectors\n",
			s.fs.Name(), used/1024, total/1024, used*100/total, s.part.SectorSize)
	},
}

var hexCmd = ishell.Cmd{
	Name:    "hex",
	Aliases: []string{"dump"},
	Help:    "ADDR LEN dump raw device bytes (littlefs structures included)",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 2 {
			c.Err(errors.New("usage: hex ADDR LEN"))
			return
		}
		addr, err := strconv.ParseUint(c.Args[0], 0, 32)
		if err != nil {
			c.Err(err)
			return
		}
		length, err := strconv.ParseUint(c.Args[1], 0, 16)
		if err != nil {
			c.Err(err)
			return
		}
		buf := make([]byte, length)
		if _, err := sessionFrom(c).dev.ReadAt(buf, int64(addr)); err != nil {
			c.Err(err)
			return
		}
		var scratch [8]byte
		for off := 0; off < len(buf); off += 16 {
			end := off + 16
			if end > len(buf) {
				end = len(buf)
			}
			ascii := make([]byte, 0, 16)
			for _, b := range buf[off:end] {
				if b < 0x20 || b > 0x7E {
					b = '.'
				}
				ascii = append(ascii, b)
			}
			c.Printf("%s  % x  |%s|\n", conv.U32Hex(scratch[:], uint32(addr)+uint32(off)), buf[off:end], ascii)
		}
	},
}

var setupCmd = ishell.Cmd{
	Name: "setup",
	Help: "FILE [ID NAME TEMP_mC] decode a setup record, or write one stamped now",
	Func: func(c *ishell.Context) {
		s := sessionFrom(c)
		switch len(c.Args) {
		case 1:
			rec, err := settings.Load(s.fs, c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			printRecord(c, rec)
		case 4:
			id, err := strconv.ParseUint(c.Args[1], 0, 32)
			if err != nil {
				c.Err(err)
				return
			}
			mc, err := strconv.ParseInt(c.Args[3], 0, 32)
			if err != nil {
				c.Err(err)
				return
			}
			rec := settings.Record{
				ID:      uint32(id),
				Name:    c.Args[2],
				Temp_mC: int32(mc),
				SetAt:   time.Now().UTC().Truncate(time.Second),
			}
			if err := settings.Save(s.fs, c.Args[0], rec); err != nil {
				c.Err(err)
				return
			}
			printRecord(c, rec)
		default:
			c.Err(errors.New("usage: setup FILE [ID NAME TEMP_mC]"))
		}
	},
}

func printRecord(c *ishell.Context, rec settings.Record) {
	var scratch [24]byte
	c.Printf("id:          %d\n", rec.ID)
	c.Printf("name:        %s\n", rec.Name)
	c.Printf("temperature: %s C\n", conv.Milli(scratch[:], int64(rec.Temp_mC)))
	c.Printf("set at:      %s\n", rec.SetAt.Format("2006-01-02 15:04:05Z"))
}

// ---------- Main ----------

func main() {
	flag.Parse()

	part, ok := partForMB(partMB)
	if !ok {
		log.Fatalf("unsupported part size %d MB (want 16, 32 or 64)", partMB)
	}
	dev, err := storage.NewFileFlash(imgPath, part.Size)
	if err != nil {
		log.Fatalln(err)
	}
	defer dev.Close()

	fs := storage.New(dev, storage.Config{Name: part.Name})
	if err := fs.Mount(); err != nil {
		log.Fatalln(err)
	}
	defer fs.Unmount()

	sh := ishell.New()
	sh.SetPrompt(imgPath + " > ")
	sh.Set(sessionKey, &session{dev: dev, fs: fs, part: part})
	for _, cmd := range commands {
		sh.AddCmd(cmd)
	}

	if args := flag.Args(); len(args) > 0 {
		if err := sh.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if evalOnly {
		log.Fatalln("command expected")
	}
	fmt.Printf("littlefs image %s (%s, %d MB)\n", imgPath, part.Name, partMB)
	sh.Run()
}
