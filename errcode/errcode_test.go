package errcode

import (
	"errors"
	"testing"

	lfs "github.com/bgould/go-littlefs"
)

func TestOf_NilAndBareCode(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q, want %q", got, OK)
	}
	if got := Of(Timeout); got != Timeout {
		t.Fatalf("Of(Timeout) = %q, want %q", got, Timeout)
	}
}

func TestWrap_ClassifiesLittlefs(t *testing.T) {
	cases := []struct {
		in   error
		want Code
	}{
		{lfs.ErrNoEntry, NotFound},
		{lfs.ErrEntryExists, Exists},
		{lfs.ErrIO, IO},
		{lfs.ErrCorrupt, Corrupt},
		{lfs.ErrNoSpace, NoSpace},
		{lfs.ErrInvalidParam, InvalidParams},
		{errors.New("something else"), Error},
	}
	for _, c := range cases {
		err := Wrap("flash1: open", c.in)
		if got := Of(err); got != c.want {
			t.Errorf("Of(Wrap(%v)) = %q, want %q", c.in, got, c.want)
		}
		// The cause must stay reachable for errors.Is.
		if !errors.Is(err, c.in) {
			t.Errorf("Wrap(%v) lost its cause", c.in)
		}
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if Wrap("op", nil) != nil {
		t.Fatal("Wrap(nil) must stay nil")
	}
	if WrapCode(IO, "op", nil) != nil {
		t.Fatal("WrapCode(nil) must stay nil")
	}
}

func TestE_ErrorString(t *testing.T) {
	e := &E{C: NotFound, Op: "flash1: read_file", Msg: "setup.bin"}
	want := "flash1: read_file: not_found: setup.bin"
	if got := e.Error(); got != want {
		t.Fatalf("E.Error() = %q, want %q", got, want)
	}
}

func TestWrapCode_OverridesClassification(t *testing.T) {
	err := WrapCode(BadRecord, "settings: load", lfs.ErrIO)
	if got := Of(err); got != BadRecord {
		t.Fatalf("Of = %q, want %q", got, BadRecord)
	}
}
