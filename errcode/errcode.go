package errcode

import (
	"errors"

	lfs "github.com/bgould/go-littlefs"
)

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	Timeout       Code = "timeout"
	NotFound      Code = "not_found"
	Exists        Code = "exists"
	IO            Code = "io"
	Corrupt       Code = "corrupt"
	NoSpace       Code = "no_space"
	NotDir        Code = "not_dir"
	IsDir         Code = "is_dir"
	InvalidParams Code = "invalid_params"
	OutOfRange    Code = "out_of_range"
	WrongChip     Code = "wrong_chip"
	NotMounted    Code = "not_mounted"
	BadRecord     Code = "bad_record"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside the code.
type E struct {
	C   Code
	Op  string // e.g. "flash1: read_file"
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap builds an E around err with a classified code. nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: MapStorageErr(err), Op: op, Err: err}
}

// WrapCode is Wrap with an explicit code.
func WrapCode(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return MapStorageErr(err)
}

// MapStorageErr classifies littlefs errors into a Code.
// Anything unrecognised maps to the generic Error.
func MapStorageErr(err error) Code {
	if err == nil {
		return OK
	}
	var le lfs.Error
	if errors.As(err, &le) {
		switch le {
		case lfs.ErrNoEntry:
			return NotFound
		case lfs.ErrEntryExists:
			return Exists
		case lfs.ErrIO:
			return IO
		case lfs.ErrCorrupt:
			return Corrupt
		case lfs.ErrNoSpace:
			return NoSpace
		case lfs.ErrNotDir:
			return NotDir
		case lfs.ErrIsDir:
			return IsDir
		case lfs.ErrInvalidParam:
			return InvalidParams
		}
		return Error
	}
	return Error
}
