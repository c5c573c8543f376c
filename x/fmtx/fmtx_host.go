//go:build !tinygo

// Package fmtx is the firmware's printf. On the host it is a veneer over
// fmt; on the microcontroller a small conv-based formatter with the same
// verb subset takes over, with no reflection and no float paths.
package fmtx

import (
	"fmt"
	"io"
	"os"
)

// DefaultOutput receives Printf output.
var DefaultOutput io.Writer = os.Stdout

func Sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func Printf(format string, args ...any) {
	fmt.Fprintf(DefaultOutput, format, args...)
}

func Fprintf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
