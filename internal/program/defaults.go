package program

import (
	_ "embed"
	"fmt"
)

//go:embed builtin.json
var builtinJSON []byte

// Names of the built-in programs.
const (
	StrengthRunning = "12-Week Strength & Running"
	BJJ             = "8-Week BJJ Strength & Conditioning"
)

// Builtin returns fresh copies of the built-in program library. It is what
// an absent library file reads as.
func Builtin() []*Program {
	programs, err := DecodeLibrary(builtinJSON)
	if err != nil {
		panic(fmt.Sprintf("program: built-in library is invalid: %v", err))
	}
	return programs
}
