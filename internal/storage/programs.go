package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/claude/fittrack/internal/program"
)

var (
	// ErrDuplicateName is returned when saving a program whose name is taken.
	ErrDuplicateName = errors.New("program name already exists")
	// ErrProgramNotFound is returned when no program has the requested name.
	ErrProgramNotFound = errors.New("program not found")
)

// Programs returns the program library. A missing library file reads as the
// built-in programs.
func (db *DB) Programs() ([]*program.Program, error) {
	db.libraryMu.Lock()
	defer db.libraryMu.Unlock()
	return db.loadLibrary()
}

// Program returns the named program.
func (db *DB) Program(name string) (*program.Program, error) {
	programs, err := db.Programs()
	if err != nil {
		return nil, err
	}
	for _, p := range programs {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProgramNotFound, name)
}

// SaveProgram appends p to the library. The library is left unchanged when a
// program of the same name exists.
func (db *DB) SaveProgram(p *program.Program) error {
	db.libraryMu.Lock()
	defer db.libraryMu.Unlock()

	programs, err := db.loadLibrary()
	if err != nil {
		return err
	}
	for _, existing := range programs {
		if existing.Name == p.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
		}
	}
	return db.storeLibrary(append(programs, p))
}

// UpdateRest persists a new rest interval for one prescription. Rest is the
// only program field that changes after a program is saved.
func (db *DB) UpdateRest(name, day string, phase program.Phase, exercise string, rest int) error {
	db.libraryMu.Lock()
	defer db.libraryMu.Unlock()

	programs, err := db.loadLibrary()
	if err != nil {
		return err
	}
	for _, p := range programs {
		if p.Name != name {
			continue
		}
		if !p.SetRest(day, phase, exercise, rest) {
			return fmt.Errorf("no prescription for %s / %s / %s in %q", day, phase, exercise, name)
		}
		return db.storeLibrary(programs)
	}
	return fmt.Errorf("%w: %q", ErrProgramNotFound, name)
}

func (db *DB) loadLibrary() ([]*program.Program, error) {
	data, err := os.ReadFile(db.path(LibraryFile))
	if errors.Is(err, os.ErrNotExist) {
		return program.Builtin(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", LibraryFile, err)
	}
	programs, err := program.DecodeLibrary(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", LibraryFile, err)
	}
	return programs, nil
}

func (db *DB) storeLibrary(programs []*program.Program) error {
	data, err := program.EncodeLibrary(programs)
	if err != nil {
		return err
	}
	return db.writeFile(LibraryFile, data)
}
