package hotkeys

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Binding is one config-level hotkey entry.
type Binding struct {
	Chord   string `mapstructure:"chord" toml:"chord"`
	Command string `mapstructure:"command" toml:"command"`
}

// Table is the compiled bidirectional chord/command map. Tables are
// immutable once built; Reload builds a fresh table and swaps it in.
type Table struct {
	byChord   map[Chord]string
	byCommand map[string]Chord
	ordered   []Chord
}

// NewTable compiles the binding list. Duplicate chords or unparseable
// entries fail the whole table; callers reject the config in that case.
func NewTable(bindings []Binding) (*Table, error) {
	t := &Table{
		byChord:   make(map[Chord]string, len(bindings)),
		byCommand: make(map[string]Chord, len(bindings)),
	}
	for i, b := range bindings {
		chord, err := ParseChord(b.Chord)
		if err != nil {
			return nil, fmt.Errorf("hotkey %d: %w", i, err)
		}
		if b.Command == "" {
			return nil, fmt.Errorf("hotkey %d (%s): missing command", i, chord)
		}
		if existing, dup := t.byChord[chord]; dup {
			return nil, fmt.Errorf("hotkey %d: chord %s already bound to %s", i, chord, existing)
		}
		t.byChord[chord] = b.Command
		t.byCommand[b.Command] = chord
		t.ordered = append(t.ordered, chord)
	}
	return t, nil
}

// Command returns the command bound to the chord.
func (t *Table) Command(chord Chord) (string, bool) {
	cmd, ok := t.byChord[chord]
	return cmd, ok
}

// ChordFor returns the chord bound to the command.
func (t *Table) ChordFor(command string) (Chord, bool) {
	chord, ok := t.byCommand[command]
	return chord, ok
}

// Chords returns every chord in declaration order.
func (t *Table) Chords() []Chord {
	out := make([]Chord, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Len returns the number of bindings.
func (t *Table) Len() int { return len(t.ordered) }

// Registrar is the platform surface the table registers against.
type Registrar interface {
	RegisterHotkey(id int, modifiers, virtualKey uint32) error
	UnregisterHotkey(id int) error
}

// Registration owns the OS-side registration of one table. Dropping it
// via Close unregisters every chord; Reload closes the old registration
// before installing the new one.
type Registration struct {
	logger    *logrus.Logger
	registrar Registrar
	table     *Table
	byID      map[int]string
	ids       []int
}

// Register installs every chord of the table with the OS. Chords that
// fail to register are logged and skipped; the rest stay active.
func Register(logger *logrus.Logger, registrar Registrar, table *Table) *Registration {
	reg := &Registration{
		logger:    logger,
		registrar: registrar,
		table:     table,
		byID:      make(map[int]string, table.Len()),
	}
	for i, chord := range table.Chords() {
		id := i + 1
		if err := registrar.RegisterHotkey(id, chord.Modifiers, chord.VirtualKey); err != nil {
			logger.WithError(err).WithField("chord", chord.String()).Warn("Failed to register hotkey")
			continue
		}
		command, _ := table.Command(chord)
		reg.byID[id] = command
		reg.ids = append(reg.ids, id)
	}
	return reg
}

// CommandForID resolves a WM_HOTKEY id back to its command.
func (r *Registration) CommandForID(id int) (string, bool) {
	cmd, ok := r.byID[id]
	return cmd, ok
}

// Table returns the table this registration was built from.
func (r *Registration) Table() *Table { return r.table }

// Close unregisters every chord. Safe to call more than once.
func (r *Registration) Close() {
	for _, id := range r.ids {
		if err := r.registrar.UnregisterHotkey(id); err != nil {
			r.logger.WithError(err).WithField("id", id).Warn("Failed to unregister hotkey")
		}
	}
	r.ids = nil
	r.byID = map[int]string{}
}
