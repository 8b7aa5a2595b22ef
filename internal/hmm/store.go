// Package hmm holds the character-level hidden Markov model parameters
// that drive pinyin decoding: initial, transition, and emission
// log-probabilities, plus an optional bigram bonus table.
package hmm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// NegInf is the sentinel returned for any parameter lookup that misses.
// It is a large finite number rather than math.Inf(-1) so that sums of
// several missed lookups stay representable instead of collapsing to
// -Inf or NaN.
const NegInf = -1e9

// Sentinel errors surfaced to the driver that initiated a load or save.
var (
	ErrResourceMissing   = errors.New("hmm: resource missing")
	ErrResourceMalformed = errors.New("hmm: resource malformed")
)

// Params is the on-disk shape of a parameter file: three sub-mappings
// named init, trans, emit, matching the schema the core must accept
// from its own Save.
type Params struct {
	Init  map[string]float64            `json:"init"`
	Trans map[string]map[string]float64 `json:"trans"`
	Emit  map[string]map[string]float64 `json:"emit"`
}

// Store answers point queries over the HMM parameters loaded from a
// Params record. It is immutable after construction and safe for
// concurrent readers.
type Store struct {
	init  map[rune]float64
	trans map[rune]map[rune]float64
	emit  map[rune]map[string]float64
}

// New builds a Store directly from in-memory log-probability tables.
// Used by tests and by anything that computes parameters rather than
// loading them from disk (e.g. a corpus-statistics builder, out of
// scope for this repository).
func New(init map[rune]float64, trans map[rune]map[rune]float64, emit map[rune]map[string]float64) *Store {
	if init == nil {
		init = map[rune]float64{}
	}

	if trans == nil {
		trans = map[rune]map[rune]float64{}
	}

	if emit == nil {
		emit = map[rune]map[string]float64{}
	}

	return &Store{init: init, trans: trans, emit: emit}
}

// GetInit returns P(c) in log space, or NegInf if c has no recorded
// initial probability.
func (s *Store) GetInit(c rune) float64 {
	if v, ok := s.init[c]; ok {
		return v
	}

	return NegInf
}

// GetTrans returns P(c | prev) in log space, or NegInf if the pair is
// unrecorded.
func (s *Store) GetTrans(prev, c rune) float64 {
	row, ok := s.trans[prev]
	if !ok {
		return NegInf
	}

	if v, ok := row[c]; ok {
		return v
	}

	return NegInf
}

// GetEmit returns P(py | c) in log space, or NegInf if unrecorded.
func (s *Store) GetEmit(c rune, py string) float64 {
	row, ok := s.emit[c]
	if !ok {
		return NegInf
	}

	if v, ok := row[py]; ok {
		return v
	}

	return NegInf
}

// Load reads a Params record from path and builds a Store.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResourceMissing, path)
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrResourceMissing, path, err)
	}
	defer f.Close()

	return decode(f, path)
}

func decode(r io.Reader, path string) (*Store, error) {
	var p Params

	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceMalformed, path, err)
	}

	init := make(map[rune]float64, len(p.Init))

	for k, v := range p.Init {
		c, ok := singleRune(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s: init key %q is not a single character", ErrResourceMalformed, path, k)
		}

		init[c] = v
	}

	trans := make(map[rune]map[rune]float64, len(p.Trans))

	for k, row := range p.Trans {
		prev, ok := singleRune(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s: trans key %q is not a single character", ErrResourceMalformed, path, k)
		}

		inner := make(map[rune]float64, len(row))

		for ik, v := range row {
			c, ok := singleRune(ik)
			if !ok {
				return nil, fmt.Errorf("%w: %s: trans[%s] key %q is not a single character", ErrResourceMalformed, path, k, ik)
			}

			inner[c] = v
		}

		trans[prev] = inner
	}

	emit := make(map[rune]map[string]float64, len(p.Emit))

	for k, row := range p.Emit {
		c, ok := singleRune(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s: emit key %q is not a single character", ErrResourceMalformed, path, k)
		}

		emit[c] = row
	}

	return &Store{init: init, trans: trans, emit: emit}, nil
}

func singleRune(s string) (rune, bool) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, false
	}

	return runes[0], true
}

// Save writes the store out in the schema Load accepts, via an atomic
// rename so a crash mid-write never leaves a truncated parameter file
// behind.
func (s *Store) Save(path string) error {
	p := Params{
		Init:  make(map[string]float64, len(s.init)),
		Trans: make(map[string]map[string]float64, len(s.trans)),
		Emit:  make(map[string]map[string]float64, len(s.emit)),
	}

	for c, v := range s.init {
		p.Init[string(c)] = v
	}

	for prev, row := range s.trans {
		inner := make(map[string]float64, len(row))
		for c, v := range row {
			inner[string(c)] = v
		}

		p.Trans[string(prev)] = inner
	}

	for c, row := range s.emit {
		p.Emit[string(c)] = row
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("hmm: marshal params: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("hmm: write params to %s: %w", path, err)
	}

	return nil
}
