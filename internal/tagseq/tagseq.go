// Package tagseq derives human-readable asset tags of the form
// <branch digits><year component><zero-padded sequence>.
//
// The allocator is a pure function over a snapshot of issued tags. It does not
// reserve anything: two callers holding the same snapshot compute the same
// tag. Callers must either serialize allocate+persist per prefix or rely on a
// uniqueness constraint in storage and retry.
package tagseq

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig indicates the allocator configuration cannot produce tags.
var ErrInvalidConfig = errors.New("invalid tag configuration")

// ErrSequenceOverflow indicates the next sequence no longer fits the configured width.
var ErrSequenceOverflow = errors.New("tag sequence exceeds configured width")

// BranchWidth is the fixed width of the branch component.
const BranchWidth = 3

// YearMode selects how the year is embedded in the prefix.
type YearMode string

const (
	YearNone  YearMode = ""
	YearShort YearMode = "yy"
	YearFull  YearMode = "yyyy"
)

// ParseYearMode accepts "", "none", "yy" and "yyyy" (case-insensitive).
func ParseYearMode(value string) (YearMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return YearNone, nil
	case "yy":
		return YearShort, nil
	case "yyyy":
		return YearFull, nil
	default:
		return YearNone, fmt.Errorf("%w: unknown year mode %q", ErrInvalidConfig, value)
	}
}

// OverflowPolicy decides what happens when a sequence outgrows SequenceDigits.
type OverflowPolicy string

const (
	// OverflowWiden emits the wider number and flags the allocation.
	OverflowWiden OverflowPolicy = "widen"
	// OverflowReject fails the allocation with ErrSequenceOverflow.
	OverflowReject OverflowPolicy = "reject"
)

// ParseOverflowPolicy accepts "widen" (default when empty) and "reject".
func ParseOverflowPolicy(value string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(OverflowWiden):
		return OverflowWiden, nil
	case string(OverflowReject):
		return OverflowReject, nil
	default:
		return OverflowWiden, fmt.Errorf("%w: unknown overflow policy %q", ErrInvalidConfig, value)
	}
}

// Config controls tag shape.
type Config struct {
	YearMode       YearMode
	SequenceDigits int
	Overflow       OverflowPolicy
}

// DefaultConfig returns yy / 5 digits / widen.
func DefaultConfig() Config {
	return Config{YearMode: YearShort, SequenceDigits: 5, Overflow: OverflowWiden}
}

// Validate reports malformed configuration.
func (c Config) Validate() error {
	if c.SequenceDigits < 1 {
		return fmt.Errorf("%w: sequence digits must be >= 1, got %d", ErrInvalidConfig, c.SequenceDigits)
	}
	switch c.YearMode {
	case YearNone, YearShort, YearFull:
	default:
		return fmt.Errorf("%w: unknown year mode %q", ErrInvalidConfig, c.YearMode)
	}
	switch c.Overflow {
	case "", OverflowWiden, OverflowReject:
	default:
		return fmt.Errorf("%w: unknown overflow policy %q", ErrInvalidConfig, c.Overflow)
	}
	return nil
}

// Allocation describes one computed tag.
type Allocation struct {
	Tag      string `json:"tag"`
	Prefix   string `json:"prefix"`
	Sequence int    `json:"sequence"`
	// Overflow is set when the sequence is wider than SequenceDigits.
	Overflow bool `json:"overflow"`
}

// BranchDigits keeps the first three decimal digits of code, left-padded with '0'.
func BranchDigits(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == BranchWidth {
			break
		}
	}
	return leftPad(b.String(), BranchWidth)
}

// YearComponent renders the year of now according to mode.
func YearComponent(mode YearMode, now time.Time) string {
	switch mode {
	case YearShort:
		return now.Format("06")
	case YearFull:
		return now.Format("2006")
	default:
		return ""
	}
}

// Prefix scopes a sequence namespace: branch digits followed by the year component.
func Prefix(branchCode string, mode YearMode, now time.Time) string {
	return BranchDigits(branchCode) + YearComponent(mode, now)
}

// LastSequence returns the highest sequence issued under prefix, or 0.
// Tags whose remainder after the prefix is not purely numeric are ignored.
func LastSequence(prefix string, existing []string) int {
	last := 0
	for _, tag := range existing {
		rest, ok := strings.CutPrefix(tag, prefix)
		if !ok {
			continue
		}
		seq, ok := parseSequence(rest)
		if !ok {
			continue
		}
		if seq > last {
			last = seq
		}
	}
	return last
}

// Format joins prefix and seq, padding seq to the configured width.
func Format(prefix string, seq int, cfg Config) (Allocation, error) {
	if err := cfg.Validate(); err != nil {
		return Allocation{}, err
	}
	digits := strconv.Itoa(seq)
	overflow := len(digits) > cfg.SequenceDigits
	if overflow && cfg.Overflow == OverflowReject {
		return Allocation{}, fmt.Errorf("%w: prefix %s sequence %d wider than %d digits", ErrSequenceOverflow, prefix, seq, cfg.SequenceDigits)
	}
	return Allocation{
		Tag:      prefix + leftPad(digits, cfg.SequenceDigits),
		Prefix:   prefix,
		Sequence: seq,
		Overflow: overflow,
	}, nil
}

// Next computes the next tag for branchCode given a snapshot of issued tags.
func Next(branchCode string, existing []string, cfg Config, now time.Time) (Allocation, error) {
	if err := cfg.Validate(); err != nil {
		return Allocation{}, err
	}
	prefix := Prefix(branchCode, cfg.YearMode, now)
	return Format(prefix, LastSequence(prefix, existing)+1, cfg)
}

// Allocate returns only the tag string of Next.
func Allocate(branchCode string, existing []string, cfg Config, now time.Time) (string, error) {
	alloc, err := Next(branchCode, existing, cfg, now)
	if err != nil {
		return "", err
	}
	return alloc.Tag, nil
}

// Allocator binds a configuration and a clock.
type Allocator struct {
	cfg Config
	now func() time.Time
}

// NewAllocator validates cfg and returns an allocator using the wall clock.
func NewAllocator(cfg Config) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the allocator reading time from now.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	cp := *a
	cp.now = now
	return &cp
}

// Config returns the bound configuration.
func (a *Allocator) Config() Config {
	return a.cfg
}

// Prefix returns the namespace branchCode allocates into right now.
func (a *Allocator) Prefix(branchCode string) string {
	return Prefix(branchCode, a.cfg.YearMode, a.now())
}

// Next is Next bound to the allocator's config and clock.
func (a *Allocator) Next(branchCode string, existing []string) (Allocation, error) {
	return Next(branchCode, existing, a.cfg, a.now())
}

// Allocate is Allocate bound to the allocator's config and clock.
func (a *Allocator) Allocate(branchCode string, existing []string) (string, error) {
	return Allocate(branchCode, existing, a.cfg, a.now())
}

func parseSequence(rest string) (int, bool) {
	if rest == "" {
		return 0, true
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
