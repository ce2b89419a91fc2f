package tagseq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

func TestBranchDigits(t *testing.T) {
	cases := map[string]string{
		"SWC001":   "001",
		"SW-C-099": "099",
		"A1B2C3D4": "123",
		"7":        "007",
		"HQ":       "000",
		"":         "000",
		"12":       "012",
	}
	for in, want := range cases {
		assert.Equal(t, want, BranchDigits(in), "branch %q", in)
	}
}

func TestAllocateFirstTagInPrefix(t *testing.T) {
	tag, err := Allocate("SWC001", nil, DefaultConfig(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "0012500001", tag)
}

func TestAllocateUsesCurrentYear(t *testing.T) {
	now := time.Now()
	tag, err := Allocate("SWC001", []string{}, Config{YearMode: YearShort, SequenceDigits: 5}, now)
	require.NoError(t, err)
	assert.Equal(t, "001"+now.Format("06")+"00001", tag)
}

func TestAllocateYearModes(t *testing.T) {
	cfg := Config{SequenceDigits: 3}

	cfg.YearMode = YearNone
	tag, err := Allocate("B12", nil, cfg, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "012001", tag)

	cfg.YearMode = YearFull
	tag, err = Allocate("B12", nil, cfg, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "0122025001", tag)
}

func TestAllocateIsMonotonicNotGapFilling(t *testing.T) {
	existing := []string{"0012500001", "0012500002", "0012500005"}
	tag, err := Allocate("SWC001", existing, DefaultConfig(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "0012500006", tag)
}

func TestAllocateIgnoresOtherNamespaces(t *testing.T) {
	existing := []string{
		"0022500009", // other branch
		"0012400042", // other year
		"00125ABC12", // non numeric remainder
		"00125-0007", // separator is not numeric
		"0012500003",
	}
	tag, err := Allocate("SWC001", existing, DefaultConfig(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "0012500004", tag)
}

func TestAllocateEmptyRemainderCountsAsZero(t *testing.T) {
	tag, err := Allocate("001", []string{"00125"}, DefaultConfig(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "0012500001", tag)
}

func TestAllocateIsPure(t *testing.T) {
	existing := []string{"0012500010"}
	first, err := Allocate("SWC001", existing, DefaultConfig(), fixedNow)
	require.NoError(t, err)
	second, err := Allocate("SWC001", existing, DefaultConfig(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"0012500010"}, existing)
}

func TestOverflowWidenFlagsAllocation(t *testing.T) {
	cfg := Config{YearMode: YearNone, SequenceDigits: 2, Overflow: OverflowWiden}
	alloc, err := Next("001", []string{"00199"}, cfg, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "001100", alloc.Tag)
	assert.Equal(t, 100, alloc.Sequence)
	assert.True(t, alloc.Overflow)
}

func TestOverflowReject(t *testing.T) {
	cfg := Config{YearMode: YearNone, SequenceDigits: 2, Overflow: OverflowReject}
	_, err := Next("001", []string{"00199"}, cfg, fixedNow)
	assert.ErrorIs(t, err, ErrSequenceOverflow)

	alloc, err := Next("001", []string{"00198"}, cfg, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "00199", alloc.Tag)
	assert.False(t, alloc.Overflow)
}

func TestInvalidConfig(t *testing.T) {
	_, err := Allocate("001", nil, Config{YearMode: YearShort, SequenceDigits: 0}, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Allocate("001", nil, Config{YearMode: "yyy", SequenceDigits: 5}, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewAllocator(Config{SequenceDigits: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseYearModeAndPolicy(t *testing.T) {
	mode, err := ParseYearMode("NONE")
	require.NoError(t, err)
	assert.Equal(t, YearNone, mode)

	mode, err = ParseYearMode("yyyy")
	require.NoError(t, err)
	assert.Equal(t, YearFull, mode)

	_, err = ParseYearMode("decade")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	policy, err := ParseOverflowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OverflowWiden, policy)

	_, err = ParseOverflowPolicy("wrap")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAllocatorUsesInjectedClock(t *testing.T) {
	a, err := NewAllocator(Config{YearMode: YearFull, SequenceDigits: 4})
	require.NoError(t, err)
	a = a.WithClock(func() time.Time { return fixedNow })

	assert.Equal(t, "0992025", a.Prefix("SW-C-099"))
	tag, err := a.Allocate("SW-C-099", []string{"09920250041"})
	require.NoError(t, err)
	assert.Equal(t, "09920250042", tag)
}
