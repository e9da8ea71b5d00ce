package ir

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("a")
	var _ Value = Int(1)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = Time{}
}

func TestFromGoNormalizesIntegers(t *testing.T) {
	for _, in := range []any{int(7), int8(7), int16(7), int32(7), int64(7), uint8(7), uint16(7), uint32(7), uint(7), uint64(7)} {
		v, err := FromGo(in)
		require.NoError(t, err, "%T", in)
		assert.Equal(t, Int(7), v, "%T", in)
		assert.Equal(t, int64(7), v.Go())
		assert.Equal(t, TypeInt, v.Type())
	}
}

func TestFromGoRejectsOverflow(t *testing.T) {
	_, err := FromGo(uint64(math.MaxUint64))
	assert.Error(t, err)
}

func TestFromGoFloats(t *testing.T) {
	v, err := FromGo(float32(2.5))
	require.NoError(t, err)
	assert.Equal(t, Float(2.5), v)

	_, err = FromGo(math.NaN())
	assert.Error(t, err)
	_, err = FromGo(math.Inf(1))
	assert.Error(t, err)
}

func TestFromGoPointers(t *testing.T) {
	s := "member1"
	v, err := FromGo(&s)
	require.NoError(t, err)
	assert.Equal(t, String("member1"), v)

	var nilStr *string
	v, err = FromGo(nilStr)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)
	assert.Nil(t, v.Go())
	assert.Equal(t, TypeAny, v.Type())
}

func TestFromGoTimeIsUTC(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, loc)

	v, err := FromGo(in)
	require.NoError(t, err)
	tv, ok := v.(Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, tv.T.Location())
	assert.True(t, tv.T.Equal(in))
}

func TestFromGoPassesValuesThrough(t *testing.T) {
	v, err := FromGo(Bool(true))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)
}

func TestFromGoRejectsUnsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	assert.Error(t, err)
	_, err = FromGo([]int{1})
	assert.Error(t, err)
}

func TestSortedKeysRFC8785Order(t *testing.T) {
	m := map[string]any{"a": 1, "A": 2, "aa": 3, "aA": 4, "Aa": 5, "AA": 6}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, SortedKeys(m))
}

func TestSortedKeysSurrogatePairs(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FFFD
	// in UTF-16 even though UTF-8 orders them the other way.
	m := map[string]any{"\U0001F600": 1, "\uFFFD": 2}
	assert.Equal(t, []string{"\U0001F600", "\uFFFD"}, SortedKeys(m))
}
