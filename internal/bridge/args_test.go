package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgsAccessors(t *testing.T) {
	a := Args{
		"s":     "x",
		"n":     float64(3),
		"jn":    json.Number("7"),
		"frac":  1.5,
		"b":     true,
		"m":     map[string]any{"k": "v"},
		"shape": []any{float64(1), json.Number("2"), 3},
		"names": []any{"a", "b"},
		"null":  nil,
	}
	s, err := a.String("s")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, err = a.String("missing")
	assert.True(t, isMissingArg(err))
	_, err = a.String("null")
	assert.True(t, isMissingArg(err))
	_, err = a.String("n")
	assert.Error(t, err)
	assert.False(t, isMissingArg(err))

	n, err := a.Int("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = a.Int("jn", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	n, err = a.Int("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	_, err = a.Int("frac", 0)
	assert.Error(t, err)

	b, err := a.Bool("b", false)
	require.NoError(t, err)
	assert.True(t, b)
	pb, err := a.OptBool("missing")
	require.NoError(t, err)
	assert.Nil(t, pb)

	m, err := a.Map("m")
	require.NoError(t, err)
	assert.Equal(t, "v", m["k"])
	_, err = a.Map("s")
	assert.Error(t, err)

	shape, err := a.Int64List("shape")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, shape)
	_, err = a.Int64List("names")
	assert.Error(t, err)

	names, err := a.StringList("names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	l, err := a.List("names")
	require.NoError(t, err)
	assert.Len(t, l, 2)

	assert.True(t, a.Has("s"))
	assert.False(t, a.Has("null"))
}
