// File: internal/portal/normalize_test.go
package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSplitsComposite(t *testing.T) {
	rec := Record{}
	rec.Set("plate_state", "ABC1234/MA")
	rec.Set("chassis", "9BWZZZ377VT004251")

	out, err := Normalize(rec, chassisComposites)
	require.NoError(t, err)

	plate, ok := out.Get("plate")
	require.True(t, ok)
	assert.Equal(t, "ABC1234", plate)

	state, ok := out.Get("state")
	require.True(t, ok)
	assert.Equal(t, "MA", state)

	// The composite source survives alongside the derived pair.
	src, ok := out.Get("plate_state")
	require.True(t, ok)
	assert.Equal(t, "ABC1234/MA", src)

	// The input record is untouched.
	_, ok = rec.Get("plate")
	assert.False(t, ok)
}

func TestNormalizeTrimsSurroundingSpace(t *testing.T) {
	rec := Record{}
	rec.Set("plate_state", " ABC1234 / MA ")

	out, err := Normalize(rec, chassisComposites)
	require.NoError(t, err)

	plate, _ := out.Get("plate")
	state, _ := out.Get("state")
	assert.Equal(t, "ABC1234", plate)
	assert.Equal(t, "MA", state)
}

// The BIN page appends extra text after the state code; only its first token
// is kept.
func TestNormalizeBinTrimSecondToken(t *testing.T) {
	rec := Record{}
	rec.Set("plate_state", "ABC1234/MA SAO LUIS")
	rec.Set("manufacture_model_year", "2020/2021")

	out, err := Normalize(rec, binComposites)
	require.NoError(t, err)

	state, _ := out.Get("state")
	assert.Equal(t, "MA", state)

	modelYear, _ := out.Get("model_year")
	manufactureYear, _ := out.Get("manufacture_year")
	assert.Equal(t, "2020", modelYear)
	assert.Equal(t, "2021", manufactureYear)
}

func TestNormalizeAbsentSourceSkipped(t *testing.T) {
	rec := Record{}
	rec.Set("chassis", "9BWZZZ377VT004251")

	out, err := Normalize(rec, chassisComposites)
	require.NoError(t, err)

	_, ok := out.Get("plate")
	assert.False(t, ok)
	assert.Len(t, out, 1)
}

func TestNormalizeMalformedComposite(t *testing.T) {
	t.Run("missing separator", func(t *testing.T) {
		rec := Record{}
		rec.Set("plate_state", "ABC1234 MA")

		_, err := Normalize(rec, chassisComposites)
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
		assert.Equal(t, "plate_state", extErr.Field)
	})

	t.Run("null source", func(t *testing.T) {
		rec := Record{"plate_state": nil}

		_, err := Normalize(rec, chassisComposites)
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	rec := Record{}
	rec.Set("plate_state", "ABC1234/MA")

	once, err := Normalize(rec, chassisComposites)
	require.NoError(t, err)
	twice, err := Normalize(once, chassisComposites)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestNormalizeAll(t *testing.T) {
	first := Record{}
	first.Set("plate_state", "ABC1234/MA")
	second := Record{}
	second.Set("plate_state", "XYZ9A87/SP")

	out, err := NormalizeAll([]Record{first, second}, vehiclesComposites)
	require.NoError(t, err)
	require.Len(t, out, 2)

	plate, _ := out[1].Get("plate")
	assert.Equal(t, "XYZ9A87", plate)

	empty, err := NormalizeAll(nil, vehiclesComposites)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
