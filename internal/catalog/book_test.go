package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BookShelf/internal/catalog"
)

func TestLoose_DecodesStringsNumbersAndNull(t *testing.T) {
	var v struct {
		A catalog.Loose `json:"a"`
		B catalog.Loose `json:"b"`
		C catalog.Loose `json:"c"`
		D catalog.Loose `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1605,"b":"s.f.","c":null}`), &v))

	assert.Equal(t, catalog.Loose("1605"), v.A)
	assert.Equal(t, catalog.Loose("s.f."), v.B)
	assert.Empty(t, v.C)
	assert.Empty(t, v.D)

	assert.Error(t, json.Unmarshal([]byte(`{"a":{}}`), &v))
}

func TestBook_LegacyGenreKey(t *testing.T) {
	var b catalog.Book
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","title":"T","genere":"Poesía"}`), &b))
	assert.Equal(t, "Poesía", b.Genre)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","title":"T","genre":"Drama","genere":"Poesía"}`), &b))
	assert.Equal(t, "Drama", b.Genre, "current key wins")

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "genere")
}

func TestParseCoverSize(t *testing.T) {
	for in, want := range map[string]catalog.CoverSize{"S": "S", "m": "M", " L ": "L"} {
		got, ok := catalog.ParseCoverSize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "XL", "small"} {
		_, ok := catalog.ParseCoverSize(in)
		assert.False(t, ok, in)
	}
}

func TestCount_DecodesNumbersAndNumericStrings(t *testing.T) {
	var v struct {
		A catalog.Count `json:"a"`
		B catalog.Count `json:"b"`
		C catalog.Count `json:"c"`
		D catalog.Count `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":7,"b":" 12 ","c":null,"d":""}`), &v))
	assert.Equal(t, catalog.Count(7), v.A)
	assert.Equal(t, catalog.Count(12), v.B)
	assert.Zero(t, v.C)
	assert.Zero(t, v.D)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"many"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}
