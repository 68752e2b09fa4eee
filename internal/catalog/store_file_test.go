package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BookShelf/internal/catalog"
)

func TestFileSlot_ReadWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "shelf.json")
	slot := catalog.NewFileSlot(path)

	_, err := slot.Read(ctx)
	require.ErrorIs(t, err, catalog.ErrSlotEmpty)

	require.NoError(t, slot.Write(ctx, []byte(`[1]`)))
	require.NoError(t, slot.Write(ctx, []byte(`[1,2]`)))

	got, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, slot.Ping(ctx))
}

func TestFileSlot_StoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shelf.json")

	s := catalog.NewStore(catalog.NewFileSlot(path))
	require.NoError(t, s.Load(ctx))
	_, err := s.Add(ctx, catalog.Fields{Title: "Dune"})
	require.NoError(t, err)

	restarted := catalog.NewStore(catalog.NewFileSlot(path))
	require.NoError(t, restarted.Load(ctx))
	assert.Equal(t, s.List(), restarted.List())
	assert.Equal(t, "Dune", restarted.List()[0].Title)
}

func TestMemSlot_ReadIsolation(t *testing.T) {
	ctx := context.Background()
	slot := catalog.NewMemSlot()

	data := []byte(`[]`)
	require.NoError(t, slot.Write(ctx, data))
	data[0] = 'x'

	got, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}
