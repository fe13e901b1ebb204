package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/tetherbooth/internal/domain"
)

func TestBuiltin_Validates(t *testing.T) {
	r, err := New(BuiltinTable())
	require.NoError(t, err)
	assert.Equal(t, DefaultKey, r.DefaultKey())
	assert.Len(t, r.Keys(), 16)
}

func TestCanvasSize(t *testing.T) {
	tests := []struct {
		key  string
		w, h int
	}{
		{"full_v4a", 2400, 3600},
		{"half_v2", 2400, 3600},
		{"a4_4cut", 2400, 3600},
		{"full_h2", 3600, 2400},
		{"half_h3", 3600, 2400},
		{"full_h10", 3600, 2400},
		{"bogus", 2400, 3600},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			w, h := CanvasSize(tt.key)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestGet_UnknownKeyReturnsDefault(t *testing.T) {
	r := Builtin()

	got := r.Get("bogus")

	assert.Equal(t, DefaultKey, got.Key)
	assert.NotEmpty(t, got.Slots)
	assert.Equal(t, r.Get(DefaultKey).Slots, got.Slots)

	_, ok := r.Lookup("bogus")
	assert.False(t, ok)
	_, ok = r.Lookup("half_v4")
	assert.True(t, ok)
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := Builtin()
	l := r.Get("full_v2")
	l.Slots[0].X = 9999

	assert.Equal(t, 100, r.Get("full_v2").Slots[0].X)
}

func TestSlotCount(t *testing.T) {
	r := Builtin()
	assert.Equal(t, 8, r.SlotCount("half_v4"))
	assert.Equal(t, 9, r.SlotCount("full_v9"))
	assert.Equal(t, 4, r.SlotCount("nope"))
}

func TestValidate_RejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		table Table
	}{
		{
			name: "out of canvas",
			table: Table{Default: "full_v1", Layouts: map[string][]domain.Slot{
				"full_v1": {{X: 2000, Y: 0, W: 500, H: 100}},
			}},
		},
		{
			name: "landscape slot on portrait canvas",
			table: Table{Default: "full_v1", Layouts: map[string][]domain.Slot{
				"full_v1": {{X: 0, Y: 0, W: 3000, H: 100}},
			}},
		},
		{
			name: "overlap",
			table: Table{Default: "full_v2", Layouts: map[string][]domain.Slot{
				"full_v2": {{X: 0, Y: 0, W: 100, H: 100}, {X: 50, Y: 50, W: 100, H: 100}},
			}},
		},
		{
			name: "zero size",
			table: Table{Default: "full_v1", Layouts: map[string][]domain.Slot{
				"full_v1": {{X: 0, Y: 0, W: 0, H: 100}},
			}},
		},
		{
			name: "missing default",
			table: Table{Default: "full_v4a", Layouts: map[string][]domain.Slot{
				"full_v1": {{X: 0, Y: 0, W: 10, H: 10}},
			}},
		},
		{
			name: "empty slots",
			table: Table{Default: "full_v1", Layouts: map[string][]domain.Slot{
				"full_v1": {},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidLayout))
		})
	}
}

func TestValidate_TouchingSlotsAllowed(t *testing.T) {
	_, err := New(Table{Default: "full_v2", Layouts: map[string][]domain.Slot{
		"full_v2": {{X: 0, Y: 0, W: 100, H: 100}, {X: 100, Y: 0, W: 100, H: 100}},
	}})
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layouts.yaml")
	data := []byte(`
default: mini_v1
layouts:
  mini_v1:
    - {x: 10, y: 10, w: 100, h: 200}
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mini_v1"}, r.Keys())
	assert.Equal(t, "mini_v1", r.Get("anything").Key)
}

func TestLoadFile_EmptyPathUsesBuiltin(t *testing.T) {
	r, err := LoadFile("")
	require.NoError(t, err)
	assert.Contains(t, r.Keys(), "full_v4a")
}

func TestParseTable_DefaultsDefaultKey(t *testing.T) {
	tb, err := ParseTable([]byte("layouts: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultKey, tb.Default)
}
