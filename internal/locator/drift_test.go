package locator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriftState_WithBumpsVersion(t *testing.T) {
	s := NewDriftState()
	assert.Equal(t, uint64(0), s.Version())
	assert.Equal(t, "as-authored", s.String())

	s1 := s.With(PageLogin, ToDrifted)
	s2 := s1.With(PageCart, ToCanonical)

	assert.Equal(t, uint64(1), s1.Version())
	assert.Equal(t, uint64(2), s2.Version())

	_, ok := s1.Direction(PageCart)
	assert.False(t, ok, "With must not mutate the receiver")

	d, ok := s2.Direction(PageLogin)
	require.True(t, ok)
	assert.Equal(t, ToDrifted, d)
	assert.Equal(t, "cart=canonical,login=drifted", s2.String())
	assert.Equal(t, []Page{PageCart, PageLogin}, s2.Pages())
}

func TestParseDriftState(t *testing.T) {
	s, err := ParseDriftState([]string{"login", "cart=canonical", ""})
	require.NoError(t, err)

	d, ok := s.Direction(PageLogin)
	require.True(t, ok)
	assert.Equal(t, ToDrifted, d)

	d, ok = s.Direction(PageCart)
	require.True(t, ok)
	assert.Equal(t, ToCanonical, d)

	_, err = ParseDriftState([]string{"checkout"})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	_, err = ParseDriftState([]string{"login=upside-down"})
	assert.Error(t, err)
}

func TestLoadRenameMaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maps.yaml")
	content := `maps:
  - page: cart
    entries:
      - canonical: cart-total
        drifted: price-total
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rm, err := LoadRenameMaps(path, Default())
	require.NoError(t, err)
	assert.Equal(t, []Page{PageCart}, rm.Pages())

	pairs, err := rm.Pairs(PageCart, ToDrifted)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{From: CartTotal, To: "price-total"}}, pairs)

	_, err = rm.Pairs(PageLogin, ToDrifted)
	assert.True(t, IsConfigurationError(err))
}

func TestParseRenameMaps_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "maps:\n  - page: cart\n    entires: []\n"},
		{"empty", "maps: []\n"},
		{"collision", "maps:\n  - page: cart\n    entries:\n      - canonical: cart-total\n        drifted: cart-count\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRenameMaps([]byte(tt.yaml), Default())
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err), "got %T: %v", err, err)
		})
	}
}

func TestLoadRenameMaps_MissingFile(t *testing.T) {
	_, err := LoadRenameMaps(filepath.Join(t.TempDir(), "nope.yaml"), Default())
	require.Error(t, err)
	assert.False(t, IsConfigurationError(err))
}
