package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataSupports(t *testing.T) {
	md := Metadata{
		Name:                "typecheck",
		SupportedExtensions: []string{".py", ".pyi"},
	}

	assert.True(t, md.Supports("src/main.py"))
	assert.True(t, md.Supports("stubs/types.pyi"))
	assert.True(t, md.Supports("SRC/MAIN.PY"), "extension match is case-insensitive")
	assert.False(t, md.Supports("script.sh"))
	assert.False(t, md.Supports("noextension"))
}

func TestInputValidate(t *testing.T) {
	assert.NoError(t, Input{FilePath: "a.py"}.Validate())

	err := Input{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	err = Input{FilePath: "   "}.Validate()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckInput(t *testing.T) {
	md := Metadata{Name: "coverage", SupportedExtensions: []string{".py"}}

	assert.NoError(t, CheckInput(md, Input{FilePath: "pkg/mod.py"}))

	err := CheckInput(md, Input{FilePath: "pkg/mod.js"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Contains(t, err.Error(), "coverage")

	err = CheckInput(md, Input{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIntOption(t *testing.T) {
	opts := map[string]any{
		"threshold": float64(75), // JSON numbers decode as float64
		"limit":     10,
		"name":      "nope",
	}

	got, err := IntOption(opts, "threshold", 80)
	require.NoError(t, err)
	assert.Equal(t, 75, got)

	got, err = IntOption(opts, "limit", 5)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	got, err = IntOption(opts, "missing", 80)
	require.NoError(t, err)
	assert.Equal(t, 80, got)

	_, err = IntOption(opts, "name", 0)
	assert.ErrorIs(t, err, ErrValidation)
}
