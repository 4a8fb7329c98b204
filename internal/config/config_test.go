package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "simple", cfg.Extraction.Mode)
	assert.False(t, cfg.Extraction.StripHeaders)
	assert.Equal(t, 110, cfg.Render.ResolutionDPI)
	assert.Equal(t, 100, cfg.Render.DelayMS)
	assert.Equal(t, DecodeSafe, cfg.Render.DecodePath)
	assert.Equal(t, 20, cfg.Render.CacheCapacity)
	assert.True(t, cfg.Render.SafeDecode())
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
extraction:
  mode: structured
  strip_headers: true
render:
  resolution_dpi: 150
  delay_ms: 250
  decode_path: fast
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "structured", cfg.Extraction.Mode)
	assert.True(t, cfg.Extraction.StripHeaders)
	assert.Equal(t, 150, cfg.Render.ResolutionDPI)
	assert.Equal(t, 250, cfg.Render.DelayMS)
	assert.False(t, cfg.Render.SafeDecode())
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unmentioned settings keep their defaults.
	assert.Equal(t, 20, cfg.Render.CacheCapacity)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  resolution_dpi: 150\n"), 0o644))

	t.Setenv("PAGELIGHT_RESOLUTION_DPI", "180")
	t.Setenv("PAGELIGHT_EXTRACTION_MODE", "structured")
	t.Setenv("PAGELIGHT_DECODE_PATH", "fast")
	t.Setenv("PAGELIGHT_STRIP_HEADERS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 180, cfg.Render.ResolutionDPI)
	assert.Equal(t, "structured", cfg.Extraction.Mode)
	assert.Equal(t, DecodeFast, cfg.Render.DecodePath)
	assert.True(t, cfg.Extraction.StripHeaders)
}

func TestLoad_MalformedEnvValueKeepsPrevious(t *testing.T) {
	t.Setenv("PAGELIGHT_RESOLUTION_DPI", "not-a-number")
	t.Setenv("PAGELIGHT_STRIP_HEADERS", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 110, cfg.Render.ResolutionDPI)
	assert.False(t, cfg.Extraction.StripHeaders)
}

func TestValidate_RejectsUnknownMode(t *testing.T) {
	cfg := Default()
	cfg.Extraction.Mode = "fancy"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownDecodePath(t *testing.T) {
	cfg := Default()
	cfg.Render.DecodePath = "turbo"
	assert.Error(t, cfg.Validate())
}

func TestClamp_ForcesSupportedRanges(t *testing.T) {
	cfg := Default()
	cfg.Render.ResolutionDPI = 9999
	cfg.Render.DelayMS = -50
	cfg.Render.CacheCapacity = 0

	cfg.Clamp()

	assert.Equal(t, 220, cfg.Render.ResolutionDPI)
	assert.Equal(t, 0, cfg.Render.DelayMS)
	assert.Equal(t, 20, cfg.Render.CacheCapacity)

	cfg.Render.ResolutionDPI = 10
	cfg.Render.DelayMS = 5000
	cfg.Clamp()
	assert.Equal(t, 72, cfg.Render.ResolutionDPI)
	assert.Equal(t, 1000, cfg.Render.DelayMS)
}

func TestLoad_OutOfRangeValuesAreClampedNotRejected(t *testing.T) {
	t.Setenv("PAGELIGHT_RESOLUTION_DPI", "50000")
	t.Setenv("PAGELIGHT_RENDER_DELAY_MS", "-1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 220, cfg.Render.ResolutionDPI)
	assert.Equal(t, 0, cfg.Render.DelayMS)
}
