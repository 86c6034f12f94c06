package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, PresentModeVSync, cfg.Renderer.PresentMode)
	assert.Len(t, cfg.Graph.ClearColor, 4)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
window:
  title: demo
  width: 800
renderer:
  present_mode: Uncapped
engine:
  frame_limit: 144
  profiling: true
graph:
  clear_color: [1, 0, 0, 1]
`))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, PresentModeUncapped, cfg.Renderer.PresentMode)
	assert.Equal(t, 144.0, cfg.Engine.FrameLimit)
	assert.Equal(t, 60.0, cfg.Engine.TickRate)
	assert.True(t, cfg.Engine.Profiling)
	assert.Equal(t, 4, cfg.Engine.FeederWorkers)
	assert.Equal(t, []float64{1, 0, 0, 1}, cfg.Graph.ClearColor)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "present mode", doc: "renderer:\n  present_mode: triple\n"},
		{name: "window size", doc: "window:\n  width: -1\n"},
		{name: "clear color length", doc: "graph:\n  clear_color: [1, 1]\n"},
		{name: "clear color range", doc: "graph:\n  clear_color: [2, 0, 0, 1]\n"},
		{name: "frame limit", doc: "engine:\n  frame_limit: -30\n"},
		{name: "workers", doc: "engine:\n  feeder_workers: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("window: [unterminated"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Window.Title = "round trip"
	cfg.Engine.Profiling = true

	data, err := cfg.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// writeAtomic replaces path the way editors do: write a sibling file, then rename it over path.
func writeAtomic(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.yaml")
	writeAtomic(t, path, "window:\n  title: first\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 8)
	require.NoError(t, Watch(ctx, path, func(cfg Config) { changes <- cfg }))

	writeAtomic(t, path, "window:\n  title: [not valid\n")
	time.Sleep(300 * time.Millisecond)
	writeAtomic(t, path, "window:\n  title: second\n")

	select {
	case cfg := <-changes:
		assert.Equal(t, "second", cfg.Window.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload not observed")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "oxy.yaml"), func(Config) {})
	assert.Error(t, err)
}
