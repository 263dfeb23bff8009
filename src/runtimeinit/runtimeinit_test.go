package runtimeinit

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-shot/src/config"
	"better-shot/src/process/processtest"
)

type oneDisplay struct{}

func (oneDisplay) NumActiveDisplays() int               { return 1 }
func (oneDisplay) GetDisplayBounds(int) image.Rectangle { return image.Rect(0, 0, 8, 6) }
func (oneDisplay) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
}

func TestBuildDarwinUsesConfiguredPrefixAndDir(t *testing.T) {
	dir := t.TempDir()
	r := processtest.New().
		On("pgrep", processtest.Exit(1, "")).
		On("screencapture", processtest.Response{Effect: func(args []string) {
			_ = os.WriteFile(args[len(args)-1], []byte("png"), 0o644)
		}})

	svc := Build(&config.Config{
		GOOS:           "darwin",
		SaveDir:        dir,
		CapturePrefix:  "grab",
		FilenamePrefix: "edit",
	}, r, oneDisplay{})

	path, err := svc.NativeCaptureFullscreen(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "grab_"), path)
	assert.FileExists(t, path)
}

func TestBuildGenericCapturesWithLibrary(t *testing.T) {
	dir := t.TempDir()
	svc := Build(&config.Config{GOOS: "plan9", SaveDir: dir}, processtest.New(), oneDisplay{})

	path, err := svc.CaptureOnce(context.Background(), "", false)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.FileExists(t, path)

	_, err = svc.NativeCaptureInteractive(context.Background(), "")
	assert.Error(t, err)
}

func TestBootstrapAppliesOverridesAndLogging(t *testing.T) {
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	dir := t.TempDir()

	var logging *bool
	cfg, svc, err := Bootstrap(Options{
		LoadOptions: config.LoadOptions{SaveDirOverride: dir},
		SetupLogging: func(enable bool) {
			logging = &enable
		},
		Runner:   processtest.New(),
		Displays: oneDisplay{},
	})
	require.NoError(t, err)
	require.NotNil(t, svc)
	require.NotNil(t, logging)
	assert.True(t, *logging)
	assert.Equal(t, dir, cfg.SaveDir)
}
