package clipboard

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-shot/src/imaging"
	"better-shot/src/process/processtest"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.WritePNG(p, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return p
}

func TestNewSelectsBackend(t *testing.T) {
	r := processtest.New()
	assert.IsType(t, &osascriptWriter{}, New("darwin", BackendNative, r))
	assert.IsType(t, &powershellWriter{}, New("windows", BackendNative, r))
	assert.IsType(t, unsupportedWriter{}, New("linux", BackendNative, r))
	assert.IsType(t, &libraryWriter{}, New("linux", BackendLibrary, r))
}

func TestUnsupportedPlatform(t *testing.T) {
	err := New("plan9", BackendNative, processtest.New()).CopyImage(context.Background(), "/tmp/x.png")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestOsascriptWriter(t *testing.T) {
	r := processtest.New().On("osascript", processtest.Exit(0, ""))
	w := New("darwin", BackendNative, r)

	require.NoError(t, w.CopyImage(context.Background(), "/Users/me/Desktop/shot.png"))
	calls := r.Calls("osascript")
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Args, 2)
	assert.Equal(t, "-e", calls[0].Args[0])
	assert.Equal(t, `set the clipboard to (read (POSIX file "/Users/me/Desktop/shot.png") as «class PNGf»)`, calls[0].Args[1])
}

func TestOsascriptWriterSurfacesToolFailure(t *testing.T) {
	// macOS does not pre-validate; a missing file is reported by osascript itself.
	r := processtest.New().On("osascript", processtest.Exit(1, "execution error: File not open. (-43)"))
	err := New("darwin", BackendNative, r).CopyImage(context.Background(), "/nope.png")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to copy image to clipboard")
	assert.Contains(t, err.Error(), "-43")
	assert.Len(t, r.Calls("osascript"), 1)
}

func TestOsascriptWriterSpawnFailure(t *testing.T) {
	err := New("darwin", BackendNative, processtest.New()).CopyImage(context.Background(), "/x.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to execute osascript")
}

func TestAppleScriptEscapesQuotes(t *testing.T) {
	s := AppleScript(`/tmp/my "odd" shot.png`)
	assert.Contains(t, s, `POSIX file "/tmp/my \"odd\" shot.png"`)
}

func TestPowerShellWriterMissingFileSkipsScript(t *testing.T) {
	r := processtest.New().On("powershell", processtest.Exit(0, ""))
	w := New("windows", BackendNative, r)

	err := w.CopyImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))
	assert.Empty(t, r.Calls("powershell"))
}

func TestPowerShellWriterRejectsDirectory(t *testing.T) {
	r := processtest.New().On("powershell", processtest.Exit(0, ""))
	err := New("windows", BackendNative, r).CopyImage(context.Background(), t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Path is not a file")
	assert.Empty(t, r.Calls("powershell"))
}

func TestPowerShellWriterCanonicalisesAndEscapes(t *testing.T) {
	p := fixture(t, "it's.png")
	r := processtest.New().On("powershell", processtest.Exit(0, ""))

	require.NoError(t, New("windows", BackendNative, r).CopyImage(context.Background(), p))
	calls := r.Calls("powershell")
	require.Len(t, calls, 1)
	args := calls[0].Args
	assert.Equal(t, []string{"-NoProfile", "-NonInteractive", "-Command"}, args[:3])

	canonical, err := filepath.EvalSymlinks(p)
	require.NoError(t, err)
	assert.Contains(t, args[3], "FromFile('"+strings.ReplaceAll(canonical, "'", "''")+"')")
	assert.Contains(t, args[3], "[System.Windows.Forms.Clipboard]::SetImage($image)")
}

func TestPowerShellWriterFailure(t *testing.T) {
	p := fixture(t, "shot.png")
	r := processtest.New().On("powershell", processtest.Exit(1, "Exception calling SetImage"))

	err := New("windows", BackendNative, r).CopyImage(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to copy image to clipboard: Exception calling SetImage")
}

func TestPNGBytesReencodes(t *testing.T) {
	p := fixture(t, "shot.png")
	data, err := pngBytes(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))

	jp := filepath.Join(t.TempDir(), "shot.jpg")
	f, err := os.Create(jp)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))
	require.NoError(t, f.Close())

	data, err = pngBytes(jp)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))
}

func TestLibraryWriter(t *testing.T) {
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" {
		t.Skip("no X display available")
	}
	// Needs clipboard access; failures are only logged, as for text writes.
	if err := New(runtime.GOOS, BackendLibrary, nil).CopyImage(context.Background(), fixture(t, "shot.png")); err != nil {
		t.Logf("Failed to write image to clipboard: %v", err)
	}
}
