package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"better-shot/src/clipboard"
)

const (
	ConfigPathEnvVar      = "BETTER_SHOT"
	DefaultFilenamePrefix = "bettershot"
	DefaultCapturePrefix  = "screenshot"
	DefaultPortStart      = 49600
	DefaultPortEnd        = 49650
)

type LoadOptions struct {
	SaveDirOverride          string
	ClipboardBackendOverride string
}

type Config struct {
	SaveDir           string
	CopyToClipboard   bool
	EnableFileLogging bool
	PlaySound         bool
	FilenamePrefix    string
	CapturePrefix     string
	ClipboardBackend  string
	Workers           int
	PortStart         int
	PortEnd           int
	GOOS              string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use BETTER_SHOT env var as a path to a config file
	// Variables already present in the environment win over the file.
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	start, end := resolvePortRange()

	cfg := &Config{
		SaveDir:           strings.TrimSpace(os.Getenv("SAVE_DIR")),
		CopyToClipboard:   getEnvBool("COPY_TO_CLIPBOARD", false),
		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", false),
		PlaySound:         getEnvBool("PLAY_SOUND", true),
		FilenamePrefix:    getEnvWithDefault("FILENAME_PREFIX", DefaultFilenamePrefix),
		CapturePrefix:     getEnvWithDefault("CAPTURE_PREFIX", DefaultCapturePrefix),
		ClipboardBackend:  resolveClipboardBackend(os.Getenv("CLIPBOARD_BACKEND")),
		Workers:           getEnvInt("WORKERS", runtime.NumCPU()),
		PortStart:         start,
		PortEnd:           end,
		GOOS:              runtime.GOOS,
	}

	if override := strings.TrimSpace(opts.SaveDirOverride); override != "" {
		cfg.SaveDir = override
	}
	if override := strings.TrimSpace(opts.ClipboardBackendOverride); override != "" {
		cfg.ClipboardBackend = resolveClipboardBackend(override)
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// resolvePortRange reads SINGLEINSTANCE_PORT_START/END (inclusive), clamps to
// [1024, 65535] and swaps a reversed range.
func resolvePortRange() (int, int) {
	start := getEnvInt("SINGLEINSTANCE_PORT_START", DefaultPortStart)
	end := getEnvInt("SINGLEINSTANCE_PORT_END", DefaultPortEnd)
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func resolveClipboardBackend(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case clipboard.BackendLibrary, "lib":
		return clipboard.BackendLibrary
	default:
		return clipboard.BackendNative
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
