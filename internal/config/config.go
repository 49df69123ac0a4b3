package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// LibraryDir is the target root files are organized into.
	LibraryDir string `toml:"library_dir"`
	// DataDir holds the history log, hash cache, and lock files.
	DataDir string `toml:"data_dir"`
	// LogDir receives the shelve log file in addition to stdout.
	LogDir string `toml:"log_dir"`
}

// Scanner contains directory scanning configuration.
type Scanner struct {
	Recursive          bool     `toml:"recursive"`
	MaxDepth           int      `toml:"max_depth"`
	IgnorePatterns     []string `toml:"ignore_patterns"`
	ReadContent        bool     `toml:"read_content"`
	MaxContentSizeKiB  int      `toml:"max_content_size_kib"`
	FolderListDepth    int      `toml:"folder_list_depth"`
	FolderListMaxCount int      `toml:"folder_list_max_count"`
}

// Organizer contains move execution configuration.
type Organizer struct {
	// ConflictStrategy is one of rename, overwrite, skip.
	ConflictStrategy string `toml:"conflict_strategy"`
	// BackupOnOverwrite copies the existing destination aside before an
	// overwrite replaces it.
	BackupOnOverwrite bool `toml:"backup_on_overwrite"`
	// ConfidenceThreshold drops proposals the categorizer is unsure about.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// ChunkSize bounds how many files are sent to the categorizer per request.
	ChunkSize int `toml:"chunk_size"`
}

// Classifier contains connection settings for the AI categorization service.
type Classifier struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	TitleCaseFolders bool   `toml:"title_case_folders"`
}

// Watcher contains continuous-mode configuration.
type Watcher struct {
	Paths          []string `toml:"paths"`
	DebounceMs     int      `toml:"debounce_ms"`
	SettleMs       int      `toml:"settle_ms"`
	IgnorePatterns []string `toml:"ignore_patterns"`
}

// Duplicates contains duplicate detection configuration.
type Duplicates struct {
	// CacheEnabled persists content hashes keyed by path, size, and mtime so
	// repeated reports skip re-hashing unchanged files.
	CacheEnabled bool `toml:"cache_enabled"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shelve.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Scanner    Scanner    `toml:"scanner"`
	Organizer  Organizer  `toml:"organizer"`
	Classifier Classifier `toml:"classifier"`
	Watcher    Watcher    `toml:"watcher"`
	Duplicates Duplicates `toml:"duplicates"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/shelve/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved config path, whether or not it existed.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("shelve.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// clobber an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories shelve needs to operate. The
// library directory is created best-effort so config loading still succeeds
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// HistoryPath returns the on-disk location of the history log.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.json")
}

// HashCachePath returns the on-disk location of the duplicate hash cache.
func (c *Config) HashCachePath() string {
	return filepath.Join(c.Paths.DataDir, "hashes.db")
}

// LockPath returns the location of the watch-mode instance lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shelve.lock")
}

// LogFilePath returns the location of the persistent log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "shelve.log")
}

// MaxContentSize returns the preview byte cap in bytes.
func (c *Config) MaxContentSize() int64 {
	return int64(c.Scanner.MaxContentSizeKiB) * 1024
}

// ExpandPath resolves ~ prefixes and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
