package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"burndown-mcp/internal/burndown"
	"burndown-mcp/internal/jira"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira jira.Config

	// Burndown defaults
	Mode          burndown.Mode
	Location      *time.Location
	DefaultBoards []int

	DataPath            string
	LogDir              string
	SnapshotDir         string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	exeDir := executableDir()
	loadDotenv(exeDir)

	dataPath, err := resolveDataPath(os.Getenv("DATA_PATH"), exeDir)
	if err != nil {
		return nil, err
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	snapshotDir := filepath.Join(dataPath, "snapshots")
	for _, dir := range []string{logDir, snapshotDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}

	zoneName := getEnv("BURNDOWN_TIMEZONE", "UTC")
	location, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid BURNDOWN_TIMEZONE %q: %w", zoneName, err)
	}

	mode, err := burndown.ParseMode(getEnv("BURNDOWN_MODE", string(burndown.ModeOriginal)))
	if err != nil {
		log.Warn().Err(err).Msg("Invalid BURNDOWN_MODE, using original")
		mode = burndown.ModeOriginal
	}

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:           strings.TrimRight(getEnv("JIRA_URL", ""), "/"),
			Token:             getEnv("JIRA_TOKEN", ""),
			Email:             getEnv("JIRA_EMAIL", ""),
			APIToken:          getEnv("JIRA_API_TOKEN", ""),
			XsrfToken:         getEnv("JIRA_XSRF_TOKEN", ""),
			SessionID:         getEnv("JIRA_SESSION_ID", ""),
			RememberMe:        getEnv("JIRA_REMEMBERME_COOKIE", ""),
			GCILB:             getEnv("JIRA_GCILB", ""),
			GCLB:              getEnv("JIRA_GCLB", ""),
			RequestDelay:      getEnvMillis("JIRA_REQUEST_DELAY_MS", 250),
			MaxRetries:        getEnvInt("JIRA_MAX_RETRIES", 3),
			WorklogBatchSize:  getEnvInt("JIRA_WORKLOG_BATCH_SIZE", 5),
			WorklogBatchPause: getEnvMillis("JIRA_WORKLOG_BATCH_PAUSE_MS", 200),
		},
		Mode:                mode,
		Location:            location,
		DefaultBoards:       ParseBoardIDs(getEnv("BURNDOWN_BOARDS", "")),
		DataPath:            dataPath,
		LogDir:              logDir,
		SnapshotDir:         snapshotDir,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	if cfg.Jira.BaseURL == "" {
		log.Warn().Msg("JIRA_URL is not set; only offline snapshots can be served")
	}
	return cfg, nil
}

// executableDir is the directory of the running binary, or "" when it cannot be determined.
func executableDir() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exePath)
}

// loadDotenv reads .env beside the binary, then the one in the working directory. godotenv never
// overrides a variable that is already set, so the process environment wins over both files and
// the binary's file wins over the working directory's.
func loadDotenv(exeDir string) {
	var files []string
	if exeDir != "" {
		files = append(files, filepath.Join(exeDir, ".env"))
	}
	files = append(files, ".env")

	for _, path := range files {
		err := godotenv.Load(path)
		switch {
		case err == nil:
			log.Debug().Str("path", path).Msg("Loaded .env file")
		case errors.Is(err, fs.ErrNotExist):
			log.Debug().Str("path", path).Msg("No .env file")
		default:
			log.Warn().Err(err).Str("path", path).Msg("Failed to read .env file")
		}
	}
}

// resolveDataPath returns DATA_PATH, else the binary's directory, else the working directory.
// An existing path that is not a directory is an error.
func resolveDataPath(value, exeDir string) (string, error) {
	dataPath := strings.TrimSpace(value)
	if dataPath == "" {
		dataPath = exeDir
	}
	if dataPath == "" {
		dataPath = "."
	}
	dataPath = filepath.Clean(dataPath)

	info, err := os.Stat(dataPath)
	if err == nil && !info.IsDir() {
		return "", fmt.Errorf("DATA_PATH %q is not a directory", dataPath)
	}
	return dataPath, nil
}

// ParseBoardIDs reads a comma-separated list of board ids, skipping invalid entries.
func ParseBoardIDs(s string) []int {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			log.Warn().Str("value", part).Msg("Ignoring invalid board id")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid boolean, using default")
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Int("default", fallback).Msg("Invalid integer, using default")
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}
