package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the rotating log file written inside the log directory.
const LogFileName = "burndown-mcp.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// Stdout is left alone because the MCP transport owns it.
func Init(verbose bool) {
	// Init runs before config.Load, so LOGS_FOLDER may only exist in the binary's .env.
	exePath, exeErr := os.Executable()
	if exeErr == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	exeDir := ""
	if exeErr == nil {
		exeDir = filepath.Dir(exePath)
	}
	logDir := resolveLogDir(os.Getenv("LOGS_FOLDER"), os.Getenv("DATA_PATH"), exeDir)

	var out io.Writer = consoleWriter
	if err := ensureWritable(logDir); err != nil {
		// Console-only logging still serves the process.
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	} else {
		out = zerolog.MultiLevelWriter(consoleWriter, newFileWriter(logDir))
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger()
}

// resolveLogDir picks LOGS_FOLDER, then DATA_PATH/logs, then <binary dir>/logs, then ./logs.
func resolveLogDir(logsFolder, dataPath, exeDir string) string {
	switch {
	case logsFolder != "":
		return logsFolder
	case dataPath != "":
		return filepath.Join(dataPath, "logs")
	case exeDir != "":
		return filepath.Join(exeDir, "logs")
	default:
		return "logs"
	}
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}

func newFileWriter(dir string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFileName),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}
}
