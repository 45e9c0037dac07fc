package main

import (
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"
)

// AppLogger provides gated diagnostic logging for the server and tests.
// Everything is off by default; the standard logger handles normal output.
type AppLogger struct {
	outputDir string
	logWS     bool
	logGame   bool
	debug     bool
	wsLog     *os.File
	gameLog   *os.File

	mu             sync.Mutex
	wsMessageCount int
	gameEventCount int
}

// Global application logger (used by server)
var appLogger *AppLogger

// LogConfig holds logging configuration
type LogConfig struct {
	OutputDir string
	LogWS     bool
	LogGame   bool
	Debug     bool
}

// NewAppLogger creates a new application logger
func NewAppLogger(config LogConfig) (*AppLogger, error) {
	al := &AppLogger{
		outputDir: config.OutputDir,
		logWS:     config.LogWS,
		logGame:   config.LogGame,
		debug:     config.Debug,
	}

	if al.outputDir == "" {
		return al, nil // No file logging, just in-memory state
	}

	var err error
	if al.logWS {
		path := fmt.Sprintf("%s/websocket.log", al.outputDir)
		al.wsLog, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open WebSocket log: %w", err)
		}
	}
	if al.logGame {
		path := fmt.Sprintf("%s/game_events.log", al.outputDir)
		al.gameLog, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open game event log: %w", err)
		}
	}

	return al, nil
}

// InitAppLogger initializes the global application logger
func InitAppLogger(config LogConfig) error {
	var err error
	appLogger, err = NewAppLogger(config)
	return err
}

// GetAppLogger returns the global application logger
func GetAppLogger() *AppLogger {
	return appLogger
}

// Close closes all open log files
func (al *AppLogger) Close() {
	if al.wsLog != nil {
		al.wsLog.Close()
	}
	if al.gameLog != nil {
		al.gameLog.Close()
	}
}

// LogWebSocket logs a WebSocket message
func (al *AppLogger) LogWebSocket(direction, account, message string) {
	if !al.logWS || al.wsLog == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	al.wsMessageCount++
	timestamp := time.Now().Format("15:04:05.000")

	fmt.Fprintf(al.wsLog, "[%s] #%d %s [%s]: %s\n",
		timestamp, al.wsMessageCount, direction, account, message)
}

// LogGame logs one game event (announcements, private messages, decisions)
func (al *AppLogger) LogGame(kind, detail string) {
	if !al.logGame || al.gameLog == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	al.gameEventCount++
	timestamp := time.Now().Format("15:04:05.000")

	fmt.Fprintf(al.gameLog, "[%s] #%d %s: %s\n", timestamp, al.gameEventCount, kind, detail)
}

// Debug logs a debug message if debug mode is enabled
func (al *AppLogger) Debug(format string, args ...any) {
	if !al.debug {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// IsEnabled returns true if any logging is enabled
func (al *AppLogger) IsEnabled() bool {
	return al.logWS || al.logGame || al.debug
}

// DebugLog forwards to the global logger when one is configured.
func DebugLog(format string, args ...any) {
	if appLogger != nil {
		appLogger.Debug(format, args...)
	}
}

// LogGameEvent forwards to the global logger when one is configured.
func LogGameEvent(kind, detail string) {
	if appLogger != nil {
		appLogger.LogGame(kind, detail)
	}
}

// LogWSMessage forwards to the global logger when one is configured.
func LogWSMessage(direction, account, message string) {
	if appLogger != nil {
		appLogger.LogWebSocket(direction, account, message)
	}
}

// ============================================================================
// Test-specific wrapper
// ============================================================================

// TestLogger wraps AppLogger for test use with testing.T integration
type TestLogger struct {
	*AppLogger
	t *testing.T
}

// NewTestLogger creates a test logger from environment variables
func NewTestLogger(t *testing.T) *TestLogger {
	al := &AppLogger{
		outputDir: os.Getenv("TEST_OUTPUT_DIR"),
		logWS:     os.Getenv("TEST_LOG_WS") == "1",
		logGame:   os.Getenv("TEST_LOG_GAME") == "1",
		debug:     os.Getenv("TEST_DEBUG") == "1",
	}

	if al.logWS {
		if path := os.Getenv("TEST_WS_LOG"); path != "" {
			f, err := os.OpenFile(path+"_"+t.Name(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err == nil {
				al.wsLog = f
			}
		}
	}
	if al.logGame {
		if path := os.Getenv("TEST_GAME_LOG"); path != "" {
			f, err := os.OpenFile(path+"_"+t.Name(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err == nil {
				al.gameLog = f
			}
		}
	}

	return &TestLogger{AppLogger: al, t: t}
}

// Debug logs a debug message using testing.T.Logf
func (tl *TestLogger) Debug(format string, args ...any) {
	if !tl.debug {
		return
	}
	tl.t.Logf("[DEBUG] "+format, args...)
}
