package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel represents the logging level
type LogLevel int32

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var levelNames = [...]string{"error", "warn", "info", "debug"}

func (l LogLevel) String() string {
	if l < LogLevelError || l > LogLevelDebug {
		return fmt.Sprintf("LogLevel(%d)", int32(l))
	}
	return levelNames[l]
}

// ParseLogLevel maps "error", "warn", "info" or "debug" to a level
func ParseLogLevel(name string) (LogLevel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i), nil
		}
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q (want error, warn, info or debug)", name)
}

// The level is read from background saves and server handlers.
var (
	logLevel atomic.Int32
	logger   = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	logLevel.Store(int32(LogLevelInfo))
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logLevel.Store(int32(level))
}

// CurrentLogLevel returns the global log level
func CurrentLogLevel() LogLevel {
	return LogLevel(logLevel.Load())
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output, mainly for tests
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

func logf(level LogLevel, format string, args ...interface{}) {
	if CurrentLogLevel() < level {
		return
	}
	logger.Printf("["+strings.ToUpper(level.String())+"] "+format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logf(LogLevelError, format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logf(LogLevelWarn, format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logf(LogLevelInfo, format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logf(LogLevelDebug, format, args...)
}
