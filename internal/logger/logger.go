// Package logger provides the process-wide leveled logger used by the
// coverage pipeline. Components log through the package functions; the level
// and destination are configured once at startup.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents the logging level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
	FATAL: "\033[35m", // Magenta
}

const colorReset = "\033[0m"

// Logger is the main logger instance.
type Logger struct {
	mu          sync.Mutex
	level       Level
	output      io.Writer
	colorEnable bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger with the specified level.
func Init(levelStr string) {
	once.Do(func() {
		defaultLogger = &Logger{
			level:       parseLevel(levelStr),
			output:      os.Stderr,
			colorEnable: true,
		}
	})
}

// SetLevel sets the logging level for the default logger.
func SetLevel(levelStr string) {
	ensureInit()
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = parseLevel(levelStr)
}

// SetOutput sets the output destination for the default logger.
func SetOutput(w io.Writer) {
	ensureInit()
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
}

// SetColorEnable enables or disables color output.
func SetColorEnable(enable bool) {
	ensureInit()
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.colorEnable = enable
}

func ensureInit() {
	if defaultLogger == nil {
		Init("info")
	}
}

// parseLevel converts a string to a Level.
func parseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// log writes a log message if the level is sufficient.
func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	levelName := levelNames[level]

	var output string
	if l.colorEnable {
		output = fmt.Sprintf("%s[%s]%s %s", levelColors[level], levelName, colorReset, message)
	} else {
		output = fmt.Sprintf("[%s] %s", levelName, message)
	}

	log.New(l.output, "", log.LstdFlags).Println(output)

	if level == FATAL {
		os.Exit(1)
	}
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	ensureInit()
	defaultLogger.log(DEBUG, format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	ensureInit()
	defaultLogger.log(INFO, format, args...)
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	ensureInit()
	defaultLogger.log(WARN, format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	ensureInit()
	defaultLogger.log(ERROR, format, args...)
}

// Fatalf logs a fatal message and exits.
func Fatalf(format string, args ...interface{}) {
	ensureInit()
	defaultLogger.log(FATAL, format, args...)
}
