package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger is a small leveled logger that writes key/value pairs to stdout.
type Logger struct {
	*log.Logger
}

// NewLogger creates a new Logger.
func NewLogger() *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log("INFO", msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log("WARN", msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log("ERROR", msg, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log("DEBUG", msg, args...)
}

func (l *Logger) log(level, msg string, args ...interface{}) {
	if len(args) == 0 {
		l.Printf("%s: %s", level, msg)
		return
	}
	kv := ""
	for i := 0; i+1 < len(args); i += 2 {
		kv += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	if len(args)%2 != 0 {
		kv += fmt.Sprintf(" %v", args[len(args)-1])
	}
	l.Printf("%s: %s%s", level, msg, kv)
}
