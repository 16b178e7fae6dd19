// Package logger provides the radar's date-rotated file logging with an
// optional asynchronous Elasticsearch shipper.
package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	defaultLogger *Logger
	once          sync.Once
)

// Logger tees log output to stdout and a per-day log file, and optionally
// ships each line to Elasticsearch.
type Logger struct {
	logDir      string
	currentDate string
	logFile     *os.File
	es          *esWriter
	mu          sync.Mutex
}

// InitLogger initializes the process-wide logger and redirects the standard
// log package's output through it.
func InitLogger(logDir string, esCfg *ESConfig) error {
	var err error
	once.Do(func() {
		defaultLogger, err = NewLogger(logDir, esCfg)
		if err != nil {
			return
		}
		log.SetOutput(defaultLogger)
		log.SetFlags(log.LstdFlags)
	})
	return err
}

// GetLogger returns the default logger instance.
func GetLogger() *Logger {
	return defaultLogger
}

// NewLogger creates a logger writing into logDir, one file per day.
func NewLogger(logDir string, esCfg *ESConfig) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	l := &Logger{logDir: logDir}
	if err := l.rotateIfNeeded(); err != nil {
		return nil, err
	}

	if esCfg != nil && esCfg.Enabled {
		es, err := newESWriter(esCfg)
		if err != nil {
			// Log shipping is best-effort; file logging continues without it.
			fmt.Fprintf(os.Stderr, "elasticsearch log shipping disabled: %v\n", err)
		} else {
			l.es = es
		}
	}

	return l, nil
}

// rotateIfNeeded swaps to a new log file when the date changes.
func (l *Logger) rotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := time.Now().Format("20060102")
	if l.currentDate == today && l.logFile != nil {
		return nil
	}

	if l.logFile != nil {
		l.logFile.Close()
	}

	name := filepath.Join(l.logDir, fmt.Sprintf("%s.log", today))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l.logFile = f
	l.currentDate = today
	return nil
}

// Write implements io.Writer for log.SetOutput.
func (l *Logger) Write(p []byte) (int, error) {
	if err := l.rotateIfNeeded(); err != nil {
		// If rotation fails, still write to stdout.
		return os.Stdout.Write(p)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := os.Stdout.Write(p)
	if err != nil {
		return n, err
	}
	if l.logFile != nil {
		if _, err := l.logFile.Write(p); err != nil {
			return n, err
		}
	}
	if l.es != nil {
		l.es.Write(p)
	}
	return n, nil
}

// Close flushes the Elasticsearch shipper and closes the current log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.es != nil {
		l.es.Close()
	}
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}
