package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultMaxFileSize = 100 * 1024 * 1024

var numberedLogFile = regexp.MustCompile(`^app-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger is an io.Writer over weekly log files (app-YYYY-Www.log).
// A file that reaches maxFileSize is continued in app-YYYY-Www_NN.log.
// Files older than the retention period are removed once a day.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize int64

	cancel      context.CancelFunc
	cleanupDone chan struct{}
	closeOnce   sync.Once
}

// NewRotatingLogger creates a rotating logger with the default 100MB size cap.
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger. A maxFileSize of
// zero disables size rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
	}
}

// getWeekKey returns the ISO week of t as YYYY-Www.
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write implements io.Writer.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	full := rl.maxFileSize > 0 && rl.currentFile != nil && rl.currentSize > 0 &&
		rl.currentSize+int64(len(p)) > rl.maxFileSize

	if rl.currentFile == nil || rl.currentWeek != week || full {
		if err := rl.doRotate(week, full); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

// doRotate switches to the file for week. Caller holds mu.
func (rl *RotatingLogger) doRotate(week string, sizeExceeded bool) error {
	if rl.currentFile != nil {
		_ = rl.currentFile.Close()
		rl.currentFile = nil
	}

	name := rl.pickFileName(week, sizeExceeded)
	path := filepath.Join(rl.logDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	rl.currentFile = file
	rl.currentWeek = week
	rl.currentSize = size
	return nil
}

// pickFileName returns the base file of week while it has room, otherwise
// the highest numbered continuation with room, otherwise the next number.
func (rl *RotatingLogger) pickFileName(week string, sizeExceeded bool) string {
	base := "app-" + week + ".log"

	if !sizeExceeded {
		info, err := os.Stat(filepath.Join(rl.logDir, base))
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			return base
		}
	}

	highest, highestSize := 0, int64(0)
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, "app-"+week+"_??.log"))
	for _, match := range matches {
		sub := numberedLogFile.FindStringSubmatch(filepath.Base(match))
		if sub == nil {
			continue
		}
		num, _ := strconv.Atoi(sub[1])
		if num > highest {
			highest = num
			highestSize = 0
			if info, err := os.Stat(match); err == nil {
				highestSize = info.Size()
			}
		}
	}

	if highest > 0 && !sizeExceeded && highestSize < rl.maxFileSize {
		return fmt.Sprintf("app-%s_%02d.log", week, highest)
	}
	return fmt.Sprintf("app-%s_%02d.log", week, highest+1)
}

// cleanupOldLogs removes app-*.log files last modified before the retention period.
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rl.logDir, name)) == nil {
			deleted++
		}
	}
	return deleted, nil
}

// startCleanup runs cleanupOldLogs every interval until Close.
func (rl *RotatingLogger) startCleanup(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	rl.cancel = cancel
	rl.cleanupDone = make(chan struct{})

	go func() {
		defer close(rl.cleanupDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// console only, the file handler may be the one being cleaned
				if n, err := rl.cleanupOldLogs(); err != nil {
					fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
				} else if n > 0 {
					fmt.Printf("Cleaned up %d old log files\n", n)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and closes the current file.
func (rl *RotatingLogger) Close() error {
	var err error
	rl.closeOnce.Do(func() {
		if rl.cancel != nil {
			rl.cancel()
			<-rl.cleanupDone
		}

		rl.mu.Lock()
		defer rl.mu.Unlock()
		if rl.currentFile != nil {
			err = rl.currentFile.Close()
			rl.currentFile = nil
		}
	})
	return err
}
