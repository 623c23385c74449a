package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	isTerminal           = isatty.IsTerminal(os.Stdout.Fd())
	Output     io.Writer = os.Stderr

	mu   sync.RWMutex
	file io.Writer
)

func init() {
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05"
}

func New(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	var out io.Writer = Output
	if isTerminal {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	if file != nil {
		out = zerolog.MultiLevelWriter(out, file)
	}
	return zerolog.New(out).
		With().
		Timestamp().
		Str("component", name).
		Logger()
}

// SetFile tees loggers created afterwards into files rotated by pattern
// (strftime syntax). An empty pattern disables file output.
func SetFile(pattern string, maxAge, rotationTime time.Duration) (io.Closer, error) {
	mu.Lock()
	defer mu.Unlock()

	if pattern == "" {
		file = nil
		return nopCloser{}, nil
	}
	rl, err := rotatelogs.New(pattern,
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", pattern, err)
	}
	file = rl
	return rl, nil
}

func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
