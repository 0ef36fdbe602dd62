package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// PlainFormatter renders "LEVEL timestamp message key=value...".
type PlainFormatter struct {
	TimestampFormat string
	LevelDesc       []string
}

// NewPlainFormatter returns the formatter used by every command.
func NewPlainFormatter() *PlainFormatter {
	return &PlainFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		LevelDesc:       []string{"PANIC", "FATAL", "ERROR", "WARN ", "INFO ", "DEBUG", "TRACE"},
	}
}

func (f *PlainFormatter) Format(entry *log.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if int(entry.Level) < len(f.LevelDesc) {
		level = f.LevelDesc[entry.Level]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", level, entry.Time.Format(f.TimestampFormat), entry.Message)
	for k, v := range entry.Data {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// Setup configures the package-level logrus logger. An empty file logs to
// stderr only; otherwise lines go to both. The returned closer releases the file.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(NewPlainFormatter())

	if file == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}
