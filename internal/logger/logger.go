// Package logger builds the zerolog logger shared by the server components.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder collects the output options before the logger is made.
type Builder struct {
	writer io.Writer
	path   string
	level  string
}

// New starts a logger builder writing to stdout at info level.
func New() *Builder {
	return &Builder{writer: os.Stdout, level: "info"}
}

// FromPath appends log lines to the file at path instead of the writer.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// FromWriter sends log lines to w.
func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// WithLevel sets the minimum level by name (debug, info, warn, error).
// Unknown names fall back to info.
func (b *Builder) WithLevel(level string) *Builder {
	b.level = level
	return b
}

// Make opens the log file if one was requested and returns the logger. The returned
// closer releases the file and is a no-op otherwise.
func (b *Builder) Make() (zerolog.Logger, func() error, error) {
	writer := b.writer
	closer := func() error { return nil }
	if b.path != "" {
		file, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		writer = zerolog.SyncWriter(file)
		closer = file.Close
	}

	level, err := zerolog.ParseLevel(b.level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), closer, nil
}
