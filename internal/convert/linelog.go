// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog"
)

// lineLogger is an io.Writer that logs every complete line written to it.
// exec copies each stream from its own goroutine, so one lineLogger is
// only ever written by a single goroutine.
type lineLogger struct {
	log    zerolog.Logger
	level  zerolog.Level
	stream string
	buf    []byte
}

func newLineLogger(log zerolog.Logger, level zerolog.Level, stream string) *lineLogger {
	return &lineLogger{log: log, level: level, stream: stream}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.emit(l.buf[:i])
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs a trailing line that was not newline-terminated.
func (l *lineLogger) Flush() {
	if len(l.buf) > 0 {
		l.emit(l.buf)
		l.buf = nil
	}
}

func (l *lineLogger) emit(b []byte) {
	line := strings.TrimRight(string(b), "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	l.log.WithLevel(l.level).Str("stream", l.stream).Msg(line)
}
