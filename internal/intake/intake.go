// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intake validates and stores uploaded PDFs before they enter the
// conversion pipeline.
package intake

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxBytes is the upload size limit (50MB).
	DefaultMaxBytes int64 = 50 << 20

	// pdfMIME is the only accepted content type.
	pdfMIME = "application/pdf"
)

// Kind classifies an intake failure.
type Kind string

const (
	KindMissingFile     Kind = "missing_file"
	KindUnsupportedType Kind = "unsupported_type"
	KindTooLarge        Kind = "too_large"
)

// IntakeError is a client error: nothing was stored.
type IntakeError struct {
	Kind Kind
	Msg  string
}

func (e *IntakeError) Error() string { return e.Msg }

// Store writes uploads into Dir.
type Store struct {
	Dir      string
	MaxBytes int64
	now      func() time.Time
}

// NewStore returns a Store for dir. maxBytes <= 0 selects DefaultMaxBytes.
func NewStore(dir string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{Dir: dir, MaxBytes: maxBytes, now: time.Now}
}

// CheckType rejects content types other than application/pdf. Parameters
// such as charset are ignored.
func CheckType(contentType string) error {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt != pdfMIME {
		return &IntakeError{Kind: KindUnsupportedType, Msg: fmt.Sprintf("only PDF files are allowed (got %q)", contentType)}
	}
	return nil
}

// Save validates contentType, copies r into a uniquely named file under
// Dir and returns its path. Content beyond MaxBytes aborts the copy and
// removes the partial file.
func (s *Store) Save(r io.Reader, originalName, contentType string) (string, error) {
	if r == nil || strings.TrimSpace(originalName) == "" {
		return "", &IntakeError{Kind: KindMissingFile, Msg: "no PDF uploaded"}
	}
	if err := CheckType(contentType); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating uploads dir: %w", err)
	}

	now := s.now
	if now == nil {
		now = time.Now
	}
	path := filepath.Join(s.Dir, UniqueName(originalName, now()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating upload %s: %w", path, err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(r, s.MaxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("writing upload %s: %w", path, copyErr)
	case closeErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("closing upload %s: %w", path, closeErr)
	case n > s.MaxBytes:
		os.Remove(path)
		return "", &IntakeError{Kind: KindTooLarge, Msg: fmt.Sprintf("file exceeds the %d byte limit", s.MaxBytes)}
	case n == 0:
		os.Remove(path)
		return "", &IntakeError{Kind: KindMissingFile, Msg: "uploaded file is empty"}
	}
	return path, nil
}

// UniqueName builds the stored file name: upload time in milliseconds, a
// random component, and the sanitized original name. The random part keeps
// two uploads of the same file in the same millisecond apart.
func UniqueName(originalName string, now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), id, SafeName(originalName))
}

// SafeName reduces a client-supplied file name to its base name with path
// separators and control characters removed.
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			continue
		case r == '/' || r == ':':
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" || out == "." || out == ".." {
		return "upload.pdf"
	}
	return out
}

// IsIntakeError reports whether err is a client-side intake failure and
// returns it.
func IsIntakeError(err error) (*IntakeError, bool) {
	var ie *IntakeError
	ok := errors.As(err, &ie)
	return ie, ok
}
