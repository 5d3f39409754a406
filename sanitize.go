package folio

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxLineSize bounds one inbound runner line.
	DefaultMaxLineSize = 4 << 20
	// EnvMaxLineSize overrides DefaultMaxLineSize.
	EnvMaxLineSize = "FOLIO_MAX_LINE_SIZE"
)

var (
	ErrLineTooLarge = errors.New("line exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("line contains invalid UTF-8 sequences")
)

// SanitizeLine rejects oversized or non UTF-8 input and strips raw control
// characters other than newline, tab and carriage return. Escaped control
// characters inside JSON strings are plain text here and survive.
func SanitizeLine(line string, limit int) (string, error) {
	if limit <= 0 {
		limit = maxLineSize()
	}
	if len(line) > limit {
		// Rejected, never truncated: a cut message would decode differently.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrLineTooLarge, len(line), limit)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range line {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return line, nil
	}

	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxLineSize() int {
	if val := os.Getenv(EnvMaxLineSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxLineSize
}
