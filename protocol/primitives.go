package protocol

import (
	"bytes"
	"math"
	"strconv"
)

// cursor is a bounds-checked read position over a fully resident
// buffer. No method ever indexes past len(buf).
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// readFixed consumes exactly n bytes.
func (c *cursor) readFixed(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, newError(TruncatedInput, c.pos, "need %d bytes, %d left", n, c.remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// readTerminated consumes bytes up to and including the next NUL and
// returns them without the NUL.
func (c *cursor) readTerminated() (string, error) {
	i := bytes.IndexByte(c.buf[c.pos:], 0)
	if i < 0 {
		return "", newError(TruncatedInput, c.pos, "unterminated string")
	}
	s := string(c.buf[c.pos : c.pos+i])
	c.pos += i + 1
	return s, nil
}

func (c *cursor) peek() (byte, error) {
	if c.remaining() < 1 {
		return 0, newError(TruncatedInput, c.pos, "unexpected end of input")
	}
	return c.buf[c.pos], nil
}

// readSeconds reads a terminated hex timestamp and returns it in
// milliseconds.
func (c *cursor) readSeconds() (int64, error) {
	start := c.pos
	text, err := c.readTerminated()
	if err != nil {
		return 0, err
	}
	if text == "" {
		return 0, newError(MalformedNumber, start, "empty timestamp")
	}
	// ParseInt would accept a sign; the encoder never writes one.
	if text[0] == '+' || text[0] == '-' {
		return 0, newError(MalformedNumber, start, "signed timestamp %q", text)
	}
	sec, err := strconv.ParseInt(text, 16, 64)
	if err != nil {
		return 0, wrapError(MalformedNumber, start, err, "timestamp %q is not hexadecimal", text)
	}
	if sec > math.MaxInt64/1000 {
		return 0, newError(MalformedNumber, start, "timestamp %q out of range", text)
	}
	return sec * 1000, nil
}

// appendTerminated appends s and a NUL. s must not contain NUL.
func appendTerminated(b []byte, s string) []byte {
	b = append(b, s...)
	return append(b, 0)
}

// appendSeconds appends round(ms/1000) as a terminated lowercase hex
// string.
func appendSeconds(b []byte, ms int64) []byte {
	b = strconv.AppendInt(b, roundSeconds(ms), 16)
	return append(b, 0)
}

// roundSeconds rounds half away from zero for non-negative input,
// without overflowing near MaxInt64.
func roundSeconds(ms int64) int64 {
	sec := ms / 1000
	if ms%1000 >= 500 {
		sec++
	}
	return sec
}
