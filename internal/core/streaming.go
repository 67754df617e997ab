package core

// streaming.go provides streaming readers applied to the CSV input before
// parsing, in this order (innermost first):
//
//   - CountingReader: tracks raw bytes read for the run log
//   - NewDecodingReader: converts legacy single-byte charsets to UTF-8
//   - SkipBOM: removes a UTF-8 BOM (0xEF 0xBB 0xBF) from Windows files
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// Use WrapForStreaming to apply all of them.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a CountingReader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// charsets maps accepted encoding names to their decoders. UTF-8 needs none.
var charsets = map[string]*charmap.Charmap{
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"windows-1251": charmap.Windows1251,
}

// NewDecodingReader returns r decoded from the named charset to UTF-8.
// "", "utf-8" and "utf8" return r unchanged.
func NewDecodingReader(r io.Reader, name string) (io.Reader, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return r, nil
	}

	cm, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return transform.NewReader(r, cm.NewDecoder()), nil
}

// SkipBOM returns a reader over r without a leading UTF-8 BOM.
func SkipBOM(r io.Reader) *bufio.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces every byte that is not part of a valid UTF-8
// sequence with '?'. Valid input passes through unchanged.
type UTF8Sanitizer struct {
	src     io.RuneReader
	pending []byte // encoded rune that did not fit the caller's buffer
	err     error  // deferred until pending output is drained
}

// NewUTF8Sanitizer creates a UTF8Sanitizer over r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(r)
	}
	return &UTF8Sanitizer{src: rr}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	var buf [utf8.UTFMax]byte
	for n < len(p) && s.err == nil {
		r, size, err := s.src.ReadRune()
		if err != nil {
			s.err = err
			break
		}

		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pending = append([]byte(nil), buf[c:w]...)
		}
	}

	if n > 0 {
		return n, nil
	}
	return 0, s.err
}

// WrapForStreaming decodes the named charset, strips a BOM, and sanitizes
// UTF-8. The returned CountingReader sits under all of them, so BytesRead is
// the raw input size consumed.
func WrapForStreaming(r io.Reader, charset string) (io.Reader, *CountingReader, error) {
	counter := NewCountingReader(r)

	decoded, err := NewDecodingReader(counter, charset)
	if err != nil {
		return nil, nil, err
	}

	return NewUTF8Sanitizer(SkipBOM(decoded)), counter, nil
}
