// Package source reads input text and transcodes it to UTF-8 before parsing.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Sample is parsed when no input is supplied. Its unbalanced braces exercise
// the grammar's error recovery.
const Sample = `[1, 2, {{"a": 3, "b": 4}]`

// DefaultEncoding leaves the input bytes untouched.
const DefaultEncoding = "utf-8"

// ErrUnknownEncoding is returned for encoding names not in Encodings.
var ErrUnknownEncoding = errors.New("source: unknown encoding")

// encodings maps accepted names to decoders. A nil entry means passthrough.
var encodings = map[string]encoding.Encoding{
	"utf-8":        nil,
	"utf8":         nil,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"utf-16":       unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM),
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
}

// Encodings returns the accepted encoding names in sorted order.
func Encodings() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, ok := encodings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownEncoding, name, strings.Join(Encodings(), ", "))
	}
	return enc, nil
}

// Read reads all of r and converts it from the named encoding to UTF-8.
// UTF-8 input is returned byte for byte, invalid sequences included.
func Read(r io.Reader, enc string) ([]byte, error) {
	e, err := lookup(enc)
	if err != nil {
		return nil, err
	}
	if e != nil {
		r = transform.NewReader(r, e.NewDecoder())
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: reading %s input: %w", enc, err)
	}
	return data, nil
}

// Decode converts b from the named encoding to UTF-8.
func Decode(b []byte, enc string) ([]byte, error) {
	return Read(bytes.NewReader(b), enc)
}

// Load returns the source text selected by the CLI inputs: an explicit
// literal wins, then a path ("-" is stdin), and finally Sample.
func Load(literal, path, enc string, stdin io.Reader) ([]byte, error) {
	switch {
	case literal != "":
		return Decode([]byte(literal), enc)
	case path == "-":
		return Read(stdin, enc)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		defer f.Close()
		return Read(f, enc)
	default:
		return []byte(Sample), nil
	}
}
