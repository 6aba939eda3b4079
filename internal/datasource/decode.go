package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Auto asks Decode to detect the encoding.
const Auto = "auto"

// Text is the decoded content of a source.
type Text struct {
	Source   string
	Content  string
	Encoding string
	Bytes    int
}

// ReadText reads src to completion and decodes it to UTF-8. enc is an
// encoding label ("utf-8", "windows-1250", "iso-8859-2", ...) or Auto/"".
func ReadText(ctx context.Context, src Source, enc string) (Text, error) {
	name := NameOf(src)
	rc, err := src.Open(ctx)
	if err != nil {
		return Text{}, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return Text{}, fmt.Errorf("read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return Text{}, err
	}

	content, used, err := Decode(raw, enc)
	if err != nil {
		return Text{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return Text{Source: name, Content: content, Encoding: used, Bytes: len(raw)}, nil
}

var (
	utf16LE = []byte{0xFF, 0xFE}
	utf16BE = []byte{0xFE, 0xFF}
)

// Decode converts raw to a UTF-8 string and reports the encoding used.
//
// In auto mode a UTF-16 byte order mark selects UTF-16, valid UTF-8 is
// returned unchanged (a UTF-8 BOM is kept for the normalizer), and anything
// else is decoded with the charset chardet guesses, falling back to
// windows-1252.
func Decode(raw []byte, enc string) (string, string, error) {
	enc = strings.ToLower(strings.TrimSpace(enc))
	if enc != "" && enc != Auto {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return "", "", fmt.Errorf("unknown encoding %q: %w", enc, err)
		}
		name, _ := htmlindex.Name(e)
		if name == "utf-8" {
			return string(raw), name, nil
		}
		s, err := decodeWith(raw, e)
		return s, name, err
	}

	switch {
	case bytes.HasPrefix(raw, utf16LE), bytes.HasPrefix(raw, utf16BE):
		e := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
		s, err := decodeWith(raw, e)
		if bytes.HasPrefix(raw, utf16BE) {
			return s, "utf-16be", err
		}
		return s, "utf-16le", err
	case utf8.Valid(raw):
		return string(raw), "utf-8", nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(raw); err == nil && res != nil {
		if e, err := htmlindex.Get(res.Charset); err == nil {
			name, _ := htmlindex.Name(e)
			if name != "utf-8" {
				if s, err := decodeWith(raw, e); err == nil {
					return s, name, nil
				}
			}
		}
	}
	s, err := decodeWith(raw, charmap.Windows1252)
	return s, "windows-1252", err
}

func decodeWith(raw []byte, e encoding.Encoding) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), e.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
