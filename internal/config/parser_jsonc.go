package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	errUnclosedComment = errors.New("unterminated block comment in JSONC")
	errTrailingValue   = errors.New("multiple JSON values are not allowed")
)

// decodeJSONC blanks comments and trailing commas, then decodes strictly.
// Blanking keeps byte offsets stable so decode errors point at the original text.
func decodeJSONC(content string) (fileConfig, error) {
	clean, err := cleanJSONC([]byte(content))
	if err != nil {
		return fileConfig{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.DisallowUnknownFields()

	var payload fileConfig
	if err := dec.Decode(&payload); err != nil {
		return fileConfig{}, locateDecodeError(clean, err)
	}
	if err := expectEOF(dec); err != nil {
		return fileConfig{}, locateDecodeError(clean, err)
	}
	return payload, nil
}

type jsoncState int

const (
	stateCode jsoncState = iota
	stateString
	stateStringEscape
	stateLineComment
	stateBlockComment
)

// cleanJSONC returns a copy of src where comments and trailing commas are
// replaced by spaces. Newlines are kept.
func cleanJSONC(src []byte) ([]byte, error) {
	out := bytes.Clone(src)
	state := stateCode
	pendingComma := -1

	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch state {
		case stateString:
			switch ch {
			case '\\':
				state = stateStringEscape
			case '"':
				state = stateCode
			}
		case stateStringEscape:
			state = stateString
		case stateLineComment:
			if ch == '\n' || ch == '\r' {
				state = stateCode
				continue
			}
			out[i] = ' '
		case stateBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = stateCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}
		default:
			if ch == '/' && i+1 < len(out) && (out[i+1] == '/' || out[i+1] == '*') {
				state = stateLineComment
				if out[i+1] == '*' {
					state = stateBlockComment
				}
				out[i], out[i+1] = ' ', ' '
				i++
				continue
			}
			switch ch {
			case ' ', '\t', '\n', '\r':
				continue
			case '}', ']':
				if pendingComma >= 0 {
					out[pendingComma] = ' '
				}
			case '"':
				state = stateString
			}
			pendingComma = -1
			if ch == ',' {
				pendingComma = i
			}
		}
	}

	if state == stateBlockComment {
		return nil, errUnclosedComment
	}
	return out, nil
}

func expectEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errTrailingValue
	default:
		return err
	}
}

// locateDecodeError prefixes syntax and type errors with line and column.
func locateDecodeError(src []byte, err error) error {
	var offset int64 = -1
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	if offset < 0 {
		return err
	}
	pos := positionAt(src, offset)
	return fmt.Errorf("line %d column %d: %w", pos.Line, pos.Column, err)
}

// sourcePos is a 1-based line and column.
type sourcePos struct {
	Line   int
	Column int
}

// positionAt maps a decoder offset (bytes consumed) to the position of the
// last consumed byte.
func positionAt(src []byte, offset int64) sourcePos {
	end := min(max(int(offset)-1, 0), len(src))
	before := src[:end]
	line := bytes.Count(before, []byte{'\n'}) + 1
	lineStart := bytes.LastIndexByte(before, '\n') + 1
	return sourcePos{Line: line, Column: end - lineStart + 1}
}
