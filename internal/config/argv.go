package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	errOpenQuote  = errors.New("unterminated quote")
	errOpenEscape = errors.New("unterminated escape sequence")
)

// ParseCommand splits raw into argv using shell-style words. Single quotes are
// literal, double quotes allow backslash escapes, and a leading # disables the
// command (empty Argv).
func ParseCommand(raw string) (CommandConfig, error) {
	cmd := CommandConfig{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return cmd, nil
	}

	var w wordScanner
	for _, r := range trimmed {
		w.feed(r)
	}
	argv, err := w.finish()
	if err != nil {
		return CommandConfig{}, fmt.Errorf("%w in command: %q", err, raw)
	}
	cmd.Argv = argv
	return cmd, nil
}

// MustParseCommand is ParseCommand for compile-time constants.
func MustParseCommand(raw string) CommandConfig {
	cmd, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}

// String quotes Argv back into one command line.
func (c CommandConfig) String() string {
	quoted := make([]string, len(c.Argv))
	for i, arg := range c.Argv {
		if arg != "" && !strings.ContainsFunc(arg, needsQuoting) {
			quoted[i] = arg
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func needsQuoting(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(`'"\#$`, r)
}

// wordScanner accumulates words one rune at a time.
type wordScanner struct {
	words   []string
	current strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (w *wordScanner) feed(r rune) {
	switch {
	case w.escaped:
		w.current.WriteRune(r)
		w.escaped = false
	case w.quote == '\'':
		if r == '\'' {
			w.quote = 0
			return
		}
		w.current.WriteRune(r)
	case r == '\\':
		w.escaped = true
		w.inWord = true
	case w.quote == '"':
		if r == '"' {
			w.quote = 0
			return
		}
		w.current.WriteRune(r)
	case r == '\'' || r == '"':
		w.quote = r
		w.inWord = true
	case unicode.IsSpace(r):
		w.flush()
	default:
		w.current.WriteRune(r)
		w.inWord = true
	}
}

func (w *wordScanner) flush() {
	if !w.inWord {
		return
	}
	w.words = append(w.words, w.current.String())
	w.current.Reset()
	w.inWord = false
}

func (w *wordScanner) finish() ([]string, error) {
	if w.escaped {
		return nil, errOpenEscape
	}
	if w.quote != 0 {
		return nil, errOpenQuote
	}
	w.flush()
	return w.words, nil
}
