// Package command classifies transcribed text into voice commands by spoken prefix.
package command

import (
	"strings"

	"github.com/rbright/whisperkey/internal/transcript"
)

// Kind is the class of a voice command.
type Kind string

const (
	KindText         Kind = "text"
	KindExecute      Kind = "execute"
	KindWindowTarget Kind = "window_target"
	KindConfig       Kind = "config"
)

// Command is a parsed voice command. Execute is always true for KindExecute.
type Command struct {
	Kind         Kind
	Text         string
	Original     string
	Execute      bool
	TargetWindow string
}

type rule struct {
	kind     Kind
	prefixes []string
}

// rules are checked in order; within a rule, prefixes are checked in order.
var rules = []rule{
	{kind: KindExecute, prefixes: []string{"execute mode", "execute command", "execute", "run command", "run this", "command mode"}},
	{kind: KindWindowTarget, prefixes: []string{"target window", "send to window", "window"}},
	{kind: KindConfig, prefixes: []string{"config", "configure", "settings", "setup"}},
}

// Parse classifies text. Empty input yields an empty text command.
func Parse(text string) Command {
	cleaned := transcript.Clean(text)
	if cleaned == "" {
		return Command{Kind: KindText, Original: text}
	}

	for _, r := range rules {
		for _, prefix := range r.prefixes {
			if !hasPrefixFold(cleaned, prefix) {
				continue
			}
			rest := strings.TrimSpace(cleaned[len(prefix):])
			cmd := Command{Kind: r.kind, Text: rest, Original: text}
			switch r.kind {
			case KindExecute:
				cmd.Execute = true
			case KindWindowTarget:
				cmd.TargetWindow = rest
			}
			return cmd
		}
	}

	return Command{Kind: KindText, Text: cleaned, Original: text}
}

func hasPrefixFold(s string, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Parser adapts Parse to an injectable collaborator.
type Parser struct{}

func (Parser) Parse(text string) Command {
	return Parse(text)
}
