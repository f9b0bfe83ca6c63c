package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanJSONCBlanksCommentsAndTrailingCommas(t *testing.T) {
	input := "{\n  // hotkey\n  \"hotkey\": {\"key\": \"f9\",},\n  \"vocab\": [\"a\", /* b */ \"c\",\n  ],\n}"

	clean, err := cleanJSONC([]byte(input))
	require.NoError(t, err)
	require.Len(t, clean, len(input))
	require.Equal(t, "{\n           \n  \"hotkey\": {\"key\": \"f9\" },\n  \"vocab\": [\"a\",         \"c\" \n  ] \n}", string(clean))
}

func TestCleanJSONCLeavesStringContentAlone(t *testing.T) {
	input := `{"cmd":"wl-copy // not a comment, /* nor this */","q":"a\"b,]"}`
	clean, err := cleanJSONC([]byte(input))
	require.NoError(t, err)
	require.Equal(t, input, string(clean))
}

func TestCleanJSONCUnterminatedBlockComment(t *testing.T) {
	_, err := cleanJSONC([]byte("{ /* never closed"))
	require.ErrorIs(t, err, errUnclosedComment)
}

func TestPositionAt(t *testing.T) {
	src := []byte("ab\ncde\nf")
	require.Equal(t, sourcePos{Line: 1, Column: 1}, positionAt(src, 0))
	require.Equal(t, sourcePos{Line: 1, Column: 1}, positionAt(src, 1))
	require.Equal(t, sourcePos{Line: 2, Column: 2}, positionAt(src, 5))
	require.Equal(t, sourcePos{Line: 3, Column: 2}, positionAt(src, 99))
}

func TestDecodeJSONCAcceptsCommentedConfig(t *testing.T) {
	payload, err := decodeJSONC(`{
  /* push-to-talk key */
  "hotkey": {"key": "f12"}, // trailing
}`)
	require.NoError(t, err)
	require.NotNil(t, payload.Hotkey)
	require.NotNil(t, payload.Hotkey.Key)
	require.Equal(t, "f12", *payload.Hotkey.Key)
}

func TestDecodeJSONCReportsTypeErrorLocation(t *testing.T) {
	_, err := decodeJSONC("{\n  // comment keeps offsets\n  \"transcription\": {\"beam_size\": \"five\"}\n}")
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
	require.Contains(t, err.Error(), "column")
}

func TestDecodeJSONCRejectsUnknownFields(t *testing.T) {
	_, err := decodeJSONC(`{"server": {"grpc": "127.0.0.1:50051"}}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestDecodeJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, err := decodeJSONC(`{"output":{"auto_execute":false}} {"output":{"auto_execute":true}}`)
	require.ErrorIs(t, err, errTrailingValue)
}
