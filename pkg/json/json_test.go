package json

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	Column int      `json:"column"`
	Values []string `json:"values"`
}

func TestEncode(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Encode(&out, result{Column: 1, Values: []string{"<a>"}}, ""))
	assert.Equal(t, `{"column":1,"values":["<a>"]}`+"\n", out.String())

	out.Reset()
	require.NoError(t, Encode(&out, map[string]int{"a": 1}, "  "))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}

func TestRoundTrip(t *testing.T) {
	b, err := Marshal(result{Column: 3})
	require.NoError(t, err)
	var r result
	require.NoError(t, Unmarshal(b, &r))
	assert.Equal(t, 3, r.Column)
}

func TestStreamingEncoderArray(t *testing.T) {
	var out bytes.Buffer
	se := NewStreamingEncoder(&out, true)
	require.NoError(t, se.Encode(1))
	require.NoError(t, se.Encode("x"))
	require.NoError(t, se.Close())
	assert.JSONEq(t, `[1,"x"]`, out.String())

	out.Reset()
	require.NoError(t, NewStreamingEncoder(&out, true).Close())
	assert.JSONEq(t, `[]`, out.String())
}

func TestStreamingEncoderLines(t *testing.T) {
	var out bytes.Buffer
	se := NewStreamingEncoder(&out, false)
	require.NoError(t, se.Encode(result{Column: 1}))
	require.NoError(t, se.Encode(result{Column: 2}))
	require.NoError(t, se.Close())
	assert.Equal(t, "{\"column\":1,\"values\":null}\n{\"column\":2,\"values\":null}\n", out.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamingEncoderStickyError(t *testing.T) {
	se := NewStreamingEncoder(failWriter{}, true)
	assert.EqualError(t, se.Encode(1), "disk full")
	assert.EqualError(t, se.Close(), "disk full")
}
