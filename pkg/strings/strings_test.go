package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesToString(t *testing.T) {
	assert.Equal(t, "", BytesToString(nil))
	assert.Equal(t, "", BytesToString([]byte{}))
	assert.Equal(t, "127.0.0.1", BytesToString([]byte("127.0.0.1")))
}

func TestStringToBytes(t *testing.T) {
	assert.Nil(t, StringToBytes(""))
	assert.Equal(t, []byte("t1"), StringToBytes("t1"))
}

func TestCloneDoesNotAlias(t *testing.T) {
	b := []byte("abc")
	s := Clone(b)
	b[0] = 'x'
	assert.Equal(t, "abc", s)
}
