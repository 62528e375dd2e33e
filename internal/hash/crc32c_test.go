package hash

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720, appendix B.4.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewWriter(&buf)

	_, err := cw.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("56789"))
	require.NoError(t, err)

	assert.Equal(t, "123456789", buf.String())
	assert.Equal(t, int64(9), cw.Written())
	assert.Equal(t, CRC32C(buf.Bytes()), cw.Sum32())
}
