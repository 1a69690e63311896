package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderSplitsFrames(t *testing.T) {
	dec := NewDecoder(0)
	dec.Write([]byte("\x02    1+!C\r\x02    1Za\\t BU\r"))

	f, err := dec.Next()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "    1+!C", f.String())

	f, err = dec.Next()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "    1Za\\t BU", f.String())

	f, err = dec.Next()
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestDecoderPartialWrites(t *testing.T) {
	dec := NewDecoder(0)

	dec.Write([]byte("\x02    1+"))
	f, err := dec.Next()
	require.NoError(t, err)
	assert.Nil(t, f)

	dec.Write([]byte("!WB-\r"))
	f, err = dec.Next()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "    1+!WB-", f.String())
}

func TestDecoderSkipsLeadingNoise(t *testing.T) {
	dec := NewDecoder(0)
	dec.Write([]byte("garbage\x02    1+!H\r"))

	f, err := dec.Next()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "    1+!H", f.String())
}

func TestDecoderOversize(t *testing.T) {
	dec := NewDecoder(16)
	dec.Write([]byte{STX})
	dec.Write(make([]byte, 32))

	_, err := dec.Next()
	require.ErrorIs(t, err, ErrFrameOversize)
	assert.Equal(t, 0, dec.Buffered())

	// The stream stays usable after the drop.
	dec.Write([]byte("\x02    1+!C\r"))
	f, err := dec.Next()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "    1+!C", f.String())
}

func TestFrameAccountBody(t *testing.T) {
	f := Frame("    1Za\\t BU")
	assert.Equal(t, "    1", f.Account())
	assert.Equal(t, "Za\\t BU", f.Body())

	assert.Equal(t, "", Frame("abc").Account())
	assert.Equal(t, "", Frame("12345").Body())
}

func TestEncodeCommand(t *testing.T) {
	frame, err := EncodeCommand("1", "!H")
	require.NoError(t, err)
	assert.Equal(t, "@    1!H\r", string(frame))

	frame, err = EncodeCommand("12345", "!O01")
	require.NoError(t, err)
	assert.Equal(t, "@12345!O01\r", string(frame))

	_, err = EncodeCommand("123456", "!H")
	assert.Error(t, err)
}

func TestEncodeAck(t *testing.T) {
	assert.Equal(t, []byte{0x02, '0', '0', '0', '0', '1', 0x06, 0x0d}, EncodeAck("1"))
	assert.Equal(t, []byte{0x02, '0', '0', '0', '0', '1', 0x06, 0x0d}, EncodeAck("    1"))
	assert.Equal(t, []byte{0x02, '1', '2', '3', '4', '5', 0x06, 0x0d}, EncodeAck("12345"))
}
