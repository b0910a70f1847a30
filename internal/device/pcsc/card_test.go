package pcsc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tapcart/internal/ndef"
)

// fakeTag answers GET UID and READ BINARY against an in-memory Type 2 tag.
type fakeTag struct {
	uid  []byte
	mem  []byte // user memory starting at page 4
	cmds [][]byte
}

func (f *fakeTag) Transmit(cmd []byte) ([]byte, error) {
	f.cmds = append(f.cmds, cmd)
	ok := []byte{0x90, 0x00}
	switch {
	case cmd[1] == 0xCA:
		return append(append([]byte(nil), f.uid...), ok...), nil
	case cmd[1] == 0xB0:
		off := (int(cmd[3]) - firstDataPage) * pageSize
		if off >= len(f.mem) {
			return []byte{0x6A, 0x82}, nil
		}
		end := off + int(cmd[4])
		block := make([]byte, int(cmd[4]))
		copy(block, f.mem[off:min(end, len(f.mem))])
		return append(block, ok...), nil
	}
	return nil, errors.New("unexpected apdu")
}

func tagWith(records ...ndef.Record) *fakeTag {
	msg := (&ndef.Message{Records: records}).Marshal()
	return &fakeTag{
		uid: []byte{0x04, 0xA2, 0x1B, 0x3C},
		mem: ndef.WrapTLV(msg),
	}
}

func TestReadMessage_TextRecord(t *testing.T) {
	tag := tagWith(ndef.NewTextRecord("en", "S1234567"))

	msg, err := readMessage(tag)
	require.NoError(t, err)
	assert.Equal(t, "04:a2:1b:3c", msg.SerialNumber)
	require.Len(t, msg.Records, 1)
	assert.Equal(t, "text", msg.Records[0].RecordType)
	assert.Equal(t, "S1234567", string(msg.Records[0].Data))
}

func TestReadMessage_SpansSeveralBlocks(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a' + byte(i%26)
	}
	tag := tagWith(ndef.NewTextRecord("en", string(long)))

	msg, err := readMessage(tag)
	require.NoError(t, err)
	assert.Equal(t, string(long), string(msg.Records[0].Data))
	// 1 UID + ceil(len/16) reads
	assert.Greater(t, len(tag.cmds), 7)
}

func TestReadMessage_BlankTag(t *testing.T) {
	tag := &fakeTag{uid: []byte{0x01}, mem: []byte{0x03, 0x00, 0xFE}}

	msg, err := readMessage(tag)
	require.NoError(t, err)
	assert.Empty(t, msg.Records)
	assert.Equal(t, "01", msg.SerialNumber)
}

func TestReadMessage_ErrorStatus(t *testing.T) {
	tag := &fakeTag{uid: []byte{0x01}}

	_, err := readMessage(tag)
	assert.ErrorIs(t, err, errStatusWord)
}

func TestTransmit_ShortResponse(t *testing.T) {
	_, err := transmit(transmitFunc(func([]byte) ([]byte, error) { return []byte{0x90}, nil }), apduGetUID)
	assert.Error(t, err)
}

type transmitFunc func([]byte) ([]byte, error)

func (f transmitFunc) Transmit(cmd []byte) ([]byte, error) { return f(cmd) }
