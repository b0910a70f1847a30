package ndef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A single short text record "en" / "S1234" as written by common phone apps.
var studentCard = []byte{
	0xD1,       // MB ME SR, TNF well-known
	0x01,       // type length
	0x08,       // payload length
	'T',        // type
	0x02,       // status: UTF-8, lang length 2
	'e', 'n',
	'S', '1', '2', '3', '4',
}

func TestParse_TextRecord(t *testing.T) {
	msg, err := Parse(studentCard)
	require.NoError(t, err)
	require.Len(t, msg.Records, 1)

	rec := msg.Records[0]
	assert.Equal(t, TNFWellKnown, rec.TNF)
	assert.Equal(t, "text", rec.RecordType())
	assert.Equal(t, "en", rec.Lang())

	data, err := rec.Data()
	require.NoError(t, err)
	assert.Equal(t, "S1234", string(data))
}

func TestParse_MultipleRecordsKeepOrder(t *testing.T) {
	in := &Message{Records: []Record{
		NewTextRecord("en", "FIRST"),
		{TNF: TNFMedia, Type: []byte("text/plain"), Payload: []byte("second")},
	}}

	msg, err := Parse(in.Marshal())
	require.NoError(t, err)
	require.Len(t, msg.Records, 2)

	first, err := msg.Records[0].Data()
	require.NoError(t, err)
	assert.Equal(t, "FIRST", string(first))
	assert.Equal(t, "mime", msg.Records[1].RecordType())
	assert.Equal(t, "text/plain", msg.Records[1].MediaType())
}

func TestParse_LongRecord(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = 'x'
	}
	in := &Message{Records: []Record{{TNF: TNFUnknown, Payload: payload}}}

	msg, err := Parse(in.Marshal())
	require.NoError(t, err)
	assert.Len(t, msg.Records[0].Payload, 300)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrNoMessage},
		{"header only", []byte{0xD1}, ErrTruncated},
		{"payload cut", studentCard[:6], ErrTruncated},
		{"chunked", []byte{0xB1, 0x01, 0x01, 'T', 0x00}, ErrChunked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRecord_DataUTF16(t *testing.T) {
	rec := Record{
		TNF:     TNFWellKnown,
		Type:    []byte("T"),
		Payload: []byte{0x82, 'e', 'n', 0x00, 'I', 0x00, 'D'},
	}
	data, err := rec.Data()
	require.NoError(t, err)
	assert.Equal(t, "ID", string(data))
}

func TestFindMessage(t *testing.T) {
	mem := append([]byte{0x01, 0x03, 0xA0, 0x0C, 0x34}, WrapTLV(studentCard)...)

	msg, complete, err := FindMessage(mem)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, studentCard, msg)
}

func TestFindMessage_NeedsMoreMemory(t *testing.T) {
	wrapped := WrapTLV(studentCard)

	_, complete, err := FindMessage(wrapped[:5])
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestFindMessage_TerminatorWithoutMessage(t *testing.T) {
	_, complete, err := FindMessage([]byte{0x00, 0x00, 0xFE})
	assert.True(t, complete)
	assert.ErrorIs(t, err, ErrNoMessage)
}
