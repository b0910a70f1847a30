// Package ndef parses NFC Data Exchange Format messages as stored on NFC
// Forum Type 2 tags.
package ndef

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// TNF is the type name format of a record.
type TNF byte

const (
	TNFEmpty TNF = iota
	TNFWellKnown
	TNFMedia
	TNFAbsoluteURI
	TNFExternal
	TNFUnknown
	TNFUnchanged
	TNFReserved
)

const (
	flagMB  = 0x80
	flagME  = 0x40
	flagCF  = 0x20
	flagSR  = 0x10
	flagIL  = 0x08
	tnfMask = 0x07
)

// TLV block types on Type 2 tags.
const (
	tlvNull       = 0x00
	tlvNDEF       = 0x03
	tlvTerminator = 0xFE
	tlvLongLength = 0xFF
)

var (
	ErrNoMessage = errors.New("ndef: no NDEF message TLV")
	ErrTruncated = errors.New("ndef: truncated data")
	ErrChunked   = errors.New("ndef: chunked records are not supported")
)

// Record is a single NDEF record.
type Record struct {
	TNF     TNF
	Type    []byte
	ID      []byte
	Payload []byte
}

// Message is an ordered list of records.
type Message struct {
	Records []Record
}

// RecordType names the record the way Web NFC does.
func (r Record) RecordType() string {
	switch r.TNF {
	case TNFEmpty:
		return "empty"
	case TNFWellKnown:
		switch string(r.Type) {
		case "T":
			return "text"
		case "U":
			return "url"
		case "Sp":
			return "smart-poster"
		}
		return ":" + string(r.Type)
	case TNFMedia:
		return "mime"
	case TNFAbsoluteURI:
		return "absolute-url"
	case TNFExternal:
		return string(r.Type)
	default:
		return "unknown"
	}
}

// MediaType returns the MIME type of a media record.
func (r Record) MediaType() string {
	if r.TNF == TNFMedia {
		return string(r.Type)
	}
	return ""
}

// Data returns the record data. Text records drop the status byte and
// language code, and UTF-16 text is converted to UTF-8; every other record
// returns its payload unchanged.
func (r Record) Data() ([]byte, error) {
	if r.TNF != TNFWellKnown || string(r.Type) != "T" || len(r.Payload) == 0 {
		return r.Payload, nil
	}
	status := r.Payload[0]
	langLen := int(status & 0x3F)
	if 1+langLen > len(r.Payload) {
		return nil, fmt.Errorf("text record language: %w", ErrTruncated)
	}
	text := r.Payload[1+langLen:]
	if status&0x80 == 0 {
		return text, nil
	}
	out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("decode utf-16 text: %w", err)
	}
	return out, nil
}

// Lang returns the language code of a text record.
func (r Record) Lang() string {
	if r.TNF != TNFWellKnown || string(r.Type) != "T" || len(r.Payload) == 0 {
		return ""
	}
	n := int(r.Payload[0] & 0x3F)
	if 1+n > len(r.Payload) {
		return ""
	}
	return string(r.Payload[1 : 1+n])
}

// NewTextRecord builds a UTF-8 well-known text record.
func NewTextRecord(lang, text string) Record {
	payload := make([]byte, 0, 1+len(lang)+len(text))
	payload = append(payload, byte(len(lang)&0x3F))
	payload = append(payload, lang...)
	payload = append(payload, text...)
	return Record{TNF: TNFWellKnown, Type: []byte("T"), Payload: payload}
}

// Parse decodes a raw NDEF message.
func Parse(b []byte) (*Message, error) {
	msg := &Message{}
	for off := 0; off < len(b); {
		hdr := b[off]
		off++
		if hdr&flagCF != 0 {
			return nil, ErrChunked
		}
		if off >= len(b) {
			return nil, ErrTruncated
		}
		typeLen := int(b[off])
		off++

		var payloadLen int
		if hdr&flagSR != 0 {
			if off >= len(b) {
				return nil, ErrTruncated
			}
			payloadLen = int(b[off])
			off++
		} else {
			if off+4 > len(b) {
				return nil, ErrTruncated
			}
			payloadLen = int(binary.BigEndian.Uint32(b[off:]))
			off += 4
		}

		idLen := 0
		if hdr&flagIL != 0 {
			if off >= len(b) {
				return nil, ErrTruncated
			}
			idLen = int(b[off])
			off++
		}

		if payloadLen < 0 || off+typeLen+idLen+payloadLen > len(b) {
			return nil, ErrTruncated
		}
		rec := Record{TNF: TNF(hdr & tnfMask)}
		rec.Type = append([]byte(nil), b[off:off+typeLen]...)
		off += typeLen
		if idLen > 0 {
			rec.ID = append([]byte(nil), b[off:off+idLen]...)
			off += idLen
		}
		rec.Payload = append([]byte(nil), b[off:off+payloadLen]...)
		off += payloadLen

		msg.Records = append(msg.Records, rec)
		if hdr&flagME != 0 {
			break
		}
	}
	if len(msg.Records) == 0 {
		return nil, ErrNoMessage
	}
	return msg, nil
}

// Marshal encodes the message.
func (m *Message) Marshal() []byte {
	var out []byte
	for i, r := range m.Records {
		hdr := byte(r.TNF) & tnfMask
		if i == 0 {
			hdr |= flagMB
		}
		if i == len(m.Records)-1 {
			hdr |= flagME
		}
		short := len(r.Payload) < 256
		if short {
			hdr |= flagSR
		}
		if len(r.ID) > 0 {
			hdr |= flagIL
		}
		out = append(out, hdr, byte(len(r.Type)))
		if short {
			out = append(out, byte(len(r.Payload)))
		} else {
			out = binary.BigEndian.AppendUint32(out, uint32(len(r.Payload)))
		}
		if len(r.ID) > 0 {
			out = append(out, byte(len(r.ID)))
		}
		out = append(out, r.Type...)
		out = append(out, r.ID...)
		out = append(out, r.Payload...)
	}
	return out
}

// FindMessage scans Type 2 tag memory (starting at the first data page) for
// the NDEF message TLV and returns its value. complete is false when more memory
// is needed to complete the TLV.
func FindMessage(mem []byte) (msg []byte, complete bool, err error) {
	for off := 0; off < len(mem); {
		t := mem[off]
		off++
		switch t {
		case tlvNull:
			continue
		case tlvTerminator:
			return nil, true, ErrNoMessage
		}
		if off >= len(mem) {
			return nil, false, nil
		}
		n := int(mem[off])
		off++
		if n == tlvLongLength {
			if off+2 > len(mem) {
				return nil, false, nil
			}
			n = int(binary.BigEndian.Uint16(mem[off:]))
			off += 2
		}
		if off+n > len(mem) {
			return nil, false, nil
		}
		if t == tlvNDEF {
			return mem[off : off+n], true, nil
		}
		off += n
	}
	return nil, false, nil
}

// WrapTLV wraps an encoded message in an NDEF TLV followed by a terminator.
func WrapTLV(msg []byte) []byte {
	out := []byte{tlvNDEF}
	if len(msg) < tlvLongLength {
		out = append(out, byte(len(msg)))
	} else {
		out = append(out, tlvLongLength)
		out = binary.BigEndian.AppendUint16(out, uint16(len(msg)))
	}
	out = append(out, msg...)
	return append(out, tlvTerminator)
}
