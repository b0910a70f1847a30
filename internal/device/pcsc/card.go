package pcsc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tapcart/internal/ndef"
	"github.com/abhisek/tapcart/internal/scan"
)

// Type 2 tags (NTAG21x, Ultralight) keep user memory from page 4 on.
const (
	firstDataPage = 4
	pageSize      = 4
	readBlock     = 16
	maxDataPages  = 222
)

var (
	apduGetUID = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}

	errStatusWord = errors.New("card returned error status")
)

// transmitter is the part of *scard.Card used to talk to a tag.
type transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

func transmit(t transmitter, cmd []byte) ([]byte, error) {
	rsp, err := t.Transmit(cmd)
	if err != nil {
		return nil, err
	}
	if len(rsp) < 2 {
		return nil, fmt.Errorf("short response % X", rsp)
	}
	sw := rsp[len(rsp)-2:]
	if sw[0] != 0x90 || sw[1] != 0x00 {
		return nil, fmt.Errorf("%w %02X%02X", errStatusWord, sw[0], sw[1])
	}
	return rsp[:len(rsp)-2], nil
}

// readSerial returns the tag UID formatted like "04:a2:1b:3c".
func readSerial(t transmitter) (string, error) {
	uid, err := transmit(t, apduGetUID)
	if err != nil {
		return "", fmt.Errorf("get uid: %w", err)
	}
	parts := make([]string, len(uid))
	for i, b := range uid {
		parts[i] = hex.EncodeToString([]byte{b})
	}
	return strings.Join(parts, ":"), nil
}

// readNDEF reads user memory a block at a time until a complete NDEF
// message TLV has been seen.
func readNDEF(t transmitter) ([]byte, error) {
	var mem []byte
	for page := firstDataPage; page < firstDataPage+maxDataPages; page += readBlock / pageSize {
		block, err := transmit(t, []byte{0xFF, 0xB0, 0x00, byte(page), readBlock})
		if err != nil {
			if len(mem) > 0 {
				break
			}
			return nil, fmt.Errorf("read page %d: %w", page, err)
		}
		mem = append(mem, block...)

		msg, complete, err := ndef.FindMessage(mem)
		if err != nil {
			return nil, err
		}
		if complete {
			return msg, nil
		}
	}
	msg, complete, err := ndef.FindMessage(mem)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ndef.ErrTruncated
	}
	return msg, nil
}

// readMessage reads the tag and converts it to the scan package's message shape.
func readMessage(t transmitter) (scan.Message, error) {
	serial, err := readSerial(t)
	if err != nil {
		return scan.Message{}, err
	}
	raw, err := readNDEF(t)
	if errors.Is(err, ndef.ErrNoMessage) {
		return scan.Message{SerialNumber: serial}, nil
	}
	if err != nil {
		return scan.Message{}, err
	}
	parsed, err := ndef.Parse(raw)
	if errors.Is(err, ndef.ErrNoMessage) {
		return scan.Message{SerialNumber: serial}, nil
	}
	if err != nil {
		return scan.Message{}, err
	}
	return toScanMessage(parsed, serial)
}

func toScanMessage(m *ndef.Message, serial string) (scan.Message, error) {
	out := scan.Message{SerialNumber: serial}
	for _, r := range m.Records {
		data, err := r.Data()
		if err != nil {
			return scan.Message{}, err
		}
		out.Records = append(out.Records, scan.Record{
			RecordType: r.RecordType(),
			MediaType:  r.MediaType(),
			Data:       data,
		})
	}
	return out, nil
}
