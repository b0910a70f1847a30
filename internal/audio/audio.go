// Package audio renders scan confirmation tones.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"

	"github.com/abhisek/tapcart/internal/scan"
)

// SampleRate is the PCM rate used for every tone.
const SampleRate = 44100

// Oscillator renders a sine tone as signed 16-bit little-endian mono PCM.
// A 5ms linear fade at each end avoids clicks.
func Oscillator(t scan.Tone) []byte {
	n := int(t.Duration.Seconds() * SampleRate)
	fade := SampleRate * 5 / 1000
	if fade*2 > n {
		fade = n / 2
	}
	gain := math.Max(0, math.Min(1, t.Gain))

	buf := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		env := 1.0
		switch {
		case i < fade:
			env = float64(i) / float64(fade)
		case i >= n-fade:
			env = float64(n-1-i) / float64(fade)
		}
		v := gain * env * math.Sin(2*math.Pi*t.Frequency*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return buf
}

// Player pipes each tone into its own short-lived aplay process, so no
// audio device stays open between beeps.
type Player struct {
	// Command is the player binary. Defaults to "aplay".
	Command string
}

var _ scan.Beeper = (*Player)(nil)

// NewPlayer returns a Player using aplay.
func NewPlayer() *Player {
	return &Player{Command: "aplay"}
}

// Beep plays t and waits for playback to finish.
func (p *Player) Beep(ctx context.Context, t scan.Tone) error {
	name := p.Command
	if name == "" {
		name = "aplay"
	}
	cmd := exec.CommandContext(ctx, name, "-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", strconv.Itoa(SampleRate))
	cmd.Stdin = bytes.NewReader(Oscillator(t))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// Available reports whether the player binary is on PATH.
func (p *Player) Available() bool {
	name := p.Command
	if name == "" {
		name = "aplay"
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// Bell writes the terminal bell. Pitch is not representable, so errors get
// a double bell.
type Bell struct {
	W io.Writer
}

func (b Bell) Beep(ctx context.Context, t scan.Tone) error {
	seq := "\a"
	if t.Frequency < scan.SuccessTone.Frequency {
		seq = "\a\a"
	}
	_, err := io.WriteString(b.W, seq)
	return err
}

// Silent discards tones.
type Silent struct{}

func (Silent) Beep(context.Context, scan.Tone) error { return nil }

// New picks a Beeper by name: "aplay", "bell" or "none". aplay falls back to
// the bell when the binary is missing.
func New(name string, bell io.Writer) (scan.Beeper, error) {
	switch name {
	case "", "aplay":
		p := NewPlayer()
		if !p.Available() {
			return Bell{W: bell}, nil
		}
		return p, nil
	case "bell":
		return Bell{W: bell}, nil
	case "none", "off":
		return Silent{}, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", name)
}
