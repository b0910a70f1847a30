package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tapcart/internal/scan"
)

func samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return out
}

func duration(pcm []byte) time.Duration {
	return time.Duration(len(pcm)/2) * time.Second / SampleRate
}

func TestOscillator_LengthMatchesDuration(t *testing.T) {
	pcm := Oscillator(scan.SuccessTone)
	assert.Len(t, pcm, 2*int(0.15*SampleRate))
	assert.Equal(t, 150*time.Millisecond, duration(pcm).Round(time.Millisecond))
}

func TestOscillator_PeakFollowsGain(t *testing.T) {
	var peak int16
	for _, s := range samples(Oscillator(scan.SuccessTone)) {
		if s > peak {
			peak = s
		}
	}
	want := 0.1 * math.MaxInt16
	assert.InDelta(t, want, float64(peak), want*0.02)
}

func TestOscillator_FadesAtEdges(t *testing.T) {
	s := samples(Oscillator(scan.ErrorTone))
	assert.Equal(t, int16(0), s[0])
	assert.Equal(t, int16(0), s[len(s)-1])
}

func TestOscillator_Frequency(t *testing.T) {
	// Count upward zero crossings over one second.
	pcm := Oscillator(scan.Tone{Frequency: 440, Duration: time.Second, Gain: 0.5})
	s := samples(pcm)
	crossings := 0
	for i := 1; i < len(s); i++ {
		if s[i-1] < 0 && s[i] >= 0 {
			crossings++
		}
	}
	assert.InDelta(t, 440, crossings, 2)
}

func TestOscillator_ClampsGain(t *testing.T) {
	var peak int16
	for _, v := range samples(Oscillator(scan.Tone{Frequency: 100, Duration: 50 * time.Millisecond, Gain: 4})) {
		if v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, int16(31000))
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	b := Bell{W: &buf}

	require.NoError(t, b.Beep(context.Background(), scan.SuccessTone))
	require.NoError(t, b.Beep(context.Background(), scan.ErrorTone))
	assert.Equal(t, "\a\a\a", buf.String())
}

func TestPlayer_MissingBinary(t *testing.T) {
	p := &Player{Command: "tapcart-no-such-player"}
	assert.False(t, p.Available())
	assert.Error(t, p.Beep(context.Background(), scan.SuccessTone))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	b, err := New("none", &buf)
	require.NoError(t, err)
	assert.IsType(t, Silent{}, b)

	b, err = New("bell", &buf)
	require.NoError(t, err)
	assert.IsType(t, Bell{}, b)

	_, err = New("speaker", &buf)
	assert.Error(t, err)
}
