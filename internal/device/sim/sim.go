// Package sim provides scripted camera and NFC adapters for machines without
// scanning hardware.
package sim

import (
	"context"
	"image"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/abhisek/tapcart/internal/device/camera"
	"github.com/abhisek/tapcart/internal/ndef"
	"github.com/abhisek/tapcart/internal/scan"
)

// Script controls what the simulated devices produce.
type Script struct {
	// Identifier is what the presented card or code carries.
	Identifier string
	// BlankFrames is how many empty frames precede the code.
	BlankFrames int
	// Interval is the frame period.
	Interval time.Duration
	// TapDelay is how long the simulated card takes to reach the reader.
	TapDelay time.Duration
}

// DefaultScript presents a demo student ID after a short delay.
func DefaultScript() Script {
	return Script{
		Identifier:  "S1234567",
		BlankFrames: 12,
		Interval:    100 * time.Millisecond,
		TapDelay:    1500 * time.Millisecond,
	}
}

// Camera renders the identifier as a QR code and decodes it with the real
// decoder, so the preview and decode path match a physical camera.
type Camera struct {
	script Script
}

var _ scan.DecodeAdapter = (*Camera)(nil)

// NewCamera creates a simulated camera.
func NewCamera(s Script) *Camera {
	return &Camera{script: s}
}

func (c *Camera) ListDevices(ctx context.Context) ([]scan.DeviceID, error) {
	return []scan.DeviceID{"sim0"}, nil
}

func (c *Camera) DecodeFromVideo(ctx context.Context, id scan.DeviceID, sink scan.FrameSink, fn scan.DecodeFunc) (scan.Subscription, error) {
	code, err := renderQR(c.script.Identifier)
	if err != nil {
		return nil, err
	}
	blank := blankFrame(code.Bounds())

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		dec := camera.NewDecoder()
		t := time.NewTicker(c.script.Interval)
		defer t.Stop()

		for n := 0; ; n++ {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			frame := blank
			if n >= c.script.BlankFrames {
				frame = code
			}
			if sink != nil {
				sink.ShowFrame(frame)
			}
			res, err := dec.Decode(frame)
			if ctx.Err() != nil {
				return
			}
			fn(res, err)
		}
	}()

	return scan.StopOnce(func() {
		cancel()
		<-done
	}), nil
}

func renderQR(text string) (*image.Gray, error) {
	m, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 160, 160, nil)
	if err != nil {
		return nil, err
	}
	b := m.Bounds()
	img := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, m.At(x, y))
		}
	}
	return img, nil
}

func blankFrame(r image.Rectangle) *image.Gray {
	img := image.NewGray(r)
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

// Reader presents one NFC card per activation after TapDelay.
type Reader struct {
	script Script
}

var _ scan.NFCAdapter = (*Reader)(nil)

// NewReader creates a simulated NFC reader.
func NewReader(s Script) *Reader {
	return &Reader{script: s}
}

func (r *Reader) Available() bool { return true }

func (r *Reader) Scan(ctx context.Context, h scan.NFCHandlers) (scan.Subscription, error) {
	raw := (&ndef.Message{Records: []ndef.Record{ndef.NewTextRecord("en", r.script.Identifier)}}).Marshal()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.script.TapDelay):
		}
		msg, err := decode(raw)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.OnReadingError(err)
			return
		}
		h.OnReading(msg)
	}()
	return scan.StopOnce(cancel), nil
}

func decode(raw []byte) (scan.Message, error) {
	parsed, err := ndef.Parse(raw)
	if err != nil {
		return scan.Message{}, err
	}
	out := scan.Message{SerialNumber: "04:00:00:00:00:00:01"}
	for _, rec := range parsed.Records {
		data, err := rec.Data()
		if err != nil {
			return scan.Message{}, err
		}
		out.Records = append(out.Records, scan.Record{RecordType: rec.RecordType(), MediaType: rec.MediaType(), Data: data})
	}
	return out, nil
}
