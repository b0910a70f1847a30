package scan

import (
	"context"
	"image"
	"sync"
)

// DeviceID identifies a video input device.
type DeviceID string

// Decoded is one successful barcode or QR decode.
type Decoded struct {
	Text   string
	Format string
}

// DecodeFunc receives every frame outcome from a DecodeAdapter: a result, or
// an error (ErrNotFound for the ordinary miss). It may be called from any
// goroutine, repeatedly, until the subscription is stopped.
type DecodeFunc func(res *Decoded, err error)

// FrameSink receives preview frames while a decode subscription is live.
type FrameSink interface {
	ShowFrame(img image.Image)
}

// Subscription is a live decode or read registration.
// Stop must be safe to call more than once.
type Subscription interface {
	Stop()
}

// DecodeAdapter wraps a barcode/QR decoding capability over a live video feed.
type DecodeAdapter interface {
	// ListDevices enumerates video inputs.
	ListDevices(ctx context.Context) ([]DeviceID, error)

	// DecodeFromVideo starts continuous decoding from the device. An empty
	// DeviceID selects the adapter default. sink may be nil.
	DecodeFromVideo(ctx context.Context, id DeviceID, sink FrameSink, fn DecodeFunc) (Subscription, error)
}

// AccessProber is implemented by adapters that can explicitly request
// access to a device before decoding starts.
type AccessProber interface {
	Probe(ctx context.Context, id DeviceID) error
}

// Record is one NFC data record.
type Record struct {
	RecordType string
	MediaType  string
	Data       []byte
}

// Message is the payload of an NFC tag read.
type Message struct {
	Records      []Record
	SerialNumber string
}

// NFCHandlers are the event subscriptions registered by NFCAdapter.Scan.
type NFCHandlers struct {
	OnReading      func(msg Message)
	OnReadingError func(err error)
}

// NFCAdapter wraps a platform NFC reading capability.
type NFCAdapter interface {
	// Available reports whether the platform exposes NFC reading at all.
	Available() bool

	// Scan activates the reader. Handlers fire zero or more times until the
	// returned subscription is stopped. Failure to activate returns an error
	// and registers nothing.
	Scan(ctx context.Context, h NFCHandlers) (Subscription, error)
}

// StopOnce returns a Subscription that calls stop at most once.
func StopOnce(stop func()) Subscription {
	return &onceSub{stop: stop}
}

type onceSub struct {
	once sync.Once
	stop func()
}

func (s *onceSub) Stop() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}
