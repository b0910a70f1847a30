// Package scantest provides scripted adapters and recording sinks for
// exercising scan components without hardware.
package scantest

import (
	"context"
	"sync"

	"github.com/abhisek/tapcart/internal/scan"
)

// Decoder is a scripted scan.DecodeAdapter. Frames are pushed by the test
// through Emit, Miss and Succeed.
type Decoder struct {
	Devices   []scan.DeviceID
	ListErr   error
	DecodeErr error
	ProbeErr  error

	mu          sync.Mutex
	listCalls   int
	decodeCalls int
	probeCalls  int
	stops       int
	fn          scan.DecodeFunc
	sinks       []scan.FrameSink
}

var (
	_ scan.DecodeAdapter = (*Decoder)(nil)
	_ scan.AccessProber  = (*Decoder)(nil)
)

// NewDecoder returns a Decoder with one device named "cam0".
func NewDecoder() *Decoder {
	return &Decoder{Devices: []scan.DeviceID{"cam0"}}
}

func (d *Decoder) ListDevices(ctx context.Context) ([]scan.DeviceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listCalls++
	if d.ListErr != nil {
		return nil, d.ListErr
	}
	return append([]scan.DeviceID(nil), d.Devices...), nil
}

func (d *Decoder) Probe(ctx context.Context, id scan.DeviceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.probeCalls++
	return d.ProbeErr
}

func (d *Decoder) DecodeFromVideo(ctx context.Context, id scan.DeviceID, sink scan.FrameSink, fn scan.DecodeFunc) (scan.Subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decodeCalls++
	if d.DecodeErr != nil {
		return nil, d.DecodeErr
	}
	d.fn = fn
	d.sinks = append(d.sinks, sink)
	return scan.StopOnce(func() {
		d.mu.Lock()
		d.stops++
		d.mu.Unlock()
	}), nil
}

// Emit delivers one frame outcome to the most recent subscription callback.
// It keeps working after that subscription is stopped, which lets tests
// simulate late callbacks.
func (d *Decoder) Emit(res *scan.Decoded, err error) {
	d.mu.Lock()
	fn := d.fn
	d.mu.Unlock()
	if fn != nil {
		fn(res, err)
	}
}

// Miss delivers a transient not-found frame.
func (d *Decoder) Miss() { d.Emit(nil, scan.ErrNotFound) }

// Succeed delivers a decoded frame.
func (d *Decoder) Succeed(text string) {
	d.Emit(&scan.Decoded{Text: text, Format: "QR_CODE"}, nil)
}

func (d *Decoder) ListCalls() int   { return d.count(&d.listCalls) }
func (d *Decoder) DecodeCalls() int { return d.count(&d.decodeCalls) }
func (d *Decoder) ProbeCalls() int  { return d.count(&d.probeCalls) }
func (d *Decoder) Stops() int       { return d.count(&d.stops) }

func (d *Decoder) count(n *int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *n
}

// Reader is a scripted scan.NFCAdapter.
type Reader struct {
	Supported bool
	ScanErr   error

	mu        sync.Mutex
	scanCalls int
	stops     int
	handlers  scan.NFCHandlers
}

var _ scan.NFCAdapter = (*Reader)(nil)

// NewReader returns a Reader that reports NFC support.
func NewReader() *Reader {
	return &Reader{Supported: true}
}

func (r *Reader) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Supported
}

func (r *Reader) Scan(ctx context.Context, h scan.NFCHandlers) (scan.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanCalls++
	if r.ScanErr != nil {
		return nil, r.ScanErr
	}
	r.handlers = h
	return scan.StopOnce(func() {
		r.mu.Lock()
		r.stops++
		r.mu.Unlock()
	}), nil
}

// Read fires the reading event on the latest registration.
func (r *Reader) Read(msg scan.Message) {
	r.mu.Lock()
	h := r.handlers
	r.mu.Unlock()
	if h.OnReading != nil {
		h.OnReading(msg)
	}
}

// ReadText fires a reading event with one record per text.
func (r *Reader) ReadText(texts ...string) {
	msg := scan.Message{SerialNumber: "04:a2:1b:3c"}
	for _, t := range texts {
		msg.Records = append(msg.Records, scan.Record{RecordType: "text", Data: []byte(t)})
	}
	r.Read(msg)
}

// Fail fires the reading error event on the latest registration.
func (r *Reader) Fail(err error) {
	r.mu.Lock()
	h := r.handlers
	r.mu.Unlock()
	if h.OnReadingError != nil {
		h.OnReadingError(err)
	}
}

func (r *Reader) ScanCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanCalls
}

func (r *Reader) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Notifier records toasts.
type Notifier struct {
	mu     sync.Mutex
	toasts []scan.Toast
}

func (n *Notifier) Notify(t scan.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, t)
}

// Toasts returns a copy of every toast so far.
func (n *Notifier) Toasts() []scan.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]scan.Toast(nil), n.toasts...)
}

// Beeper records tones.
type Beeper struct {
	Err error

	mu    sync.Mutex
	tones []scan.Tone
}

func (b *Beeper) Beep(ctx context.Context, t scan.Tone) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tones = append(b.tones, t)
	return b.Err
}

// Tones returns a copy of every tone so far.
func (b *Beeper) Tones() []scan.Tone {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]scan.Tone(nil), b.tones...)
}

// Successes collects identifiers passed to OnScanSuccess.
type Successes struct {
	mu  sync.Mutex
	ids []string
}

// Record is suitable as scan.Options.OnScanSuccess.
func (s *Successes) Record(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

// IDs returns a copy of the recorded identifiers.
func (s *Successes) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}
