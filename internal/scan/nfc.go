package scan

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
)

// NFC reads a student identifier from the first record of an NFC tag.
//
// State machine: idle → scanning → success | error | unsupported. Scan Again
// returns to scanning.
type NFC struct {
	adapter  NFCAdapter
	opts     Options
	feedback *Feedback
	notifier Notifier
	log      logrus.FieldLogger

	mu        sync.Mutex
	sess      Session
	supported bool
	active    *nfcRun
	closed    bool
}

type nfcRun struct {
	id     uint64
	cancel context.CancelFunc
	sub    Subscription
}

func (r *nfcRun) release() {
	r.cancel()
	if r.sub != nil {
		r.sub.Stop()
	}
}

// NewNFC creates an idle NFC component.
func NewNFC(adapter NFCAdapter, opts Options) *NFC {
	log := opts.logger("nfc")
	return &NFC{
		adapter:   adapter,
		opts:      opts,
		feedback:  NewFeedback(opts.Beeper, log),
		notifier:  opts.notifier(),
		log:       log,
		supported: adapter != nil && adapter.Available(),
	}
}

// Session returns a copy of the current session.
func (n *NFC) Session() Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sess
}

// Supported reports the result of the latest capability check.
func (n *NFC) Supported() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.supported
}

// ActionLabel is the label of the primary button.
func (n *NFC) ActionLabel() string {
	switch n.Session().Status {
	case StatusSuccess, StatusError:
		return "Scan Again"
	default:
		return "Start Scanning"
	}
}

// ActionEnabled reports whether the primary button can be pressed.
func (n *NFC) ActionEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sess.Status != StatusScanning && n.supported && !n.closed
}

// Start activates the reader. Without an NFC capability the session goes
// straight to unsupported and the adapter is never asked to scan.
func (n *NFC) Start(ctx context.Context) {
	supported := n.adapter != nil && n.adapter.Available()

	n.mu.Lock()
	if n.closed || n.sess.Status == StatusScanning {
		n.mu.Unlock()
		return
	}
	n.supported = supported
	prev := n.active
	n.active = nil
	if !supported {
		n.sess = Session{ID: n.sess.ID + 1, Status: StatusUnsupported, Err: ErrUnsupported}
		snap := n.sess
		n.mu.Unlock()
		if prev != nil {
			prev.release()
		}
		n.log.Warn("NFC not supported")
		n.changed(snap)
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &nfcRun{id: n.sess.ID + 1, cancel: cancel}
	n.active = run
	n.sess = Session{ID: run.id, Status: StatusScanning, Permission: n.sess.Permission}
	snap := n.sess
	n.mu.Unlock()

	if prev != nil {
		prev.release()
	}
	n.changed(snap)

	sub, err := n.adapter.Scan(runCtx, NFCHandlers{
		OnReading:      func(msg Message) { n.onReading(run, msg) },
		OnReadingError: func(err error) { n.onReadingError(run, err) },
	})
	if err != nil {
		n.activationFailed(run, err)
		return
	}

	n.mu.Lock()
	if !n.current(run) {
		n.mu.Unlock()
		sub.Stop()
		return
	}
	run.sub = sub
	n.sess.Permission = PermissionGranted
	n.mu.Unlock()
	n.log.WithField("session", run.id).Debug("nfc scanning")
}

// Stop releases the reader subscription. It is idempotent.
func (n *NFC) Stop() {
	n.mu.Lock()
	run := n.active
	n.active = nil
	if run != nil && n.sess.Status == StatusScanning {
		n.sess.Status = StatusIdle
	}
	snap := n.sess
	n.mu.Unlock()

	if run == nil {
		return
	}
	run.release()
	n.changed(snap)
}

// Close tears the component down. No handler mutates state afterwards.
func (n *NFC) Close() {
	n.mu.Lock()
	n.closed = true
	run := n.active
	n.active = nil
	n.mu.Unlock()

	if run != nil {
		run.release()
	}
}

func (n *NFC) onReading(run *nfcRun, msg Message) {
	// Only the first record carries the identifier.
	if len(msg.Records) == 0 {
		n.onReadingError(run, ErrEmptyMessage)
		return
	}
	id := DecodeText(msg.Records[0].Data)

	n.mu.Lock()
	if !n.current(run) {
		n.mu.Unlock()
		return
	}
	n.active = nil
	n.sess.Status = StatusSuccess
	n.sess.Result = id
	snap := n.sess
	n.mu.Unlock()

	n.feedback.Success()
	run.release()
	n.log.WithFields(logrus.Fields{"session": run.id, "serial": msg.SerialNumber}).Info("tag read")
	n.notifier.Notify(successToast(id))
	n.changed(snap)
	if n.opts.OnScanSuccess != nil {
		n.opts.OnScanSuccess(id)
	}
}

func (n *NFC) onReadingError(run *nfcRun, err error) {
	n.mu.Lock()
	if !n.current(run) {
		n.mu.Unlock()
		return
	}
	n.active = nil
	n.sess.Status = StatusError
	n.sess.Err = &AdapterError{Op: "read", Err: err}
	snap := n.sess
	n.mu.Unlock()

	n.feedback.Error()
	run.release()
	n.log.WithError(err).WithField("session", run.id).Error("NFC read failed")
	n.notifier.Notify(Toast{Title: toastReadErrTitle, Description: toastReadErrDesc, Variant: VariantDestructive})
	n.changed(snap)
}

func (n *NFC) activationFailed(run *nfcRun, err error) {
	var actErr *ActivationError
	if !errors.As(err, &actErr) {
		err = &ActivationError{Err: err}
	}

	n.mu.Lock()
	if !n.current(run) {
		n.mu.Unlock()
		return
	}
	n.active = nil
	n.sess.Status = StatusError
	n.sess.Err = err
	if errors.Is(err, ErrPermissionDenied) {
		n.sess.Permission = PermissionDenied
	}
	snap := n.sess
	n.mu.Unlock()

	n.feedback.Error()
	run.release()
	n.log.WithError(err).WithField("session", run.id).Error("NFC scan failed")
	n.notifier.Notify(Toast{Title: toastNFCErrTitle, Description: toastNFCErrDesc, Variant: VariantDestructive})
	n.changed(snap)
}

// current must be called with n.mu held.
func (n *NFC) current(run *nfcRun) bool {
	return !n.closed && n.active == run
}

func (n *NFC) changed(s Session) {
	if n.opts.OnChange != nil {
		n.opts.OnChange(s)
	}
}

// DecodeText decodes record data as UTF-8 the way a browser TextDecoder
// does: a leading byte order mark is dropped and each maximal ill-formed
// subsequence becomes one U+FFFD.
func DecodeText(b []byte) string {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(strings.TrimPrefix(string(b), "\uFEFF"), "\uFFFD")
	}
	return string(out)
}
