package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Options configures a scan component.
type Options struct {
	Beeper   Beeper
	Notifier Notifier
	Logger   logrus.FieldLogger

	// OnScanSuccess is called exactly once per successful session with the
	// decoded identifier.
	OnScanSuccess func(identifier string)

	// OnChange is called after every state transition with a copy of the
	// session. It may be called from any goroutine.
	OnChange func(Session)

	// Sink receives camera preview frames. Camera only.
	Sink FrameSink

	// Prequalify requests explicit device access before decoding starts
	// when the adapter supports it. Camera only.
	Prequalify bool
}

func (o Options) logger(component string) logrus.FieldLogger {
	log := o.Logger
	if log == nil {
		log = discardLogger()
	}
	return log.WithField("component", component)
}

func (o Options) notifier() Notifier {
	if o.Notifier == nil {
		return nopNotifier{}
	}
	return o.Notifier
}

// Camera scans barcodes and QR codes from a video device.
//
// State machine: idle → requesting-permission → scanning → success | error.
// Restart goes success → idle → scanning. At most one decode subscription
// is live at a time; every asynchronous continuation checks that its run is
// still the active one before touching state.
type Camera struct {
	adapter  DecodeAdapter
	opts     Options
	feedback *Feedback
	notifier Notifier
	log      logrus.FieldLogger

	mu     sync.Mutex
	sess   Session
	active *cameraRun
	closed bool
}

type cameraRun struct {
	id     uint64
	cancel context.CancelFunc
	stream *frameStream
	sub    Subscription
}

// release closes the frame stream before stopping the adapter so a capture
// goroutine blocked in push can exit.
func (r *cameraRun) release() {
	r.stream.close()
	r.cancel()
	if r.sub != nil {
		r.sub.Stop()
	}
}

// NewCamera creates an idle Camera.
func NewCamera(adapter DecodeAdapter, opts Options) *Camera {
	log := opts.logger("camera")
	return &Camera{
		adapter:  adapter,
		opts:     opts,
		feedback: NewFeedback(opts.Beeper, log),
		notifier: opts.notifier(),
		log:      log,
	}
}

// Session returns a copy of the current session.
func (c *Camera) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Start begins a new session. It blocks while devices are enumerated and
// returns once decoding is running or the session has failed; decoding
// itself continues in the background. Start is a no-op while a session is
// already requesting permission or scanning, and after Close.
func (c *Camera) Start(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.sess.Status.Active() {
		c.mu.Unlock()
		return
	}
	prev := c.active
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &cameraRun{id: c.sess.ID + 1, cancel: cancel, stream: newFrameStream()}
	c.active = run
	c.sess = Session{
		ID:         run.id,
		Status:     StatusRequestingPermission,
		Permission: c.sess.Permission,
	}
	snap := c.sess
	c.mu.Unlock()

	if prev != nil {
		prev.release()
	}
	c.changed(snap)

	devices, err := c.adapter.ListDevices(ctx)
	if err != nil {
		c.deny(run, fmt.Errorf("%w: %w", ErrPermissionDenied, &AdapterError{Op: "list devices", Err: err}))
		return
	}
	if len(devices) == 0 {
		c.deny(run, ErrNoDeviceFound)
		return
	}
	device := devices[0]

	if c.opts.Prequalify {
		if p, ok := c.adapter.(AccessProber); ok {
			if err := p.Probe(ctx, device); err != nil {
				c.deny(run, fmt.Errorf("%w: %w", ErrPermissionDenied, err))
				return
			}
		}
	}

	c.mu.Lock()
	if !c.current(run) {
		c.mu.Unlock()
		return
	}
	c.sess.Permission = PermissionGranted
	c.sess.Status = StatusScanning
	snap = c.sess
	c.mu.Unlock()
	c.changed(snap)

	sub, err := c.adapter.DecodeFromVideo(runCtx, device, c.opts.Sink, run.stream.push)
	if err != nil {
		c.deny(run, fmt.Errorf("%w: %w", ErrPermissionDenied, &AdapterError{Op: "decode from video", Err: err}))
		return
	}

	c.mu.Lock()
	if !c.current(run) {
		c.mu.Unlock()
		sub.Stop()
		return
	}
	run.sub = sub
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"session": run.id, "device": device}).Debug("camera scanning")
	go c.await(runCtx, run)
}

// Stop releases the active decode subscription. It is idempotent: with no
// active subscription the state is left untouched.
func (c *Camera) Stop() {
	c.mu.Lock()
	run := c.active
	c.active = nil
	if run != nil && c.sess.Status.Active() {
		c.sess.Status = StatusIdle
	}
	snap := c.sess
	c.mu.Unlock()

	if run == nil {
		return
	}
	run.release()
	c.changed(snap)
}

// Restart clears the previous result and starts a fresh session.
func (c *Camera) Restart(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	run := c.active
	c.active = nil
	c.sess = Session{ID: c.sess.ID, Status: StatusIdle, Permission: c.sess.Permission}
	snap := c.sess
	c.mu.Unlock()

	if run != nil {
		run.release()
	}
	c.changed(snap)
	c.Start(ctx)
}

// Close tears the camera down. No callback mutates state afterwards.
func (c *Camera) Close() {
	c.mu.Lock()
	c.closed = true
	run := c.active
	c.active = nil
	c.mu.Unlock()

	if run != nil {
		run.release()
	}
}

func (c *Camera) await(ctx context.Context, run *cameraRun) {
	res, ok := run.stream.first(ctx, func(err error) {
		c.log.WithError(err).WithField("session", run.id).Error("Barcode scan error")
	})
	if !ok {
		return
	}

	c.mu.Lock()
	if !c.current(run) {
		c.mu.Unlock()
		return
	}
	c.active = nil
	c.sess.Status = StatusSuccess
	c.sess.Result = res.Text
	snap := c.sess
	c.mu.Unlock()

	c.feedback.Success()
	run.release()
	c.log.WithFields(logrus.Fields{"session": run.id, "format": res.Format}).Info("code decoded")
	c.notifier.Notify(successToast(res.Text))
	c.changed(snap)
	if c.opts.OnScanSuccess != nil {
		c.opts.OnScanSuccess(res.Text)
	}
}

func (c *Camera) deny(run *cameraRun, err error) {
	c.mu.Lock()
	if !c.current(run) {
		c.mu.Unlock()
		return
	}
	c.active = nil
	c.sess.Permission = PermissionDenied
	c.sess.Status = StatusError
	c.sess.Err = err
	snap := c.sess
	c.mu.Unlock()

	run.release()
	c.log.WithError(err).WithField("session", run.id).Error("Error initializing camera")
	c.changed(snap)
}

// current must be called with c.mu held.
func (c *Camera) current(run *cameraRun) bool {
	return !c.closed && c.active == run
}

func (c *Camera) changed(s Session) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(s)
	}
}
