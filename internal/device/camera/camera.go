// Package camera implements scan.DecodeAdapter over Linux V4L2 video devices.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/blackjack/webcam"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/tapcart/internal/scan"
)

// pixFmtYUYV is the V4L2 fourcc for packed YUYV 4:2:2.
const pixFmtYUYV webcam.PixelFormat = 0x56595559

// Config selects and sizes the capture device.
type Config struct {
	// Device pins a single device path. Empty enumerates /dev/video*.
	Device string
	Width  uint32
	Height uint32
	// DecodeInterval throttles decoding; frames in between only feed the preview.
	DecodeInterval time.Duration
}

// DefaultConfig returns a 640x480 configuration that decodes ten frames a second.
func DefaultConfig() Config {
	return Config{Width: 640, Height: 480, DecodeInterval: 100 * time.Millisecond}
}

// Adapter is a scan.DecodeAdapter backed by V4L2.
type Adapter struct {
	cfg Config
	log logrus.FieldLogger
}

var (
	_ scan.DecodeAdapter = (*Adapter)(nil)
	_ scan.AccessProber  = (*Adapter)(nil)
)

// New creates an Adapter.
func New(cfg Config, log logrus.FieldLogger) *Adapter {
	if cfg.Width == 0 || cfg.Height == 0 {
		d := DefaultConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	return &Adapter{cfg: cfg, log: log.WithField("component", "v4l2")}
}

// ListDevices returns devices that open and offer YUYV capture. When every
// candidate is refused for lack of permission the error wraps
// scan.ErrPermissionDenied.
func (a *Adapter) ListDevices(ctx context.Context) ([]scan.DeviceID, error) {
	paths, err := a.candidates()
	if err != nil {
		return nil, err
	}

	var ids []scan.DeviceID
	var denied error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cam, err := webcam.Open(p)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				denied = fmt.Errorf("%w: open %s: %w", scan.ErrPermissionDenied, p, err)
			}
			a.log.WithError(err).WithField("device", p).Debug("skipping video device")
			continue
		}
		if _, ok := cam.GetSupportedFormats()[pixFmtYUYV]; ok {
			ids = append(ids, scan.DeviceID(p))
		}
		cam.Close()
	}
	if len(ids) == 0 && denied != nil {
		return nil, denied
	}
	return ids, nil
}

func (a *Adapter) candidates() ([]string, error) {
	if a.cfg.Device != "" {
		return []string{a.cfg.Device}, nil
	}
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("glob video devices: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Probe opens and configures the device once, then releases it.
func (a *Adapter) Probe(ctx context.Context, id scan.DeviceID) error {
	cam, _, _, err := a.open(id)
	if err != nil {
		return err
	}
	return cam.Close()
}

func (a *Adapter) open(id scan.DeviceID) (*webcam.Webcam, int, int, error) {
	path := string(id)
	if path == "" {
		ids, err := a.ListDevices(context.Background())
		if err != nil {
			return nil, 0, 0, err
		}
		if len(ids) == 0 {
			return nil, 0, 0, scan.ErrNoDeviceFound
		}
		path = string(ids[0])
	}

	cam, err := webcam.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, 0, 0, fmt.Errorf("%w: %w", scan.ErrPermissionDenied, err)
		}
		return nil, 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	f, w, h, err := cam.SetImageFormat(pixFmtYUYV, a.cfg.Width, a.cfg.Height)
	if err != nil {
		cam.Close()
		return nil, 0, 0, fmt.Errorf("set image format on %s: %w", path, err)
	}
	if f != pixFmtYUYV {
		cam.Close()
		return nil, 0, 0, fmt.Errorf("%s: driver chose pixel format %#x instead of YUYV", path, uint32(f))
	}
	return cam, int(w), int(h), nil
}

// DecodeFromVideo streams frames from the device on a dedicated goroutine.
// Stopping the subscription cancels capture and waits for the device to be
// closed.
func (a *Adapter) DecodeFromVideo(ctx context.Context, id scan.DeviceID, sink scan.FrameSink, fn scan.DecodeFunc) (scan.Subscription, error) {
	cam, w, h, err := a.open(id)
	if err != nil {
		return nil, err
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("start streaming: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go a.capture(ctx, cam, w, h, sink, fn, done)

	return scan.StopOnce(func() {
		cancel()
		<-done
	}), nil
}

func (a *Adapter) capture(ctx context.Context, cam *webcam.Webcam, w, h int, sink scan.FrameSink, fn scan.DecodeFunc, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if err := cam.StopStreaming(); err != nil {
			a.log.WithError(err).Debug("stop streaming")
		}
		cam.Close()
	}()

	dec := NewDecoder()
	var lastDecode time.Time
	for ctx.Err() == nil {
		err := cam.WaitForFrame(1)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			fn(nil, &scan.AdapterError{Op: "wait for frame", Err: err})
			return
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			fn(nil, &scan.AdapterError{Op: "read frame", Err: err})
			continue
		}
		if len(frame) == 0 {
			continue
		}

		img := yuyvToGray(frame, w, h)
		if sink != nil {
			sink.ShowFrame(img)
		}
		if time.Since(lastDecode) < a.cfg.DecodeInterval {
			continue
		}
		lastDecode = time.Now()

		res, err := dec.Decode(img)
		if ctx.Err() != nil {
			return
		}
		fn(res, err)
	}
}
