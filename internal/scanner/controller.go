package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
	"eventdesk/internal/journal"
	"eventdesk/internal/metrics"
	"eventdesk/internal/notify"
)

// Verifier submits a decoded token for attendance verification.
type Verifier interface {
	ScanAttendance(ctx context.Context, token string) (*backend.ScanResponse, error)
}

// AuthHandler ends the session on a backend auth failure and reports
// whether err was one.
type AuthHandler interface {
	HandleError(ctx context.Context, err error) bool
}

// Notifier publishes operator toasts.
type Notifier interface {
	Publish(ctx context.Context, n notify.Notice) error
}

// Recorder keeps a log of verification outcomes.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// Options tunes a Controller. Zero values pick defaults.
type Options struct {
	Debounce time.Duration
	// SubmitDedup applies the debounce to submissions as well as toasts.
	// Off by default: every decode is submitted.
	SubmitDedup bool
	Notifier    Notifier
	Recorder    Recorder
	Auth        AuthHandler
	Now         func() time.Time
}

// Controller turns camera frames into verification results.
type Controller struct {
	camera   Camera
	decoder  Decoder
	verifier Verifier
	opts     Options

	mu       sync.Mutex
	view     View
	debounce *Debouncer
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}

	inflight sync.WaitGroup
}

// NewController wires a controller. It does not touch the camera until Start.
func NewController(camera Camera, decoder Decoder, verifier Verifier, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		camera:   camera,
		decoder:  decoder,
		verifier: verifier,
		opts:     opts,
		debounce: NewDebouncer(opts.Debounce, opts.Now),
	}
	c.view.clearResult()
	return c
}

// Start acquires the first camera device and begins decoding in the
// background until Stop is called or ctx ends. It returns ErrNoCamera when
// no device is available. Calling Start on a running controller is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	devices, err := c.camera.Devices(ctx)
	if err != nil || len(devices) == 0 {
		c.view.Error = "No camera device found."
		if err != nil {
			log.WithError(err).Warn("camera enumeration failed")
		}
		return ErrNoCamera
	}
	device := devices[0]
	stream, err := c.camera.Open(ctx, device.ID)
	if err != nil {
		c.view.Error = "No camera device found."
		log.WithError(err).WithField("device", device.ID).Warn("camera open failed")
		return ErrNoCamera
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.view.Running = true
	c.view.Device = device.Label
	c.view.Error = ""

	go c.loop(runCtx, cancel, stream, c.done)
	log.WithField("device", device.Label).Info("scanner started")
	return nil
}

// Stop releases the camera and halts decoding. It is safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the frame loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// View returns a snapshot of the current screen state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Members = append([]backend.Registrant{}, c.view.Members...)
	return v
}

func (c *Controller) loop(ctx context.Context, cancel context.CancelFunc, stream Stream, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer func() {
		_ = stream.Close()
		c.mu.Lock()
		c.running = false
		c.view.Running = false
		c.mu.Unlock()
		log.Info("scanner stopped")
	}()

	frames := stream.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				c.mu.Lock()
				c.view.Error = "Camera stream ended."
				c.mu.Unlock()
				return
			}
			c.handleFrame(ctx, f)
		}
	}
}

func (c *Controller) handleFrame(ctx context.Context, f Frame) {
	text, err := c.decoder.Decode(f.Image)
	if err != nil {
		if errors.Is(err, ErrNoCode) {
			return
		}
		metrics.DecodeErrors.Inc()
		c.mu.Lock()
		c.view.Error = err.Error()
		c.mu.Unlock()
		return
	}
	metrics.FramesDecoded.Inc()
	c.HandleDecoded(ctx, text)
}

// HandleDecoded processes one decoded token: it becomes the displayed token,
// the previous result is cleared, a toast is published when the token is
// distinct, and the token is submitted for verification.
func (c *Controller) HandleDecoded(ctx context.Context, text string) {
	c.mu.Lock()
	c.view.clearResult()
	c.view.Token = text
	distinct := c.debounce.Accept(text)
	c.mu.Unlock()

	if distinct {
		metrics.ScanToasts.Inc()
		c.announce(text)
	}
	if c.opts.SubmitDedup && !distinct {
		return
	}
	c.inflight.Add(1)
	go c.submit(ctx, text)
}

func (c *Controller) announce(text string) {
	if c.opts.Notifier == nil {
		return
	}
	n := notify.Notice{
		Kind:   notify.KindScanned,
		Title:  notify.TitleScanned,
		Detail: text,
		Level:  "success",
		At:     c.opts.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.opts.Notifier.Publish(ctx, n); err != nil {
			log.WithError(err).Debug("scan notice dropped")
		}
	}()
}

func (c *Controller) submit(ctx context.Context, text string) {
	defer c.inflight.Done()

	start := time.Now()
	resp, err := c.verifier.ScanAttendance(ctx, text)
	metrics.VerifyLatency.Observe(time.Since(start).Seconds())

	var res Result
	switch {
	case err == nil:
		res = Interpret(resp)
	case backend.IsAuth(err):
		res = ErrorResult{IsAuthError: true}
		if c.opts.Auth != nil {
			c.opts.Auth.HandleError(context.WithoutCancel(ctx), err)
		}
	case ctx.Err() != nil:
		return
	default:
		log.WithError(err).WithField("token", text).Warn("attendance verification failed")
		res = ErrorResult{Message: backend.UserMessage(err, "Error fetching candidate details")}
	}
	metrics.Verifications.WithLabelValues(res.Kind()).Inc()

	c.mu.Lock()
	c.view.apply(res)
	c.mu.Unlock()

	c.record(ctx, text, res)
}

func (c *Controller) record(ctx context.Context, text string, res Result) {
	if c.opts.Recorder == nil {
		return
	}
	e := journal.Entry{Token: text, Kind: res.Kind(), At: c.opts.Now()}
	switch r := res.(type) {
	case FamilyResult:
		e.Status, e.Message, e.ScannedBy, e.Members = r.Status, r.Message, r.ScannedBy, r.TotalMembers
	case SingleResult:
		e.Status, e.Message, e.ScannedBy, e.Members = r.Status, r.Message, r.Member.Name, 1
	case StatusResult:
		e.Status, e.Message = r.Status, r.Message
	case ErrorResult:
		e.Message = r.Message
	}
	if _, err := c.opts.Recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		log.WithError(err).Warn("journal write failed")
	}
}
