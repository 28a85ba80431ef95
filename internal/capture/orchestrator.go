// Package capture drives the detect, center, quality-gate, capture cycle on
// a repeating timer. One session produces at most one capture event; late
// detector callbacks after cancellation are discarded unconditionally.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/embedding"
	"github.com/saturnino-fabrica-de-software/veriface/internal/faceid"
	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
	"github.com/saturnino-fabrica-de-software/veriface/internal/quality"
	"github.com/saturnino-fabrica-de-software/veriface/internal/sensor"
)

// Config carries the orchestrator timing knobs. Zero values fall back to the
// production defaults; tests shrink them to milliseconds.
type Config struct {
	// TickPeriod is the detection polling interval.
	TickPeriod time.Duration
	// InitialDelay postpones the first tick after session start.
	InitialDelay time.Duration
	// SettleDelay is the hold-still window between stability and capture.
	SettleDelay time.Duration
	// DetectTimeout bounds one camera+detector round trip; exceeding it is
	// a transient failure, not a session failure.
	DetectTimeout time.Duration

	PreviewQuality float64
	CaptureQuality float64
	MinFaceSize    float64
}

func (c Config) withDefaults() Config {
	if c.TickPeriod <= 0 {
		c.TickPeriod = 1500 * time.Millisecond
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 300 * time.Millisecond
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1200 * time.Millisecond
	}
	if c.DetectTimeout <= 0 {
		c.DetectTimeout = 2 * time.Second
	}
	if c.PreviewQuality <= 0 {
		c.PreviewQuality = 0.5
	}
	if c.CaptureQuality <= 0 {
		c.CaptureQuality = 0.85
	}
	if c.MinFaceSize <= 0 {
		c.MinFaceSize = 0.15
	}
	return c
}

// Orchestrator owns the sensor stack and runs capture sessions.
type Orchestrator struct {
	camera   sensor.Camera
	detector sensor.Detector
	gate     *quality.Gate
	embedder *embedding.Adapter
	cfg      Config
	logger   *slog.Logger

	// OnStatus, when set, receives progress updates for the UI layer.
	OnStatus func(Status)
}

func NewOrchestrator(camera sensor.Camera, detector sensor.Detector, embedder *embedding.Adapter, cfg Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		camera:   camera,
		detector: detector,
		gate:     quality.NewGate(),
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Start requests camera permission and begins a new capture session. The
// returned session runs until it captures, fails, is cancelled, or ctx is
// done.
func (o *Orchestrator) Start(ctx context.Context) (*Session, error) {
	granted, err := o.camera.RequestPermission(ctx)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, sensor.ErrPermissionDenied
	}

	session := newSession()
	session.mu.Lock()
	session.state = StateDetecting
	session.mu.Unlock()

	go o.run(ctx, session)
	return session, nil
}

// run is the cooperative polling loop, one per session.
func (o *Orchestrator) run(ctx context.Context, s *Session) {
	select {
	case <-time.After(o.cfg.InitialDelay):
	case <-ctx.Done():
		s.Cancel()
		return
	case <-s.done:
		return
	}

	ticker := time.NewTicker(o.cfg.TickPeriod)
	defer ticker.Stop()

	// in-flight guard: a tick is skipped entirely while the previous
	// detection has not completed
	var pendingDetection atomic.Bool

	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			return
		case <-s.done:
			return
		case <-ticker.C:
			if !pendingDetection.CompareAndSwap(false, true) {
				continue
			}
			go func() {
				defer pendingDetection.Store(false)
				o.tick(ctx, s)
			}()
		}
	}
}

// tick performs one camera+detect round and advances the state machine.
func (o *Orchestrator) tick(ctx context.Context, s *Session) {
	dctx, cancel := context.WithTimeout(ctx, o.cfg.DetectTimeout)
	defer cancel()

	photo, err := o.camera.TakePhoto(dctx, o.cfg.PreviewQuality)
	if err != nil {
		o.handleSensorError(s, err)
		return
	}

	faces, err := o.detector.Detect(dctx, photo.Path, sensor.DetectOptions{
		Landmarks:      true,
		Classification: true,
		MinFaceSize:    o.cfg.MinFaceSize,
	})
	if err != nil {
		o.handleSensorError(s, err)
		return
	}

	var obs *observation.FaceObservation
	if len(faces) > 0 {
		obs = largestFace(faces)
	} else {
		obs = &observation.FaceObservation{}
	}

	o.advance(ctx, s, obs, photo)
}

// handleSensorError recovers transient sensor failures locally. Permission
// loss cancels the session; everything else returns it to detecting.
func (o *Orchestrator) handleSensorError(s *Session, err error) {
	if errors.Is(err, sensor.ErrPermissionDenied) {
		o.logger.Warn("camera permission revoked mid-session", "session", s.ID)
		s.Cancel()
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sensor.ErrCameraBusy) {
		o.logger.Debug("transient sensor error", "session", s.ID, "error", err)
	} else {
		o.logger.Debug("detection tick failed", "session", s.ID, "error", err)
	}
	s.backToDetecting()
}

// advance applies one observation to the session state machine.
func (o *Orchestrator) advance(ctx context.Context, s *Session, obs *observation.FaceObservation, photo *sensor.Photo) {
	s.mu.Lock()
	if s.state.terminal() || s.state == StateCapturing {
		// late result: session moved on while we were detecting
		s.mu.Unlock()
		return
	}

	verdict := o.gate.Evaluate(obs)
	status := s.tracker.Update(obs, float64(photo.Width), float64(photo.Height))

	update := Status{State: s.state, Centered: status.Centered}
	switch {
	case !verdict.Accepted:
		update.Guidance = verdict.Reason.Guidance()
	case !status.Centered:
		update.Guidance = status.Guidance
	}

	if !verdict.Accepted || !status.Centered {
		if s.state == StateStabilizing {
			s.stopSettleLocked()
			s.candidate = nil
			s.candidatePath = ""
			s.state = StateDetecting
		}
		update.State = s.state
		s.mu.Unlock()
		o.notify(update)
		return
	}

	// centered and accepted: remember the freshest usable frame
	s.candidate = obs
	s.candidatePath = photo.Path
	s.frameW, s.frameH = photo.Width, photo.Height

	if status.Stable && s.state == StateDetecting {
		s.state = StateStabilizing
		s.settle = time.AfterFunc(o.cfg.SettleDelay, func() {
			o.performCapture(ctx, s)
		})
	}
	update.State = s.state
	s.mu.Unlock()
	o.notify(update)
}

// performCapture runs after the settle delay with no intervening
// non-centered observation. The captured flag is one-shot: once set it
// permanently blocks re-entry into StateCapturing for this session.
func (o *Orchestrator) performCapture(ctx context.Context, s *Session) {
	s.mu.Lock()
	if s.state != StateStabilizing || s.captured {
		s.mu.Unlock()
		return
	}
	s.captured = true
	s.state = StateCapturing
	obs := s.candidate
	s.mu.Unlock()

	o.notify(Status{State: StateCapturing, Centered: true})

	photo, err := o.camera.TakePhoto(ctx, o.cfg.CaptureQuality)
	if err != nil {
		if errors.Is(err, sensor.ErrCameraBusy) {
			// transient: allow the loop to try again later
			s.mu.Lock()
			if !s.state.terminal() {
				s.captured = false
				s.state = StateDetecting
				s.tracker.Reset()
			}
			s.mu.Unlock()
			return
		}
		s.finish(StateFailed, domain.ErrCaptureFailed.WithError(err))
		return
	}

	result := Result{
		FaceDetected: true,
		FaceID:       faceid.Compute(obs),
		FaceFeatures: faceid.Features(obs),
		ImagePath:    photo.Path,
		Observation:  obs,
		FrameWidth:   photo.Width,
		FrameHeight:  photo.Height,
	}

	if o.embedder != nil {
		vec, err := o.embedder.Generate(ctx, obs, photo.Path)
		switch {
		case err == nil:
			result.FaceEmbedding = vec
		case errors.Is(err, embedding.ErrModelUnavailable):
			o.logger.Debug("embedding unavailable, falling back to image evidence", "session", s.ID)
		default:
			o.logger.Warn("embedding generation failed", "session", s.ID, "error", err)
		}
	}

	s.mu.Lock()
	if s.state != StateCapturing {
		// cancelled while capturing: discard
		s.mu.Unlock()
		return
	}
	s.state = StateCaptured
	s.stopSettleLocked()
	s.results <- result // buffered, single producer
	close(s.done)
	s.mu.Unlock()

	o.notify(Status{State: StateCaptured, Centered: true})
}

func (o *Orchestrator) notify(status Status) {
	if o.OnStatus != nil {
		o.OnStatus(status)
	}
}

// largestFace picks the dominant detection when several faces are present.
func largestFace(faces []*observation.FaceObservation) *observation.FaceObservation {
	best := faces[0]
	bestArea := area(best)
	for _, f := range faces[1:] {
		if a := area(f); a > bestArea {
			best, bestArea = f, a
		}
	}
	return best
}

func area(obs *observation.FaceObservation) float64 {
	if !obs.HasBounds() {
		return 0
	}
	return obs.Bounds.Width * obs.Bounds.Height
}
