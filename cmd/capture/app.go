package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
	"github.com/saturnino-fabrica-de-software/veriface/internal/client"
	"github.com/saturnino-fabrica-de-software/veriface/internal/config"
	"github.com/saturnino-fabrica-de-software/veriface/internal/credential"
	"github.com/saturnino-fabrica-de-software/veriface/internal/embedding"
	"github.com/saturnino-fabrica-de-software/veriface/internal/evidence"
	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
	"github.com/saturnino-fabrica-de-software/veriface/internal/sensor/mock"
	"github.com/saturnino-fabrica-de-software/veriface/internal/service"
)

type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *service.BiometricService
	cleanup func()
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	keys, err := credential.DeriveKeyPair([]byte(cfg.InstallSecret), cfg.DeviceFingerprint)
	if err != nil {
		return nil, fmt.Errorf("derive device key: %w", err)
	}

	store, cleanup, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	backend := client.NewClient(client.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	})

	svc := service.NewBiometricService(
		evidence.NewComposer(logger),
		credential.NewStateMachine(store, logger),
		keys,
		backend,
		installationID(cfg),
		logger,
	)

	return &app{cfg: cfg, logger: logger, service: svc, cleanup: cleanup}, nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

func openStore(cfg *config.Config) (credential.Store, func(), error) {
	switch cfg.StoreType {
	case "bolt":
		store, err := credential.OpenBoltStore(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open credential store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store := credential.NewRedisStore(rdb, cfg.RedisNamespace, cfg.DeviceFingerprint)
		return store, func() { _ = rdb.Close() }, nil
	case "memory":
		return credential.NewInMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.StoreType)
	}
}

func installationID(cfg *config.Config) string {
	if cfg.InstallationID != "" {
		return cfg.InstallationID
	}
	return uuid.NewString()
}

// runCapture drives one capture session against the scripted sensor stack
// and blocks until it finishes.
func (a *app) runCapture(ctx context.Context) (*capture.Result, error) {
	camera := mock.NewCamera()
	face := mock.CenteredFace(float64(camera.FrameW), float64(camera.FrameH))
	detector := mock.NewDetector(mock.Frame{
		Faces: []*observation.FaceObservation{face},
	})

	model := embedding.NewRuntimeModel(a.cfg.EmbeddingRuntimeURL, a.cfg.EmbeddingDim)
	embedder := embedding.NewAdapter(model, a.logger)

	orch := capture.NewOrchestrator(camera, detector, embedder, capture.Config{
		TickPeriod:    a.cfg.TickPeriod,
		InitialDelay:  a.cfg.InitialDelay,
		SettleDelay:   a.cfg.SettleDelay,
		DetectTimeout: a.cfg.DetectTimeout,
	}, a.logger)
	orch.OnStatus = func(status capture.Status) {
		if status.Guidance != "" {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "%s: %s\n", status.State, status.Guidance)
		}
	}

	session, err := orch.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}
	defer session.Cancel()

	result, err := session.Await(ctx)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
