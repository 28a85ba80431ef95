package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
	"github.com/saturnino-fabrica-de-software/veriface/internal/client"
	"github.com/saturnino-fabrica-de-software/veriface/internal/credential"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/evidence"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Verify(ctx context.Context, payload *domain.VerificationPayload) (*domain.VerificationResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}

func (m *MockBackend) Enroll(ctx context.Context, req *client.EnrollmentRequest) (*domain.EnrollmentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrollmentResult), args.Error(1)
}

type MockPrompt struct {
	mock.Mock
}

func (m *MockPrompt) Prompt(ctx context.Context, message string) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	service *BiometricService
	backend *MockBackend
	store   *credential.InMemoryStore
	keys    *credential.KeyPair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys, err := credential.DeriveKeyPair([]byte("install-secret"), "device-fp")
	require.NoError(t, err)

	store := credential.NewInMemoryStore()
	backend := &MockBackend{}
	svc := NewBiometricService(
		evidence.NewComposer(testLogger()),
		credential.NewStateMachine(store, testLogger()),
		keys,
		backend,
		"install-42",
		testLogger(),
	)
	return &fixture{service: svc, backend: backend, store: store, keys: keys}
}

func embeddingCapture() capture.Result {
	return capture.Result{
		FaceDetected:  true,
		FaceID:        "1a2b3c",
		FaceEmbedding: []float64{0.1, 0.2, 0.3},
		FaceFeatures:  []float64{0.5, 0.5},
	}
}

func TestEnroll_SuccessCommitsCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.backend.On("Enroll", mock.Anything, mock.MatchedBy(func(req *client.EnrollmentRequest) bool {
		return req.EmployeeID == "emp-42" &&
			len(req.FaceEmbedding) == 3 &&
			req.FingerprintPublicKey == f.keys.Credential.PublicKey &&
			req.DeviceAssertion != ""
	})).Return(&domain.EnrollmentResult{Enrolled: true, ExternalID: "emp-42"}, nil)

	outcome, err := f.service.Enroll(ctx, embeddingCapture(), "emp-42", "e@corp.test")
	require.NoError(t, err)
	assert.True(t, outcome.Committed)

	state, err := f.service.State(ctx)
	require.NoError(t, err)
	assert.True(t, state.HasCredential)
	assert.Equal(t, f.keys.Credential.PublicKey, state.CredentialPublicKey)

	f.backend.AssertExpectations(t)
}

func TestEnroll_ConflictPreservesStoredCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A previously confirmed enrollment from an earlier install.
	prior := domain.DeviceCredential{PublicKey: "prior-public-key", KeyID: "prior"}
	require.NoError(t, f.store.Save(ctx, credential.Record{Credential: prior}))

	f.backend.On("Enroll", mock.Anything, mock.Anything).
		Return(&domain.EnrollmentResult{Enrolled: false, Classification: "duplicate-face"}, nil)

	outcome, err := f.service.Enroll(ctx, embeddingCapture(), "emp-42", "")
	assert.ErrorIs(t, err, domain.ErrDuplicateFace)
	require.NotNil(t, outcome)
	assert.False(t, outcome.Committed)
	require.NotNil(t, outcome.Preserved)
	assert.Equal(t, "prior-public-key", outcome.Preserved.PublicKey)

	// Stored value equals the pre-attempt value.
	record, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "prior-public-key", record.Credential.PublicKey)
}

func TestEnroll_NoEvidenceNeverReachesBackend(t *testing.T) {
	f := newFixture(t)

	empty := capture.Result{FaceDetected: true}
	_, err := f.service.Enroll(context.Background(), empty, "emp-42", "")
	assert.ErrorIs(t, err, domain.ErrNoFaceEvidence)

	f.backend.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)

	record, loadErr := f.store.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Nil(t, record)
}

func TestLogin_NotEnrolled(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Login(context.Background(), embeddingCapture())
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
	f.backend.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestLogin_SuccessRefreshesIdentityCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, credential.Record{
		Credential: f.keys.Credential,
		Identity: &domain.IdentitySnapshot{
			FaceID:    "stale",
			Embedding: []float64{1, 0, 0},
			UpdatedAt: time.Now().Add(-time.Hour),
		},
	}))

	f.backend.On("Verify", mock.Anything, mock.MatchedBy(func(p *domain.VerificationPayload) bool {
		return p.PrimaryEvidence() == domain.EvidenceEmbedding &&
			p.FingerprintPublicKey == f.keys.Credential.PublicKey &&
			p.DeviceAssertion != "" &&
			p.FaceID == "1a2b3c"
	})).Return(&domain.VerificationResult{Verified: true, ExternalID: "emp-42", Confidence: 0.95}, nil)

	verdict, err := f.service.Login(ctx, embeddingCapture())
	require.NoError(t, err)
	assert.True(t, verdict.Verified)

	record, err := f.store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, record.Identity)
	assert.Equal(t, "1a2b3c", record.Identity.FaceID)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, record.Identity.Embedding)
}

func TestLogin_RejectionKeepsIdentityCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, credential.Record{
		Credential: f.keys.Credential,
		Identity:   &domain.IdentitySnapshot{FaceID: "cached"},
	}))

	f.backend.On("Verify", mock.Anything, mock.Anything).
		Return(&domain.VerificationResult{Verified: false, Confidence: 0.2}, nil)

	verdict, err := f.service.Login(ctx, embeddingCapture())
	require.NoError(t, err)
	assert.False(t, verdict.Verified)

	record, _ := f.store.Load(ctx)
	assert.Equal(t, "cached", record.Identity.FaceID)
}

func TestLogin_CredentialMismatchSurfacesDistinctly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, credential.Record{Credential: f.keys.Credential}))

	f.backend.On("Verify", mock.Anything, mock.Anything).
		Return(nil, domain.ErrCredentialMismatch)

	_, err := f.service.Login(ctx, embeddingCapture())
	assert.ErrorIs(t, err, domain.ErrCredentialMismatch)
	assert.NotErrorIs(t, err, domain.ErrNotEnrolled)
}

func TestLogin_ImageFallbackWhenEmbeddingUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, credential.Record{Credential: f.keys.Credential}))

	imagePath := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(imagePath, []byte("jpegbytes"), 0o600))

	result := embeddingCapture()
	result.FaceEmbedding = nil
	result.ImagePath = imagePath

	f.backend.On("Verify", mock.Anything, mock.MatchedBy(func(p *domain.VerificationPayload) bool {
		return p.FaceImage != "" && len(p.FaceEmbedding) == 0
	})).Return(&domain.VerificationResult{Verified: true}, nil)

	_, err := f.service.Login(ctx, result)
	require.NoError(t, err)
	f.backend.AssertExpectations(t)
}

func TestPromptGate_DenialBlocksFlows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, credential.Record{Credential: f.keys.Credential}))

	prompt := &MockPrompt{}
	prompt.On("Prompt", mock.Anything, mock.Anything).Return(false, nil)
	f.service.WithPrompt(prompt)

	_, err := f.service.Login(ctx, embeddingCapture())
	assert.ErrorIs(t, err, domain.ErrVerificationRejected)
	f.backend.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestFlows_RejectCaptureWithoutFace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, credential.Record{Credential: f.keys.Credential}))

	_, err := f.service.Enroll(ctx, capture.Result{}, "emp-42", "")
	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)

	_, err = f.service.Login(ctx, capture.Result{})
	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)

	f.backend.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
	f.backend.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestState_NotEnrolled(t *testing.T) {
	f := newFixture(t)
	state, err := f.service.State(context.Background())
	require.NoError(t, err)
	assert.False(t, state.HasCredential)
	assert.Empty(t, state.CredentialPublicKey)
}
