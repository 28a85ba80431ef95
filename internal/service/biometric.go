// Package service ties the capture pipeline, the evidence composer, the
// credential state machine and the backend client into the enrollment and
// login flows the application drives.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
	"github.com/saturnino-fabrica-de-software/veriface/internal/client"
	"github.com/saturnino-fabrica-de-software/veriface/internal/credential"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/embedding"
	"github.com/saturnino-fabrica-de-software/veriface/internal/evidence"
)

// Backend is the slice of the backend client the service needs.
type Backend interface {
	Verify(ctx context.Context, payload *domain.VerificationPayload) (*domain.VerificationResult, error)
	Enroll(ctx context.Context, req *client.EnrollmentRequest) (*domain.EnrollmentResult, error)
}

// PromptGate is the system biometric prompt. It gates access to the locally
// stored device key; it produces no identity evidence of its own.
type PromptGate interface {
	Prompt(ctx context.Context, message string) (bool, error)
}

// CredentialState answers the credential query exposed to the app layer.
type CredentialState struct {
	HasCredential       bool   `json:"hasCredential"`
	CredentialPublicKey string `json:"credentialPublicKey,omitempty"`
}

// BiometricService drives enrollment and login on top of a capture result.
type BiometricService struct {
	composer       *evidence.Composer
	credentials    *credential.StateMachine
	keys           *credential.KeyPair
	backend        Backend
	prompt         PromptGate // optional
	installationID string
	logger         *slog.Logger
}

func NewBiometricService(
	composer *evidence.Composer,
	credentials *credential.StateMachine,
	keys *credential.KeyPair,
	backend Backend,
	installationID string,
	logger *slog.Logger,
) *BiometricService {
	return &BiometricService{
		composer:       composer,
		credentials:    credentials,
		keys:           keys,
		backend:        backend,
		installationID: installationID,
		logger:         logger,
	}
}

// WithPrompt gates key usage behind the system biometric prompt.
func (s *BiometricService) WithPrompt(prompt PromptGate) *BiometricService {
	s.prompt = prompt
	return s
}

// Enroll submits a capture as an enrollment attempt for the given account.
// The device credential is staged through the state machine: on backend
// confirmation it is durably committed together with the identity snapshot,
// on conflict nothing is written and the typed conflict error surfaces so
// the UI can offer retry or proceed-to-login.
func (s *BiometricService) Enroll(ctx context.Context, result capture.Result, employeeID, email string) (*credential.Outcome, error) {
	if !result.FaceDetected {
		return nil, domain.ErrNoFaceDetected
	}
	if err := s.gate(ctx, "Confirm enrollment on this device"); err != nil {
		return nil, err
	}

	identity := snapshotOf(result)
	commit := func(ctx context.Context, staged domain.DeviceCredential) (*domain.EnrollmentResult, error) {
		assertion, err := credential.NewAssertion(s.keys.Private, staged.KeyID, s.installationID)
		if err != nil {
			return nil, err
		}
		payload, err := s.composer.Build(result, &staged, assertion)
		if err != nil {
			return nil, err
		}
		return s.backend.Enroll(ctx, &client.EnrollmentRequest{
			VerificationPayload: *payload,
			EmployeeID:          employeeID,
			Email:               email,
		})
	}

	outcome, err := s.credentials.Enroll(ctx, s.keys.Credential, identity, commit)
	if err != nil {
		if domain.IsConflict(err) {
			s.logger.Info("enrollment conflict",
				"classification", domain.Classification(err),
				"preserved", outcome != nil && outcome.Preserved != nil,
			)
		}
		return outcome, err
	}

	s.logger.Info("enrollment committed", "employee_id", employeeID)
	return outcome, nil
}

// Login submits a capture for verification against the enrolled credential.
// The backend decides; on confirmed success the local identity cache is
// refreshed. ErrNotEnrolled and ErrCredentialMismatch stay distinct so the
// UI tells the user to enroll versus re-enroll.
func (s *BiometricService) Login(ctx context.Context, result capture.Result) (*domain.VerificationResult, error) {
	if !result.FaceDetected {
		return nil, domain.ErrNoFaceDetected
	}
	cred, err := s.credentials.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, domain.ErrNotEnrolled
	}

	if err := s.gate(ctx, "Confirm login on this device"); err != nil {
		return nil, err
	}

	assertion, err := credential.NewAssertion(s.keys.Private, cred.KeyID, s.installationID)
	if err != nil {
		return nil, err
	}

	payload, err := s.composer.Build(result, cred, assertion)
	if err != nil {
		// evidence absence must never reach the network layer
		return nil, err
	}

	if score, ok := s.localSimilarity(ctx, result); ok {
		s.logger.Debug("local embedding similarity", "score", score)
	}

	verdict, err := s.backend.Verify(ctx, payload)
	if err != nil {
		return nil, err
	}

	if verdict.Verified {
		if err := s.credentials.RefreshIdentity(ctx, snapshotOf(result)); err != nil {
			s.logger.Warn("identity cache refresh failed", "error", err)
		}
	}
	return verdict, nil
}

// State reports whether this installation holds a credential.
func (s *BiometricService) State(ctx context.Context) (*CredentialState, error) {
	cred, err := s.credentials.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return &CredentialState{}, nil
	}
	return &CredentialState{
		HasCredential:       true,
		CredentialPublicKey: cred.PublicKey,
	}, nil
}

func (s *BiometricService) gate(ctx context.Context, message string) error {
	if s.prompt == nil {
		return nil
	}
	ok, err := s.prompt.Prompt(ctx, message)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	if !ok {
		return domain.ErrVerificationRejected
	}
	return nil
}

func snapshotOf(result capture.Result) *domain.IdentitySnapshot {
	if result.FaceID == "" {
		return nil
	}
	return &domain.IdentitySnapshot{
		FaceID:    result.FaceID,
		Features:  result.FaceFeatures,
		Embedding: result.FaceEmbedding,
		UpdatedAt: time.Now().UTC(),
	}
}

// localSimilarity scores a fresh capture against the cached identity
// snapshot. It disambiguates who is in front of a shared device before the
// round trip; the backend verdict stays authoritative.
func (s *BiometricService) localSimilarity(ctx context.Context, result capture.Result) (float64, bool) {
	if len(result.FaceEmbedding) == 0 {
		return 0, false
	}
	cached, err := s.credentials.Identity(ctx)
	if err != nil || cached == nil || len(cached.Embedding) == 0 {
		return 0, false
	}
	return embedding.CosineSimilarity(result.FaceEmbedding, cached.Embedding), true
}
