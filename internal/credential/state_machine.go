package credential

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// CommitFunc performs the remote half of an enrollment attempt: it submits
// the staged credential to the backend and returns its decision. It must not
// touch local storage.
type CommitFunc func(ctx context.Context, staged domain.DeviceCredential) (*domain.EnrollmentResult, error)

// Outcome reports how an enrollment attempt ended.
type Outcome struct {
	// Committed is true when the staged credential was confirmed by the
	// backend and durably persisted.
	Committed bool
	// Preserved carries the prior credential when the attempt failed and
	// the old enrollment remains valid.
	Preserved *domain.DeviceCredential
}

// StateMachine guards the durable credential record with a two-phase
// commit: the staged credential lives only in session state until the
// backend confirms it, and a conflict performs no write at all, so a
// previously enrolled identity on this device can still authenticate.
type StateMachine struct {
	store  Store
	logger *slog.Logger

	// serializes enrollment attempts; the stores are already safe for
	// concurrent Load/Save but the read-attempt-write sequence is not
	mu sync.Mutex
}

func NewStateMachine(store Store, logger *slog.Logger) *StateMachine {
	return &StateMachine{store: store, logger: logger}
}

// Get returns the stored credential, trimmed, or nil when not enrolled.
func (m *StateMachine) Get(ctx context.Context) (*domain.DeviceCredential, error) {
	record, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Credential.IsZero() {
		return nil, nil
	}
	cred := record.Credential.Normalized()
	return &cred, nil
}

// Identity returns the cached identity snapshot, or nil when absent.
func (m *StateMachine) Identity(ctx context.Context) (*domain.IdentitySnapshot, error) {
	record, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return record.Identity, nil
}

// Enroll runs one enrollment attempt. The previous credential, if any, stays
// in storage untouched until commit reports success; only then does the
// staged credential replace it, together with the identity snapshot, in a
// single Save. On a backend conflict no write happens and the old credential
// is returned in Outcome.Preserved alongside the typed conflict error.
func (m *StateMachine) Enroll(ctx context.Context, staged domain.DeviceCredential, identity *domain.IdentitySnapshot, commit CommitFunc) (*Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential before enrollment: %w", err)
	}

	staged = staged.Normalized()
	if staged.IsZero() {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("staged credential is empty"))
	}

	result, err := commit(ctx, staged)
	if err != nil {
		return m.preserved(prev), err
	}

	if !result.Enrolled {
		conflict := domain.ConflictError(result.Classification)
		m.logger.Info("enrollment conflict, keeping previous credential",
			"classification", result.Classification,
			"had_previous", prev != nil,
		)
		return m.preserved(prev), conflict
	}

	record := Record{Credential: staged, Identity: identity}
	if err := m.store.Save(ctx, record); err != nil {
		// The backend accepted but the local write failed. The old
		// record is still intact; the caller retries enrollment.
		return m.preserved(prev), fmt.Errorf("persist confirmed credential: %w", err)
	}

	m.logger.Info("device credential committed", "key_id", staged.KeyID)
	return &Outcome{Committed: true}, nil
}

// RefreshIdentity updates only the identity snapshot after a confirmed
// login, leaving the credential bytes exactly as stored.
func (m *StateMachine) RefreshIdentity(ctx context.Context, identity *domain.IdentitySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if record == nil {
		return domain.ErrNotEnrolled
	}
	record.Identity = identity
	return m.store.Save(ctx, *record)
}

// VerifyStored compares the stored credential against the value the backend
// has on file. A whitespace-only difference is normalized away; a real
// mismatch is reported distinctly from "not enrolled" so the caller can tell
// the user to re-enroll.
func (m *StateMachine) VerifyStored(ctx context.Context, remote string) error {
	stored, err := m.Get(ctx)
	if err != nil {
		return err
	}
	if stored == nil {
		return domain.ErrNotEnrolled
	}
	if !stored.Equal(domain.DeviceCredential{PublicKey: remote}) {
		return domain.ErrCredentialMismatch
	}
	return nil
}

func (m *StateMachine) preserved(prev *Record) *Outcome {
	out := &Outcome{}
	if prev != nil && !prev.Credential.IsZero() {
		cred := prev.Credential.Normalized()
		out.Preserved = &cred
	}
	return out
}
