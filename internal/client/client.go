// Package client talks to the backend verification and enrollment
// endpoints. The backend is the verification authority; this client only
// ships evidence and translates its answers into typed outcomes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// Config holds the backend client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:4000",
		Timeout: 30 * time.Second,
	}
}

// Client is the HTTP client for the attendance backend.
type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// EnrollmentRequest is the evidence payload plus the account fields the
// enrollment endpoint requires.
type EnrollmentRequest struct {
	domain.VerificationPayload
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email,omitempty"`
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Classification string `json:"classification,omitempty"`
}

// Verify submits face evidence for login. A rejection is returned inside the
// result, not as an error; errors mean the attempt itself failed.
func (c *Client) Verify(ctx context.Context, payload *domain.VerificationPayload) (*domain.VerificationResult, error) {
	var result domain.VerificationResult
	if err := c.post(ctx, "/biometric/verify", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Enroll submits face evidence plus account fields. Conflicts come back as
// an EnrollmentResult with Enrolled=false and the backend's classification,
// so the credential state machine can take the preserve path.
func (c *Client) Enroll(ctx context.Context, req *EnrollmentRequest) (*domain.EnrollmentResult, error) {
	var result domain.EnrollmentResult
	err := c.post(ctx, "/biometric/enroll", req, &result)
	if err == nil {
		return &result, nil
	}
	if domain.IsConflict(err) {
		return &domain.EnrollmentResult{
			Enrolled:       false,
			Classification: domain.Classification(err),
		}, nil
	}
	return nil, err
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return c.mapError(resp)
}

// mapError translates backend error envelopes into typed domain errors.
func (c *Client) mapError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.ErrInternal.WithError(
			fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(raw)))
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		classification := body.Classification
		if classification == "" {
			classification = body.Code
		}
		return domain.ConflictError(classification)
	case http.StatusUnauthorized:
		if body.Code == "CREDENTIAL_MISMATCH" {
			return domain.ErrCredentialMismatch
		}
		return domain.ErrVerificationRejected.WithError(fmt.Errorf("%s", body.Message))
	case http.StatusNotFound:
		if body.Code == "NOT_ENROLLED" {
			return domain.ErrNotEnrolled
		}
	}

	return domain.ErrInternal.WithError(
		fmt.Errorf("backend returned status %d, code %s", resp.StatusCode, body.Code))
}
