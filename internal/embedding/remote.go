package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRuntimeURL = "http://localhost:8600"
	// DefaultDim is the output length of the bundled face model.
	DefaultDim = 192
)

// RuntimeModel talks to a local inference runtime sidecar over HTTP. The
// runtime owns the actual model weights; this client only ships normalized
// tensors and reads vectors back.
type RuntimeModel struct {
	baseURL string
	dim     int
	client  *http.Client
}

func NewRuntimeModel(baseURL string, dim int) *RuntimeModel {
	if baseURL == "" {
		baseURL = defaultRuntimeURL
	}
	if dim <= 0 {
		dim = DefaultDim
	}
	return &RuntimeModel{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *RuntimeModel) Dim() int {
	return m.dim
}

type inferRequest struct {
	Input []float32 `json:"input"`
}

type inferResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float64 `json:"embedding"`
}

func (m *RuntimeModel) Infer(ctx context.Context, input []float32) ([]float64, error) {
	body, err := json.Marshal(inferRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal infer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/infer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create infer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		// Runtime not running on this device: treated as model absence.
		return nil, ErrModelUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable {
		return nil, ErrModelUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference runtime returned status %d", resp.StatusCode)
	}

	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode infer response: %w", err)
	}
	if out.Dim != m.dim || len(out.Embedding) != m.dim {
		return nil, fmt.Errorf("unexpected embedding dimension %d, want %d", len(out.Embedding), m.dim)
	}
	return out.Embedding, nil
}

var _ Model = (*RuntimeModel)(nil)
