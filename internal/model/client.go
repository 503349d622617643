package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

// Client fetches win-probability estimates. Implementations must treat the
// estimate as opaque; the engine never recomputes probabilities itself.
type Client interface {
	GetProbability(ctx context.Context, eventID, outcome string) (*models.ModelProbability, error)
	BatchProbabilities(ctx context.Context, requests []ProbabilityRequest) ([]*models.ModelProbability, error)
	HealthCheck(ctx context.Context) error
}

// ProbabilityRequest identifies one outcome to estimate
type ProbabilityRequest struct {
	EventID string `json:"event_id"`
	Outcome string `json:"outcome"`
}

// HTTPClient provides HTTP access to the probability service
type HTTPClient struct {
	client  *http.Client
	baseURL string
	logger  *logrus.Logger
}

// NewHTTPClient creates a new HTTP client for the probability service
func NewHTTPClient(cfg *config.ModelConfig, logger *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.HTTPAddress,
		logger:  logger,
	}
}

// probabilityResponse represents one estimate in the service payload
type probabilityResponse struct {
	EventID     string    `json:"event_id"`
	Outcome     string    `json:"outcome"`
	Probability float64   `json:"probability"`
	SampleSize  int       `json:"sample_size"`
	AsOf        time.Time `json:"as_of"`
}

// GetProbability retrieves a single outcome's estimate
func (c *HTTPClient) GetProbability(ctx context.Context, eventID, outcome string) (*models.ModelProbability, error) {
	url := fmt.Sprintf("%s/api/v1/probabilities/%s/%s", c.baseURL, eventID, outcome)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoEstimate
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("probability request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var pr probabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return c.toEstimate(&pr)
}

// BatchProbabilities retrieves estimates for many outcomes in one round trip.
// Outcomes the service cannot estimate come back as nil entries in request
// order.
func (c *HTTPClient) BatchProbabilities(ctx context.Context, requests []ProbabilityRequest) ([]*models.ModelProbability, error) {
	start := time.Now()

	jsonData, err := json.Marshal(map[string]interface{}{"requests": requests})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/probabilities/batch", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("batch request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Estimates []*probabilityResponse `json:"estimates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(payload.Estimates) != len(requests) {
		return nil, fmt.Errorf("%w: expected %d estimates, got %d", ErrInvalidEstimate, len(requests), len(payload.Estimates))
	}

	results := make([]*models.ModelProbability, len(requests))
	for i, pr := range payload.Estimates {
		if pr == nil {
			continue
		}
		estimate, err := c.toEstimate(pr)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"event":   pr.EventID,
				"outcome": pr.Outcome,
			}).WithError(err).Warn("Discarding invalid estimate")
			continue
		}
		results[i] = estimate
	}

	c.logger.WithFields(logrus.Fields{
		"requested": len(requests),
		"duration":  time.Since(start),
	}).Debug("Batch probabilities fetched")

	return results, nil
}

// HealthCheck checks probability service health
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	return nil
}

func (c *HTTPClient) toEstimate(pr *probabilityResponse) (*models.ModelProbability, error) {
	if pr.Probability < 0 || pr.Probability > 1 {
		return nil, fmt.Errorf("%w: probability %f", ErrInvalidEstimate, pr.Probability)
	}

	asOf := pr.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	return &models.ModelProbability{
		EventID:     pr.EventID,
		Outcome:     pr.Outcome,
		Probability: pr.Probability,
		SampleSize:  pr.SampleSize,
		AsOf:        asOf,
	}, nil
}
