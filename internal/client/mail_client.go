package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipshare/api/internal/config"
)

// MailSender defines the interface for transactional mail operations
type MailSender interface {
	SendConfirmation(ctx context.Context, userID, email string) error
	HealthCheck(ctx context.Context) error
}

// MailClient implements MailSender for the external mailer microservice
type MailClient struct {
	httpClient *http.Client
	baseURL    string
}

// confirmationRequest is the payload for the confirmation endpoint
type confirmationRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// NewMailClient creates a new mailer client
func NewMailClient(cfg *config.MailConfig) *MailClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10
	}
	return &MailClient{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		baseURL: cfg.ServiceURL,
	}
}

// SendConfirmation asks the mailer to send an account confirmation email
func (c *MailClient) SendConfirmation(ctx context.Context, userID, email string) error {
	return c.post(ctx, "/confirmation", &confirmationRequest{UserID: userID, Email: email})
}

// HealthCheck checks if the mailer service is available
func (c *MailClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailer service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// post sends a POST request with JSON body
func (c *MailClient) post(ctx context.Context, endpoint string, body interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailer service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *MailClient) IsConfigured() bool {
	return c.baseURL != ""
}
