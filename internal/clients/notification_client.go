package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NotificationClient handles communication with notification-service
// for sending emails. All sends are best-effort; callers log failures
// and move on.
type NotificationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewNotificationClient creates a new notification service client
func NewNotificationClient(baseURL, apiKey string) *NotificationClient {
	if baseURL == "" {
		return nil
	}
	return &NotificationClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NotificationSendRequest represents a request to notification-service
// /api/v1/notifications/send
type NotificationSendRequest struct {
	Channel        string                 `json:"channel"`
	RecipientEmail string                 `json:"recipientEmail"`
	Subject        string                 `json:"subject"`
	Template       string                 `json:"template"`
	Context        map[string]interface{} `json:"context"`
	Priority       string                 `json:"priority,omitempty"`
}

// InvitationEmailData carries the fields for an invitation email
type InvitationEmailData struct {
	Email     string
	FirstName string
	Role      string
	Token     string
	ExpiresIn string
}

// SendInvitationEmail sends the invitation email with its activation
// token
func (c *NotificationClient) SendInvitationEmail(ctx context.Context, data *InvitationEmailData) error {
	req := &NotificationSendRequest{
		Channel:        "EMAIL",
		RecipientEmail: data.Email,
		Subject:        "You have been invited to join your fleet team",
		Template:       "fleet_invitation",
		Context: map[string]interface{}{
			"first_name":      data.FirstName,
			"role":            data.Role,
			"activation_path": fmt.Sprintf("/invitations/%s/accept", data.Token),
			"expires_in":      data.ExpiresIn,
		},
		Priority: "high",
	}
	return c.send(ctx, req)
}

// PasswordResetEmailData carries the fields for a password reset email
type PasswordResetEmailData struct {
	Email     string
	FirstName string
	Token     string
	ExpiresIn string
}

// SendPasswordResetEmail sends the password reset email with its raw
// token
func (c *NotificationClient) SendPasswordResetEmail(ctx context.Context, data *PasswordResetEmailData) error {
	req := &NotificationSendRequest{
		Channel:        "EMAIL",
		RecipientEmail: data.Email,
		Subject:        "Reset your password",
		Template:       "password_reset",
		Context: map[string]interface{}{
			"first_name": data.FirstName,
			"reset_path": fmt.Sprintf("/password-resets/%s", data.Token),
			"expires_in": data.ExpiresIn,
		},
		Priority: "high",
	}
	return c.send(ctx, req)
}

func (c *NotificationClient) send(ctx context.Context, payload *NotificationSendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/notifications/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call notification-service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification-service returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
