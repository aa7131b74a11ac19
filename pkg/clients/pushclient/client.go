package pushclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jakechorley/church-ops/pkg/core/notify"
)

const requestTimeout = 10 * time.Second

// Client posts push notifications to the push gateway, which fans out to the user's devices
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a push gateway client. apiKey is sent as a bearer token when set.
func NewClient(baseURL, apiKey string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Client{httpClient: client}
}

// SendToUser delivers msg to every registered device of userID. It does not retry.
func (c *Client) SendToUser(ctx context.Context, userID string, msg notify.PushMessage) error {
	if userID == "" {
		return fmt.Errorf("push recipient has no user id")
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("userID", userID).
		SetBody(msg).
		Post("/users/{userID}/notifications")
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}
