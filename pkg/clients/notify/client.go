package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

// Client delivers inventory snapshots to an external webhook.
type Client interface {
	SendSnapshot(ctx context.Context, snapshot models.InventorySnapshot) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewWebhookClient builds a client posting JSON to url.
func NewWebhookClient(url string) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		url:        url,
	}
}

// snapshotMessage is the webhook payload.
type snapshotMessage struct {
	Event    string                   `json:"event"`
	Text     string                   `json:"text"`
	Snapshot models.InventorySnapshot `json:"snapshot"`
}

// SendSnapshot posts the snapshot with a human-readable summary line.
func (c *WebhookClient) SendSnapshot(ctx context.Context, snapshot models.InventorySnapshot) error {
	payload := snapshotMessage{
		Event: "inventory.snapshot",
		Text: fmt.Sprintf("Inventory %s: %d assets, %d installed, %d available, %d in repair.",
			snapshot.Date.Format("2006-01-02"), snapshot.Total, snapshot.Installed, snapshot.Available, snapshot.Repair),
		Snapshot: snapshot,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send snapshot webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("snapshot webhook error: code=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
