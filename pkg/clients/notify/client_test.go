package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

func TestSendSnapshot(t *testing.T) {
	var got snapshotMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	snapshot := models.InventorySnapshot{
		Date:      time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		Total:     5,
		Installed: 3,
		Available: 1,
		Repair:    1,
	}
	require.NoError(t, NewWebhookClient(srv.URL).SendSnapshot(context.Background(), snapshot))

	assert.Equal(t, "inventory.snapshot", got.Event)
	assert.Equal(t, "Inventory 2025-03-14: 5 assets, 3 installed, 1 available, 1 in repair.", got.Text)
	assert.Equal(t, 5, got.Snapshot.Total)
}

func TestSendSnapshotReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewWebhookClient(srv.URL).SendSnapshot(context.Background(), models.InventorySnapshot{})
	assert.ErrorContains(t, err, "code=403")
}
