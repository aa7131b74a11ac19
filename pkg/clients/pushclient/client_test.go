package pushclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/church-ops/pkg/core/notify"
)

func TestSendToUser_PostsMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody notify.PushMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123")
	err := client.SendToUser(context.Background(), "user-1", notify.PushMessage{
		Title: "Invitation",
		Body:  "Greeter on Sunday",
		Data:  map[string]string{"assignment_id": "asg-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/users/user-1/notifications", gotPath)
	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "Invitation", gotBody.Title)
	assert.Equal(t, "asg-1", gotBody.Data["assignment_id"])
}

func TestSendToUser_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no devices", http.StatusNotFound)
	}))
	defer server.Close()

	err := NewClient(server.URL, "").SendToUser(context.Background(), "user-1", notify.PushMessage{Title: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSendToUser_MissingUser(t *testing.T) {
	err := NewClient("http://localhost", "").SendToUser(context.Background(), "", notify.PushMessage{})
	assert.Error(t, err)
}
