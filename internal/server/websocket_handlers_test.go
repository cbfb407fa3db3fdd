package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"zenith/internal/models"
	"zenith/internal/notifications"
	"zenith/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the app on a loopback port for clients that need a real socket.
func (ts *testServer) listen(t *testing.T) string {
	t.Helper()
	require.NoError(t, ts.srv.hub.StartWiring(ts.srv.shutdownCtx, ts.srv.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.Shutdown() })
	return ln.Addr().String()
}

func TestModerationFeed_RequiresModerator(t *testing.T) {
	ts := newTestServer(t, nil)
	addr := ts.listen(t)
	userToken := ts.tokenFor(t, testutil.CreateUser(t, ts.db, "alice", models.RoleUser))

	header := http.Header{"Authorization": []string{"Bearer " + userToken}}
	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/v1/moderator/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws://"+addr+"/api/v1/moderator/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestModerationFeed_PlainRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	modToken := ts.tokenFor(t, testutil.CreateUser(t, ts.db, "mod", models.RoleModerator))
	status, _ := ts.do(t, http.MethodGet, "/api/v1/moderator/ws", modToken, nil)
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

func TestModerationFeed_ReceivesPendingComments(t *testing.T) {
	ts := newTestServer(t, nil)
	addr := ts.listen(t)
	author := testutil.CreateUser(t, ts.db, "alice", models.RoleUser)
	category := testutil.CreateCategory(t, ts.db, "Misc")
	post := testutil.CreatePost(t, ts.db, author, category, models.PostStatusPublished)
	modToken := ts.tokenFor(t, testutil.CreateUser(t, ts.db, "mod", models.RoleModerator))

	// query-string token, the way browsers connect
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/v1/moderator/ws?token="+modToken, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return ts.srv.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	body, err := json.Marshal(map[string]any{"postId": post.ID, "content": "first!"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/v1/comments", addr), bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.tokenFor(t, author))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event notifications.Event
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, notifications.EventCommentPending, event.Type)
	payload := event.Payload.(map[string]any)
	assert.EqualValues(t, post.ID, payload["postId"])
	assert.Equal(t, "alice", payload["author"])
}
