package app

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	gws.BuiltinEventHandler
	messages chan string
}

func (r *recordingClient) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	r.messages <- message.Data.String()
}

func next(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestWebsocketServer_AuthorizeAndPublish(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auth := func(token string) (int64, error) {
		if token == "good" {
			return 7, nil
		}
		return 0, errors.New("bad token")
	}
	ws := NewWebsocketServer(WebsocketServerConfig{}, auth, nil)

	r := gin.New()
	r.GET("/events", ws.Run())
	srv := httptest.NewServer(r)
	defer srv.Close()

	rc := &recordingClient{messages: make(chan string, 8)}
	conn, _, err := gws.NewClient(rc, &gws.ClientOption{Addr: "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"})
	require.NoError(t, err)
	go conn.ReadLoop()
	defer conn.WriteClose(1000, nil)

	require.NoError(t, conn.WriteMessage(gws.OpcodeText, []byte("Ping|{}")))
	assert.True(t, strings.HasPrefix(next(t, rc.messages), "Ping|"))

	require.NoError(t, conn.WriteMessage(gws.OpcodeText, []byte("Authorization|good")))
	reply := next(t, rc.messages)
	assert.True(t, strings.HasPrefix(reply, "Authorization|"))
	assert.Contains(t, reply, `"status":true`)

	assert.Equal(t, 0, ws.Publish(8, "StorageChange", map[string]string{"key": "x"}))
	assert.Equal(t, 1, ws.Publish(7, "StorageChange", map[string]string{"key": "miknow-notes"}))
	assert.Equal(t, `StorageChange|{"key":"miknow-notes"}`, next(t, rc.messages))
	assert.Equal(t, 1, ws.Count())
}
