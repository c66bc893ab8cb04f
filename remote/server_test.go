package remote

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gltf-viewer/settings"
)

func newTestServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	s := NewServer(settings.Defaults(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/params"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return s, conn
}

func TestPatchIsQueuedAndAcked(t *testing.T) {
	s, conn := newTestServer(t)

	patch := `{"ssao": {"radius": 2}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(patch)))

	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.True(t, reply.OK)
	require.NotNil(t, reply.Params)
	assert.Equal(t, float32(2), reply.Params.SSAO.Radius)

	got := <-s.Patches()
	assert.JSONEq(t, patch, string(got))
}

func TestInvalidPatchIsRejected(t *testing.T) {
	s, conn := newTestServer(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"display": {"channel": "albedo"}}`)))

	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.False(t, reply.OK)
	assert.NotEmpty(t, reply.Error)
	assert.Len(t, s.Patches(), 0)
}

func TestGetReportsPublishedParams(t *testing.T) {
	s := NewServer(settings.Defaults(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	p := settings.Defaults()
	p.Bloom.Enabled = false
	s.Publish(p)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/params", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.NotNil(t, reply.Params)
	assert.Equal(t, p, *reply.Params)
}

func TestQueueFullIsReported(t *testing.T) {
	s := NewServer(settings.Defaults(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	for i := 0; i < cap(s.patches); i++ {
		require.True(t, s.accept([]byte(`{}`)).OK)
	}
	reply := s.accept([]byte(`{}`))
	assert.False(t, reply.OK)
}
