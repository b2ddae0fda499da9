package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/saturn_viewer/config"
	"github.com/mogaika/saturn_viewer/frameloop"
	"github.com/mogaika/saturn_viewer/status"
	"github.com/mogaika/saturn_viewer/tableau"
)

type testEnv struct {
	tb     *tableau.Tableau
	driver *frameloop.Driver
	hub    *status.Hub
	srv    *httptest.Server
}

func startEnv(t *testing.T) *testEnv {
	tb, err := tableau.Build(config.Default())
	require.NoError(t, err)

	source := frameloop.NewTickerSource(60)
	driver := frameloop.NewDriver(source, tb)
	hub := status.NewHub(CommandHandler(tb, driver))
	tb.AddPresenter(hub)

	done := make(chan error, 1)
	go func() { done <- driver.Run(context.Background()) }()

	env := &testEnv{
		tb:     tb,
		driver: driver,
		hub:    hub,
		srv:    httptest.NewServer(NewServer(tb, driver, hub, nil).Handler("")),
	}
	t.Cleanup(func() {
		env.srv.Close()
		driver.Stop()
		source.Stop()
		assert.NoError(t, <-done)
	})
	return env
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (e *testEnv) post(t *testing.T, path, contentType, body string) (*http.Response, []byte) {
	resp, err := http.Post(e.srv.URL+path, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestJsonScene(t *testing.T) {
	env := startEnv(t)

	resp, body := env.get(t, "/json/scene")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var root tableau.NodeInfo
	require.NoError(t, json.Unmarshal(body, &root))
	assert.Equal(t, "scene", root.Name)
	assert.NotEmpty(t, root.Childs)

	resp, body = env.get(t, "/json/node/"+strconv.Itoa(int(env.tb.Saturn.Id)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saturn tableau.NodeInfo
	require.NoError(t, json.Unmarshal(body, &saturn))
	assert.Equal(t, "saturn", saturn.Name)
	assert.Equal(t, []string{"scene", "saturnPivot", "saturn"}, saturn.Path)
	require.NotNil(t, saturn.Mesh)
	assert.NotZero(t, saturn.Mesh.Triangles)

	resp, body = env.get(t, "/json/node/99999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"error"`)
}

func TestJsonFrameAndStats(t *testing.T) {
	env := startEnv(t)

	require.Eventually(t, func() bool { return env.tb.LastFrame() != nil }, 5*time.Second, 10*time.Millisecond)

	resp, body := env.get(t, "/json/frame")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var f tableau.Frame
	require.NoError(t, json.Unmarshal(body, &f))
	assert.NotZero(t, f.Tick)
	_, ok := f.Node("saturn")
	assert.True(t, ok)

	resp, body = env.get(t, "/json/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats statsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, "running", stats.State)
	assert.NotZero(t, stats.Loop.Ticks)

	resp, body = env.get(t, "/dump/scene")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "saturn")
}

func TestExportScene(t *testing.T) {
	env := startEnv(t)

	for _, tc := range []struct {
		format string
		prefix []byte
	}{
		{"gltf", []byte("{")},
		{"glb", []byte("glTF")},
		{"fbx", []byte("Kaydara FBX Binary")},
		{"zip", []byte("PK")},
		{"obj", []byte("# saturn_viewer")},
		{"json", []byte("{")},
	} {
		resp, body := env.get(t, "/export/scene."+tc.format)
		require.Equal(t, http.StatusOK, resp.StatusCode, tc.format)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "scene."+tc.format)
		assert.True(t, bytes.HasPrefix(bytes.TrimSpace(body), tc.prefix), tc.format)
	}

	resp, _ := env.get(t, "/export/scene.blend")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActionResize(t *testing.T) {
	env := startEnv(t)

	resp, _ := env.post(t, "/action/resize", "application/json", `{"width": 800, "height": 600}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var aspect float32
	var width int
	require.NoError(t, env.driver.Do(context.Background(), func() {
		aspect = env.tb.Camera.Aspect
		width = env.tb.Camera.Width
	}))
	assert.Equal(t, float32(800)/float32(600), aspect)
	assert.Equal(t, 800, width)

	resp, _ = env.post(t, "/action/resize", "application/x-www-form-urlencoded", "w=0&h=600")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.post(t, "/action/resize", "application/x-www-form-urlencoded", "w=abc&h=600")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.get(t, "/action/resize")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestActionCommand(t *testing.T) {
	env := startEnv(t)

	var before float32
	require.NoError(t, env.driver.Do(context.Background(), func() {
		before = env.tb.Controls.Distance
	}))

	resp, body := env.post(t, "/action/command", "text/plain", "zoom 2\nrotate 10 0 // look around")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result CommandResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 2, result.Applied)
	require.Len(t, result.Commands, 2)
	assert.True(t, strings.HasPrefix(result.Commands[0], "zoom 2"))

	var after float32
	require.NoError(t, env.driver.Do(context.Background(), func() {
		after = env.tb.Controls.Distance
	}))
	assert.InDelta(t, before*2, after, 0.01)

	resp, _ = env.post(t, "/action/command", "text/plain", "jump 3")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebsocketCommands(t *testing.T) {
	env := startEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(env.srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("reset")))

	// frames keep flowing, wait for the reply among them
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Kind   string `json:"kind"`
			Status *struct {
				Message string
				Type    int
			} `json:"status"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Kind == "reply" {
			require.NotNil(t, msg.Status)
			assert.Equal(t, status.INFO, msg.Status.Type)
			assert.Equal(t, "reset", msg.Status.Message)
			return
		}
	}
}
