package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReNchi-Z/inconigto-vpn/internal/config"
	"github.com/ReNchi-Z/inconigto-vpn/internal/logger"
	"github.com/ReNchi-Z/inconigto-vpn/internal/metrics"
)

func init() {
	logger.Init(false, "")
}

var testIdentity = uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")

func testServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Identity:     testIdentity,
		RelayPort:    443,
		FallbackPage: "<html>moved</html>",
	}
	if mutate != nil {
		mutate(cfg)
	}
	srv := httptest.NewServer(New(cfg, metrics.New()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestTunnelWithoutUpgradeServesFallback(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/1.2.3.4-8443")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Equal(t, "<html>moved</html>", string(body))
}

func TestProxyPageFetchesUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>main page</html>")
	}))
	defer upstream.Close()

	srv := testServer(t, func(c *config.Config) { c.MainPageURL = upstream.URL })

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "<html>main page</html>", string(body))
}

func TestProxyPageUnconfigured(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/sub")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRelayOverridePattern(t *testing.T) {
	assert.True(t, relayOverridePattern.MatchString("1.2.3.4-8443"))
	assert.True(t, relayOverridePattern.MatchString("relay.example.com-443"))
	assert.False(t, relayOverridePattern.MatchString("sg"))
	assert.False(t, relayOverridePattern.MatchString("relay.example.com"))
	assert.False(t, relayOverridePattern.MatchString("443"))
}

func TestLookupRelay(t *testing.T) {
	list := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"SG": ["1.2.3.4:443", "5.6.7.8:80"], "ID": []}`)
	}))
	defer list.Close()

	cfg := &config.Config{Identity: testIdentity, RelayPort: 443, RelayListURL: list.URL}
	s := New(cfg, metrics.New())

	got, err := s.lookupRelay(context.Background(), "sg")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4-443", got)

	_, err = s.lookupRelay(context.Background(), "id")
	assert.Error(t, err)
	_, err = s.lookupRelay(context.Background(), "xx")
	assert.Error(t, err)
}

// TestTunnelRelayOverrideEndToEnd drives the whole path: a VLESS handshake
// whose destination refuses the connection, a URL override pointing at a
// live relay, and the relayed bytes coming back on the WebSocket.
func TestTunnelRelayOverrideEndToEnd(t *testing.T) {
	relay, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer relay.Close()
	go func() {
		conn, err := relay.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		if _, err := io.ReadFull(conn, buf); err == nil {
			conn.Write([]byte("via-relay"))
		}
	}()

	srv := testServer(t, nil)

	relayHost, relayPort, err := net.SplitHostPort(relay.Addr().String())
	require.NoError(t, err)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + relayHost + "-" + relayPort

	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()
	resp.Body.Close()

	// VLESS to 127.0.0.1:1 — direct connect is refused, the override must
	// carry the session.
	frame := []byte{0x00}
	frame = append(frame, testIdentity[:]...)
	frame = append(frame, 0x00, 0x01, 0x00, 0x01, 0x01, 127, 0, 0, 1)
	frame = append(frame, []byte("hello")...)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, frame))

	ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, reply, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, reply, "VLESS reply header first")

	var got []byte
	for len(got) < len("via-relay") {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		got = append(got, data...)
	}
	assert.Equal(t, []byte("via-relay"), got)
}
