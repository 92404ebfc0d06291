package gateway

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVMessLinkDecodes(t *testing.T) {
	link := VMessLink("gw.example", testIdentity.String())
	require.True(t, strings.HasPrefix(link, "vmess://"))

	raw, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(link, "vmess://"))
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, "gw.example", v["add"])
	assert.Equal(t, testIdentity.String(), v["id"])
	assert.Equal(t, "ws", v["net"])
	assert.Equal(t, "443", v["port"])
	assert.Equal(t, "true", v["tls"])
}

func TestURILinks(t *testing.T) {
	id := testIdentity.String()

	vless := VLESSLink("gw.example", id)
	assert.True(t, strings.HasPrefix(vless, "vless://"+id+"@gw.example:443?"))
	assert.Contains(t, vless, "type=ws")
	assert.Contains(t, vless, "sni=gw.example")

	trojan := TrojanLink("gw.example", id)
	assert.True(t, strings.HasPrefix(trojan, "trojan://"+id+"@gw.example:443?"))

	ss := SSLink("gw.example", id)
	assert.True(t, strings.HasPrefix(ss, "ss://"))
	userInfo := strings.TrimPrefix(ss[:strings.Index(ss, "@")], "ss://")
	decoded, err := base64.URLEncoding.DecodeString(userInfo)
	require.NoError(t, err)
	assert.Equal(t, "none:"+id, string(decoded))
}

func TestLinkPageRendersAllProtocols(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/link")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	assert.Contains(t, page, "vmess://")
	assert.Contains(t, page, "vless://")
	assert.Contains(t, page, "trojan://")
	assert.Contains(t, page, "ss://")
	assert.Contains(t, page, "Connection Hub")
}
