package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/ReNchi-Z/inconigto-vpn/internal/logger"
)

// vmessJSON is the base64-encoded JSON body of a vmess:// link, field names
// as v2rayNG expects them.
type vmessJSON struct {
	Ps   string `json:"ps"`
	V    string `json:"v"`
	Add  string `json:"add"`
	Port string `json:"port"`
	Id   string `json:"id"`
	Aid  string `json:"aid"`
	Scy  string `json:"scy"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	Tls  string `json:"tls"`
	Sni  string `json:"sni"`
	Alpn string `json:"alpn"`
}

// VMessLink renders the vmess share link for this gateway.
func VMessLink(host, id string) string {
	v := vmessJSON{
		Ps:   "VMESS",
		V:    "2",
		Add:  host,
		Port: "443",
		Id:   id,
		Aid:  "0",
		Scy:  "zero",
		Net:  "ws",
		Type: "none",
		Host: host,
		Path: "/ID",
		Tls:  "true",
		Sni:  host,
	}
	b, _ := json.Marshal(v)
	return "vmess://" + base64.URLEncoding.EncodeToString(b)
}

// VLESSLink renders the vless share link.
func VLESSLink(host, id string) string {
	return fmt.Sprintf(
		"vless://%s@%s:443?encryption=none&type=ws&host=%s&path=%%2FID&security=tls&sni=%s#VLESS",
		id, host, host, host)
}

// TrojanLink renders the trojan share link.
func TrojanLink(host, id string) string {
	return fmt.Sprintf(
		"trojan://%s@%s:443?encryption=none&type=ws&host=%s&path=%%2FID&security=tls&sni=%s#TROJAN",
		id, host, host, host)
}

// SSLink renders the SIP002 shadowsocks link with the v2ray-plugin
// websocket parameter block.
func SSLink(host, id string) string {
	userInfo := base64.URLEncoding.EncodeToString([]byte("none:" + id))
	return fmt.Sprintf(
		"ss://%s@%s:443?plugin=v2ray-plugin%%3Btls%%3Bmux%%3D0%%3Bmode%%3Dwebsocket%%3Bpath%%3D%%2FID%%3Bhost%%3D%s#SS",
		userInfo, host, host)
}

type linkCard struct {
	Title string
	ID    string
	Link  string
}

var linkTemplate = template.Must(template.New("link").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Connection Hub</title>
<style>
  :root { --bg: #0a0e17; --card: #141c2e; --primary: #00ccff; --text: #e6f1ff; --muted: #8a9cc2; --border: #1e2a45; --success: #00ff9d; }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body { background: var(--bg); color: var(--text); min-height: 100vh; display: flex; align-items: center; justify-content: center; padding: 20px; font-family: sans-serif; }
  .container { max-width: 800px; width: 100%; background: var(--card); border: 1px solid var(--border); border-radius: 12px; overflow: hidden; }
  .header { padding: 25px 30px; text-align: center; border-bottom: 1px solid var(--border); }
  h1 { font-size: 28px; letter-spacing: 1px; text-transform: uppercase; }
  .content { padding: 30px; display: grid; gap: 20px; }
  .link-card { border: 1px solid var(--border); border-radius: 8px; padding: 20px; }
  .link-header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 15px; }
  .link-title { font-weight: 600; font-size: 18px; color: var(--primary); }
  .link-content { background: var(--bg); border: 1px solid var(--border); border-radius: 6px; padding: 12px; font-family: monospace; font-size: 13px; color: var(--muted); word-break: break-all; margin-bottom: 10px; }
  .copy-btn { background: var(--primary); color: var(--bg); border: none; border-radius: 6px; padding: 8px 16px; cursor: pointer; font-weight: 600; }
  .success-message { display: none; color: var(--success); font-size: 14px; margin-top: 8px; text-align: right; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>Connection Hub</h1></div>
  <div class="content">
{{range .}}    <div class="link-card">
      <div class="link-header">
        <span class="link-title">{{.Title}}</span>
        <button class="copy-btn" onclick="copyToClipboard('{{.ID}}-link')">Copy</button>
      </div>
      <div class="link-content" id="{{.ID}}-link">{{.Link}}</div>
      <div class="success-message" id="{{.ID}}-success">&#10003; Connection data copied</div>
    </div>
{{end}}  </div>
</div>
<script>
function copyToClipboard(elementId) {
  const text = document.getElementById(elementId).textContent;
  navigator.clipboard.writeText(text).then(() => {
    const el = document.getElementById(elementId.split('-')[0] + '-success');
    el.style.display = 'block';
    setTimeout(() => { el.style.display = 'none'; }, 2000);
  });
}
</script>
</body>
</html>
`))

// linkPage renders the connection-hub page carrying the four share links for
// this gateway's host and identity.
func (s *Server) linkPage(w http.ResponseWriter, r *http.Request) {
	host := hostOnly(r.Host)
	id := s.cfg.Identity.String()

	cards := []linkCard{
		{Title: "VMess", ID: "vmess", Link: VMessLink(host, id)},
		{Title: "VLESS", ID: "vless", Link: VLESSLink(host, id)},
		{Title: "Trojan", ID: "trojan", Link: TrojanLink(host, id)},
		{Title: "Shadowsocks", ID: "ss", Link: SSLink(host, id)},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := linkTemplate.Execute(w, cards); err != nil {
		logger.Log.Warnf("[link] render: %v", err)
	}
}
