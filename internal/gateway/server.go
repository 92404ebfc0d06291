package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ReNchi-Z/inconigto-vpn/internal/config"
	"github.com/ReNchi-Z/inconigto-vpn/internal/logger"
	"github.com/ReNchi-Z/inconigto-vpn/internal/metrics"
	"github.com/ReNchi-Z/inconigto-vpn/internal/tunnel"
)

// Server owns the HTTP surface of the gateway: the proxied HTML pages, the
// link page and the tunnel routes. Tunnel sessions run on their own
// goroutines; the server itself holds no per-connection state.
type Server struct {
	cfg      *config.Config
	metrics  *metrics.Collector
	router   *mux.Router
	client   *http.Client
	upgrader websocket.Upgrader
}

func New(cfg *config.Config, m *metrics.Collector) *Server {
	s := &Server{
		cfg:     cfg,
		metrics: m,
		client:  &http.Client{Timeout: 30 * time.Second},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			// Tunnel clients are proxy apps, not browsers; Origin means nothing here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.mainPage).Methods(http.MethodGet)
	r.HandleFunc("/sub", s.subPage).Methods(http.MethodGet)
	r.HandleFunc("/link", s.linkPage).Methods(http.MethodGet)
	r.HandleFunc("/Inconigto-Mode/{target}", s.tunnel).Methods(http.MethodGet)
	r.HandleFunc("/{target}", s.tunnel).Methods(http.MethodGet)
	s.router = r
	return s
}

// Handler exposes the router for the HTTP server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) mainPage(w http.ResponseWriter, r *http.Request) {
	s.proxyPage(w, r, s.cfg.MainPageURL)
}

func (s *Server) subPage(w http.ResponseWriter, r *http.Request) {
	s.proxyPage(w, r, s.cfg.SubPageURL)
}

// proxyPage fetches the configured page and returns its body as HTML.
func (s *Server) proxyPage(w http.ResponseWriter, r *http.Request, url string) {
	if url == "" {
		http.Error(w, "page not configured", http.StatusNotFound)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		http.Error(w, "bad page url", http.StatusInternalServerError)
		return
	}
	resp, err := s.client.Do(req)
	if err != nil {
		logger.Log.Warnf("[page] fetch %s: %v", url, err)
		http.Error(w, "upstream page unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warnf("[page] fetch %s: status %d", url, resp.StatusCode)
		http.Error(w, "upstream page unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.Copy(w, resp.Body)
}

// tunnel is the WebSocket entry. The {target} path segment is a two-letter
// country code (resolved against the relay list) or a literal host-port
// override; either way it only adjusts this connection's relay fallback.
func (s *Server) tunnel(w http.ResponseWriter, r *http.Request) {
	settings := tunnel.Settings{
		Identity:  s.cfg.Identity,
		Host:      hostOnly(r.Host),
		RelayAddr: hostOnly(r.Host),
		RelayPort: uint16(s.cfg.RelayPort),
	}

	target := mux.Vars(r)["target"]
	if len(target) == 2 {
		if resolved, err := s.lookupRelay(r.Context(), target); err == nil {
			target = resolved
		} else {
			logger.Log.Debugf("[relaylist] %s: %v", target, err)
		}
	}
	if relayOverridePattern.MatchString(target) {
		if i := strings.LastIndex(target, "-"); i > 0 {
			if port, err := strconv.ParseUint(target[i+1:], 10, 16); err == nil {
				settings.RelayAddr = target[:i]
				settings.RelayPort = uint16(port)
			}
		}
	}

	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, s.cfg.FallbackPage)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logger.Log.Debugf("[tunnel] upgrade %s: %v", r.RemoteAddr, err)
		return
	}

	sess := tunnel.NewSession(settings, conn, r.RemoteAddr, s.metrics)
	go sess.Run(context.Background())
}

// hostOnly strips the port from a request Host header, if any.
func hostOnly(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}
