package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the process-level gateway configuration. Per-connection values
// (the client-visible host, relay overrides from the URL path) are copied
// out of it for each session and never written back.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	// UUID is the shared identity for VMess/VLESS/Trojan authentication.
	// Unparsable values degrade to the nil UUID rather than failing startup.
	UUID string `yaml:"uuid"`

	MainPageURL string `yaml:"main_page_url"`
	SubPageURL  string `yaml:"sub_page_url"`

	// FallbackPage is the HTML body returned when a tunnel route is hit
	// without a WebSocket upgrade.
	FallbackPage string `yaml:"fallback_page"`

	// RelayListURL maps two-letter country codes to relay candidates.
	RelayListURL string `yaml:"relay_list_url"`

	// RelayPort is the default relay port when no URL override applies.
	RelayPort int `yaml:"relay_port"`

	GeoIP GeoIPConfig `yaml:"geoip"`

	Identity uuid.UUID `yaml:"-"`
}

type GeoIPConfig struct {
	CountryPath string `yaml:"country_path"`
	ASNPath     string `yaml:"asn_path"`
}

// Load reads the optional YAML file, applies environment overrides and
// resolves the identity. A missing file with the default path is fine; the
// environment alone can fully configure the gateway.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	var cfg Config
	// Defaults
	cfg.ListenAddr = ":8080"
	cfg.RelayPort = 443
	cfg.RelayListURL = "https://raw.githubusercontent.com/FoolVPN-ID/Nautica/refs/heads/main/kvProxyList.json"
	cfg.FallbackPage = "https://inconigto-mode.web.id/"

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	cfg.applyEnv()

	// Nil UUID on parse failure keeps the gateway serving pages while
	// rejecting every authenticated handshake.
	cfg.Identity, err = uuid.Parse(cfg.UUID)
	if err != nil {
		cfg.Identity = uuid.Nil
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("UUID"); v != "" {
		c.UUID = v
	}
	if v := os.Getenv("MAIN_PAGE_URL"); v != "" {
		c.MainPageURL = v
	}
	if v := os.Getenv("SUB_PAGE_URL"); v != "" {
		c.SubPageURL = v
	}
}
