package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// relayOverridePattern recognizes the literal host-port relay syntax in the
// tunnel path. Compiled once at startup, read-only afterwards.
var relayOverridePattern = regexp.MustCompile(`^.+-\d+$`)

// lookupRelay resolves a two-letter country code against the relay-list
// JSON ({"CC": ["ip:port", ...]}). Index 0 wins; the colon becomes a dash so
// the result feeds straight into the override pattern.
func (s *Server) lookupRelay(ctx context.Context, code string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.RelayListURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch relay list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("relay list status %d", resp.StatusCode)
	}

	var candidates map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return "", fmt.Errorf("failed to parse relay list: %w", err)
	}

	list, ok := candidates[strings.ToUpper(code)]
	if !ok || len(list) == 0 {
		return "", fmt.Errorf("no relay candidates for %q", code)
	}
	return strings.ReplaceAll(list[0], ":", "-"), nil
}
