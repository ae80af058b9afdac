// Package clients provides per-tenant widget configuration from a JSON file.
// No database involved; the file is small and reread at most every few
// seconds.
package clients

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Config is the normalized record for one tenant.
type Config struct {
	ClientID            string          `json:"clientId"`
	AllowedOrigins      []string        `json:"allowedOrigins"`
	BookingURLOverride  string          `json:"bookingUrlOverride"`
	ContactURLOverride  string          `json:"contactUrlOverride"`
	EscalateURLOverride string          `json:"escalateUrlOverride"`
	JobDisables         map[string]bool `json:"jobDisables"`
}

// Store reads tenant records from a JSON file keyed by client id, caching
// the parsed file for a short TTL so the hot path never touches disk.
type Store struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	cache    map[string]json.RawMessage
	cachedAt time.Time
}

// NewStore builds a store over path. ttl <= 0 falls back to 10 seconds.
func NewStore(path string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Store{path: path, ttl: ttl, now: time.Now}
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && s.now().Sub(s.cachedAt) < s.ttl {
		return s.cache, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("clients: read %s: %w", s.path, err)
	}
	parsed := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("clients: parse %s: %w", s.path, err)
	}

	s.cache = parsed
	s.cachedAt = s.now()
	return parsed, nil
}

// Get returns the config for clientID, or nil when the id is unknown, the
// record is malformed, or it allows no origins. Callers treat nil as
// "reject the request".
func (s *Store) Get(clientID string) (*Config, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, nil
	}

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, ok := records[clientID]
	if !ok {
		return nil, nil
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, nil
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return nil, nil
	}

	cfg.ClientID = clientID
	cfg.AllowedOrigins = origins
	cfg.BookingURLOverride = strings.TrimSpace(cfg.BookingURLOverride)
	cfg.ContactURLOverride = strings.TrimSpace(cfg.ContactURLOverride)
	cfg.EscalateURLOverride = strings.TrimSpace(cfg.EscalateURLOverride)
	if cfg.JobDisables == nil {
		cfg.JobDisables = map[string]bool{}
	}
	return &cfg, nil
}

// IsOriginAllowed reports whether origin exactly matches one of the
// tenant's allowed origins. No wildcards, no suffix matching.
func IsOriginAllowed(origin string, cfg *Config) bool {
	if origin == "" || cfg == nil {
		return false
	}
	for _, allowed := range cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
