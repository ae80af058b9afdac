// Package sitesummary derives and caches an authoritative snapshot of the
// business whose site the widget is embedded on. The summary is the only
// source the assistant may quote hours, pricing and links from.
package sitesummary

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
)

// MaxContextChars caps how much of the DOM snapshot is fed to the summarizer.
const MaxContextChars = 45000

// Service is one offered service extracted from the page.
type Service struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// PricingItem is one visible price line.
type PricingItem struct {
	Item  string `json:"item"`
	Price string `json:"price"`
	Notes string `json:"notes,omitempty"`
}

// Booking describes how the site takes bookings.
type Booking struct {
	Method string `json:"method,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Contact holds the visible contact channels.
type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Link is a labeled important link from the page.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// BusinessSummary is the extracted ground truth. An absent field means "do
// not claim this fact", never "assume a default".
type BusinessSummary struct {
	BusinessName     string        `json:"businessName,omitempty"`
	ShortDescription string        `json:"shortDescription,omitempty"`
	Services         []Service     `json:"services"`
	Pricing          []PricingItem `json:"pricing"`
	Hours            string        `json:"hours,omitempty"`
	Booking          Booking       `json:"booking"`
	Locations        []string      `json:"locations"`
	Policies         []string      `json:"policies"`
	Contact          Contact       `json:"contact"`
	ImportantLinks   []Link        `json:"importantLinks"`
	ContactURL       string        `json:"contactUrl,omitempty"`
	EscalateURL      string        `json:"escalateUrl,omitempty"`
	Confidence       string        `json:"confidence"` // "high", "medium", "low"
	MissingFields    []string      `json:"missingFields"`
}

// SiteKey normalizes a page URL (or origin) to its URL origin, the cache key
// for summaries. Returns "" for unparseable input.
func SiteKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// TrimContext bounds a raw site-context blob to MaxContextChars. Non-string
// blobs are JSON-encoded first.
func TrimContext(raw any) string {
	if raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		b, err := json.Marshal(raw)
		if err != nil {
			return ""
		}
		s = string(b)
	}
	if len(s) > MaxContextChars {
		return s[:MaxContextChars]
	}
	return s
}

// HashContext fingerprints a trimmed site context for debugging and cache
// diagnostics.
func HashContext(raw any) string {
	sum := sha256.Sum256([]byte(TrimContext(raw)))
	return hex.EncodeToString(sum[:])
}
