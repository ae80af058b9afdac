// Package cta resolves the destination URL for the call-to-action button a
// routed turn surfaces in the widget.
package cta

import (
	"github.com/Aureaautomations/aurea-chat/internal/clients"
	"github.com/Aureaautomations/aurea-chat/internal/router"
	"github.com/Aureaautomations/aurea-chat/internal/sitesummary"
)

// Category groups CTA types by the URL they need.
type Category string

const (
	CategoryBooking  Category = "booking"
	CategoryContact  Category = "contact"
	CategoryEscalate Category = "escalate"
)

// Categorize maps a CTA type onto a URL category.
func Categorize(t router.CtaType) Category {
	switch t {
	case router.CtaLeaveContact:
		return CategoryContact
	case router.CtaEscalate:
		return CategoryEscalate
	default:
		return CategoryBooking
	}
}

// Fallbacks are env-provided URLs honored only for the internal debug
// tenant, so a bare local setup still renders buttons.
type Fallbacks struct {
	DebugClientID string
	BookingURL    string
	ContactURL    string
	EscalateURL   string
}

// Resolve picks the URL for ctaType. Precedence is client override, then
// site summary, then the debug-tenant fallback within the same category.
// An empty result means the widget hides the button.
func Resolve(ctaType router.CtaType, cfg *clients.Config, summary *sitesummary.BusinessSummary, fb Fallbacks) string {
	category := Categorize(ctaType)

	if cfg != nil {
		if url := overrideFor(category, cfg); url != "" {
			return url
		}
	}
	if summary != nil {
		if url := summaryFor(category, summary); url != "" {
			return url
		}
	}
	if cfg != nil && fb.DebugClientID != "" && cfg.ClientID == fb.DebugClientID {
		return fallbackFor(category, fb)
	}
	return ""
}

func overrideFor(category Category, cfg *clients.Config) string {
	switch category {
	case CategoryContact:
		return cfg.ContactURLOverride
	case CategoryEscalate:
		return cfg.EscalateURLOverride
	default:
		return cfg.BookingURLOverride
	}
}

func summaryFor(category Category, summary *sitesummary.BusinessSummary) string {
	switch category {
	case CategoryContact:
		return summary.ContactURL
	case CategoryEscalate:
		return summary.EscalateURL
	default:
		return summary.Booking.URL
	}
}

func fallbackFor(category Category, fb Fallbacks) string {
	switch category {
	case CategoryContact:
		return fb.ContactURL
	case CategoryEscalate:
		return fb.EscalateURL
	default:
		return fb.BookingURL
	}
}
