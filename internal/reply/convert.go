package reply

import (
	"fmt"
	"regexp"
	"strings"
)

// Hours questions are intercepted before any model call so the model never
// gets a chance to guess opening times.
var reHoursAsk = regexp.MustCompile(`(?i)\b(hours|are you open|when.{0,20}(open|close)|what time.{0,20}(open|close))\b`)

const notListedPricing = "I don’t see pricing listed on this page. What are you looking for—services, how it works, or booking?"

const notListedHours = "I don’t see hours listed on this page. Want me to help with services, pricing, or booking instead?"

// interceptPricing answers pricing questions deterministically from the
// business summary.
func interceptPricing(in Input) (string, bool) {
	if !in.Route.Facts.PricingIntent {
		return "", false
	}
	if in.Summary == nil || len(in.Summary.Pricing) == 0 {
		return notListedPricing, true
	}

	var b strings.Builder
	b.WriteString("Here’s the pricing listed on this page:\n")
	for _, p := range in.Summary.Pricing {
		if p.Notes != "" {
			fmt.Fprintf(&b, "• %s: %s (%s)\n", p.Item, p.Price, p.Notes)
		} else {
			fmt.Fprintf(&b, "• %s: %s\n", p.Item, p.Price)
		}
	}
	b.WriteString("Which one are you interested in?")
	return b.String(), true
}

// interceptHours answers hours questions deterministically from the
// business summary.
func interceptHours(in Input) (string, bool) {
	if !reHoursAsk.MatchString(in.Message) {
		return "", false
	}
	if in.Summary == nil || strings.TrimSpace(in.Summary.Hours) == "" {
		return notListedHours, true
	}
	return fmt.Sprintf("The hours listed on this page are %s. Want to grab a time?", strings.TrimSpace(in.Summary.Hours)), true
}
