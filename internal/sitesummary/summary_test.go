package sitesummary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiteKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"full page url", "https://glowstudio.com/pricing?ref=ad", "https://glowstudio.com"},
		{"origin passes through", "https://glowstudio.com", "https://glowstudio.com"},
		{"port preserved", "http://localhost:3000/index.html", "http://localhost:3000"},
		{"whitespace trimmed", "  https://glowstudio.com/  ", "https://glowstudio.com"},
		{"empty", "", ""},
		{"no scheme", "glowstudio.com/pricing", ""},
		{"garbage", "not a url at all", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SiteKey(tt.raw))
		})
	}
}

func TestTrimContextCapsLength(t *testing.T) {
	long := make([]byte, MaxContextChars+500)
	for i := range long {
		long[i] = 'a'
	}
	trimmed := TrimContext(string(long))
	assert.Len(t, trimmed, MaxContextChars)
}

func TestTrimContextEncodesNonString(t *testing.T) {
	trimmed := TrimContext(map[string]string{"title": "Glow Studio"})
	assert.JSONEq(t, `{"title":"Glow Studio"}`, trimmed)
}

func TestHashContextIsStable(t *testing.T) {
	a := HashContext("the page text")
	b := HashContext("the page text")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashContext("different text"))
}
