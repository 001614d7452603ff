package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOrigin(t *testing.T) {
	tests := []struct {
		pattern, host string
		want          bool
	}{
		{"admin.example.com", "admin.example.com", true},
		{"*.example.com", "cms.example.com", true},
		{"*.example.com", "example.org", false},
		{"localhost:*", "localhost:5173", true},
		{"localhost:*", "localhost.evil.com", false},
		{"admin.example.com", "evil.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchOrigin(tt.pattern, tt.host), "%s vs %s", tt.pattern, tt.host)
	}
}

func TestCorsConfigRestrictsInProduction(t *testing.T) {
	cfg := corsConfig([]string{"*.example.com"}, false)
	assert.True(t, cfg.AllowOriginFunc("https://cms.example.com"))
	assert.False(t, cfg.AllowOriginFunc("https://evil.com"))

	open := corsConfig([]string{"*.example.com"}, true)
	assert.True(t, open.AllowOriginFunc("https://evil.com"))
}
