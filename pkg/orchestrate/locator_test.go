package orchestrate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-scraper/pkg/utils"
)

func TestResolveLocator(t *testing.T) {
	const base = "https://apps.example.com"

	tests := []struct {
		name     string
		input    string
		expected Locator
	}{
		{
			name:  "developer listing",
			input: "https://apps.example.com/partners/acme-labs",
			expected: Locator{
				Kind:   LocatorCollection,
				URL:    "https://apps.example.com/partners/acme-labs",
				Handle: "acme-labs",
			},
		},
		{
			name:  "developer listing with query and fragment",
			input: "https://apps.example.com/partners/acme-labs?sort=popular#apps",
			expected: Locator{
				Kind:   LocatorCollection,
				URL:    "https://apps.example.com/partners/acme-labs",
				Handle: "acme-labs",
			},
		},
		{
			name:  "bare partners path",
			input: "https://apps.example.com/partners",
			expected: Locator{
				Kind:   LocatorCollection,
				URL:    "https://apps.example.com/partners",
				Handle: "unknown_developer",
			},
		},
		{
			name:  "app review feed",
			input: "https://apps.example.com/checkout-blocks/reviews",
			expected: Locator{
				Kind:        LocatorApp,
				URL:         base + "/checkout-blocks",
				Handle:      "checkout-blocks",
				DisplayName: "Checkout Blocks",
			},
		},
		{
			name:  "app review feed with page query",
			input: "https://apps.example.com/checkout-blocks/reviews?sort_by=newest&page=4",
			expected: Locator{
				Kind:        LocatorApp,
				URL:         base + "/checkout-blocks",
				Handle:      "checkout-blocks",
				DisplayName: "Checkout Blocks",
			},
		},
		{
			name:  "single word handle",
			input: "https://apps.example.com/klaviyo/reviews",
			expected: Locator{
				Kind:        LocatorApp,
				URL:         base + "/klaviyo",
				Handle:      "klaviyo",
				DisplayName: "Klaviyo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ResolveLocator(tt.input, base)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, loc)
		})
	}
}

func TestResolveLocator_Rejects(t *testing.T) {
	const base = "https://apps.example.com"

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not a url", "checkout-blocks"},
		{"relative path", "/checkout-blocks/reviews"},
		{"no host", "https:///checkout-blocks/reviews"},
		{"app page without reviews suffix", "https://apps.example.com/checkout-blocks"},
		{"reviews with no handle", "https://apps.example.com/reviews"},
		{"storefront root", "https://apps.example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveLocator(tt.input, base)
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrInvalidLocator), "expected locator error, got %v", err)
		})
	}
}

func TestLocatorKindString(t *testing.T) {
	assert.Equal(t, "collection", LocatorCollection.String())
	assert.Equal(t, "app", LocatorApp.String())
	assert.Equal(t, "unknown", LocatorKind(99).String())
}
