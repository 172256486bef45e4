package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		record   ProductRecord
		expected bool
	}{
		{
			name:     "complete",
			record:   ProductRecord{ProductName: "Mouse", Price: 19.9, ProductURL: "https://example.com/p/1"},
			expected: true,
		},
		{
			name:     "missing name",
			record:   ProductRecord{Price: 19.9, ProductURL: "https://example.com/p/1"},
			expected: false,
		},
		{
			name:     "zero price",
			record:   ProductRecord{ProductName: "Mouse", ProductURL: "https://example.com/p/1"},
			expected: false,
		},
		{
			name:     "missing url",
			record:   ProductRecord{ProductName: "Mouse", Price: 19.9},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.HasRequiredFields())
		})
	}
}

func TestSetOriginalPrice(t *testing.T) {
	rec := ProductRecord{Price: 50}
	rec.SetOriginalPrice(100)

	require.NotNil(t, rec.OriginalPrice)
	assert.Equal(t, 100.0, *rec.OriginalPrice)
	require.NotNil(t, rec.DiscountPercentage)
	assert.InDelta(t, 50.0, *rec.DiscountPercentage, 0.001)
}

func TestSetOriginalPriceAnomaly(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		original float64
	}{
		{name: "original below price", price: 25, original: 20},
		{name: "original equals price", price: 25, original: 25},
		{name: "original zero", price: 25, original: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ProductRecord{Price: tt.price}
			rec.SetOriginalPrice(tt.original)
			assert.Nil(t, rec.OriginalPrice)
			assert.Nil(t, rec.DiscountPercentage)
		})
	}
}

func TestPageRequestNext(t *testing.T) {
	req := PageRequest{Query: "mouse", BaseURL: "https://example.com", Page: 1, MaxPages: 5}
	next := req.Next()

	assert.Equal(t, 2, next.Page)
	assert.Equal(t, req.Query, next.Query)
	assert.Equal(t, req.BaseURL, next.BaseURL)
	assert.Equal(t, req.MaxPages, next.MaxPages)
	// The original request is unchanged.
	assert.Equal(t, 1, req.Page)
}
