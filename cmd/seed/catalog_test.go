package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

func TestShippedFilesLoad(t *testing.T) {
	f, err := os.Open("products.yaml")
	require.NoError(t, err)
	defer f.Close()

	catalog, err := loadCatalog(f)
	require.NoError(t, err)
	require.Len(t, catalog, 16)
	assert.Equal(t, "mike air grey", catalog[0].Name)
	assert.Equal(t, models.CategoryJordan1, catalog[0].Category)
	assert.Equal(t, []float64{7, 8, 9, 10}, catalog[0].Sizes)
	assert.True(t, catalog[0].Featured)

	p, err := os.Open("prices.yaml")
	require.NoError(t, err)
	defer p.Close()

	prices, err := loadPrices(p)
	require.NoError(t, err)
	names := make(map[string]bool, len(catalog))
	for _, c := range catalog {
		names[c.Name] = true
	}
	for _, c := range prices {
		assert.True(t, names[c.Name], "price for unknown product %q", c.Name)
	}
}

func TestLoadCatalogRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown category",
			yaml: "products:\n  - {name: a, category: boots, description: d, price: 1, sizes: [42], images: [/a.jpg]}\n",
			want: "Invalid category: boots",
		},
		{
			name: "duplicate name",
			yaml: "products:\n" +
				"  - {name: a, category: jordan 1, description: d, price: 1, sizes: [42], images: [/a.jpg]}\n" +
				"  - {name: a, category: jordan 1, description: d, price: 2, sizes: [42], images: [/a.jpg]}\n",
			want: `duplicate name "a"`,
		},
		{
			name: "not yaml",
			yaml: "products: [",
			want: "decode catalog",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadCatalog(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPricesRejectsNegative(t *testing.T) {
	_, err := loadPrices(strings.NewReader("prices:\n  - {name: a, price: -1}\n"))
	assert.ErrorContains(t, err, "price cannot be negative")
}
