package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

func menuItems(ids ...uint) []models.MenuItem {
	items := make([]models.MenuItem, 0, len(ids))
	for i, id := range ids {
		items = append(items, models.MenuItem{ID: id, Label: "item", URL: "/x", Position: i + 1})
	}
	return items
}

func TestNormalizeMenuOrderFullReorder(t *testing.T) {
	order, err := normalizeMenuOrder([]uint{3, 1, 2}, menuItems(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1, 2}, order)
}

func TestNormalizeMenuOrderPartialKeepsRemainder(t *testing.T) {
	order, err := normalizeMenuOrder([]uint{3}, menuItems(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1, 2}, order)
}

func TestNormalizeMenuOrderRejectsUnknownID(t *testing.T) {
	_, err := normalizeMenuOrder([]uint{1, 99}, menuItems(1, 2))
	assert.Error(t, err)
}

func TestNormalizeMenuOrderRejectsDuplicates(t *testing.T) {
	_, err := normalizeMenuOrder([]uint{1, 1}, menuItems(1, 2))
	assert.Error(t, err)
}

func TestNormalizeMenuOrderRejectsEmpty(t *testing.T) {
	_, err := normalizeMenuOrder(nil, menuItems(1))
	assert.Error(t, err)
}

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		slug  string
		title string
		want  string
	}{
		{"Hello World", "", "hello-world"},
		{"", "My First Post!", "my-first-post"},
		{"already-clean", "", "already-clean"},
		{"  Spaces  ", "", "spaces"},
		{"MiXeD CaSe 42", "", "mixed-case-42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSlug(tt.slug, tt.title))
	}
}
