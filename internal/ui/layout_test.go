package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestBreadcrumb(t *testing.T) {
	parts := []string{"evorbrain", "Health", "Run a marathon", "Training plan"}

	assert.Equal(t, "evorbrain › Health › Run a marathon › Training plan", Breadcrumb(parts, 0))
	assert.Equal(t, "… › Run a marathon › Training plan", Breadcrumb(parts, 34))
	assert.Equal(t, "Training…", Breadcrumb(parts, 9))
	assert.Equal(t, "", Breadcrumb(nil, 10))
}

func TestBarsSpanWidth(t *testing.T) {
	l := NewLayout(60, 20)

	assert.Equal(t, 18, l.ContentHeight())
	assert.Equal(t, 60, lipgloss.Width(l.RenderHeader("evorbrain", "2 due today")))
	assert.Equal(t, 60, lipgloss.Width(l.RenderStatusBar("q quit")))
}
