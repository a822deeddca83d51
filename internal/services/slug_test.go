package services_test

import (
	"testing"

	"blog/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":             "hello-world",
		"Crème Brûlée 101!":       "creme-brulee-101",
		"  --Go   is fun--  ":     "go-is-fun",
		"Ünïcödé & Friends":       "unicode-friends",
		"100% pure":               "100-pure",
		"日本語":                     "",
		"already-a-slug":          "already-a-slug",
		"Tabs\tand\nnewlines too": "tabs-and-newlines-too",
	}
	for in, want := range tests {
		assert.Equal(t, want, services.Slugify(in), "Slugify(%q)", in)
	}
}
