package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"photofix/internal/scan"
)

func TestFirstMetadataOnly(t *testing.T) {
	reg := scan.NewRegistry()

	// Embedded reader covers these, so a missing exiftool is survivable.
	assert.Empty(t, firstMetadataOnly(reg, []string{"/p/a.jpg", "/p/b.tiff", "/p/c.png"}))

	// RAW/HEIC in the set means rename mode cannot proceed without it.
	assert.Equal(t, "/p/b.heic", firstMetadataOnly(reg, []string{"/p/a.jpg", "/p/b.heic"}))
	assert.Equal(t, "/p/a.arw", firstMetadataOnly(reg, []string{"/p/a.arw"}))
}
