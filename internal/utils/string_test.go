package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "planning_alerts", Slugify("Planning Alerts"))
	assert.Equal(t, "book_store", Slugify("  Book   Store "))
	assert.Equal(t, "cuttlefish", Slugify("Cuttlefish"))
}

func TestExtractDomainFromEmail(t *testing.T) {
	assert.Equal(t, "example.com", ExtractDomainFromEmail("user@example.com"))
	assert.Equal(t, "", ExtractDomainFromEmail("not-an-email"))
}
