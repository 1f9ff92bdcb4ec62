package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIssueID(t *testing.T) {
	now := time.Date(2025, 1, 28, 12, 0, 0, 0, time.UTC)

	assert.Regexp(t, `^GUN-20250128-\d{4}$`, NewIssueID("Guntur", now))
	assert.Regexp(t, `^VIS-20250128-\d{4}$`, NewIssueID("visakhapatnam", now))

	// districts shorter than the code length keep their full length
	assert.Regexp(t, `^GO-20250128-\d{4}$`, NewIssueID("Go", now))

	// non-ASCII district names truncate by rune, not byte
	assert.Regexp(t, `^ÉLU-20250128-\d{4}$`, NewIssueID("Éluru East", now))

	// empty district falls back to the state code
	assert.Regexp(t, `^AP-20250128-\d{4}$`, NewIssueID("", now))
	assert.Regexp(t, `^AP-20250128-\d{4}$`, NewIssueID("   ", now))
}

func TestNewIssueIDSuffixRange(t *testing.T) {
	now := time.Now()
	for i := 0; i < 100; i++ {
		id := NewIssueID("Guntur", now)
		suffix := id[len(id)-4:]
		assert.GreaterOrEqual(t, suffix, "1000")
		assert.LessOrEqual(t, suffix, "9999")
	}
}
