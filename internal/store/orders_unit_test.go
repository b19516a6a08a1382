package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number := generateOrderNumber()
		assert.Regexp(t, pattern, number)
		seen[number] = true
	}

	// 100 draws from a 32-bit space should not collide.
	assert.Len(t, seen, 100)
}
