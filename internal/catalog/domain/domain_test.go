package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name   string
		slug   string
		wantOK bool
	}{
		{"simple", "movies", true},
		{"with hyphen and underscore", "sci-fi_classics", true},
		{"mixed case", "SciFi", true},
		{"empty", "", false},
		{"space", "two words", false},
		{"dot", "a.b", false},
		{"unicode", "кино", false},
		{"too long", strings.Repeat("a", 51), false},
		{"max length", strings.Repeat("a", 50), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := domain.ValidateSlug(tt.slug)
			if tt.wantOK {
				assert.Empty(t, msgs)
			} else {
				assert.NotEmpty(t, msgs)
			}
		})
	}
}

func TestValidateTermName(t *testing.T) {
	assert.Empty(t, domain.ValidateTermName("Movies"))
	assert.NotEmpty(t, domain.ValidateTermName(""))
	assert.NotEmpty(t, domain.ValidateTermName(strings.Repeat("a", 257)))
	assert.Empty(t, domain.ValidateTermName(strings.Repeat("a", 256)))
}

func TestValidateTitleName(t *testing.T) {
	assert.Empty(t, domain.ValidateTitleName("The Thing"))
	assert.NotEmpty(t, domain.ValidateTitleName(""))
	assert.NotEmpty(t, domain.ValidateTitleName(strings.Repeat("a", 257)))
}

func TestValidateYear(t *testing.T) {
	current := time.Now().Year()

	assert.Empty(t, domain.ValidateYear(current))
	assert.Empty(t, domain.ValidateYear(1895))
	assert.NotEmpty(t, domain.ValidateYear(current+1))
	assert.NotEmpty(t, domain.ValidateYear(0))
}
