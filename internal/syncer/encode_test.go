package syncer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeComment(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		literal, truncated := EncodeComment("Order headers.", 254)
		assert.Equal(t, "'Order headers.'", literal)
		assert.False(t, truncated)
	})

	t.Run("single quotes doubled", func(t *testing.T) {
		literal, truncated := EncodeComment("the order's state", 254)
		assert.Equal(t, "'the order''s state'", literal)
		assert.False(t, truncated)
	})

	t.Run("text at the limit is not truncated", func(t *testing.T) {
		text := strings.Repeat("a", 254)
		literal, truncated := EncodeComment(text, 254)
		assert.False(t, truncated)
		assert.Equal(t, "'"+text+"'", literal)
	})

	t.Run("text past the limit is shortened with a marker", func(t *testing.T) {
		text := strings.Repeat("a", 255)
		literal, truncated := EncodeComment(text, 254)
		assert.True(t, truncated)
		want := "'" + strings.Repeat("a", 251) + "...'"
		assert.Equal(t, want, literal)
		// the stored value stays within the native ceiling
		assert.Len(t, literal, 254+2)
	})

	t.Run("truncation counts runes not bytes", func(t *testing.T) {
		text := strings.Repeat("ä", 255)
		literal, truncated := EncodeComment(text, 254)
		assert.True(t, truncated)
		assert.Equal(t, 254, len([]rune(literal))-2)
		assert.True(t, strings.HasSuffix(literal, "...'"))
	})

	t.Run("quotes doubled after truncation", func(t *testing.T) {
		text := strings.Repeat("'", 255)
		literal, truncated := EncodeComment(text, 254)
		assert.True(t, truncated)
		assert.True(t, strings.HasPrefix(literal, "''''"))
		assert.True(t, strings.HasSuffix(literal, "...'"))
	})
}

func TestQuoteNativeIdentifier(t *testing.T) {
	assert.Equal(t, `"APP"`, QuoteNativeIdentifier("APP"))
	assert.Equal(t, `"odd""name"`, QuoteNativeIdentifier(`odd"name`))
}
