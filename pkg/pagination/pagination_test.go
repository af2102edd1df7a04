package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorEncoder(t *testing.T) {
	key := []byte("test-key-for-pagination-12345678") // 32 bytes
	encoder, err := NewCursorEncoder(key)
	require.NoError(t, err)

	t.Run("encode and decode offset cursor", func(t *testing.T) {
		original := CreateOffsetCursor(100)

		encoded, err := encoder.EncodeCursor(original)
		require.NoError(t, err)
		assert.NotEmpty(t, encoded)

		decoded, err := encoder.DecodeCursor(encoded)
		require.NoError(t, err)
		assert.Equal(t, original.Offset, decoded.Offset)
		assert.WithinDuration(t, original.Timestamp, decoded.Timestamp, time.Second)
	})

	t.Run("invalid key length", func(t *testing.T) {
		_, err := NewCursorEncoder([]byte("short-key"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 bytes")
	})

	t.Run("invalid encoded cursor", func(t *testing.T) {
		_, err := encoder.DecodeCursor("invalid-base64")
		require.Error(t, err)
	})
}

func TestCalculateOffset(t *testing.T) {
	key := []byte("test-key-for-pagination-12345678")
	encoder, err := NewCursorEncoder(key)
	require.NoError(t, err)

	t.Run("from token", func(t *testing.T) {
		token, err := encoder.EncodeCursor(CreateOffsetCursor(50))
		require.NoError(t, err)

		offset, err := CalculateOffset(encoder, token, 0)
		require.NoError(t, err)
		assert.Equal(t, 50, offset)
	})

	t.Run("empty token uses default", func(t *testing.T) {
		offset, err := CalculateOffset(encoder, "", 10)
		require.NoError(t, err)
		assert.Equal(t, 10, offset)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := encoder.EncodeCursor(&Cursor{
			Offset:    50,
			Timestamp: time.Now().Add(-25 * time.Hour),
		})
		require.NoError(t, err)

		_, err = CalculateOffset(encoder, token, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})
}

func TestBuildPage(t *testing.T) {
	key := []byte("test-key-for-pagination-12345678")
	encoder, err := NewCursorEncoder(key)
	require.NoError(t, err)

	t.Run("middle page has both tokens", func(t *testing.T) {
		page, err := BuildPage(encoder, 10, 10, 100)
		require.NoError(t, err)
		assert.Equal(t, 100, page.Count)
		assert.NotEmpty(t, page.Next)
		assert.NotEmpty(t, page.Previous)
	})

	t.Run("first page has no previous", func(t *testing.T) {
		page, err := BuildPage(encoder, 0, 10, 100)
		require.NoError(t, err)
		assert.Empty(t, page.Previous)
		assert.NotEmpty(t, page.Next)
	})

	t.Run("last page has no next", func(t *testing.T) {
		page, err := BuildPage(encoder, 90, 10, 100)
		require.NoError(t, err)
		assert.Empty(t, page.Next)
		assert.NotEmpty(t, page.Previous)
	})
}
