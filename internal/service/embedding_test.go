package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/imgsearch/internal/domain"
)

func TestEmbeddingServiceEmbed(t *testing.T) {
	svc := NewEmbeddingService(testEncoder(t))
	ctx := context.Background()
	assert.Equal(t, testDim, svc.Dimension())
	assert.Equal(t, "pixel", svc.Model())

	data := pngBytes(t, pattern(9))
	first, err := svc.Embed(ctx, data)
	require.NoError(t, err)
	assert.Len(t, first, testDim)

	second, err := svc.Embed(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := svc.Embed(ctx, jpegBytes(t, pattern(10)))
	require.NoError(t, err)
	assert.Len(t, other, testDim)
}

func TestEmbeddingServiceRejectsNonImages(t *testing.T) {
	svc := NewEmbeddingService(testEncoder(t))
	for name, data := range map[string][]byte{
		"text":  []byte("plain text"),
		"empty": nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Embed(context.Background(), data)
			assertKind(t, err, domain.ErrInvalidInput, domain.MsgNotAnImage)
		})
	}
}
