package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProfileImageKey(t *testing.T) {
	userID := primitive.NewObjectID()

	key, err := ProfileImageKey(userID, "image/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.True(t, OwnsProfileImageKey(userID, key))
	assert.False(t, OwnsProfileImageKey(primitive.NewObjectID(), key))

	other, err := ProfileImageKey(userID, "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = ProfileImageKey(userID, "application/pdf")
	assert.Error(t, err)
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	ok, err := s.ObjectExists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	s.Put("a", "image/png")
	ok, err = s.ObjectExists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteObject(ctx, "a"))
	ok, _ = s.ObjectExists(ctx, "a")
	assert.False(t, ok)
}
