package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	c, err := NewRedisCache(context.Background(), "not a redis url", nil)

	assert.Nil(t, c)
	assert.ErrorContains(t, err, "invalid Redis URL")
}
