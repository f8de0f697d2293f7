package cache_test

import (
	"context"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/yusufsyaifudin/layang/pkg/cache"
)

func TestNewInMemory(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)
	})
}

func TestInMemory_GetAs(t *testing.T) {
	type S struct {
		Value string
	}

	t.Run("no key found", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.Error(t, err)
		assert.ErrorIs(t, err, cache.ErrKeyNotExist)
	})

	t.Run("success", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		in := S{
			Value: "this is value",
		}

		err = c.SetExp(context.Background(), "key", in, -1)
		assert.NoError(t, err)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("value larger than 64KB survives", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		in := S{
			Value: strings.Repeat("a", 100*1024),
		}

		err = c.SetExp(context.Background(), "key", in, -1)
		assert.NoError(t, err)

		var out S
		err = c.GetAs(context.Background(), "key", &out)
		assert.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestInMemory_SetExp(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		in := map[string]interface{}{
			"key": make(chan int, 1),
		}

		err = c.SetExp(context.Background(), "key", in, -1)
		assert.Error(t, err)

		var eType *json.UnsupportedTypeError
		assert.ErrorAs(t, err, &eType)
		assert.NotNil(t, eType)
	})
}

func TestInMemory_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c, err := cache.NewInMemory()
		assert.NotNil(t, c)
		assert.NoError(t, err)

		err = c.SetExp(context.Background(), "key", "value", -1)
		assert.NoError(t, err)

		err = c.Delete(context.Background(), "key")
		assert.NoError(t, err)

		var out string
		err = c.GetAs(context.Background(), "key", &out)
		assert.ErrorIs(t, err, cache.ErrKeyNotExist)
	})
}
