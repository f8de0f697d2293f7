package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/segmentio/encoding/json"
)

type InMemory struct {
	DB *fastcache.Cache
}

var _ Cache = (*InMemory)(nil)

// NewInMemory allocates a 128MB fastcache instance, sized to hold the
// largest uploaded table after JSON serialization.
func NewInMemory() (*InMemory, error) {
	db := fastcache.New(128 * 1048576) // 128MB
	return &InMemory{
		DB: db,
	}, nil
}

func (i *InMemory) GetAs(_ context.Context, key string, out interface{}) error {
	result := i.DB.GetBig(nil, []byte(key))
	if len(result) == 0 {
		return ErrKeyNotExist
	}

	return json.Unmarshal(result, out)
}

// SetExp using InMemory does not support expiry. Serialized tables can exceed
// fastcache's 64KB single-entry limit, so entries go through SetBig/GetBig.
func (i *InMemory) SetExp(_ context.Context, key string, inValue interface{}, _ time.Duration) error {
	val, err := json.Marshal(inValue)
	if err != nil {
		err = fmt.Errorf("cannot marshal json value: %w", err)
		return err
	}

	i.DB.SetBig([]byte(key), val)
	return nil
}

func (i *InMemory) Delete(_ context.Context, key string) error {
	i.DB.Del([]byte(key))
	return nil
}
