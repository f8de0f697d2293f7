package cache

import (
	"context"
	"fmt"
	"time"
)

var (
	ErrKeyNotExist = fmt.Errorf("cache key not exists")
)

// Cache stores JSON-serializable values under string keys. The session table
// store sits on top of this, so an uploaded table survives between the upload
// call and a later validate or generate call.
type Cache interface {
	GetAs(ctx context.Context, key string, out interface{}) error
	SetExp(ctx context.Context, key string, inValue interface{}, expireDur time.Duration) error
	Delete(ctx context.Context, key string) error
}
