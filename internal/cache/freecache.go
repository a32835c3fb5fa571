package cache

import (
	"fmt"

	"github.com/coocood/freecache"
)

var _ Cache = (*FreeCache)(nil)

const megabyte = 1024 * 1024

type FreeCache struct {
	mainCache     *freecache.Cache
	expireSeconds int
}

// NewFreeCache creates a cache of sizeMB megabytes (at least 1) whose entries
// expire after expireSeconds, or never when expireSeconds is 0.
func NewFreeCache(sizeMB, expireSeconds int) *FreeCache {
	if sizeMB < 1 {
		sizeMB = 1
	}
	return &FreeCache{
		mainCache:     freecache.NewCache(sizeMB * megabyte),
		expireSeconds: expireSeconds,
	}
}

func (fc *FreeCache) Get(key string) ([]byte, bool) {
	val, err := fc.mainCache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (fc *FreeCache) Set(key string, value []byte) error {
	if err := fc.mainCache.Set([]byte(key), value, fc.expireSeconds); err != nil {
		return fmt.Errorf("freecache set %s: %w", key, err)
	}
	return nil
}

func (fc *FreeCache) Clear() {
	fc.mainCache.Clear()
}

func (fc *FreeCache) EntryCount() int64 {
	return fc.mainCache.EntryCount()
}
