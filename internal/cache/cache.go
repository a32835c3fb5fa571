package cache

// Cache keeps rendered payloads keyed by string.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Clear()
	EntryCount() int64
}
