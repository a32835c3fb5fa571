package cache

var _ Cache = (*NoopCache)(nil)

// NoopCache never holds anything, used when caching is disabled.
type NoopCache struct{}

func (NoopCache) Get(string) ([]byte, bool) {
	return nil, false
}

func (NoopCache) Set(string, []byte) error {
	return nil
}

func (NoopCache) Clear() {}

func (NoopCache) EntryCount() int64 {
	return 0
}
