package jogsync

// QueuedSyncWaiters reports how many callers wait for the follow-up sync.
func (c *Coordinator) QueuedSyncWaiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return 0
	}
	return c.pending.waiters
}
