package query

// Subscription receives updates for one key until closed.
type Subscription struct {
	c   *Cache
	key Key
	id  int
	ch  chan Update
}

// Subscribe registers interest in key. Invalidation only refetches keys
// that have at least one open subscription.
func (c *Cache) Subscribe(key Key) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	c.nextSub++
	s := &Subscription{c: c, key: key, id: c.nextSub, ch: make(chan Update, 1)}
	e.subs[s.id] = s
	return s
}

// Updates yields the latest update. Only the most recent undelivered
// update is kept. The channel is closed by Close.
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

// send runs with the cache lock held, so it never races Close.
func (s *Subscription) send(u Update) {
	select {
	case s.ch <- u:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- u
	}
}

// Close stops delivery. No update is sent after Close returns.
func (s *Subscription) Close() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	e, ok := s.c.entries[s.key]
	if !ok {
		return
	}
	if _, live := e.subs[s.id]; !live {
		return
	}
	delete(e.subs, s.id)
	close(s.ch)
}
