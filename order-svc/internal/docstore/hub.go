package docstore

import "sync"

// changeHub fans collection write signals out to live queries.
type changeHub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[string]map[int]chan struct{})}
}

func (h *changeHub) watch(collection string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	ch := make(chan struct{}, 1)
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]chan struct{})
	}
	h.subs[collection][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[collection], id)
			if len(h.subs[collection]) == 0 {
				delete(h.subs, collection)
			}
		})
	}
}

func (h *changeHub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[collection] {
		signal(ch)
	}
}

func (h *changeHub) notifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subs {
		for _, ch := range subs {
			signal(ch)
		}
	}
}

func (h *changeHub) watchers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
