package service

import "sync"

// serial runs queued functions one at a time in submission order on its own
// goroutine.
type serial struct {
	mu     sync.Mutex
	items  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newSerial() *serial {
	s := &serial{wake: make(chan struct{}, 1), done: make(chan struct{})}
	go s.run()
	return s
}

func (s *serial) push(fn func()) bool {
	return s.enqueue(fn, false)
}

// pushLast queues fn and closes the queue in one step, so nothing can be
// queued behind it.
func (s *serial) pushLast(fn func()) bool {
	return s.enqueue(fn, true)
}

func (s *serial) enqueue(fn func(), last bool) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items, fn)
	s.closed = last
	s.mu.Unlock()
	s.signal()
	return true
}

// close stops accepting work; queued work still runs.
func (s *serial) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *serial) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *serial) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *serial) pop() (fn func(), ok bool, finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil, false, s.closed
	}
	fn = s.items[0]
	s.items[0] = nil
	s.items = s.items[1:]
	return fn, true, false
}

func (s *serial) run() {
	defer close(s.done)
	for {
		fn, ok, finished := s.pop()
		if finished {
			return
		}
		if !ok {
			<-s.wake
			continue
		}
		fn()
	}
}
