package combat

//Signal is a synchronous multi-subscriber observer list. Subscribers run in
//subscription order in the frame the event is emitted.
type Signal[T any] struct {
	subs []subscriber[T]
	next int
}

type subscriber[T any] struct {
	key int
	f   func(T)
}

//Unsubscribe removes a subscription; calling it more than once is a no-op
type Unsubscribe func()

func (s *Signal[T]) Subscribe(f func(T)) Unsubscribe {
	s.next++
	key := s.next
	s.subs = append(s.subs, subscriber[T]{key: key, f: f})
	return func() {
		for i, v := range s.subs {
			if v.key == key {
				n := make([]subscriber[T], 0, len(s.subs)-1)
				n = append(n, s.subs[:i]...)
				s.subs = append(n, s.subs[i+1:]...)
				return
			}
		}
	}
}

//Emit calls every subscriber registered at the time of the call
func (s *Signal[T]) Emit(v T) {
	//subs is never mutated in place so ranging over the current slice is safe
	//against unsubscribes from inside a callback
	for _, sub := range s.subs {
		sub.f(v)
	}
}

func (s *Signal[T]) Len() int {
	return len(s.subs)
}

//Subscriptions collects unsubscribe funcs so an owner can drop them all at teardown
type Subscriptions []Unsubscribe

func (s *Subscriptions) Add(u ...Unsubscribe) {
	*s = append(*s, u...)
}

func (s *Subscriptions) Close() {
	for _, u := range *s {
		u()
	}
	*s = nil
}
