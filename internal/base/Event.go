package base

import "sync"

/***************************************
 * Event
 ***************************************/

type DelegateHandle = int32

type EventDelegate[T any] func(T) error

func (x EventDelegate[T]) Bound() bool { return x != nil }
func (x EventDelegate[T]) Invoke(arg T) error {
	if x != nil {
		return x(arg)
	}
	return nil
}

type Event[T any] interface {
	Bound() bool
	Invoke(T) error
}

type MutableEvent[T any] interface {
	Add(EventDelegate[T]) DelegateHandle
	Remove(DelegateHandle) bool
	Clear()
	Event[T]
}

/***************************************
 * PublicEvent
 ***************************************/

type boundDelegate[T any] struct {
	Handle   DelegateHandle
	Delegate EventDelegate[T]
}

// PublicEvent invokes its delegates in registration order, stopping at the first error.
type PublicEvent[T any] struct {
	delegates  []boundDelegate[T]
	nextHandle DelegateHandle
}

func (x *PublicEvent[T]) Bound() bool {
	return len(x.delegates) > 0
}
func (x *PublicEvent[T]) Add(e EventDelegate[T]) DelegateHandle {
	x.nextHandle++
	x.delegates = append(x.delegates, boundDelegate[T]{
		Handle:   x.nextHandle,
		Delegate: e,
	})
	return x.nextHandle
}
func (x *PublicEvent[T]) Remove(handle DelegateHandle) bool {
	for i, it := range x.delegates {
		if it.Handle == handle {
			x.delegates = append(x.delegates[:i], x.delegates[i+1:]...)
			return true
		}
	}
	return false
}
func (x *PublicEvent[T]) Invoke(arg T) error {
	for _, it := range x.delegates {
		if err := it.Delegate.Invoke(arg); err != nil {
			return err
		}
	}
	return nil
}
func (x *PublicEvent[T]) Clear() {
	*x = PublicEvent[T]{}
}

/***************************************
 * ConcurrentEvent
 ***************************************/

// ConcurrentEvent can be subscribed and fired from any goroutine.
// Delegates are invoked on a snapshot, so they may unsubscribe themselves.
type ConcurrentEvent[T any] struct {
	inner   PublicEvent[T]
	barrier sync.RWMutex
}

func (x *ConcurrentEvent[T]) Bound() bool {
	x.barrier.RLock()
	defer x.barrier.RUnlock()
	return x.inner.Bound()
}
func (x *ConcurrentEvent[T]) Add(e EventDelegate[T]) DelegateHandle {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	return x.inner.Add(e)
}
func (x *ConcurrentEvent[T]) Remove(h DelegateHandle) bool {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	return x.inner.Remove(h)
}
func (x *ConcurrentEvent[T]) Clear() {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.inner.Clear()
}
func (x *ConcurrentEvent[T]) Invoke(arg T) error {
	x.barrier.RLock()
	snapshot := make([]boundDelegate[T], len(x.inner.delegates))
	copy(snapshot, x.inner.delegates)
	x.barrier.RUnlock()

	for _, it := range snapshot {
		if err := it.Delegate.Invoke(arg); err != nil {
			return err
		}
	}
	return nil
}
