package base

import (
	"context"
	"fmt"
	"sync"
)

var LogFuture = NewLogCategory("Future")

type Future[T any] interface {
	Done() <-chan struct{}
	Join() Result[T]
}

/***************************************
 * Result[T]
 ***************************************/

type Result[S any] interface {
	Success() S
	Failure() error
	Get() (S, error)
}

type result[S any] struct {
	success S
	failure error
}

func (r result[S]) Get() (S, error) {
	return r.success, r.failure
}
func (r result[S]) Success() S {
	LogPanicIfFailed(LogFuture, r.failure)
	return r.success
}
func (r result[S]) Failure() error {
	return r.failure
}
func (r result[S]) String() string {
	if r.failure == nil {
		return fmt.Sprint(r.success)
	} else {
		return r.failure.Error()
	}
}

/***************************************
 * Promise
 ***************************************/

// Promise is a future resolved exactly once by its producer, subsequent resolutions are ignored.
type Promise[T any] struct {
	done   chan struct{}
	once   sync.Once
	result result[T]
}

func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

func (x *Promise[T]) Resolve(value T, err error) bool {
	resolved := false
	x.once.Do(func() {
		x.result = result[T]{success: value, failure: err}
		close(x.done)
		resolved = true
	})
	return resolved
}

func (x *Promise[T]) Done() <-chan struct{} {
	return x.done
}
func (x *Promise[T]) Join() Result[T] {
	<-x.done
	return x.result
}

// Await joins the future unless ctx is done first.
func Await[T any](ctx context.Context, future Future[T]) (T, error) {
	select {
	case <-future.Done():
		return future.Join().Get()
	case <-ctx.Done():
		var defaultValue T
		return defaultValue, ctx.Err()
	}
}
