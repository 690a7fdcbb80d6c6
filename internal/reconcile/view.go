package reconcile

import "github.com/angelmondragon/packfinderz-storefront/pkg/enums"

// View is a read-only copy of a store at one version.
type View[T any] struct {
	State   enums.StoreState
	UserID  string
	Items   []T
	Loading bool
	Err     error
	Version uint64
}

type watcher[T any] struct {
	ch chan View[T]
}

// push replaces any undelivered view so readers always see the newest one.
func (w *watcher[T]) push(v View[T]) {
	select {
	case <-w.ch:
	default:
	}
	select {
	case w.ch <- v:
	default:
	}
}
