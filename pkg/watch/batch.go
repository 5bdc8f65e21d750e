package watch

import (
	"sync"
	"time"

	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/jonboulle/clockwork"
)

// batcher collects changes until no new one arrives for the debounce
// window, then signals ready.
type batcher struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	debounce time.Duration
	pending  delta.Set
	timer    clockwork.Timer
	ready    chan struct{}
}

func newBatcher(clock clockwork.Clock, debounce time.Duration) *batcher {
	return &batcher{
		clock:    clock,
		debounce: debounce,
		pending:  delta.Set{},
		ready:    make(chan struct{}, 1),
	}
}

// add records a change and restarts the quiet window.
func (b *batcher) add(item types.ItemID, rel string, k delta.Kind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pending.Add(item, rel, k); err != nil {
		return err
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = b.clock.AfterFunc(b.debounce, b.signal)
	return nil
}

func (b *batcher) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// take returns the pending changes and starts a new batch. Trees that
// collapsed to nothing are dropped; a batch with no changes is nil.
func (b *batcher) take() delta.Set {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := delta.Set{}
	for item, tree := range b.pending {
		if tree.Len() > 0 {
			out[item] = tree
		}
	}
	b.pending = delta.Set{}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (b *batcher) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
}
