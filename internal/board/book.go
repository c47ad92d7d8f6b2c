package board

import (
	"sync"
	"time"

	"github.com/tidwall/btree"
)

// Book is the price-sorted order book: two price->level maps, ask and
// bid, each backed by a tidwall/btree ordered map so best-price reads and
// the wall scan run in O(log n) / O(k) without cloning.
//
// The ask side orders ascending by price so its best (smallest) price is
// always the tree's Min(); the bid side orders descending by price so its
// best (largest) price is also the tree's Min(). This lets Best and Scan
// share one code path across both sides instead of branching on
// direction at every call site.
type Book struct {
	mu        sync.RWMutex
	ask       *btree.BTreeG[Level]
	bid       *btree.BTreeG[Level]
	updatedAt time.Time
}

func lessAsk(a, b Level) bool { return a.Price < b.Price }
func lessBid(a, b Level) bool { return a.Price > b.Price }

// New returns an empty book.
func New() *Book {
	return &Book{
		ask: btree.NewBTreeG(lessAsk),
		bid: btree.NewBTreeG(lessBid),
	}
}

func (b *Book) treeFor(side Side) *btree.BTreeG[Level] {
	if side == Ask {
		return b.ask
	}
	return b.bid
}

func lessFor(side Side) func(a, b Level) bool {
	if side == Ask {
		return lessAsk
	}
	return lessBid
}

// Replace atomically substitutes the entire named side with levels,
// discarding any remove-sentinel entries. This is the "snapshot" update
// kind. It replaces only the named side in place — it never writes into
// the other side's map, unlike the aliasing bug documented in the
// original source (see design notes on extend_ask/extend_bid).
func (b *Book) Replace(side Side, levels []Level) {
	next := btree.NewBTreeG(lessFor(side))
	for _, l := range levels {
		if l.IsRemove() {
			continue
		}
		next.Set(l)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if side == Ask {
		b.ask = next
	} else {
		b.bid = next
	}
	b.updatedAt = time.Now()
}

// ApplyDelta upserts or deletes levels on the named side: a
// remove-sentinel level deletes any existing entry at that price, any
// other level replaces (or inserts) the entry at that price.
func (b *Book) ApplyDelta(side Side, levels []Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tree := b.treeFor(side)
	for _, l := range levels {
		if l.IsRemove() {
			tree.Delete(l)
			continue
		}
		tree.Set(l)
	}
	b.updatedAt = time.Now()
}

// Best returns the best price on side, or 0 if the side is empty.
func (b *Book) Best(side Side) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.treeFor(side).Min()
	if !ok {
		return 0
	}
	return l.Price
}

// BestPrices returns (best ask, best bid) in one lock acquisition.
func (b *Book) BestPrices() (bestAsk, bestBid float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if l, ok := b.ask.Min(); ok {
		bestAsk = l.Price
	}
	if l, ok := b.bid.Min(); ok {
		bestBid = l.Price
	}
	return bestAsk, bestBid
}

// UpdatedAt returns the wall-clock time of the last Replace or
// ApplyDelta call.
func (b *Book) UpdatedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updatedAt
}

// Scan is the wall-detection hot path. It walks the named side in
// best-to-worst order and short-circuits on the first level that is in
// range, large enough, and not the caller's own resting price.
//
// Iteration is by reference under a read lock via the tree's own Scan
// traversal — no intermediate slice is built and no entries are cloned
// before filtering. A historical revision of the original source built a
// Vec via collect().filter() before taking the first/last element; that
// form is superseded and is not reproduced here.
func (b *Book) Scan(cfg FilterConfig, ownPrice *float64) (price float64, found bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tree := b.treeFor(cfg.Side)
	tree.Scan(func(l Level) bool {
		if !cfg.IsCandidate(l, ownPrice) {
			return true // keep iterating
		}
		// Zero-price guard: a level at price 0 is never reported as a
		// wall. The tree stores Level values ordered by their own Price,
		// so a separate key/value comparison is not needed.
		if l.Price == 0 {
			found = false
			return false
		}
		price, found = l.Price, true
		return false
	})
	return price, found
}

// Len returns the number of resting levels on side.
func (b *Book) Len(side Side) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.treeFor(side).Len()
}
