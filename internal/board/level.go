// Package board implements the price-sorted order book (C1) and the wall
// filter predicate (C2).
package board

import "math"

// Level is a single resting price level: a price and the resting size at
// that price.
type Level struct {
	Price float64
	Size  float64
}

// IsRemove reports whether this level is a remove-sentinel: a size that is
// NaN or exactly zero means "delete this price" rather than "rest this
// size here". NaN prices never reach the book because every write path
// diverts remove-sentinels before they touch a map.
func (l Level) IsRemove() bool {
	return math.IsNaN(l.Size) || l.Size == 0
}

// IsLarge reports whether this level's size strictly exceeds sizeMin.
func (l Level) IsLarge(sizeMin float64) bool {
	return l.Size > sizeMin
}
