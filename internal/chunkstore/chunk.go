package chunkstore

import (
	"image"
	"sync"
	"time"
)

// ChunkKey identifies a chunk by its tile coordinate at the chunk zoom.
// Identical keys from different uploads intentionally collide: that is
// what triggers a merge.
type ChunkKey struct {
	X, Y int64
}

// Chunk is the atomic unit of caching: an RGBA raster aligned to one tile
// at the chunk zoom. A chunk is never mutated in place; every merge
// replaces the store entry wholesale, which is what lets readers take
// consistent snapshots without a lock.
type Chunk struct {
	Coords       ChunkKey
	PixelExtents image.Point
	Raster       *image.NRGBA
	UpdatedAt    time.Time
}

type chunkMap struct {
	m sync.Map
}

func (c *chunkMap) Load(k ChunkKey) (*Chunk, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.(*Chunk), true
}

func (c *chunkMap) Store(k ChunkKey, v *Chunk) {
	c.m.Store(k, v)
}

func (c *chunkMap) Range(fn func(k ChunkKey, v *Chunk) bool) {
	c.m.Range(func(k, v any) bool {
		return fn(k.(ChunkKey), v.(*Chunk))
	})
}
