package glyphcache

import "errors"

// cacheEntry tracks one cached glyph with the frame that last touched
// it, for staleness-based eviction.
type cacheEntry struct {
	slot     AtlasSlot
	lastUsed uint64
}

// Cache maps glyph keys to atlas slots and owns the admission and
// eviction policy. It coordinates the packer and the atlas texture but
// never writes atlas bytes except through AtlasTexture.
//
// Eviction is whole-atlas only: the shelf packer keeps no free list, so
// when the atlas fills up the cache drops every entry not used in the
// current frame by clearing the entire atlas (new generation) and
// retries placement once.
type Cache struct {
	rasterizer Rasterizer
	packer     *ShelfPacker
	texture    *AtlasTexture
	entries    map[GlyphKey]*cacheEntry
	padding    int
}

// NewCache creates a cache over a fresh width x height atlas. Padding
// is the empty border in pixels kept around each packed glyph.
func NewCache(rasterizer Rasterizer, width, height, padding int) *Cache {
	if padding < 0 {
		panic("glyphcache: negative padding")
	}
	return &Cache{
		rasterizer: rasterizer,
		packer:     NewShelfPacker(width, height),
		texture:    NewAtlasTexture(width, height),
		entries:    make(map[GlyphKey]*cacheEntry, 256),
		padding:    padding,
	}
}

// Generation returns the current atlas generation. Holders of AtlasSlot
// values can compare against it to detect invalidation by a clear or
// resize instead of silently sampling wrong atlas regions.
func (c *Cache) Generation() uint64 {
	return c.texture.Generation()
}

// Size returns the atlas dimensions.
func (c *Cache) Size() (width, height int) {
	return c.texture.Size()
}

// Len returns the number of live cache entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Flush drains the atlas texture's pending upload commands.
func (c *Cache) Flush() []Upload {
	return c.texture.Flush()
}

// ValidateSlot returns a *GenerationError if slot was issued before the
// most recent clear or resize, nil if the slot is current.
func (c *Cache) ValidateSlot(slot AtlasSlot) error {
	if gen := c.texture.Generation(); slot.Generation != gen {
		return &GenerationError{Slot: slot.Generation, Current: gen}
	}
	return nil
}

// GetOrInsert resolves key to an atlas slot for the given frame.
//
// A hit updates the entry's last-used frame and returns the existing
// slot without rasterizing or packing. A miss rasterizes the glyph,
// packs it, and writes the bitmap into the staging atlas. If packing
// fails and at least one entry was not used this frame, the cache
// evicts by clearing the whole atlas (generation bump; the caller
// must re-resolve slots obtained earlier this frame) and retries the
// placement once. It returns a *RasterizeError if the rasterizer fails
// for this key, or ErrAtlasOverflow if the glyph cannot be placed even
// after a clear.
func (c *Cache) GetOrInsert(key GlyphKey, frame uint64) (AtlasSlot, error) {
	if e, ok := c.entries[key]; ok {
		if e.lastUsed < frame {
			e.lastUsed = frame
		}
		return e.slot, nil
	}

	bitmap, err := c.rasterizer.Rasterize(key)
	if err != nil {
		return AtlasSlot{}, &RasterizeError{Key: key, Err: err}
	}

	// Whitespace glyphs occupy no atlas space but are still cached so
	// repeated lookups stay hits.
	if bitmap.Width <= 0 || bitmap.Height <= 0 {
		slot := AtlasSlot{Generation: c.texture.Generation()}
		c.entries[key] = &cacheEntry{slot: slot, lastUsed: frame}
		return slot, nil
	}

	slot, err := c.place(bitmap)
	if errors.Is(err, ErrAtlasFull) {
		if !c.evict(frame) {
			// Everything live was touched this frame; nothing to free.
			return AtlasSlot{}, ErrAtlasOverflow
		}
		slot, err = c.place(bitmap)
		if err != nil {
			return AtlasSlot{}, ErrAtlasOverflow
		}
	}

	c.texture.Write(slot.Rect, bitmap.Pixels)
	c.entries[key] = &cacheEntry{slot: slot, lastUsed: frame}
	return slot, nil
}

// place asks the packer for a padded rectangle and returns the unpadded
// inner slot tagged with the current generation, or ErrAtlasFull.
func (c *Cache) place(bitmap Bitmap) (AtlasSlot, error) {
	x, y, ok := c.packer.Place(bitmap.Width+2*c.padding, bitmap.Height+2*c.padding)
	if !ok {
		return AtlasSlot{}, ErrAtlasFull
	}
	return AtlasSlot{
		Rect:       AtlasRect{X: x + c.padding, Y: y + c.padding, W: bitmap.Width, H: bitmap.Height},
		Generation: c.texture.Generation(),
	}, nil
}

// evict reports whether any entry was evictable (last used before
// frame) and, if so, performs the whole-atlas clear: generation bump,
// packer reset, all entries dropped. Entries already touched this frame
// are never kept either: partial reclamation is unsupported, so they
// are re-inserted by the caller's restarted pass.
func (c *Cache) evict(frame uint64) bool {
	evictable := false
	for _, e := range c.entries {
		if e.lastUsed < frame {
			evictable = true
			break
		}
	}
	if !evictable {
		return false
	}
	w, h := c.texture.Size()
	c.reset(w, h)
	return true
}

// Resize discards all entries and restarts the cache on an atlas of the
// new dimensions, under a new generation.
func (c *Cache) Resize(width, height int) {
	c.reset(width, height)
}

func (c *Cache) reset(width, height int) {
	c.packer = NewShelfPacker(width, height)
	c.texture.Clear(width, height)
	clear(c.entries)
}
