package glyphcache

import (
	"errors"
	"fmt"
)

// Brush is the per-frame entry point. It resolves a frame's positioned
// glyphs against the cache as a transaction, flushes pending atlas
// uploads, and builds GPU instance records.
//
// A Brush is single-writer: one frame resolution at a time, and the
// caller must await upload completion of a Flush before starting the
// next frame.
type Brush struct {
	cache   *Cache
	builder InstanceBuilder
	clip    *Rect
	cfg     config
}

// New creates a Brush using the given rasterizer for cache misses.
func New(rasterizer Rasterizer, opts ...Option) *Brush {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Brush{
		cache: NewCache(rasterizer, cfg.width, cfg.height, cfg.padding),
		cfg:   cfg,
	}
}

// Cache returns the underlying glyph cache, for generation checks and
// slot validation.
func (b *Brush) Cache() *Cache {
	return b.cache
}

// Generation returns the current atlas generation.
func (b *Brush) Generation() uint64 {
	return b.cache.Generation()
}

// AtlasSize returns the current atlas dimensions.
func (b *Brush) AtlasSize() (width, height int) {
	return b.cache.Size()
}

// SetClipRect clips subsequent frames' instances to bounds. Instances
// fully outside are dropped; straddling instances are trimmed with
// their UV rectangles scaled proportionally.
func (b *Brush) SetClipRect(bounds Rect) {
	b.clip = &bounds
}

// ClearClipRect removes the clip rectangle.
func (b *Brush) ClearClipRect() {
	b.clip = nil
}

// ResolveFrame resolves one frame's glyph list into draw-ready instance
// records, preserving input order. Glyphs whose rasterization fails are
// dropped; an atlas too small for the frame's working set yields
// ErrAtlasOverflow (after growing, if WithGrowth is configured).
//
// The returned slice comes from an internal pool; callers that care
// about steady-state allocations can hand it back with
// ReleaseInstances after submitting the draw.
func (b *Brush) ResolveFrame(frameID uint64, glyphs []PositionedGlyph) ([]InstanceRecord, error) {
	resolved, err := b.resolve(frameID, glyphs)
	for err != nil && b.cfg.grow && errors.Is(err, ErrAtlasOverflow) {
		if !b.growAtlas() {
			return nil, err
		}
		resolved, err = b.resolve(frameID, glyphs)
	}
	if err != nil {
		return nil, err
	}
	w, h := b.cache.Size()
	return b.builder.Build(resolved, w, h, b.clip), nil
}

// Flush returns the upload commands accumulated since the previous
// flush. Must be called once per frame, after ResolveFrame and before
// any draw referencing the atlas texture.
func (b *Brush) Flush() []Upload {
	return b.cache.Flush()
}

// ResizeAtlas restarts the cache on an atlas of the new dimensions.
// All entries are discarded and the generation bumps, so every
// previously issued slot and instance record is stale.
func (b *Brush) ResizeAtlas(width, height int) {
	b.cache.Resize(width, height)
}

// resolve runs resolution passes over the glyph list with the
// one-restart-per-frame bound: if a pass triggers a full atlas clear
// (observed as a generation change), slots resolved earlier in that
// pass are stale, so the partial result is discarded and the pass
// restarts from the top of the list, exactly once. A second clear in
// the same frame means the working set cannot fit in an empty atlas.
func (b *Brush) resolve(frameID uint64, glyphs []PositionedGlyph) ([]ResolvedGlyph, error) {
	const maxPasses = 2
	for pass := 0; pass < maxPasses; pass++ {
		resolved, clean, err := b.resolvePass(frameID, glyphs)
		if err != nil {
			return nil, err
		}
		if clean {
			return resolved, nil
		}
	}
	return nil, fmt.Errorf("frame %d working set needs a second atlas clear: %w",
		frameID, ErrAtlasOverflow)
}

// resolvePass resolves every glyph once, in order. clean=false means
// the atlas generation changed mid-pass and the result must be thrown
// away.
func (b *Brush) resolvePass(frameID uint64, glyphs []PositionedGlyph) (resolved []ResolvedGlyph, clean bool, err error) {
	startGen := b.cache.Generation()
	resolved = make([]ResolvedGlyph, 0, len(glyphs))
	for _, g := range glyphs {
		slot, err := b.cache.GetOrInsert(g.Key, frameID)
		if err != nil {
			var rerr *RasterizeError
			if errors.As(err, &rerr) {
				// Missing glyph: drop it, the rest of the frame renders.
				continue
			}
			return nil, false, err
		}
		resolved = append(resolved, ResolvedGlyph{Glyph: g, Slot: slot})
	}
	if b.cache.Generation() != startGen {
		return nil, false, nil
	}
	return resolved, true, nil
}

// growAtlas doubles the atlas dimensions up to the configured cap.
// Reports false when already at the cap.
func (b *Brush) growAtlas() bool {
	w, h := b.cache.Size()
	nw := min(w*2, b.cfg.maxWidth)
	nh := min(h*2, b.cfg.maxHeight)
	if nw <= w && nh <= h {
		return false
	}
	b.cache.Resize(max(nw, w), max(nh, h))
	return true
}
