package glyphcache_test

import (
	"errors"
	"testing"

	"github.com/go-theft-auto/glyphcache"
)

// fakeRasterizer produces deterministic checkerboard bitmaps of a fixed
// size and counts rasterization calls. Keys listed in missing fail;
// keys listed in blank render as whitespace (zero-size bitmap).
type fakeRasterizer struct {
	size    int
	calls   int
	missing map[uint32]bool
	blank   map[uint32]bool
}

func newFakeRasterizer(size int) *fakeRasterizer {
	return &fakeRasterizer{
		size:    size,
		missing: make(map[uint32]bool),
		blank:   make(map[uint32]bool),
	}
}

func (f *fakeRasterizer) Rasterize(key glyphcache.GlyphKey) (glyphcache.Bitmap, error) {
	f.calls++
	if f.missing[key.Glyph] {
		return glyphcache.Bitmap{}, errors.New("no such glyph")
	}
	if f.blank[key.Glyph] {
		return glyphcache.Bitmap{}, nil
	}
	px := make([]byte, f.size*f.size)
	for y := 0; y < f.size; y++ {
		for x := 0; x < f.size; x++ {
			if (x+y)%2 == 0 {
				px[y*f.size+x] = 255
			}
		}
	}
	return glyphcache.Bitmap{Width: f.size, Height: f.size, Pixels: px}, nil
}

func key(glyph uint32) glyphcache.GlyphKey {
	return glyphcache.GlyphKey{Font: 0, Glyph: glyph, ScalePx: 16}
}

func TestCacheHitIdempotence(t *testing.T) {
	ras := newFakeRasterizer(10)
	c := glyphcache.NewCache(ras, 64, 64, 0)

	first, err := c.GetOrInsert(key(1), 1)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	callsAfterInsert := ras.calls

	second, err := c.GetOrInsert(key(1), 1)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if second != first {
		t.Errorf("hit returned a different slot: %+v vs %+v", second, first)
	}
	if ras.calls != callsAfterInsert {
		t.Errorf("hit triggered rasterization (%d calls, want %d)", ras.calls, callsAfterInsert)
	}
}

func TestCacheNonOverlapWithinGeneration(t *testing.T) {
	c := glyphcache.NewCache(newFakeRasterizer(10), 64, 64, 0)

	var slots []glyphcache.AtlasSlot
	for g := uint32(0); g < 30; g++ {
		slot, err := c.GetOrInsert(key(g), 1)
		if err != nil {
			t.Fatalf("insert %d: %v", g, err)
		}
		slots = append(slots, slot)
	}

	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].Generation != slots[j].Generation {
				continue
			}
			if slots[i].Rect.Intersects(slots[j].Rect) {
				t.Errorf("slots %d and %d overlap: %+v vs %+v", i, j, slots[i], slots[j])
			}
		}
	}
}

func TestCacheCurrentFrameNeverEvicted(t *testing.T) {
	// 32x32 atlas with 10x10 glyphs: capacity 9. All 9 touched in the
	// same frame, so the 10th has nothing to evict.
	c := glyphcache.NewCache(newFakeRasterizer(10), 32, 32, 0)
	gen := c.Generation()

	for g := uint32(0); g < 9; g++ {
		if _, err := c.GetOrInsert(key(g), 1); err != nil {
			t.Fatalf("insert %d: %v", g, err)
		}
	}
	_, err := c.GetOrInsert(key(9), 1)
	if !errors.Is(err, glyphcache.ErrAtlasOverflow) {
		t.Fatalf("expected ErrAtlasOverflow, got %v", err)
	}
	if c.Generation() != gen {
		t.Error("overflow with no evictable entries must not clear the atlas")
	}
	if c.Len() != 9 {
		t.Errorf("live entries = %d, want 9", c.Len())
	}
}

func TestCacheEvictionClearsAtlas(t *testing.T) {
	c := glyphcache.NewCache(newFakeRasterizer(10), 32, 32, 0)

	var old glyphcache.AtlasSlot
	for g := uint32(0); g < 9; g++ {
		slot, err := c.GetOrInsert(key(g), 1)
		if err != nil {
			t.Fatalf("insert %d: %v", g, err)
		}
		if g == 0 {
			old = slot
		}
	}
	gen := c.Generation()

	// Next frame: a miss with a full atlas evicts the stale frame-1
	// entries via a whole-atlas clear.
	slot, err := c.GetOrInsert(key(100), 2)
	if err != nil {
		t.Fatalf("insert after eviction: %v", err)
	}
	if c.Generation() != gen+1 {
		t.Errorf("generation = %d, want %d (one clear)", c.Generation(), gen+1)
	}
	if slot.Generation != c.Generation() {
		t.Error("new slot must carry the post-clear generation")
	}
	if c.Len() != 1 {
		t.Errorf("live entries = %d, want 1 (clear drops everything)", c.Len())
	}

	var genErr *glyphcache.GenerationError
	if err := c.ValidateSlot(old); !errors.As(err, &genErr) {
		t.Fatalf("stale slot validation = %v, want *GenerationError", err)
	}
	if genErr.Slot != gen || genErr.Current != gen+1 {
		t.Errorf("GenerationError = %+v, want {Slot:%d Current:%d}", genErr, gen, gen+1)
	}
}

func TestCacheRasterizeErrorCreatesNoEntry(t *testing.T) {
	ras := newFakeRasterizer(10)
	ras.missing[7] = true
	c := glyphcache.NewCache(ras, 64, 64, 0)

	_, err := c.GetOrInsert(key(7), 1)
	var rerr *glyphcache.RasterizeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RasterizeError, got %v", err)
	}
	if rerr.Key != key(7) {
		t.Errorf("error key = %+v, want %+v", rerr.Key, key(7))
	}
	if c.Len() != 0 {
		t.Error("failed rasterization must not create an entry")
	}

	// A later attempt rasterizes again (no negative caching).
	calls := ras.calls
	_, _ = c.GetOrInsert(key(7), 2)
	if ras.calls != calls+1 {
		t.Error("expected a second rasterization attempt")
	}
}

func TestCacheWhitespaceGlyph(t *testing.T) {
	ras := newFakeRasterizer(10)
	ras.blank[32] = true
	c := glyphcache.NewCache(ras, 32, 32, 0)

	slot, err := c.GetOrInsert(key(32), 1)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !slot.Rect.Empty() {
		t.Errorf("whitespace slot should be zero-size, got %+v", slot.Rect)
	}

	calls := ras.calls
	if _, err := c.GetOrInsert(key(32), 1); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ras.calls != calls {
		t.Error("whitespace lookup should be a cache hit")
	}
}

func TestCacheResizeInvalidatesSlots(t *testing.T) {
	c := glyphcache.NewCache(newFakeRasterizer(10), 32, 32, 0)

	slot, err := c.GetOrInsert(key(1), 1)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.ValidateSlot(slot); err != nil {
		t.Fatalf("fresh slot should validate, got %v", err)
	}

	gen := c.Generation()
	c.Resize(64, 64)

	if c.Generation() != gen+1 {
		t.Errorf("generation = %d, want %d", c.Generation(), gen+1)
	}
	if w, h := c.Size(); w != 64 || h != 64 {
		t.Errorf("size = %dx%d, want 64x64", w, h)
	}
	if c.Len() != 0 {
		t.Error("resize must discard all entries")
	}
	var genErr *glyphcache.GenerationError
	if err := c.ValidateSlot(slot); !errors.As(err, &genErr) {
		t.Errorf("pre-resize slot validation = %v, want *GenerationError", err)
	}
}

func TestCachePaddingKeepsGlyphsApart(t *testing.T) {
	c := glyphcache.NewCache(newFakeRasterizer(10), 64, 64, 1)

	a, err := c.GetOrInsert(key(1), 1)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	b, err := c.GetOrInsert(key(2), 1)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if a.Rect.W != 10 || a.Rect.H != 10 {
		t.Errorf("slot rect should be the unpadded bitmap size, got %+v", a.Rect)
	}
	// Inflate by the padding; the padded footprints must still be
	// disjoint, so at least 2px separate any two glyphs.
	pa := glyphcache.AtlasRect{X: a.Rect.X - 1, Y: a.Rect.Y - 1, W: a.Rect.W + 2, H: a.Rect.H + 2}
	pb := glyphcache.AtlasRect{X: b.Rect.X - 1, Y: b.Rect.Y - 1, W: b.Rect.W + 2, H: b.Rect.H + 2}
	if pa.Intersects(pb) {
		t.Errorf("padded slots overlap: %+v vs %+v", pa, pb)
	}
}
