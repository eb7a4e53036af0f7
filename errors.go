package glyphcache

import (
	"errors"
	"fmt"
)

// ErrAtlasFull signals that the packer could not place a rectangle in
// the current atlas. It is transient: GetOrInsert absorbs it via the
// evict-and-clear retry and only ever surfaces ErrAtlasOverflow.
var ErrAtlasFull = errors.New("glyphcache: atlas full")

// ErrAtlasOverflow signals that a frame's glyph working set cannot fit
// in the atlas even after a full clear. Fatal for the frame: the caller
// must shrink the glyph set or grow the atlas (ResizeAtlas or
// WithGrowth) and resolve again.
var ErrAtlasOverflow = errors.New("glyphcache: atlas overflow")

// RasterizeError reports that the rasterizer could not produce a bitmap
// for one glyph key. Non-fatal: the frame resolver drops the glyph and
// the rest of the frame is unaffected.
type RasterizeError struct {
	Key GlyphKey
	Err error
}

func (e *RasterizeError) Error() string {
	return fmt.Sprintf("glyphcache: rasterize glyph %d (font %d, scale %d): %v",
		e.Key.Glyph, e.Key.Font, e.Key.ScalePx, e.Err)
}

func (e *RasterizeError) Unwrap() error { return e.Err }

// GenerationError reports use of an AtlasSlot issued before the most
// recent clear or resize. This is a contract violation by the caller:
// the slot points at atlas content that no longer exists.
type GenerationError struct {
	Slot    uint64 // Generation carried by the slot
	Current uint64 // Atlas generation at the time of use
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("glyphcache: stale atlas slot: generation %d, atlas is at %d",
		e.Slot, e.Current)
}
