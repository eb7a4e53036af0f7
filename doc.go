/*
Package glyphcache caches rasterized glyph bitmaps in a single GPU
texture atlas so that text redrawn every frame avoids re-rasterization
and keeps texture uploads and draw calls to a minimum.

# Overview

The package is the middle layer of a text pipeline. A layout/shaping
collaborator supplies positioned glyphs each frame, an injected
Rasterizer turns glyph keys into coverage bitmaps on cache misses, and
a GPU backend consumes the upload commands and instance records this
package produces. Font parsing, shaping, and the GPU itself stay
outside; the raster and backend/opengl packages provide the production
implementations of those two boundaries.

Internally a shelf packer allocates atlas rectangles, an atlas texture
manager tracks CPU staging bytes and dirty regions, and a glyph cache
maps keys to generation-tagged slots. When the atlas fills up, entries
not used in the current frame are evicted via a whole-atlas clear and
the frame is resolved again, at most once per frame, so a working set
that cannot fit even in an empty atlas fails fast with
ErrAtlasOverflow instead of looping.

# Quick Start

	ras := raster.New()
	fontID, _ := ras.AddFont(ttfData)

	brush := glyphcache.New(ras,
	    glyphcache.WithAtlasSize(512, 512),
	    glyphcache.WithGrowth(4096, 4096))

	// Render loop
	for frame := uint64(1); running; frame++ {
	    glyphs := layoutText(fontID) // []glyphcache.PositionedGlyph

	    records, err := brush.ResolveFrame(frame, glyphs)
	    if err != nil {
	        // ErrAtlasOverflow: working set too large for the atlas cap
	    }

	    backend.UploadAtlas(brush.Flush()) // before any draw this frame
	    backend.Draw(records)
	    glyphcache.ReleaseInstances(records)
	}

# Concurrency

The cache is single-writer and frame-synchronous: resolve, then flush,
then draw, one frame at a time. Abandoning a frame before Flush is
always safe: writes only exist in the CPU staging buffer until Flush
hands them to the backend.
*/
package glyphcache
