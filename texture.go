package glyphcache

import "sort"

// Upload is one pending sub-rectangle texture upload produced by Flush.
// Pixels is tightly packed: Rect.W bytes per row, Rect.H rows, one byte
// of alpha coverage per pixel.
type Upload struct {
	Rect   AtlasRect
	Pixels []byte
}

// AtlasTexture owns the CPU staging copy of the atlas texture and the
// set of dirty rectangles written since the last flush. It never talks
// to the GPU; the backend consumes the Upload commands Flush produces.
//
// The generation counter lives here: it bumps on every Clear, and all
// AtlasSlots issued under an older generation become stale.
type AtlasTexture struct {
	width, height int
	pixels        []byte
	dirty         []AtlasRect
	generation    uint64
}

// NewAtlasTexture creates a staging buffer of the given dimensions at
// generation 1.
func NewAtlasTexture(width, height int) *AtlasTexture {
	t := &AtlasTexture{}
	t.Clear(width, height)
	return t
}

// Size returns the atlas dimensions.
func (t *AtlasTexture) Size() (width, height int) {
	return t.width, t.height
}

// Generation returns the current atlas generation.
func (t *AtlasTexture) Generation() uint64 {
	return t.generation
}

// At returns the staging coverage value at (x, y).
func (t *AtlasTexture) At(x, y int) byte {
	return t.pixels[y*t.width+x]
}

// Write copies a tightly packed coverage bitmap into the staging buffer
// at rect and records the rectangle as dirty. CPU side effect only; the
// GPU texture is untouched until the next Flush.
func (t *AtlasTexture) Write(rect AtlasRect, pixels []byte) {
	if rect.X < 0 || rect.Y < 0 || rect.X+rect.W > t.width || rect.Y+rect.H > t.height {
		panic("glyphcache: write outside atlas bounds")
	}
	if len(pixels) < rect.W*rect.H {
		panic("glyphcache: short pixel buffer for atlas write")
	}
	for row := 0; row < rect.H; row++ {
		dst := (rect.Y+row)*t.width + rect.X
		copy(t.pixels[dst:dst+rect.W], pixels[row*rect.W:(row+1)*rect.W])
	}
	t.dirty = append(t.dirty, rect)
}

// Flush coalesces the dirty rectangles into upload commands and clears
// the dirty set. Rectangles whose vertical spans overlap (writes on the
// same shelf row) merge into one bounding rectangle, so a shelf filled
// by many small glyphs uploads as a single command. Call once per frame
// before any draw referencing the atlas.
func (t *AtlasTexture) Flush() []Upload {
	if len(t.dirty) == 0 {
		return nil
	}

	sort.Slice(t.dirty, func(i, j int) bool {
		if t.dirty[i].Y != t.dirty[j].Y {
			return t.dirty[i].Y < t.dirty[j].Y
		}
		return t.dirty[i].X < t.dirty[j].X
	})

	var uploads []Upload
	bound := t.dirty[0]
	for _, r := range t.dirty[1:] {
		if r.Y < bound.Y+bound.H {
			bound = bound.Union(r)
			continue
		}
		uploads = append(uploads, t.upload(bound))
		bound = r
	}
	uploads = append(uploads, t.upload(bound))

	t.dirty = t.dirty[:0]
	return uploads
}

// upload snapshots a staging rectangle into a tightly packed buffer.
func (t *AtlasTexture) upload(rect AtlasRect) Upload {
	pixels := make([]byte, rect.W*rect.H)
	for row := 0; row < rect.H; row++ {
		src := (rect.Y+row)*t.width + rect.X
		copy(pixels[row*rect.W:(row+1)*rect.W], t.pixels[src:src+rect.W])
	}
	return Upload{Rect: rect, Pixels: pixels}
}

// Clear resets the staging buffer to the given dimensions (all
// transparent), drops pending dirty state, and bumps the generation.
// Every previously issued AtlasSlot is stale afterward.
func (t *AtlasTexture) Clear(width, height int) {
	if width <= 0 || height <= 0 {
		panic("glyphcache: non-positive atlas dimensions")
	}
	if width == t.width && height == t.height {
		clear(t.pixels)
	} else {
		t.width, t.height = width, height
		t.pixels = make([]byte, width*height)
	}
	t.dirty = t.dirty[:0]
	t.generation++
}
