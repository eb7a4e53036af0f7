package glyphcache

// ShelfPacker allocates rectangles inside a fixed region using a shelf
// strategy: horizontal rows ("shelves") are opened on demand, each with
// a fixed height and a left-to-right cursor. The packer knows nothing
// about glyphs and keeps no free list; freed space is only reclaimed
// by Reset, which is why eviction above it works at whole-atlas
// granularity.
type ShelfPacker struct {
	width, height int
	shelves       []shelf
	nextY         int // Vertical offset where the next shelf would open
}

type shelf struct {
	y      int
	height int
	cursor int // Next free x on this shelf
}

// NewShelfPacker creates a packer over a width x height region.
func NewShelfPacker(width, height int) *ShelfPacker {
	if width <= 0 || height <= 0 {
		panic("glyphcache: non-positive packer dimensions")
	}
	return &ShelfPacker{width: width, height: height}
}

// Place finds room for a w x h rectangle and returns its top-left
// corner. Existing shelves are scanned best-fit by wasted height (the
// shortest shelf that still fits wins); if none fits, a new shelf of
// exactly height h opens at the next free vertical offset. Returns
// ok=false with no state mutated when the region is exhausted.
func (p *ShelfPacker) Place(w, h int) (x, y int, ok bool) {
	if w <= 0 || h <= 0 || w > p.width {
		return 0, 0, false
	}

	best := -1
	bestWaste := p.height + 1
	for i := range p.shelves {
		s := &p.shelves[i]
		if h > s.height || w > p.width-s.cursor {
			continue
		}
		if waste := s.height - h; waste < bestWaste {
			bestWaste = waste
			best = i
		}
	}
	if best >= 0 {
		s := &p.shelves[best]
		x, y = s.cursor, s.y
		s.cursor += w
		return x, y, true
	}

	// Open a new shelf if there is vertical room left.
	if h > p.height-p.nextY {
		return 0, 0, false
	}
	p.shelves = append(p.shelves, shelf{y: p.nextY, height: h, cursor: w})
	x, y = 0, p.nextY
	p.nextY += h
	return x, y, true
}

// Reset drops all shelf state, making the whole region available again.
func (p *ShelfPacker) Reset() {
	p.shelves = p.shelves[:0]
	p.nextY = 0
}

// Size returns the packer's region dimensions.
func (p *ShelfPacker) Size() (width, height int) {
	return p.width, p.height
}
