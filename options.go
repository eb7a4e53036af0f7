package glyphcache

// Option configures a Brush.
type Option func(*config)

type config struct {
	width, height       int
	padding             int
	grow                bool
	maxWidth, maxHeight int
}

func defaultConfig() config {
	// 256x256 matches the typical initial glyph cache texture; small
	// enough to be cheap, large enough for a screenful of one face.
	return config{width: 256, height: 256}
}

// WithAtlasSize sets the initial atlas dimensions in pixels.
func WithAtlasSize(width, height int) Option {
	return func(c *config) {
		c.width = width
		c.height = height
	}
}

// WithPadding keeps an empty border of the given pixels around every
// packed glyph, guarding against sampler bleed between neighbors when
// the atlas is drawn with linear filtering.
func WithPadding(px int) Option {
	return func(c *config) { c.padding = px }
}

// WithGrowth lets the Brush react to ErrAtlasOverflow by doubling the
// atlas dimensions (capped at maxWidth x maxHeight) and resolving the
// frame again. At the cap the overflow error is returned as usual.
func WithGrowth(maxWidth, maxHeight int) Option {
	return func(c *config) {
		c.grow = true
		c.maxWidth = maxWidth
		c.maxHeight = maxHeight
	}
}
