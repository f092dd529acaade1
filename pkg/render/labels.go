package render

import (
	"fmt"
	"image"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/vaultgraph/pkg/graph"
)

// Label sprite geometry. The bitmap width tracks the measured text width
// plus fixed horizontal padding; the height is constant so every sprite
// shares one baseline.
const (
	labelPadding  = 20
	labelHeight   = 68
	labelFontSize = 36
	labelFontDPI  = 72
)

// Sprite is a rasterized label billboard for a single node. The bitmap is
// uploaded by the host; the core only keeps it alive and answers fade
// queries.
type Sprite struct {
	Handle graph.Handle
	Text   string
	Image  *image.RGBA
	Width  int
	Height int
}

// LabelRegistry rasterizes and caches one billboard sprite per node handle.
// Sprites are created lazily and survive until the label text changes or
// the registry is closed. Rasterization failures are reported to the caller
// but never leave the registry in a broken state; the failed handle simply
// has no sprite until a later attempt succeeds.
type LabelRegistry struct {
	sprites map[graph.Handle]*Sprite

	// Fade distances. A sprite is fully opaque at or below FadeNear and
	// fully transparent at or beyond FadeFar.
	FadeNear float32
	FadeFar  float32
}

var (
	labelFaceOnce sync.Once
	labelFace     font.Face
	labelFaceErr  error
)

func loadLabelFace() (font.Face, error) {
	labelFaceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			labelFaceErr = fmt.Errorf("parse label font: %w", err)
			return
		}
		labelFace, labelFaceErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    labelFontSize,
			DPI:     labelFontDPI,
			Hinting: font.HintingFull,
		})
		if labelFaceErr != nil {
			labelFaceErr = fmt.Errorf("build label face: %w", labelFaceErr)
		}
	})
	return labelFace, labelFaceErr
}

// NewLabelRegistry creates an empty registry with default fade distances.
func NewLabelRegistry() *LabelRegistry {
	return &LabelRegistry{
		sprites:  make(map[graph.Handle]*Sprite),
		FadeNear: 150,
		FadeFar:  600,
	}
}

// GetOrCreate returns the cached sprite for the handle, rasterizing it on
// first use. A cached sprite whose text no longer matches is replaced.
func (r *LabelRegistry) GetOrCreate(h graph.Handle, text string) (*Sprite, error) {
	if s, ok := r.sprites[h]; ok && s.Text == text {
		return s, nil
	}
	s, err := rasterizeLabel(h, text)
	if err != nil {
		return nil, err
	}
	r.sprites[h] = s
	return s, nil
}

// Invalidate drops the cached sprite for a handle, forcing a fresh
// rasterization on next use. Used when a note is renamed in place.
func (r *LabelRegistry) Invalidate(h graph.Handle) {
	delete(r.sprites, h)
}

// Sprite returns the cached sprite for a handle, if any.
func (r *LabelRegistry) Sprite(h graph.Handle) (*Sprite, bool) {
	s, ok := r.sprites[h]
	return s, ok
}

// Len returns the number of cached sprites.
func (r *LabelRegistry) Len() int { return len(r.sprites) }

// Alpha returns the billboard opacity for a sprite at the given camera
// distance: 1 inside FadeNear, 0 beyond FadeFar, smoothstep between.
func (r *LabelRegistry) Alpha(distance float32) float32 {
	if distance <= r.FadeNear {
		return 1
	}
	if distance >= r.FadeFar {
		return 0
	}
	t := (distance - r.FadeNear) / (r.FadeFar - r.FadeNear)
	return 1 - t*t*(3-2*t)
}

// Close drops every cached sprite.
func (r *LabelRegistry) Close() {
	r.sprites = make(map[graph.Handle]*Sprite)
}

func rasterizeLabel(h graph.Handle, text string) (*Sprite, error) {
	face, err := loadLabelFace()
	if err != nil {
		return nil, err
	}

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	w, _ := measure.MeasureString(text)

	width := int(w) + labelPadding
	dc := gg.NewContext(width, labelHeight)
	dc.SetFontFace(face)
	dc.SetRGBA(1, 1, 1, 1)
	dc.DrawStringAnchored(text, float64(width)/2, float64(labelHeight)/2, 0.5, 0.5)

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("rasterize label %q: unexpected image type %T", text, dc.Image())
	}
	return &Sprite{
		Handle: h,
		Text:   text,
		Image:  img,
		Width:  width,
		Height: labelHeight,
	}, nil
}
