package operations

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"print-packager/internal/domain"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/f64"
)

const (
	minScaleFactor = 0.3
	coverageFactor = 1.4
)

type Watermarker struct {
	font *truetype.Font
}

// NewWatermarker parses a TrueType font. A nil fontBytes selects Go Regular.
func NewWatermarker(fontBytes []byte) (*Watermarker, error) {
	if fontBytes == nil {
		fontBytes = goregular.TTF
	}

	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoad, err)
	}

	return &Watermarker{
		font: f,
	}, nil
}

// ScaleFactor ties watermark size to the absolute resolution of the canvas:
// 1.0 at the width of a 4in print at the reference DPI.
func ScaleFactor(width int) float64 {
	return math.Max(minScaleFactor, float64(width)/(4*domain.ReferenceDPI))
}

// sprite is the watermark text rendered once at its effective size. Text and
// shadow share bounds; the text baseline starts at origin.
type sprite struct {
	text   *image.RGBA
	shadow *image.RGBA
	origin image.Point
	offset image.Point
	width  float64
	height float64
}

// Apply returns a new image with the watermark composited over src. When the
// spec is inactive src itself is returned.
func (w *Watermarker) Apply(src image.Image, spec domain.WatermarkSpec) (image.Image, error) {
	if !spec.Active() {
		return src, nil
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	if err := checkSurface(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	fill := white
	if strings.TrimSpace(spec.Color) != "" {
		c, err := ParseColor(spec.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidColor, err)
		}
		fill = c
	}

	scale := ScaleFactor(b.Dx())
	sp, err := w.render(spec, fill, scale)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)

	mx := spec.MarginX * scale
	my := spec.MarginY * scale

	if spec.Position == domain.WatermarkRepeat {
		w.tile(dst, sp, spec.RotationDegrees, mx, my)
		return dst, nil
	}

	x, y := baseline(spec.Position, float64(b.Dx()), float64(b.Dy()), sp.width, sp.height, mx, my)
	at := b.Min.Add(image.Pt(int(math.Round(x)), int(math.Round(y)))).Sub(sp.origin)
	sp.drawAt(dst, at)

	return dst, nil
}

// baseline returns the left end of the text baseline for a fixed position.
func baseline(pos domain.WatermarkPosition, cw, ch, tw, th, mx, my float64) (float64, float64) {
	switch pos {
	case domain.WatermarkTopRight:
		return cw - tw - mx, my + th
	case domain.WatermarkBottomLeft:
		return mx, ch - my
	case domain.WatermarkBottomRight:
		return cw - tw - mx, ch - my
	case domain.WatermarkCenter:
		return (cw - tw) / 2, (ch + th) / 2
	default:
		return mx, my + th
	}
}

func (w *Watermarker) render(spec domain.WatermarkSpec, fill color.NRGBA, scale float64) (*sprite, error) {
	size := math.Max(1, math.Round(spec.FontSize*scale))

	face := truetype.NewFace(w.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	defer face.Close()

	text := strings.TrimSpace(spec.Text)
	tw := font.MeasureString(face, text)
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()

	sigma := math.Max(1, scale)
	off := int(math.Max(1, math.Round(scale)))
	pad := int(math.Ceil(3*sigma)) + 2

	sw := tw.Ceil() + 2*pad
	sh := ascent + descent + 2*pad
	if err := checkSurface(sw, sh); err != nil {
		return nil, err
	}

	mask := image.NewAlpha(image.Rect(0, 0, sw, sh))
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(w.font)
	c.SetFontSize(size)
	c.SetClip(mask.Bounds())
	c.SetDst(mask)
	c.SetSrc(image.Opaque)
	c.SetHinting(font.HintingNone)

	if _, err := c.DrawString(text, freetype.Pt(pad, pad+ascent)); err != nil {
		return nil, fmt.Errorf("failed to draw watermark text: %w", err)
	}

	opacity := math.Min(1, math.Max(0, spec.Opacity))

	return &sprite{
		text:   paint(mask, withOpacity(fill, opacity)),
		shadow: paint(imaging.Blur(mask, sigma), withOpacity(ShadowColor(fill), opacity)),
		origin: image.Pt(pad, pad+ascent),
		offset: image.Pt(off, off),
		width:  float64(tw) / 64,
		height: size,
	}, nil
}

// paint fills the alpha of mask with c.
func paint(mask image.Image, c color.NRGBA) *image.RGBA {
	dst := image.NewRGBA(mask.Bounds())
	draw.DrawMask(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, mask, mask.Bounds().Min, draw.Src)
	return dst
}

func (s *sprite) drawAt(dst draw.Image, at image.Point) {
	r := s.text.Bounds()
	draw.Draw(dst, r.Add(at.Add(s.offset)), s.shadow, r.Min, draw.Over)
	draw.Draw(dst, r.Add(at), s.text, r.Min, draw.Over)
}

// tile repeats the sprite over a grid rotated about the canvas center. The
// rotation lives only in the per-draw matrix.
func (w *Watermarker) tile(dst *image.RGBA, sp *sprite, degrees, mx, my float64) {
	b := dst.Bounds()
	cw, ch := float64(b.Dx()), float64(b.Dy())
	cx := float64(b.Min.X) + cw/2
	cy := float64(b.Min.Y) + ch/2

	spacingX := math.Max(1, sp.width+mx)
	spacingY := math.Max(1, sp.height+my)
	coverage := math.Hypot(cw, ch) * coverageFactor
	cols := int(math.Ceil(coverage/spacingX)) + 2
	rows := int(math.Ceil(coverage/spacingY)) + 2
	startX := -coverage / 2
	startY := -coverage/2 + sp.height

	sin, cos := math.Sincos(degrees * math.Pi / 180)
	axisAligned := math.Abs(sin) < 1e-9 && cos > 0

	sr := sp.text.Bounds()
	ox0 := float64(sp.origin.X)
	oy0 := float64(sp.origin.Y)
	offX := float64(sp.offset.X)
	offY := float64(sp.offset.Y)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			lx := startX + float64(col)*spacingX - ox0
			ly := startY + float64(row)*spacingY - oy0

			tx := cx + cos*lx - sin*ly
			ty := cy + sin*lx + cos*ly

			if axisAligned {
				at := image.Pt(int(math.Round(tx)), int(math.Round(ty)))
				if !sr.Add(at).Add(sp.offset).Union(sr.Add(at)).Overlaps(b) {
					continue
				}
				sp.drawAt(dst, at)
				continue
			}

			if !rotatedBounds(sr, cos, sin, tx, ty).Inset(-sp.offset.X - 1).Overlaps(b) {
				continue
			}

			// Shadow offsets stay in canvas space like a 2D canvas shadow.
			shadow := f64.Aff3{cos, -sin, tx + offX, sin, cos, ty + offY}
			text := f64.Aff3{cos, -sin, tx, sin, cos, ty}
			xdraw.BiLinear.Transform(dst, shadow, sp.shadow, sr, xdraw.Over, nil)
			xdraw.BiLinear.Transform(dst, text, sp.text, sr, xdraw.Over, nil)
		}
	}
}

func rotatedBounds(r image.Rectangle, cos, sin, tx, ty float64) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, p := range [4][2]float64{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
	} {
		x := cos*p[0] - sin*p[1] + tx
		y := sin*p[0] + cos*p[1] + ty
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
