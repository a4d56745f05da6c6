// Package card renders the decorative PNG cards the bot delivers: ranking
// leaderboards, level cards, and fortune slips.
package card

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/rand"
	"net/http"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Renderer draws all card types. It is stateless apart from parsed fonts and
// an HTTP client for avatar fetches, so one instance serves all guilds.
type Renderer struct {
	regular *opentype.Font
	bold    *opentype.Font
	http    *http.Client
	logger  *zap.Logger
}

// NewRenderer parses the embedded fonts and prepares a renderer.
func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}

	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}

	return &Renderer{
		regular: regular,
		bold:    bold,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Named("card"),
	}, nil
}

func (r *Renderer) face(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// fetchAvatar downloads and decodes an avatar image. Failures return nil so
// callers can fall back to a placeholder.
func (r *Renderer) fetchAvatar(ctx context.Context, url string) image.Image {
	if url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Debug("Failed to fetch avatar", zap.String("url", url), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		r.logger.Debug("Failed to decode avatar", zap.String("url", url), zap.Error(err))
		return nil
	}

	return img
}

// drawVerticalGradient fills the context with a top-to-bottom blend.
func drawVerticalGradient(dc *gg.Context, top, bottom color.RGBA) {
	w := float64(dc.Width())
	h := dc.Height()

	for y := 0; y < h; y++ {
		t := float64(y) / float64(h)
		dc.SetRGB255(
			int(float64(top.R)*(1-t)+float64(bottom.R)*t),
			int(float64(top.G)*(1-t)+float64(bottom.G)*t),
			int(float64(top.B)*(1-t)+float64(bottom.B)*t),
		)
		dc.DrawLine(0, float64(y), w, float64(y))
		dc.Stroke()
	}
}

// drawDiagonalStripes lays faint diagonal bands over the background.
func drawDiagonalStripes(dc *gg.Context, spacing, width float64, alpha float64) {
	w := float64(dc.Width())
	h := float64(dc.Height())

	dc.SetRGBA(1, 1, 1, alpha)

	for x := -h; x < w+h; x += spacing {
		dc.MoveTo(x, 0)
		dc.LineTo(x+h, h)
		dc.SetLineWidth(width)
		dc.Stroke()
	}
}

var decorGlyphs = []string{"◆", "★", "●", "♡"}

// scatterGlyphs sprinkles decorative glyphs across the canvas. Purely
// cosmetic; positions are random on every render.
func scatterGlyphs(dc *gg.Context, rng *rand.Rand, count int, face font.Face, alpha float64) {
	w := float64(dc.Width())
	h := float64(dc.Height())

	dc.SetFontFace(face)

	for i := 0; i < count; i++ {
		glyph := decorGlyphs[rng.Intn(len(decorGlyphs))]
		dc.SetRGBA(1, 1, 1, alpha*(0.4+0.6*rng.Float64()))
		dc.DrawStringAnchored(glyph, rng.Float64()*w, rng.Float64()*h, 0.5, 0.5)
	}
}

// drawOutlinedText draws text with a dark outline for legibility on busy
// backgrounds.
func drawOutlinedText(dc *gg.Context, text string, x, y, ax, ay float64, fill, outline color.Color) {
	dc.SetColor(outline)

	for dx := -2.0; dx <= 2; dx++ {
		for dy := -2.0; dy <= 2; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringAnchored(text, x+dx, y+dy, ax, ay)
		}
	}

	dc.SetColor(fill)
	dc.DrawStringAnchored(text, x, y, ax, ay)
}

// drawRoundAvatar clips an avatar into a circle at (x, y) with the given
// radius, drawing a placeholder disc when img is nil.
func drawRoundAvatar(dc *gg.Context, img image.Image, x, y, radius float64) {
	dc.Push()
	dc.DrawCircle(x, y, radius)
	dc.Clip()

	if img != nil {
		bounds := img.Bounds()
		scale := 2 * radius / float64(bounds.Dx())

		dc.Push()
		dc.Translate(x-radius, y-radius)
		dc.Scale(scale, scale)
		dc.DrawImage(img, 0, 0)
		dc.Pop()
	} else {
		dc.SetRGB255(120, 120, 140)
		dc.DrawCircle(x, y, radius)
		dc.Fill()
	}

	dc.ResetClip()
	dc.Pop()

	dc.SetRGBA(1, 1, 1, 0.85)
	dc.SetLineWidth(3)
	dc.DrawCircle(x, y, radius)
	dc.Stroke()
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}

	return buf.Bytes(), nil
}
