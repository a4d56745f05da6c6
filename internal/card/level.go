package card

import (
	"context"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/mofucat/chatrank/internal/level"
)

const (
	levelWidth  = 800
	levelHeight = 340
)

// LevelCardData is everything needed to draw one user's level card.
type LevelCardData struct {
	Username  string
	AvatarURL string
	XP        uint64
	Progress  level.Progress
	// Messages counted since the last aggregation reset.
	PeriodMessages uint64
	// Optional background override as hex colors, e.g. "#302160".
	BGTop    string
	BGBottom string
}

// RenderLevel draws a user's progression card with an XP bar toward the next
// level.
func (r *Renderer) RenderLevel(ctx context.Context, data LevelCardData) ([]byte, error) {
	dc := gg.NewContext(levelWidth, levelHeight)

	top := parseHexColor(data.BGTop, color.RGBA{R: 40, G: 48, B: 100, A: 255})
	bottom := parseHexColor(data.BGBottom, color.RGBA{R: 90, G: 60, B: 130, A: 255})

	drawVerticalGradient(dc, top, bottom)
	drawDiagonalStripes(dc, 70, 20, 0.05)

	avatar := r.fetchAvatar(ctx, data.AvatarURL)
	drawRoundAvatar(dc, avatar, 110, 120, 70)

	nameFace, err := r.face(r.bold, 40)
	if err != nil {
		return nil, err
	}

	dc.SetFontFace(nameFace)
	drawOutlinedText(dc, truncateName(data.Username, 16), 220, 95, 0, 0.5,
		color.White, color.RGBA{R: 25, G: 20, B: 50, A: 255})

	levelFace, err := r.face(r.bold, 30)
	if err != nil {
		return nil, err
	}

	dc.SetFontFace(levelFace)
	drawOutlinedText(dc, fmt.Sprintf("LV. %d", data.Progress.Level), 220, 150, 0, 0.5,
		color.RGBA{R: 255, G: 220, B: 130, A: 255}, color.RGBA{R: 25, G: 20, B: 50, A: 255})

	// XP bar.
	const (
		barX = 60.0
		barY = 240.0
		barW = levelWidth - 120.0
		barH = 36.0
	)

	dc.SetRGBA(0, 0, 0, 0.35)
	dc.DrawRoundedRectangle(barX, barY, barW, barH, barH/2)
	dc.Fill()

	ratio := 0.0
	if data.Progress.Needed > 0 {
		ratio = float64(data.Progress.Current) / float64(data.Progress.Needed)
	}
	if ratio > 1 {
		ratio = 1
	}

	if ratio > 0 {
		dc.SetRGB255(255, 205, 90)
		dc.DrawRoundedRectangle(barX, barY, barW*ratio, barH, barH/2)
		dc.Fill()
	}

	xpFace, err := r.face(r.regular, 22)
	if err != nil {
		return nil, err
	}

	dc.SetFontFace(xpFace)
	drawOutlinedText(dc,
		fmt.Sprintf("%d / %d XP", data.Progress.Current, data.Progress.Needed),
		levelWidth/2, barY+barH/2, 0.5, 0.5,
		color.White, color.RGBA{R: 25, G: 20, B: 50, A: 255})

	drawOutlinedText(dc, fmt.Sprintf("total %d XP", data.XP), levelWidth-60, 150, 1, 0.5,
		color.RGBA{R: 220, G: 215, B: 240, A: 255}, color.RGBA{R: 25, G: 20, B: 50, A: 255})

	drawOutlinedText(dc, fmt.Sprintf("%d messages this cycle", data.PeriodMessages), levelWidth-60, 190, 1, 0.5,
		color.RGBA{R: 220, G: 215, B: 240, A: 255}, color.RGBA{R: 25, G: 20, B: 50, A: 255})

	return encodePNG(dc)
}

// parseHexColor parses "#rrggbb", returning fallback on any malformed input.
func parseHexColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}

	var c color.RGBA
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return fallback
	}

	c.A = 255

	return c
}
