package card

import (
	"context"
	"fmt"
	"image/color"
	"math/rand"
	"time"

	"github.com/fogleman/gg"
	"github.com/mofucat/chatrank/internal/aggregation"
	"github.com/mofucat/chatrank/internal/database/types/enum"
)

const (
	rankingWidth  = 920
	rankingHeight = 1050

	rankingRowHeight = 140
	rankingRowTop    = 190
)

// Pastel row palette, rank 1 first.
var rankPalette = []color.RGBA{
	{R: 255, G: 215, B: 120, A: 255},
	{R: 195, G: 220, B: 255, A: 255},
	{R: 205, G: 245, B: 205, A: 255},
	{R: 250, G: 205, B: 225, A: 255},
	{R: 225, G: 205, B: 250, A: 255},
	{R: 250, G: 230, B: 200, A: 255},
}

// RenderRanking draws the leaderboard card for a completed aggregation run.
func (r *Renderer) RenderRanking(ctx context.Context, data aggregation.RenderData) ([]byte, error) {
	dc := gg.NewContext(rankingWidth, rankingHeight)

	drawVerticalGradient(dc,
		color.RGBA{R: 48, G: 35, B: 96, A: 255},
		color.RGBA{R: 120, G: 60, B: 140, A: 255})
	drawDiagonalStripes(dc, 90, 28, 0.04)

	glyphFace, err := r.face(r.regular, 26)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	scatterGlyphs(dc, rng, 40, glyphFace, 0.25)

	titleFace, err := r.face(r.bold, 52)
	if err != nil {
		return nil, err
	}

	dc.SetFontFace(titleFace)
	drawOutlinedText(dc, "CHAT RANKING", rankingWidth/2, 70, 0.5, 0.5,
		color.White, color.RGBA{R: 30, G: 20, B: 60, A: 255})

	subFace, err := r.face(r.regular, 26)
	if err != nil {
		return nil, err
	}

	subtitle := data.GuildName
	if !data.Window.Live {
		subtitle = fmt.Sprintf("%s  ·  %s ~ %s",
			data.GuildName,
			data.Window.Start.Format("2006-01-02"),
			data.Window.End.Format("2006-01-02"))
	}

	dc.SetFontFace(subFace)
	drawOutlinedText(dc, subtitle, rankingWidth/2, 125, 0.5, 0.5,
		color.RGBA{R: 230, G: 225, B: 245, A: 255}, color.RGBA{R: 30, G: 20, B: 60, A: 255})

	nameFace, err := r.face(r.bold, 34)
	if err != nil {
		return nil, err
	}

	countFace, err := r.face(r.regular, 26)
	if err != nil {
		return nil, err
	}

	rankFace, err := r.face(r.bold, 44)
	if err != nil {
		return nil, err
	}

	for i, entry := range data.Entries {
		rowY := float64(rankingRowTop + i*rankingRowHeight)
		rowColor := rankPalette[i%len(rankPalette)]

		// Row plate.
		dc.SetRGBA255(int(rowColor.R), int(rowColor.G), int(rowColor.B), 235)
		dc.DrawRoundedRectangle(60, rowY, rankingWidth-120, rankingRowHeight-20, 24)
		dc.Fill()

		// Rank number.
		dc.SetFontFace(rankFace)
		dc.SetRGB255(60, 45, 90)
		dc.DrawStringAnchored(fmt.Sprintf("%d", entry.Rank), 115, rowY+(rankingRowHeight-20)/2, 0.5, 0.5)

		avatar := r.fetchAvatar(ctx, entry.AvatarURL)
		drawRoundAvatar(dc, avatar, 215, rowY+(rankingRowHeight-20)/2, 44)

		// Name, with a crown mark for the first tier.
		name := entry.Username
		if entry.Tier == enum.TierFirst {
			name = "♔ " + name
		}

		dc.SetFontFace(nameFace)
		dc.SetRGB255(40, 30, 70)
		dc.DrawStringAnchored(truncateName(name, 18), 290, rowY+42, 0, 0.5)

		// Count and streak.
		line := fmt.Sprintf("%d messages", entry.Count)
		if entry.Streak > 1 {
			line = fmt.Sprintf("%d messages  ·  %d in a row", entry.Count, entry.Streak)
		}

		dc.SetFontFace(countFace)
		dc.SetRGB255(90, 75, 120)
		dc.DrawStringAnchored(line, 290, rowY+84, 0, 0.5)
	}

	return encodePNG(dc)
}

func truncateName(name string, maxRunes int) string {
	runes := []rune(name)
	if len(runes) <= maxRunes {
		return name
	}

	return string(runes[:maxRunes-1]) + "…"
}
