package card

import (
	"image/color"
	"math/rand"
	"time"

	"github.com/fogleman/gg"
	"github.com/mofucat/chatrank/internal/fortune"
)

const (
	fortuneWidth  = 480
	fortuneHeight = 720
)

var gradeColors = map[fortune.Grade]color.RGBA{
	fortune.GradeGreatBlessing: {R: 200, G: 60, B: 60, A: 255},
	fortune.GradeBlessing:      {R: 200, G: 120, B: 40, A: 255},
	fortune.GradeSmallBlessing: {R: 90, G: 130, B: 80, A: 255},
	fortune.GradeMisfortune:    {R: 70, G: 70, B: 110, A: 255},
}

// RenderFortune draws a paper fortune slip for a completed draw.
func (r *Renderer) RenderFortune(result fortune.Result, username string) ([]byte, error) {
	dc := gg.NewContext(fortuneWidth, fortuneHeight)

	// Aged paper background with light speckle.
	drawVerticalGradient(dc,
		color.RGBA{R: 246, G: 240, B: 222, A: 255},
		color.RGBA{R: 232, G: 222, B: 196, A: 255})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 400; i++ {
		dc.SetRGBA(0.55, 0.5, 0.4, 0.05+0.05*rng.Float64())
		dc.DrawCircle(rng.Float64()*fortuneWidth, rng.Float64()*fortuneHeight, 1+rng.Float64())
		dc.Fill()
	}

	// Border frame.
	dc.SetRGB255(120, 40, 40)
	dc.SetLineWidth(6)
	dc.DrawRectangle(24, 24, fortuneWidth-48, fortuneHeight-48)
	dc.Stroke()
	dc.SetLineWidth(2)
	dc.DrawRectangle(38, 38, fortuneWidth-76, fortuneHeight-76)
	dc.Stroke()

	titleFace, err := r.face(r.bold, 34)
	if err != nil {
		return nil, err
	}

	dc.SetFontFace(titleFace)
	dc.SetRGB255(90, 60, 40)
	dc.DrawStringAnchored("FORTUNE", fortuneWidth/2, 95, 0.5, 0.5)

	gradeFace, err := r.face(r.bold, 52)
	if err != nil {
		return nil, err
	}

	gradeColor := gradeColors[result.Grade]
	dc.SetFontFace(gradeFace)
	dc.SetRGB255(int(gradeColor.R), int(gradeColor.G), int(gradeColor.B))
	dc.DrawStringAnchored(result.Grade.String(), fortuneWidth/2, 240, 0.5, 0.5)

	bodyFace, err := r.face(r.regular, 26)
	if err != nil {
		return nil, err
	}

	dc.SetFontFace(bodyFace)
	dc.SetRGB255(70, 60, 45)
	dc.DrawStringWrapped(result.Message, fortuneWidth/2, 420, 0.5, 0.5, fortuneWidth-140, 1.6, gg.AlignCenter)

	nameFace, err := r.face(r.regular, 22)
	if err != nil {
		return nil, err
	}

	dc.SetFontFace(nameFace)
	dc.SetRGB255(120, 100, 70)
	dc.DrawStringAnchored("for "+truncateName(username, 20), fortuneWidth/2, fortuneHeight-90, 0.5, 0.5)

	return encodePNG(dc)
}
