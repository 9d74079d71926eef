package station

import (
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/loganlanou/stationcargo/internal/api"
)

const (
	MapWidth  = 1000
	MapHeight = 400
	mapMargin = 60
)

// RenderMap draws the cross-section of the station with every module
// colored by its occupancy and writes it as PNG.
func (l *Layout) RenderMap(w io.Writer, occ *api.Occupancy) error {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}

	levels := make(map[string]int, len(l.Modules))
	if occ != nil {
		for _, m := range occ.Modules {
			levels[m.ID] = m.Occupancy
		}
	}

	dc := gg.NewContext(MapWidth, MapHeight)
	dc.SetHexColor("#0b0d1a")
	dc.Clear()

	// Truss
	dc.SetHexColor("#9b87f5")
	dc.SetLineWidth(8)
	dc.DrawLine(100, MapHeight/2, 900, MapHeight/2)
	dc.Stroke()

	// Solar panels
	dc.SetHexColor("#525252")
	for _, p := range [][2]float64{{100, 80}, {100, 280}, {780, 80}, {780, 280}} {
		dc.DrawRectangle(p[0], p[1], 120, 40)
		dc.Fill()
	}

	fit := l.fit()
	for _, m := range l.Modules {
		x, y := fit.at(m.X, m.Y)
		width, height := m.Width*fit.scale, m.Height*fit.scale
		if m.Rotate {
			width, height = height, width
		}

		pct := levels[m.ID]
		switch l.Level(pct) {
		case "warning":
			dc.SetHexColor("#ef4444")
		case "caution":
			dc.SetHexColor("#fbbf24")
		default:
			dc.SetHexColor("#22c55e")
		}
		dc.DrawRoundedRectangle(x-width/2, y-height/2, width, height, 5)
		dc.FillPreserve()
		dc.SetHexColor("#9b87f5")
		dc.SetLineWidth(2)
		dc.Stroke()

		dc.SetRGB(1, 1, 1)
		dc.SetFontFace(truetype.NewFace(bold, &truetype.Options{Size: 11}))
		dc.DrawStringAnchored(m.Name, x, y-7, 0.5, 0.5)
		dc.SetFontFace(truetype.NewFace(regular, &truetype.Options{Size: 10}))
		dc.DrawStringAnchored(fmt.Sprintf("%d%%", pct), x, y+8, 0.5, 0.5)
	}

	if err := png.Encode(w, dc.Image()); err != nil {
		slog.Error("failed to encode station map", "error", err)
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

type fitting struct {
	scale   float64
	minX    float64
	minY    float64
	offsetX float64
	offsetY float64
}

func (f fitting) at(x, y float64) (float64, float64) {
	return f.offsetX + (x-f.minX)*f.scale, f.offsetY + (y-f.minY)*f.scale
}

// fit maps layout coordinates onto the canvas, keeping the aspect ratio and
// centering the modules between the solar arrays.
func (l *Layout) fit() fitting {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range l.Modules {
		minX = math.Min(minX, m.X)
		minY = math.Min(minY, m.Y)
		maxX = math.Max(maxX, m.X)
		maxY = math.Max(maxY, m.Y)
	}
	spanX := math.Max(maxX-minX, 1)
	spanY := math.Max(maxY-minY, 1)

	availW := float64(MapWidth - 2*220 - 2*mapMargin)
	availH := float64(MapHeight - 2*mapMargin)
	scale := math.Min(availW/spanX, availH/spanY)

	return fitting{
		scale:   scale,
		minX:    minX,
		minY:    minY,
		offsetX: (MapWidth - spanX*scale) / 2,
		offsetY: (MapHeight - spanY*scale) / 2,
	}
}
