// Package manifest renders printable cargo paperwork: QR item labels and
// the station cargo manifest PDF.
package manifest

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/url"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/loganlanou/stationcargo/internal/api"
)

const (
	// Label layout, in pixels
	LabelWidth  = 640
	LabelHeight = 320
	qrSize      = 260
	qrX         = LabelWidth - qrSize - 30
	qrY         = (LabelHeight - qrSize) / 2
	textX       = 30
)

// ItemURL is the page a label's QR code opens: the cargo search for the item.
func ItemURL(baseURL, itemID string) string {
	return strings.TrimRight(baseURL, "/") + "/cargo?itemId=" + url.QueryEscape(itemID)
}

// WriteLabel renders the QR label of item as PNG.
func WriteLabel(w io.Writer, item api.Item, baseURL string) error {
	img, err := Label(item, baseURL)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode label: %w", err)
	}
	return nil
}

// Label draws the item label: identification on the left, QR code on the
// right.
func Label(item api.Item, baseURL string) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, LabelWidth, LabelHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	// Border
	border := color.RGBA{30, 30, 60, 255}
	for x := 0; x < LabelWidth; x++ {
		for t := 0; t < 4; t++ {
			img.Set(x, t, border)
			img.Set(x, LabelHeight-1-t, border)
		}
	}
	for y := 0; y < LabelHeight; y++ {
		for t := 0; t < 4; t++ {
			img.Set(t, y, border)
			img.Set(LabelWidth-1-t, y, border)
		}
	}

	qr, err := qrcode.New(ItemURL(baseURL, item.ItemID), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	qrImg := qr.Image(qrSize)
	qb := qrImg.Bounds()
	draw.Draw(img, image.Rect(qrX, qrY, qrX+qb.Dx(), qrY+qb.Dy()), qrImg, image.Point{}, draw.Over)

	boldFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	regularFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}

	ink := color.RGBA{20, 20, 20, 255}
	muted := color.RGBA{110, 110, 110, 255}

	drawText(img, truncate(item.Name, 18), textX, 70, boldFont, 28, ink)
	drawText(img, item.ItemID, textX, 110, regularFont, 22, muted)
	drawText(img, item.Position(), textX, 160, regularFont, 20, ink)
	drawText(img, fmt.Sprintf("%.2f kg  ·  priority %d", item.MassKg, item.Priority), textX, 200, regularFont, 18, ink)
	if item.ExpiryDate != "" {
		drawText(img, "Expires "+item.ExpiryDate, textX, 235, regularFont, 18, ink)
	}
	if item.Category != "" {
		drawText(img, strings.ToUpper(item.Category), textX, 285, boldFont, 16, muted)
	}

	return img, nil
}

func drawText(img *image.RGBA, text string, x, y int, f *truetype.Font, size float64, c color.Color) {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(c))
	ctx.SetHinting(font.HintingFull)

	pt := freetype.Pt(x, y)
	_, _ = ctx.DrawString(text, pt)
}

func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}
