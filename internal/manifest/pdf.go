package manifest

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/loganlanou/stationcargo/internal/api"
)

// Document is everything printed on a manifest.
type Document struct {
	StationDay  string
	GeneratedAt time.Time
	GeneratedBy string
	BaseURL     string
	Items       []api.Item
	Occupancy   *api.Occupancy
	// MapPNG is the station cross-section, omitted when empty.
	MapPNG []byte
}

// column widths in mm for the Letter portrait page
var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 28, "L"},
	{"Name", 52, "L"},
	{"Location", 48, "L"},
	{"Mass kg", 18, "R"},
	{"Prio", 12, "R"},
	{"Expiry", 22, "L"},
	{"Status", 16, "L"},
}

// WritePDF renders the cargo manifest.
func WritePDF(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle("Station cargo manifest", true)
	pdf.SetAuthor(doc.GeneratedBy, true)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(20, 20, 40)
	pdf.CellFormat(150, 10, "Station Cargo Manifest", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(150, 6, tr(fmt.Sprintf("Station day %s  |  generated %s by %s",
		doc.StationDay, doc.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), doc.GeneratedBy)), "", 1, "L", false, 0, "")

	if doc.BaseURL != "" {
		qr, err := qrcode.Encode(doc.BaseURL+"/import-export", qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("failed to generate QR code: %w", err)
		}
		pdf.RegisterImageOptionsReader("manifest-qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))
		pdf.ImageOptions("manifest-qr", 178, 10, 26, 26, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}
	pdf.Ln(6)

	if len(doc.MapPNG) > 0 {
		pdf.RegisterImageOptionsReader("station-map", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(doc.MapPNG))
		// 1000x400 map scaled to the page width
		pdf.ImageOptions("station-map", 10, pdf.GetY(), 195.9, 78.4, true, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.Ln(4)
	}

	if doc.Occupancy != nil {
		writeOccupancy(pdf, doc.Occupancy)
	}

	writeItems(pdf, doc.Items, tr)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build manifest: %w", err)
	}
	return pdf.Output(w)
}

func writeOccupancy(pdf *gofpdf.Fpdf, occ *api.Occupancy) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(20, 20, 40)
	pdf.CellFormat(0, 8, fmt.Sprintf("Occupancy %d%%  |  efficiency %d%%  |  %d module warnings",
		occ.Overall.Occupancy, occ.Overall.Efficiency, occ.Overall.Warnings), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	perRow := 4
	for i, m := range occ.Modules {
		if m.Warning {
			pdf.SetTextColor(200, 40, 40)
		} else {
			pdf.SetTextColor(40, 40, 40)
		}
		ln := 0
		if (i+1)%perRow == 0 || i == len(occ.Modules)-1 {
			ln = 1
		}
		pdf.CellFormat(48, 6, fmt.Sprintf("%s: %d%%", m.Name, m.Occupancy), "1", ln, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeItems(pdf *gofpdf.Fpdf, items []api.Item, tr func(string) string) {
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(30, 30, 60)
		pdf.SetTextColor(255, 255, 255)
		for _, col := range itemColumns {
			pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(20, 20, 20)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(20, 20, 40)
	pdf.CellFormat(0, 8, fmt.Sprintf("Cargo items (%d)", len(items)), "", 1, "L", false, 0, "")

	if len(items) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 8, "No cargo recorded.", "", 1, "L", false, 0, "")
		return
	}

	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, it := range items {
		if pdf.GetY()+6 > pageHeight-bottom-15 {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(238, 238, 246)

		status := "stowed"
		if it.IsWaste {
			status = "waste"
		}
		cells := []string{
			it.ItemID,
			truncate(it.Name, 34),
			truncate(it.Position(), 32),
			strconv.FormatFloat(it.MassKg, 'f', 2, 64),
			strconv.Itoa(it.Priority),
			it.ExpiryDate,
			status,
		}
		for j, col := range itemColumns {
			pdf.CellFormat(col.width, 6, tr(cells[j]), "1", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
}
