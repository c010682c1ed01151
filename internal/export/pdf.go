package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

const (
	margin     = 48.0
	bodySize   = 10.0
	lineHeight = 14.0
)

// ChroniclePDF renders the player's chronicle (character, summary, history, lore
// journal and notes) as a PDF document.
func ChroniclePDF(gs state.GameState, w io.Writer) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Echo Chronicle", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Times", "B", 22)
	title := "Echo Chronicle"
	if gs.Profile != nil && gs.Profile.Name != "" {
		title = "The Chronicle of " + gs.Profile.Name
	}
	pdf.CellFormat(0, 28, tr(title), "", 1, "C", false, 0, "")

	if p := gs.Profile; p != nil {
		pdf.SetFont("Times", "I", 12)
		pdf.CellFormat(0, 18, tr(fmt.Sprintf("%s of %s, once a %s", p.Archetype, p.Origin, p.Background)), "", 1, "C", false, 0, "")
		if p.Confirmation != "" {
			paragraph(pdf, tr(p.Confirmation))
		}
	}
	pdf.SetFont("Times", "", bodySize)
	pdf.CellFormat(0, lineHeight, tr(fmt.Sprintf("Renown %d", gs.Renown)), "", 1, "C", false, 0, "")

	if gs.StorySummary != nil && *gs.StorySummary != "" {
		heading(pdf, tr("The Story So Far"))
		paragraph(pdf, tr(*gs.StorySummary))
	}

	if len(gs.HistoryLog) > 0 {
		heading(pdf, tr("Chronicle"))
		for _, e := range gs.HistoryLog {
			switch e.Type {
			case state.HistoryChoice:
				pdf.SetFont("Times", "I", bodySize)
				pdf.MultiCell(0, lineHeight, tr("> "+e.Content), "", "L", false)
			case state.HistorySummary:
				// summaries are shown once, above
			default:
				paragraph(pdf, tr(e.Content))
			}
		}
	}

	if len(gs.LoreJournal) > 0 {
		heading(pdf, tr("Lore Journal"))
		for _, l := range gs.LoreJournal {
			pdf.SetFont("Times", "B", bodySize+1)
			pdf.MultiCell(0, lineHeight, tr(l.Title), "", "L", false)
			paragraph(pdf, tr(l.Content))
		}
	}

	if len(gs.PlayerNotes) > 0 {
		heading(pdf, tr("Notes"))
		for _, n := range gs.PlayerNotes {
			pdf.SetFont("Times", "B", bodySize+1)
			pdf.MultiCell(0, lineHeight, tr(n.Title), "", "L", false)
			paragraph(pdf, tr(n.Content))
		}
	}

	return pdf.Output(w)
}

// WriteChronicle writes the chronicle PDF to dir and returns the file path.
func WriteChronicle(gs state.GameState, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("chronicle-%s.pdf", now.Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := ChroniclePDF(gs, f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to render chronicle: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func heading(pdf *gofpdf.Fpdf, text string) {
	pdf.Ln(lineHeight / 2)
	pdf.SetFont("Times", "B", 15)
	pdf.CellFormat(0, 20, text, "B", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func paragraph(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Times", "", bodySize)
	pdf.MultiCell(0, lineHeight, text, "", "L", false)
	pdf.Ln(4)
}
