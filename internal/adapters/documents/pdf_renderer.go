package documents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
)

// PDFRenderer renders medical records as single-document PDFs
type PDFRenderer struct{}

var _ providers.DocumentRenderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a new PDF renderer
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// ContentType is the MIME type of the rendered bytes
func (r *PDFRenderer) ContentType() string {
	return "application/pdf"
}

// RenderRecord lays out the record header, summary and structured data
func (r *PDFRenderer) RenderRecord(record *entities.MedicalRecordView, patientName string) ([]byte, error) {
	if record == nil || record.MedicalRecord == nil {
		return nil, fmt.Errorf("no record to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(record.Title, true)
	pdf.SetCreator("Nabha Care", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(record.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	field := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, tr(value), "", "L", false)
	}

	field("Patient", patientName)
	field("Type", string(record.Type))
	field("Date", record.CreatedAt.Format("02 Jan 2006 15:04"))
	field("Doctor", record.DoctorName)
	if record.Summary != nil {
		pdf.Ln(3)
		field("Summary", *record.Summary)
	}

	if len(record.Data) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 9, "Details", "B", 1, "L", false, 0, "")
		pdf.Ln(1)
		for _, key := range sortedKeys(record.Data) {
			field(key, formatValue(record.Data[key]))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		// prescription items and similar lists
		var buf bytes.Buffer
		for i, item := range val {
			if i > 0 {
				buf.WriteString("\n")
			}
			if obj, ok := item.(map[string]interface{}); ok {
				if name, ok := obj["name"].(string); ok {
					dosage, _ := obj["dosage"].(string)
					fmt.Fprintf(&buf, "- %s %s", name, dosage)
					continue
				}
			}
			buf.WriteString("- " + formatValue(item))
		}
		return buf.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
