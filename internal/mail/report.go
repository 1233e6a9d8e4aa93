// Package mail renders and sends the supplier alert report.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/andresuchdata/erpsync/internal/domain"
)

const defaultMaxRows = 2000

// Message is one rendered email.
type Message struct {
	Subject string
	HTML    string
	IDs     []int64
}

var reportTemplate = template.Must(template.New("report").Parse(`
<h2 style="font-family:system-ui,Segoe UI,Arial,sans-serif;margin:0 0 10px">{{.Subject}}</h2>
<div style="font-family:system-ui,Segoe UI,Arial,sans-serif;font-size:14px;color:#222">
  <p>Fecha de generación: <strong>{{.GeneratedAt}}</strong></p>
  {{- if .Rows}}
  <table cellspacing="0" cellpadding="0" style="border-collapse:collapse;min-width:600px">
    <thead><tr>
      {{- range .Headings}}
      <th style="padding:8px;border-bottom:1px solid #ddd;text-align:left;background:#f8f9fa">{{.}}</th>
      {{- end}}
    </tr></thead>
    <tbody>
      {{- range .Rows}}
      <tr>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.ID}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.SKU}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.Description}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.Available}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.PreviousAvailable}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.RealPrice}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.PreviousRealPrice}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.InventoryState}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.PriceState}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.Kind}}</td>
        <td style="padding:6px;border-bottom:1px solid #eee;vertical-align:top">{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
      </tr>
      {{- end}}
    </tbody>
  </table>
  {{- else}}
  <p>No hay registros.</p>
  {{- end}}
</div>
`))

var headings = []string{
	"ID Alerta", "SKU", "Descripción", "Disponible", "Disponible Anterior", "Precio Real",
	"Precio Real Anterior", "Estado Inventario", "Estado Precio", "Tipo", "Fecha",
}

// Subject names one part of a report. A single part carries the total row
// count; split reports number their parts.
func Subject(base string, part, parts, partRows, totalRows int) string {
	if parts > 1 {
		return fmt.Sprintf("%s (parte %d/%d) - %d filas", base, part, parts, partRows)
	}
	return fmt.Sprintf("%s - %d filas", base, totalRows)
}

// Compose splits rows into messages of at most maxRows rows each.
func Compose(rows []domain.SupplierAlert, base string, maxRows int, now time.Time) ([]Message, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	var chunks [][]domain.SupplierAlert
	for start := 0; start < len(rows); start += maxRows {
		end := start + maxRows
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}

	out := make([]Message, 0, len(chunks))
	for i, chunk := range chunks {
		subject := Subject(base, i+1, len(chunks), len(chunk), len(rows))

		var buf bytes.Buffer
		err := reportTemplate.Execute(&buf, map[string]any{
			"Subject":     subject,
			"GeneratedAt": now.Format("2006-01-02 15:04:05"),
			"Headings":    headings,
			"Rows":        chunk,
		})
		if err != nil {
			return nil, fmt.Errorf("render report part %d: %w", i+1, err)
		}

		ids := make([]int64, len(chunk))
		for j, r := range chunk {
			ids[j] = r.ID
		}
		out = append(out, Message{Subject: subject, HTML: buf.String(), IDs: ids})
	}
	return out, nil
}
