package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// csvHeader is fixed by spec §4.H "CSV" and must not be reordered.
var csvHeader = []string{
	"Control ID", "Section", "Title", "Severity", "Weight",
	"Status", "Score", "Remediation", "Error", "CheckedAt",
}

func renderCSV(in renderInput) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range entries(in) {
		checkedAt := ""
		if !e.CheckedAt.IsZero() {
			checkedAt = e.CheckedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		row := []string{
			e.ControlID,
			e.Section,
			e.Title,
			string(e.Severity),
			fmt.Sprintf("%.2f", e.Weight),
			e.Status,
			fmt.Sprintf("%.2f", e.Score),
			e.RemediationGuidance,
			e.ErrorMessage,
			checkedAt,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
