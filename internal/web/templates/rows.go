// Package templates renders the server-side HTML pages.
//
// The components live in admin.templ; admin_templ.go is regenerated with
// `templ generate`.
package templates

import "github.com/formvcm/postulaciones/internal/core"

// SubmissionRow is one line of the admin listing.
type SubmissionRow struct {
	ID          string
	SubmittedAt string
	Institution string
	TaxID       string
	Type        string
	Contact     string
	Objectives  int
	Profiles    int
}

// RowsFromSubmissions builds listing rows, newest first.
func RowsFromSubmissions(subs []core.Submission) []SubmissionRow {
	rows := make([]SubmissionRow, 0, len(subs))
	for i := len(subs) - 1; i >= 0; i-- {
		s := subs[i]
		rows = append(rows, SubmissionRow{
			ID:          s.ID,
			SubmittedAt: s.SubmittedAt.String(),
			Institution: s.Institution.Name,
			TaxID:       s.Institution.TaxID,
			Type:        s.Institution.Type,
			Contact:     firstNonEmpty(s.Institution.Email, s.Representative.Email),
			Objectives:  len(s.Objectives),
			Profiles:    len(s.Profiles),
		})
	}
	return rows
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
