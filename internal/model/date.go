package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical DD/MM/YYYY form the query boundary expects.
const DateLayout = "02/01/2006"

// ReportDate is a calendar date already normalized to DateLayout. Having
// a dedicated type means only ParseReportDate and Today can produce the
// string that ends up substituted into the SQL template.
type ReportDate struct {
	t time.Time
}

// ParseReportDate parses a DD/MM/YYYY date. Anything else is rejected.
func ParseReportDate(s string) (ReportDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return ReportDate{}, fmt.Errorf("invalid report date %q (want DD/MM/YYYY): %w", s, err)
	}
	return ReportDate{t: t}, nil
}

// Today returns the current calendar date.
func Today() ReportDate {
	return ReportDate{t: time.Now()}
}

func (d ReportDate) String() string {
	return d.t.Format(DateLayout)
}

// FileToken is the date rendered for attachment filenames, with the
// slashes replaced: 05/03/2024 -> 05_03_2024.
func (d ReportDate) FileToken() string {
	return strings.ReplaceAll(d.String(), "/", "_")
}

func (d ReportDate) IsZero() bool {
	return d.t.IsZero()
}
