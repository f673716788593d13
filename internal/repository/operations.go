package repository

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rawbank/siop-reporter/internal/model"
)

//go:embed siop_send_mail.sql
var rawQuery string

// datePlaceholder is the single substitutable token in the query
// template. Nothing else in the SQL is built dynamically; the value
// substituted is always a ReportDate, so it cannot carry SQL.
const datePlaceholder = "{{QUERY_DATE}}"

// expectedColumns is the static field list the row mapping relies on.
// The template is checked against it at construction so a missing alias
// fails at startup, not on the first scheduled run.
var expectedColumns = []string{
	"dcre", "filename", "canal", "service", "typemsg", "benef",
	"montant_tx", "motif", "frais", "msgstatus", "lotstatus",
	"txtstatus", "errormsg", "nom_gest", "prenom_gest", "email_gest",
	"phone_gest",
}

// DataSourceError means the operations query could not be executed.
// Fatal to the run.
type DataSourceError struct {
	Date string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("operations query failed for %s: %v", e.Date, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// ResourceLoadError means the embedded query template is unusable.
type ResourceLoadError struct {
	Resource string
	Err      error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Resource, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }

// OperationsRepository extracts transaction records for a business date.
type OperationsRepository struct {
	db    *sqlx.DB
	query string
}

// NewOperationsRepository validates the embedded query template once and
// returns the extractor. Extraction does no grouping or filtering by
// recipient; it hands back the driver result set as-is.
func NewOperationsRepository(db *sqlx.DB) (*OperationsRepository, error) {
	q, err := loadQuery()
	if err != nil {
		return nil, err
	}
	return &OperationsRepository{db: db, query: q}, nil
}

func loadQuery() (string, error) {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return "", &ResourceLoadError{Resource: "siop_send_mail.sql", Err: fmt.Errorf("template is empty")}
	}
	if !strings.Contains(q, datePlaceholder) {
		return "", &ResourceLoadError{
			Resource: "siop_send_mail.sql",
			Err:      fmt.Errorf("date placeholder %s not found", datePlaceholder),
		}
	}
	for _, col := range expectedColumns {
		if !strings.Contains(q, col) {
			return "", &ResourceLoadError{
				Resource: "siop_send_mail.sql",
				Err:      fmt.Errorf("expected column %q not selected", col),
			}
		}
	}
	return q, nil
}

// bindDate substitutes the one date token into the template.
func (r *OperationsRepository) bindDate(date model.ReportDate) string {
	return strings.ReplaceAll(r.query, datePlaceholder, date.String())
}

// Extract runs the operations query for date and materializes the rows
// in driver order. An empty result set is a valid outcome.
func (r *OperationsRepository) Extract(ctx context.Context, date model.ReportDate) ([]model.TransactionRecord, error) {
	var rows []model.TransactionRecord
	if err := r.db.SelectContext(ctx, &rows, r.bindDate(date)); err != nil {
		return nil, &DataSourceError{Date: date.String(), Err: err}
	}
	return rows, nil
}
