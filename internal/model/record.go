package model

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one row of the SIOP operations query, mapped
// field-for-field from the driver result set. Column tags carry the
// aliases produced by the embedded SQL. Rows are never written back.
type TransactionRecord struct {
	CreatedAt   sql.NullTime        `db:"dcre"`
	Filename    string              `db:"filename"`
	Channel     string              `db:"canal"`
	Service     string              `db:"service"`
	MessageType string              `db:"typemsg"`
	Beneficiary string              `db:"benef"`
	Amount      decimal.NullDecimal `db:"montant_tx"`
	Motive      string              `db:"motif"`
	Fee         string              `db:"frais"`

	MessageStatus     string         `db:"msgstatus"`
	LotStatus         string         `db:"lotstatus"`
	TransactionStatus string         `db:"txtstatus"`
	ErrorMessage      sql.NullString `db:"errormsg"`

	// Handling manager assigned to the operation. All nullable: an
	// unrouted operation simply has no manager yet.
	RecipientEmail sql.NullString `db:"email_gest"`
	RecipientLast  sql.NullString `db:"nom_gest"`
	RecipientFirst sql.NullString `db:"prenom_gest"`
	RecipientPhone sql.NullString `db:"phone_gest"`
}

// Recipient returns the trimmed manager email, or "" when the record is
// unrouted and must be excluded from every bundle.
func (r TransactionRecord) Recipient() string {
	if !r.RecipientEmail.Valid {
		return ""
	}
	return strings.TrimSpace(r.RecipientEmail.String)
}
