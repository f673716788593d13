package model

import "strings"

// RecipientBundle is the slice of one run's records routed to a single
// manager. Header fields (name, channel) come from the first record seen
// for that manager; Count always equals len(Records).
type RecipientBundle struct {
	Email     string
	LastName  string
	FirstName string
	Channel   string
	Count     int
	Records   []TransactionRecord
}

// DisplayName is "<first> <last>", tolerating either part being empty.
func (b *RecipientBundle) DisplayName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}
