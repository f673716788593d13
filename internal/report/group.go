package report

import "github.com/rawbank/siop-reporter/internal/model"

// Group partitions records into per-manager bundles in a single stable
// pass: each bundle keeps its records in extraction order. Records with
// no recipient email are dropped silently; they are unrouted operations,
// not an error.
//
// The bundle's name and channel come from the first record seen for that
// manager. A manager whose records span several channels in one run
// keeps only the first channel in the mail header; the attached sheet
// still lists the channel per row.
func Group(records []model.TransactionRecord) map[string]*model.RecipientBundle {
	bundles := make(map[string]*model.RecipientBundle)
	for _, rec := range records {
		email := rec.Recipient()
		if email == "" {
			continue
		}
		b, ok := bundles[email]
		if !ok {
			b = &model.RecipientBundle{
				Email:     email,
				LastName:  rec.RecipientLast.String,
				FirstName: rec.RecipientFirst.String,
				Channel:   rec.Channel,
			}
			bundles[email] = b
		}
		b.Records = append(b.Records, rec)
		b.Count++
	}
	return bundles
}
