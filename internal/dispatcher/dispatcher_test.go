package dispatcher

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rawbank/siop-reporter/internal/mailer"
	"github.com/rawbank/siop-reporter/internal/model"
)

// stubSender records messages and can fail selected recipients.
type stubSender struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor map[string]error
}

func (s *stubSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[msg.To]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func okRender([]model.TransactionRecord) ([]byte, error) {
	return []byte("xlsx-bytes"), nil
}

func mustDate(t *testing.T, s string) model.ReportDate {
	t.Helper()
	d, err := model.ParseReportDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func bundle(email, first, last, channel string, n int) *model.RecipientBundle {
	b := &model.RecipientBundle{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Channel:   channel,
	}
	for i := 0; i < n; i++ {
		b.Records = append(b.Records, model.TransactionRecord{
			RecipientEmail: sql.NullString{String: email, Valid: true},
			Channel:        channel,
		})
		b.Count++
	}
	return b
}

func TestAttachmentFilename(t *testing.T) {
	tests := []struct {
		email string
		date  string
		want  string
	}{
		{"a.b@x.com", "05/03/2024", "siop_operations_a_b_x_com_05_03_2024.xlsx"},
		{"jean.kabila@rawbank.cd", "14/10/2025", "siop_operations_jean_kabila_rawbank_cd_14_10_2025.xlsx"},
	}
	for _, tt := range tests {
		if got := AttachmentFilename(tt.email, mustDate(t, tt.date)); got != tt.want {
			t.Errorf("AttachmentFilename(%q, %q) = %q, want %q", tt.email, tt.date, got, tt.want)
		}
	}
}

func TestDeliverBuildsMessage(t *testing.T) {
	sender := &stubSender{}
	d := New(okRender, sender, Config{Cc: []string{"audit@rawbank.cd", "siop@rawbank.cd"}}, nil)

	b := bundle("a.b@x.com", "Jean", "KABILA", "WEB", 2)
	out := d.Deliver(context.Background(), b, mustDate(t, "05/03/2024"))

	if !out.Success {
		t.Fatalf("outcome not successful: %+v", out)
	}
	if out.Records != 2 {
		t.Errorf("outcome records = %d, want 2", out.Records)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.To != "a.b@x.com" {
		t.Errorf("To = %q", msg.To)
	}
	if len(msg.Cc) != 2 || msg.Cc[0] != "audit@rawbank.cd" {
		t.Errorf("Cc = %v, want configured cc list", msg.Cc)
	}
	if msg.Subject != "Virement SIOP nécessitant votre attention - Canal WEB" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.AttachmentName != "siop_operations_a_b_x_com_05_03_2024.xlsx" {
		t.Errorf("AttachmentName = %q", msg.AttachmentName)
	}
	if string(msg.Attachment) != "xlsx-bytes" {
		t.Errorf("Attachment = %q", msg.Attachment)
	}

	for _, want := range []string{
		"Bonjour Jean KABILA,",
		"2 virement(s) venant du canal WEB",
		"- Date: 05/03/2024",
		"- Canal: WEB",
		"Système SIOP",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestDeliverContainsRenderFailure(t *testing.T) {
	sender := &stubSender{}
	failing := func([]model.TransactionRecord) ([]byte, error) {
		return nil, errors.New("bad sheet")
	}
	d := New(failing, sender, Config{}, nil)

	out := d.Deliver(context.Background(), bundle("a@x.com", "A", "A", "WEB", 1), mustDate(t, "05/03/2024"))

	if out.Success {
		t.Fatal("render failure reported as success")
	}
	if out.Error == "" {
		t.Error("outcome carries no error detail")
	}
	if len(sender.sent) != 0 {
		t.Errorf("message sent despite render failure")
	}
}

// One failing transport must not stop the remaining bundles.
func TestDeliverAllIsolatesFailures(t *testing.T) {
	sender := &stubSender{failFor: map[string]error{"b@x.com": errors.New("smtp refused")}}
	d := New(okRender, sender, Config{WorkerCount: 2}, nil)

	bundles := map[string]*model.RecipientBundle{
		"a@x.com": bundle("a@x.com", "A", "A", "WEB", 2),
		"b@x.com": bundle("b@x.com", "B", "B", "WEB", 1),
		"c@x.com": bundle("c@x.com", "C", "C", "MOBILE", 3),
	}

	outcomes := d.DeliverAll(context.Background(), bundles, mustDate(t, "05/03/2024"))

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want one per bundle", len(outcomes))
	}

	byEmail := map[string]model.DeliveryOutcome{}
	for _, o := range outcomes {
		if _, dup := byEmail[o.Email]; dup {
			t.Errorf("recipient %s processed twice", o.Email)
		}
		byEmail[o.Email] = o
	}

	if !byEmail["a@x.com"].Success || !byEmail["c@x.com"].Success {
		t.Error("healthy recipients did not succeed")
	}
	if byEmail["b@x.com"].Success {
		t.Error("failing recipient reported success")
	}
	if !strings.Contains(byEmail["b@x.com"].Error, "smtp refused") {
		t.Errorf("failure detail lost: %q", byEmail["b@x.com"].Error)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d messages, want 2", len(sender.sent))
	}
}

func TestDeliverAllEmpty(t *testing.T) {
	d := New(okRender, &stubSender{}, Config{}, nil)
	if out := d.DeliverAll(context.Background(), nil, mustDate(t, "05/03/2024")); len(out) != 0 {
		t.Errorf("got %d outcomes for no bundles", len(out))
	}
}
