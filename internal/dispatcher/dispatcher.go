// Package dispatcher turns recipient bundles into outbound report mails.
// Its defining property is failure containment: a render or transport
// failure for one bundle is recorded in that bundle's outcome and never
// stops the others.
package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rawbank/siop-reporter/internal/mailer"
	"github.com/rawbank/siop-reporter/internal/metrics"
	"github.com/rawbank/siop-reporter/internal/model"
)

// DefaultSubjectTemplate is the channel-parameterized subject used when
// config leaves it empty.
const DefaultSubjectTemplate = "Virement SIOP nécessitant votre attention - Canal %s"

const defaultWorkerCount = 4

// DeliveryError means the transport rejected or failed one message.
// Contained to that recipient.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Renderer builds the spreadsheet blob for one bundle's rows.
type Renderer func(records []model.TransactionRecord) ([]byte, error)

type Config struct {
	WorkerCount     int
	Cc              []string
	SubjectTemplate string
}

type Dispatcher struct {
	render  Renderer
	sender  mailer.Sender
	cc      []string
	subject string
	workers int
	log     *zap.Logger
}

func New(render Renderer, sender mailer.Sender, cfg Config, log *zap.Logger) *Dispatcher {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.SubjectTemplate == "" {
		cfg.SubjectTemplate = DefaultSubjectTemplate
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Dispatcher{
		render:  render,
		sender:  sender,
		cc:      cfg.Cc,
		subject: cfg.SubjectTemplate,
		workers: cfg.WorkerCount,
		log:     log,
	}
}

// Deliver renders one bundle and sends it to its recipient. One attempt;
// any failure comes back inside the outcome, not as an error.
func (d *Dispatcher) Deliver(ctx context.Context, bundle *model.RecipientBundle, date model.ReportDate) model.DeliveryOutcome {
	out := model.DeliveryOutcome{Email: bundle.Email, Records: bundle.Count}

	blob, err := d.render(bundle.Records)
	if err != nil {
		out.Error = err.Error()
		metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
		d.log.Error("render failed",
			zap.String("recipient", bundle.Email),
			zap.String("date", date.String()),
			zap.Error(err),
		)
		return out
	}

	msg := mailer.Message{
		To:             bundle.Email,
		Cc:             d.cc,
		Subject:        fmt.Sprintf(d.subject, bundle.Channel),
		Body:           buildBody(bundle, date),
		AttachmentName: AttachmentFilename(bundle.Email, date),
		Attachment:     blob,
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		derr := &DeliveryError{Recipient: bundle.Email, Err: err}
		out.Error = derr.Error()
		metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
		d.log.Error("delivery failed",
			zap.String("recipient", bundle.Email),
			zap.String("date", date.String()),
			zap.Error(err),
		)
		return out
	}

	out.Success = true
	metrics.DeliveriesTotal.WithLabelValues("sent").Inc()
	d.log.Info("report delivered",
		zap.String("recipient", bundle.Email),
		zap.Int("records", bundle.Count),
		zap.Strings("cc", d.cc),
	)
	return out
}

// DeliverAll fans the bundles out over a bounded worker pool. Every
// recipient is processed exactly once; outcome order follows completion,
// not map order, and no ordering is guaranteed between recipients.
func (d *Dispatcher) DeliverAll(ctx context.Context, bundles map[string]*model.RecipientBundle, date model.ReportDate) []model.DeliveryOutcome {
	if len(bundles) == 0 {
		return nil
	}

	workers := d.workers
	if workers > len(bundles) {
		workers = len(bundles)
	}

	jobs := make(chan *model.RecipientBundle)
	results := make(chan model.DeliveryOutcome, len(bundles))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				results <- d.Deliver(ctx, b, date)
			}
		}()
	}

	for _, b := range bundles {
		jobs <- b
	}
	close(jobs)
	wg.Wait()
	close(results)

	outcomes := make([]model.DeliveryOutcome, 0, len(bundles))
	for out := range results {
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// AttachmentFilename derives the attachment name from recipient email
// and date: "@", "." and "/" all become "_".
// a.b@x.com + 05/03/2024 -> siop_operations_a_b_x_com_05_03_2024.xlsx
func AttachmentFilename(email string, date model.ReportDate) string {
	sanitizer := strings.NewReplacer("@", "_", ".", "_", "/", "_")
	return fmt.Sprintf("siop_operations_%s_%s.xlsx", sanitizer.Replace(email), date.FileToken())
}

func buildBody(b *model.RecipientBundle, date model.ReportDate) string {
	var body strings.Builder

	fmt.Fprintf(&body, "Bonjour %s %s,\n\n", b.FirstName, b.LastName)
	fmt.Fprintf(&body, "%d virement(s) venant du canal %s nécessite(nt) votre attention.\n\n", b.Count, b.Channel)
	body.WriteString("Détails:\n")
	fmt.Fprintf(&body, "- Nombre d'opérations: %d\n", b.Count)
	fmt.Fprintf(&body, "- Date: %s\n", date.String())
	fmt.Fprintf(&body, "- Canal: %s\n\n", b.Channel)
	body.WriteString("Veuillez traiter ces opérations dans les plus brefs délais.\n\n")
	body.WriteString("Le fichier Excel en pièce jointe contient tous les détails de vos opérations.\n\n")
	body.WriteString("Cordialement,\nSystème SIOP")

	return body.String()
}
