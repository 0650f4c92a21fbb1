package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PedroSmaxY/hardware-store/internal/infra"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// ReceiptSender delivers a receipt by e-mail. *infra.Mailer implements it.
type ReceiptSender interface {
	SendReceipt(to, subject, body, pdfPath string) error
}

// EmailWorker processes email jobs from QueueEmail.
// Sends go through a circuit breaker so an SMTP outage fails fast.
type EmailWorker struct {
	mailer ReceiptSender
	cb     *gobreaker.CircuitBreaker
}

func NewEmailWorker(mailer ReceiptSender, cb *gobreaker.CircuitBreaker) *EmailWorker {
	if cb == nil {
		cb = infra.NewSMTPBreaker(infra.DefaultBreakerConfig())
	}
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process sends an email with the PDF receipt as attachment.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	_, err := w.cb.Execute(func() (interface{}, error) {
		return nil, w.mailer.SendReceipt(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: receipt sent")
	return nil
}
