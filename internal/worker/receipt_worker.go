package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PedroSmaxY/hardware-store/internal/infra"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipts.
type ReceiptJobPayload struct {
	SaleID uint    `json:"sale_id"`
	Email  *string `json:"email,omitempty"`
}

// ReceiptWorker renders the PDF receipt of a finalized sale and, when the
// customer asked for it, hands the file to the email queue.
type ReceiptWorker struct {
	sales       repository.SaleRepository
	dispatcher  *Dispatcher
	storeName   string
	storagePath string
}

func NewReceiptWorker(sales repository.SaleRepository, dispatcher *Dispatcher, storeName, storagePath string) *ReceiptWorker {
	return &ReceiptWorker{sales: sales, dispatcher: dispatcher, storeName: storeName, storagePath: storagePath}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("receipt_worker: invalid payload: %w", err)
	}

	sale, err := w.sales.FindByID(ctx, payload.SaleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted before the job ran; nothing to render.
		log.Warn().Uint("sale_id", payload.SaleID).Msg("receipt_worker: sale no longer exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("receipt_worker: load sale %d: %w", payload.SaleID, err)
	}
	if sale.Status != model.SaleFinalized {
		log.Warn().Uint("sale_id", sale.ID).Str("status", sale.Status).Msg("receipt_worker: sale not finalized, skipping")
		return nil
	}

	path, err := infra.GenerateReceiptPDF(sale, w.storeName, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Uint("sale_id", sale.ID).Str("path", path).Msg("receipt_worker: receipt generated")

	if payload.Email == nil || *payload.Email == "" || w.dispatcher == nil {
		return nil
	}
	return w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: *payload.Email,
		Subject: fmt.Sprintf("%s: receipt for sale #%d", w.storeName, sale.ID),
		Body:    fmt.Sprintf("Thank you for shopping at %s. Your receipt for sale #%d is attached.", w.storeName, sale.ID),
		PDFPath: path,
	})
}
