package finance

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"gorm.io/gorm"

	"brokerdesk/models"
	"brokerdesk/pkg/storage"
)

// PayInput carries the settlement details for a pay transition.
type PayInput struct {
	PaymentDate   time.Time
	PaymentTypeID uint
	Notes         *string
	Receipt       *multipart.FileHeader
}

// CanPay reports whether a transaction in the given status may be paid.
func CanPay(status string) bool {
	return status == models.StatusPending
}

// CanCancel reports whether a transaction in the given status may be
// cancelled. Paid entries stay paid; a wrong payment needs a counter-entry,
// not a cancellation.
func CanCancel(status string) bool {
	return status == models.StatusPending
}

// Pay transitions a pending transaction to paid, recording the payment date
// and type, optionally replacing notes and attaching a receipt. The receipt
// is stored before the status flips, and the whole transition runs in one
// database transaction: a storage failure aborts it, and the guarded update
// makes concurrent pay/cancel calls on the same record lose with
// ErrInvalidState instead of both succeeding.
func Pay(db *gorm.DB, store storage.Store, id uint, in PayInput) (*models.Transaction, error) {
	var result models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var t models.Transaction
		if err := tx.First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !CanPay(t.Status) {
			return ErrInvalidState
		}

		updates := map[string]interface{}{
			"status":          models.StatusPaid,
			"payment_date":    in.PaymentDate,
			"payment_type_id": in.PaymentTypeID,
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}

		var storedPath string
		if in.Receipt != nil {
			path, err := store.Replace(t.ReceiptPath, in.Receipt)
			if err != nil {
				if errors.Is(err, storage.ErrInvalidFile) {
					return err
				}
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
			storedPath = path
			updates["receipt_path"] = path
			updates["receipt_name"] = in.Receipt.Filename
			updates["receipt_content_type"] = in.Receipt.Header.Get("Content-Type")
		}

		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", id, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race to a concurrent transition
			if storedPath != "" {
				_ = store.Remove(storedPath)
			}
			return ErrInvalidState
		}
		return tx.First(&result, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Cancel transitions a pending transaction to cancelled, clearing any
// payment fields and optionally replacing notes. Same per-record guard as
// Pay.
func Cancel(db *gorm.DB, id uint, notes *string) (*models.Transaction, error) {
	var result models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var t models.Transaction
		if err := tx.First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !CanCancel(t.Status) {
			return ErrInvalidState
		}

		updates := map[string]interface{}{
			"status":          models.StatusCancelled,
			"payment_date":    gorm.Expr("NULL"),
			"payment_type_id": gorm.Expr("NULL"),
		}
		if notes != nil {
			updates["notes"] = *notes
		}

		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", id, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		return tx.First(&result, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
