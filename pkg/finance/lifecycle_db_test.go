package finance

import (
	"errors"
	"mime/multipart"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"brokerdesk/models"
)

// stubStore stands in for receipt storage; a non-nil err makes every
// write fail.
type stubStore struct {
	err     error
	removed []string
}

func (s *stubStore) Save(*multipart.FileHeader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "receipts/stub.pdf", nil
}

func (s *stubStore) Replace(string, *multipart.FileHeader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "receipts/stub.pdf", nil
}

func (s *stubStore) URLFor(path string) string { return "/files/" + path }

func (s *stubStore) Remove(path string) error {
	s.removed = append(s.removed, path)
	return nil
}

func openLifecycleDB(t *testing.T) *gorm.DB {
	// opt-in like the server tests. Set DB_DSN_TEST=1 and DB_DSN to run.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	dsn := os.Getenv("DB_DSN")
	require.NotEmpty(t, dsn, "DB_DSN must be set for integration tests")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PaymentType{}, &models.Transaction{}))
	return db
}

func createPendingTransaction(t *testing.T, db *gorm.DB) *models.Transaction {
	tr := &models.Transaction{
		Type:        models.TypeReceivable,
		Description: "Boiler repair reimbursement",
		Amount:      decimal.NewFromFloat(180.50),
		DueDate:     time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:      models.StatusPending,
		Category:    models.CategoryMaintenance,
	}
	require.NoError(t, db.Create(tr).Error)
	return tr
}

func cashPaymentTypeID(t *testing.T, db *gorm.DB) uint {
	var pt models.PaymentType
	require.NoError(t, db.Where(models.PaymentType{Name: "cash"}).FirstOrCreate(&pt).Error)
	return pt.ID
}

func TestPayAbortsWhenReceiptStorageFails(t *testing.T) {
	db := openLifecycleDB(t)
	tr := createPendingTransaction(t, db)
	ptID := cashPaymentTypeID(t, db)

	store := &stubStore{err: errors.New("disk full")}
	_, err := Pay(db, store, tr.ID, PayInput{
		PaymentDate:   time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
		PaymentTypeID: ptID,
		Receipt:       &multipart.FileHeader{Filename: "receipt.pdf"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	// nothing may have committed
	var got models.Transaction
	require.NoError(t, db.First(&got, tr.ID).Error)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.PaymentDate)
	assert.Nil(t, got.PaymentTypeID)
	assert.Empty(t, got.ReceiptPath)
}

func TestPayLosesRaceToConcurrentCancel(t *testing.T) {
	db := openLifecycleDB(t)
	tr := createPendingTransaction(t, db)
	ptID := cashPaymentTypeID(t, db)

	// a second connection cancels the record after Pay has read it but
	// before its guarded update runs, so the update matches zero rows
	raceDB, err := gorm.Open(postgres.Open(os.Getenv("DB_DSN")), &gorm.Config{})
	require.NoError(t, err)

	var once sync.Once
	require.NoError(t, db.Callback().Update().Before("gorm:update").
		Register("lifecycle_test_race", func(*gorm.DB) {
			once.Do(func() {
				raceDB.Model(&models.Transaction{}).
					Where("id = ?", tr.ID).
					Update("status", models.StatusCancelled)
			})
		}))
	defer func() {
		_ = db.Callback().Update().Remove("lifecycle_test_race")
	}()

	store := &stubStore{}
	_, err = Pay(db, store, tr.ID, PayInput{
		PaymentDate:   time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
		PaymentTypeID: ptID,
		Receipt:       &multipart.FileHeader{Filename: "receipt.pdf"},
	})
	assert.ErrorIs(t, err, ErrInvalidState)
	// the orphaned receipt written before the losing update is cleaned up
	assert.Equal(t, []string{"receipts/stub.pdf"}, store.removed)

	var got models.Transaction
	require.NoError(t, raceDB.First(&got, tr.ID).Error)
	assert.Equal(t, models.StatusCancelled, got.Status, "the concurrent cancel wins")
}
