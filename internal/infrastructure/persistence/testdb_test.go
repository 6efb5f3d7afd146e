package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finsight/backend/internal/infrastructure/persistence/models"
)

// newTestDB opens an in-memory SQLite database with the full schema migrated
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.ConnectionModel{},
		&models.SyncCheckpointModel{},
		&models.SyncSessionModel{},
		&models.AccountModel{},
		&models.ContactModel{},
		&models.ItemModel{},
		&models.InvoiceModel{},
		&models.InvoiceLineModel{},
		&models.PaymentModel{},
		&models.CreditNoteModel{},
		&models.BankTransactionModel{},
		&models.ManualJournalModel{},
	))
	return db
}
