package repository

import (
	"strings"
	"testing"

	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB builds a gorm handle that renders SQL without touching a
// database, so the generated statements can be inspected.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatalf("opening dry-run db: %v", err)
	}
	return db
}

func TestLockForUpdateEmitsLockingClause(t *testing.T) {
	db := dryRunDB(t)

	// Shape of the stock-row lock taken while scheduling a plan.
	var items []model.StockItem
	stmt := lockForUpdate(db.Session(&gorm.Session{DryRun: true})).
		Where("product_id IN ?", []uuid.UUID{uuid.New()}).
		Find(&items).Statement
	if sql := stmt.SQL.String(); !strings.HasSuffix(sql, "FOR UPDATE") {
		t.Errorf("scheduling lock query missing FOR UPDATE: %q", sql)
	}

	// Shape of the single-row lock taken by a stock adjustment.
	var item model.StockItem
	stmt = lockForUpdate(db.Session(&gorm.Session{DryRun: true})).
		First(&item, "id = ?", uuid.New()).Statement
	if sql := stmt.SQL.String(); !strings.HasSuffix(sql, "FOR UPDATE") {
		t.Errorf("adjustment lock query missing FOR UPDATE: %q", sql)
	}
}

func TestUnlockedQueryCarriesNoLock(t *testing.T) {
	db := dryRunDB(t)

	var items []model.StockItem
	stmt := db.Session(&gorm.Session{DryRun: true}).
		Where("product_id = ?", uuid.New()).
		Find(&items).Statement
	if sql := stmt.SQL.String(); strings.Contains(sql, "FOR UPDATE") {
		t.Errorf("plain read unexpectedly locked: %q", sql)
	}
}
