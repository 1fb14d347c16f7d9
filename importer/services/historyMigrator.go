package services

import (
	"fmt"
	"strings"

	"github.com/brunomedeirosisi/pos/db/models"
	"github.com/brunomedeirosisi/pos/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryMigrator handles the lower-criticality auxiliary histories:
// customer payments and stock movements. Rows whose reference cannot be
// resolved are silently skipped rather than recorded as mismatches.
type HistoryMigrator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewHistoryMigrator(db *gorm.DB, logger *zap.Logger) *HistoryMigrator {
	return &HistoryMigrator{db: db, logger: logger}
}

// MigrateCustomerPayments migrates the receivables history row by row,
// resolving each row against the customer lookup. Returns migrated and
// skipped counts.
func (hm *HistoryMigrator) MigrateCustomerPayments() (migrated, skipped int64, err error) {
	rows, err := stagingRows(hm.db, "legacy_receber", "cliente")
	if err != nil {
		return 0, 0, err
	}

	customers, err := legacyCodeLookup(hm.db, &models.Customer{})
	if err != nil {
		return 0, 0, err
	}

	for _, row := range rows {
		customerCode := stagingText(row, "cliente")
		customerID, ok := customers[customerCode]
		if !ok {
			skipped++
			continue
		}

		amount, derr := utils.NormalizeDecimal(stagingText(row, "valor"))
		if derr != nil || amount == nil {
			skipped++
			continue
		}
		interest, derr := utils.NormalizeDecimal(stagingText(row, "juros"))
		if derr != nil {
			interest = nil
		}

		key := utils.LegacyKey(
			customerCode,
			stagingText(row, "documento"),
			stagingText(row, "datavcto"),
		)
		payment := models.CustomerPayment{
			CustomerID:  customerID,
			DueDate:     utils.ParseLegacyDate(stagingText(row, "datavcto")),
			PaidDate:    utils.ParseLegacyDate(stagingText(row, "datapgto")),
			Amount:      *amount,
			Interest:    interest,
			DocumentRef: utils.CleanText(stagingText(row, "documento")),
			LegacyKey:   &key,
		}

		err := hm.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "legacy_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_id", "due_date", "paid_date", "amount", "interest",
				"document_ref", "updated_at",
			}),
		}).Create(&payment).Error
		if err != nil {
			return migrated, skipped, fmt.Errorf("migrate customer payment %s: %w", key, err)
		}
		migrated++
	}

	hm.logger.Info("customer payments migrated",
		zap.Int64("rows", migrated),
		zap.Int64("skipped", skipped),
	)
	return migrated, skipped, nil
}

// MigrateStockMovements migrates the stock movement history row by row,
// resolving each row against the product lookup.
func (hm *HistoryMigrator) MigrateStockMovements() (migrated, skipped int64, err error) {
	rows, err := stagingRows(hm.db, "legacy_movestoq", "produto")
	if err != nil {
		return 0, 0, err
	}

	products, err := legacyCodeLookup(hm.db, &models.Product{})
	if err != nil {
		return 0, 0, err
	}

	for _, row := range rows {
		productCode := stagingText(row, "produto")
		productID, ok := products[productCode]
		if !ok {
			skipped++
			continue
		}

		quantity, derr := utils.NormalizeDecimal(stagingText(row, "qtd"))
		if derr != nil || quantity == nil {
			skipped++
			continue
		}

		key := utils.LegacyKey(
			productCode,
			stagingText(row, "data"),
			stagingText(row, "tipo"),
			stagingText(row, "documento"),
			quantity.String(),
		)
		movement := models.StockMovement{
			ProductID:   productID,
			MovedAt:     utils.ParseLegacyDate(stagingText(row, "data")),
			Direction:   movementDirection(stagingText(row, "tipo")),
			Quantity:    quantity.Abs(),
			DocumentRef: utils.CleanText(stagingText(row, "documento")),
			LegacyKey:   &key,
		}

		err := hm.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "legacy_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_id", "moved_at", "direction", "quantity",
				"document_ref", "updated_at",
			}),
		}).Create(&movement).Error
		if err != nil {
			return migrated, skipped, fmt.Errorf("migrate stock movement %s: %w", key, err)
		}
		migrated++
	}

	hm.logger.Info("stock movements migrated",
		zap.Int64("rows", migrated),
		zap.Int64("skipped", skipped),
	)
	return migrated, skipped, nil
}

// movementDirection normalizes the legacy E(ntrada)/S(aída) flag
func movementDirection(tipo string) models.StockMovementDirection {
	if strings.EqualFold(strings.TrimSpace(tipo), "S") {
		return models.StockMovementOut
	}
	return models.StockMovementIn
}
