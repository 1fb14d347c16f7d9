package services

import (
	"errors"
	"fmt"

	"github.com/brunomedeirosisi/pos/db/models"
	"github.com/brunomedeirosisi/pos/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionResult carries the migrated counts and every recorded mismatch
// forward into the reconciliation report.
type TransactionResult struct {
	Sales      int64    `json:"sales"`
	SaleItems  int64    `json:"sale_items"`
	Orders     int64    `json:"orders"`
	OrderItems int64    `json:"order_items"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// TransactionMigrator expands the denormalized multi-slot sales and order
// records into Sale headers plus line items. Completed sales and open orders
// share the slot shape but land with different source labels and statuses.
type TransactionMigrator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewTransactionMigrator(db *gorm.DB, logger *zap.Logger) *TransactionMigrator {
	return &TransactionMigrator{db: db, logger: logger}
}

// Migrate runs both record families. With overwrite set, previously migrated
// transactions from this run's sources are deleted first; reference entities
// are deliberately left alone, so overwrite is a replace for transactions
// but a merge for master data.
func (tm *TransactionMigrator) Migrate(overwrite bool, loaded map[string]bool) (*TransactionResult, error) {
	lookups, err := tm.buildLookups()
	if err != nil {
		return nil, err
	}

	sources := []string{"vendas"}
	if loaded["legacy_pedidos"] {
		sources = append(sources, "pedidos")
	}

	if overwrite {
		if err := tm.deleteMigratedSales(sources); err != nil {
			return nil, err
		}
	}

	result := &TransactionResult{}

	sales, saleItems, mismatches, err := tm.migrateFamily(
		"legacy_vendas", "numvenda", "vendas", models.SaleStatusCompleted, lookups)
	if err != nil {
		return nil, err
	}
	result.Sales = sales
	result.SaleItems = saleItems
	result.Mismatches = append(result.Mismatches, mismatches...)

	if loaded["legacy_pedidos"] {
		orders, orderItems, mismatches, err := tm.migrateFamily(
			"legacy_pedidos", "numped", "pedidos", models.SaleStatusDraft, lookups)
		if err != nil {
			return nil, err
		}
		result.Orders = orders
		result.OrderItems = orderItems
		result.Mismatches = append(result.Mismatches, mismatches...)
	}

	tm.logger.Info("transactions migrated",
		zap.Int64("sales", result.Sales),
		zap.Int64("sale_items", result.SaleItems),
		zap.Int64("orders", result.Orders),
		zap.Int64("order_items", result.OrderItems),
		zap.Int("mismatches", len(result.Mismatches)),
	)
	return result, nil
}

type referenceLookups struct {
	sellers      map[string]uuid.UUID
	customers    map[string]uuid.UUID
	paymentTerms map[string]uuid.UUID
	products     map[string]uuid.UUID
}

func (tm *TransactionMigrator) buildLookups() (*referenceLookups, error) {
	sellers, err := legacyCodeLookup(tm.db, &models.Seller{})
	if err != nil {
		return nil, err
	}
	customers, err := legacyCodeLookup(tm.db, &models.Customer{})
	if err != nil {
		return nil, err
	}
	paymentTerms, err := legacyCodeLookup(tm.db, &models.PaymentTerm{})
	if err != nil {
		return nil, err
	}
	products, err := legacyCodeLookup(tm.db, &models.Product{})
	if err != nil {
		return nil, err
	}
	return &referenceLookups{
		sellers:      sellers,
		customers:    customers,
		paymentTerms: paymentTerms,
		products:     products,
	}, nil
}

func (tm *TransactionMigrator) deleteMigratedSales(sources []string) error {
	itemSubquery := tm.db.Model(&models.Sale{}).Select("id").Where("source IN ?", sources)
	if err := tm.db.Where("sale_id IN (?)", itemSubquery).Delete(&models.SaleItem{}).Error; err != nil {
		return fmt.Errorf("delete previously migrated sale items: %w", err)
	}
	if err := tm.db.Where("source IN ?", sources).Delete(&models.Sale{}).Error; err != nil {
		return fmt.Errorf("delete previously migrated sales: %w", err)
	}
	return nil
}

func (tm *TransactionMigrator) migrateFamily(
	table, keyColumn, source string,
	status models.SaleStatus,
	lookups *referenceLookups,
) (headers int64, items int64, mismatches []string, err error) {
	rows, err := stagingRows(tm.db, table, keyColumn)
	if err != nil {
		return 0, 0, nil, err
	}

	for _, row := range rows {
		key := stagingText(row, keyColumn)

		total, derr := utils.NormalizeDecimal(stagingText(row, "total"))
		if derr != nil {
			total = nil
		}
		discount, derr := utils.NormalizeDecimal(stagingText(row, "desconto"))
		if derr != nil {
			discount = nil
		}

		sale := models.Sale{
			Source:    source,
			SourceKey: key,
			SaleDate:  utils.ParseLegacyDate(stagingText(row, "data")),
			Total:     total,
			Discount:  discount,
			Status:    status,
		}
		// Unresolved header references are not errors, the field stays null
		if id, ok := lookups.sellers[stagingText(row, "vendedor")]; ok {
			sale.SellerID = &id
		}
		if id, ok := lookups.customers[stagingText(row, "cliente")]; ok {
			sale.CustomerID = &id
		}
		if id, ok := lookups.paymentTerms[stagingText(row, "formpag")]; ok {
			sale.PaymentTermID = &id
		}

		saleID, err := tm.upsertSale(&sale)
		if err != nil {
			return headers, items, mismatches, fmt.Errorf("upsert %s %s: %w", source, key, err)
		}
		headers++

		// Line items are always rebuilt from the header's slots
		if err := tm.db.Where("sale_id = ?", saleID).Delete(&models.SaleItem{}).Error; err != nil {
			return headers, items, mismatches, fmt.Errorf("clear items of %s %s: %w", source, key, err)
		}

		slotItems, slotMismatches := expandSlots(key, row, lookups.products)
		mismatches = append(mismatches, slotMismatches...)
		for i := range slotItems {
			slotItems[i].SaleID = saleID
		}
		if len(slotItems) > 0 {
			if err := tm.db.Create(&slotItems).Error; err != nil {
				return headers, items, mismatches, fmt.Errorf("insert items of %s %s: %w", source, key, err)
			}
			items += int64(len(slotItems))
		}
	}
	return headers, items, mismatches, nil
}

// upsertSale updates the existing header for (source, source_key) or creates
// a new one, returning its id
func (tm *TransactionMigrator) upsertSale(sale *models.Sale) (uuid.UUID, error) {
	var existing models.Sale
	err := tm.db.Where("source = ? AND source_key = ?", sale.Source, sale.SourceKey).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, err
		}
		if err := tm.db.Create(sale).Error; err != nil {
			return uuid.Nil, err
		}
		return sale.ID, nil
	}

	updates := map[string]interface{}{
		"sale_date":       sale.SaleDate,
		"seller_id":       sale.SellerID,
		"customer_id":     sale.CustomerID,
		"payment_term_id": sale.PaymentTermID,
		"total":           sale.Total,
		"discount":        sale.Discount,
		"status":          sale.Status,
	}
	if err := tm.db.Model(&existing).Updates(updates).Error; err != nil {
		return uuid.Nil, err
	}
	return existing.ID, nil
}

// expandSlots extracts every populated slot (1..7) of one denormalized
// record into line items. Slots are sparse: a slot counts only when its
// product code is non-empty. An unresolved product code is recorded as a
// named mismatch and the item is skipped; the header is unaffected.
func expandSlots(saleKey string, row map[string]interface{}, products map[string]uuid.UUID) ([]models.SaleItem, []string) {
	var items []models.SaleItem
	var mismatches []string

	for slot := 1; slot <= SlotCount; slot++ {
		code := stagingText(row, fmt.Sprintf("prod%d", slot))
		if code == "" {
			continue
		}

		productID, ok := products[code]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("Sale %s: product %s not found", saleKey, code))
			continue
		}

		items = append(items, models.SaleItem{
			ProductID: productID,
			Slot:      slot,
			Quantity:  slotDecimal(row, "qtd", slot),
			UnitPrice: slotDecimal(row, "unit", slot),
			Total:     slotDecimal(row, "totitem", slot),
		})
	}
	return items, mismatches
}

func slotDecimal(row map[string]interface{}, prefix string, slot int) decimal.Decimal {
	d, err := utils.NormalizeDecimal(stagingText(row, fmt.Sprintf("%s%d", prefix, slot)))
	if err != nil || d == nil {
		return decimal.Zero
	}
	return *d
}
