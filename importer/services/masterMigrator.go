package services

import (
	"fmt"

	"github.com/brunomedeirosisi/pos/db/models"
	"github.com/brunomedeirosisi/pos/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MasterMigrator upserts staging rows into the core reference entities,
// keyed by legacy code. On conflict every non-key column is overwritten with
// the freshly imported value, which makes re-imports converge instead of
// duplicating. Must run before the transaction migrator, whose lookups
// depend on these tables being current.
type MasterMigrator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewMasterMigrator(db *gorm.DB, logger *zap.Logger) *MasterMigrator {
	return &MasterMigrator{db: db, logger: logger}
}

// MigrateAll runs every reference-entity migration in dependency order.
// loaded marks which staging tables this run actually populated; optional
// sources that were absent are simply not migrated. Returns migrated counts
// per entity label.
func (m *MasterMigrator) MigrateAll(loaded map[string]bool) (map[string]int64, error) {
	counts := make(map[string]int64)

	steps := []struct {
		entity  string
		table   string
		migrate func() (int64, error)
	}{
		{"product_groups", "legacy_grupo", m.migrateProductGroups},
		{"products", "legacy_produto", m.migrateProducts},
		{"customers", "legacy_clientes", m.migrateCustomers},
		{"sellers", "legacy_vendedor", m.migrateSellers},
		{"payment_terms", "legacy_formpag", m.migratePaymentTerms},
	}

	for _, step := range steps {
		if !loaded[step.table] {
			continue
		}
		count, err := step.migrate()
		if err != nil {
			return counts, fmt.Errorf("migrate %s: %w", step.entity, err)
		}
		counts[step.entity] = count
		m.logger.Info("reference entity migrated",
			zap.String("entity", step.entity),
			zap.Int64("rows", count),
		)
	}
	return counts, nil
}

func (m *MasterMigrator) migrateProductGroups() (int64, error) {
	rows, err := stagingRows(m.db, "legacy_grupo", "codigo")
	if err != nil {
		return 0, err
	}

	var count int64
	for _, row := range rows {
		code := stagingText(row, "codigo")
		group := models.ProductGroup{
			Name:       textOrFallback(stagingText(row, "descricao"), code),
			LegacyCode: utils.CleanText(code),
			Status:     "active",
		}
		err := m.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "legacy_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "status", "updated_at"}),
		}).Create(&group).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *MasterMigrator) migrateProducts() (int64, error) {
	rows, err := stagingRows(m.db, "legacy_produto", "codigo")
	if err != nil {
		return 0, err
	}

	// Resolve group references against the already-migrated groups
	groupLookup, err := legacyCodeLookup(m.db, &models.ProductGroup{})
	if err != nil {
		return 0, err
	}

	var count int64
	for _, row := range rows {
		code := stagingText(row, "codigo")

		costPrice, err := utils.NormalizeDecimal(stagingText(row, "precocusto"))
		if err != nil {
			return count, fmt.Errorf("product %s: %w", code, err)
		}
		salePrice, err := utils.NormalizeDecimal(stagingText(row, "precovenda"))
		if err != nil {
			return count, fmt.Errorf("product %s: %w", code, err)
		}
		stockQty, err := utils.NormalizeDecimal(stagingText(row, "estoque"))
		if err != nil {
			return count, fmt.Errorf("product %s: %w", code, err)
		}
		minStock, err := utils.NormalizeDecimal(stagingText(row, "estminimo"))
		if err != nil {
			return count, fmt.Errorf("product %s: %w", code, err)
		}

		product := models.Product{
			Name:       textOrFallback(stagingText(row, "descricao"), code),
			Unit:       utils.CleanText(stagingText(row, "unidade")),
			CostPrice:  costPrice,
			SalePrice:  salePrice,
			StockQty:   stockQty,
			MinStock:   minStock,
			LegacyCode: utils.CleanText(code),
			Status:     utils.DefaultStatus(stagingText(row, "ativo")),
		}
		if groupID, ok := groupLookup[stagingText(row, "grupo")]; ok {
			product.GroupID = &groupID
		}

		err = m.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "legacy_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "group_id", "unit", "cost_price", "sale_price",
				"stock_qty", "min_stock", "status", "updated_at",
			}),
		}).Create(&product).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *MasterMigrator) migrateCustomers() (int64, error) {
	rows, err := stagingRows(m.db, "legacy_clientes", "codigo")
	if err != nil {
		return 0, err
	}

	var count int64
	for _, row := range rows {
		code := stagingText(row, "codigo")

		creditLimit, err := utils.NormalizeDecimal(stagingText(row, "limite"))
		if err != nil {
			return count, fmt.Errorf("customer %s: %w", code, err)
		}

		customer := models.Customer{
			Name:         textOrFallback(stagingText(row, "nome"), code),
			Address:      utils.CleanText(stagingText(row, "endereco")),
			City:         utils.CleanText(stagingText(row, "cidade")),
			State:        utils.CleanText(stagingText(row, "uf")),
			PostalCode:   utils.CleanText(stagingText(row, "cep")),
			Phone:        utils.CleanText(stagingText(row, "fone")),
			TaxID:        utils.CleanText(stagingText(row, "cpfcnpj")),
			CreditLimit:  creditLimit,
			RegisteredAt: utils.ParseLegacyDate(stagingText(row, "datacad")),
			LegacyCode:   utils.CleanText(code),
			Status:       utils.DefaultStatus(stagingText(row, "ativo")),
		}

		err = m.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "legacy_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "address", "city", "state", "postal_code", "phone",
				"tax_id", "credit_limit", "registered_at", "status", "updated_at",
			}),
		}).Create(&customer).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *MasterMigrator) migrateSellers() (int64, error) {
	rows, err := stagingRows(m.db, "legacy_vendedor", "codigo")
	if err != nil {
		return 0, err
	}

	var count int64
	for _, row := range rows {
		code := stagingText(row, "codigo")

		commission, err := utils.NormalizeDecimal(stagingText(row, "comissao"))
		if err != nil {
			return count, fmt.Errorf("seller %s: %w", code, err)
		}

		seller := models.Seller{
			Name:           textOrFallback(stagingText(row, "nome"), code),
			CommissionRate: commission,
			LegacyCode:     utils.CleanText(code),
			Status:         utils.DefaultStatus(stagingText(row, "ativo")),
		}

		err = m.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "legacy_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "commission_rate", "status", "updated_at",
			}),
		}).Create(&seller).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *MasterMigrator) migratePaymentTerms() (int64, error) {
	rows, err := stagingRows(m.db, "legacy_formpag", "codigo")
	if err != nil {
		return 0, err
	}

	var count int64
	for _, row := range rows {
		code := stagingText(row, "codigo")

		term := models.PaymentTerm{
			Name:         textOrFallback(stagingText(row, "descricao"), code),
			Installments: parseOptionalInt(stagingText(row, "parcelas")),
			IntervalDays: parseOptionalInt(stagingText(row, "intervalo")),
			LegacyCode:   utils.CleanText(code),
			Status:       "active",
		}

		err := m.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "legacy_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "installments", "interval_days", "status", "updated_at",
			}),
		}).Create(&term).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func textOrFallback(s, fallback string) string {
	if cleaned := utils.CleanText(s); cleaned != nil {
		return *cleaned
	}
	return fallback
}

func parseOptionalInt(s string) *int {
	d, err := utils.NormalizeDecimal(s)
	if err != nil || d == nil {
		return nil
	}
	n := int(d.IntPart())
	return &n
}
