package services

import (
	"fmt"
	"strings"

	bleve_repositories "github.com/brunomedeirosisi/pos/bleve/repositories"
	"github.com/brunomedeirosisi/pos/db/models"
	"github.com/brunomedeirosisi/pos/importer/repositories"
	"github.com/brunomedeirosisi/pos/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HistoryCounts summarizes one auxiliary history migration
type HistoryCounts struct {
	Migrated int64 `json:"migrated"`
	Skipped  int64 `json:"skipped"`
}

// ImportSummary is the structured result persisted on the job once a run
// completes. Nested counts per entity, plus the reconciliation table.
type ImportSummary struct {
	Staged           map[string]int64      `json:"staged"`
	Master           map[string]int64      `json:"master"`
	Transactions     *TransactionResult    `json:"transactions"`
	CustomerPayments HistoryCounts         `json:"customer_payments"`
	StockMovements   HistoryCounts         `json:"stock_movements"`
	Reconciliation   []ReconciliationEntry `json:"reconciliation"`
}

// ImportPipeline executes one import job end to end: normalize the upload,
// verify required sources, stage, migrate master data, expand transactions,
// migrate histories and write the reconciliation report. It never touches
// job status; the queue owns the state machine.
type ImportPipeline struct {
	db           *gorm.DB
	logger       *zap.Logger
	jobRepo      repositories.ImportJobRepository
	catalogIndex bleve_repositories.CatalogIndexRepositoryInterface
	dbfEncoding  string
}

func NewImportPipeline(
	db *gorm.DB,
	logger *zap.Logger,
	jobRepo repositories.ImportJobRepository,
	catalogIndex bleve_repositories.CatalogIndexRepositoryInterface,
	dbfEncoding string,
) *ImportPipeline {
	return &ImportPipeline{
		db:           db,
		logger:       logger,
		jobRepo:      jobRepo,
		catalogIndex: catalogIndex,
		dbfEncoding:  dbfEncoding,
	}
}

// Run executes every stage in strict order and returns the summary and the
// reconciliation report path. Any error aborts the job; nothing is rolled
// back since every core write is idempotent by key.
func (p *ImportPipeline) Run(job *models.ImportJob) (*ImportSummary, string, error) {
	summary := &ImportSummary{
		Staged: make(map[string]int64),
		Master: make(map[string]int64),
	}

	// ---- Normalize the upload ----
	p.logJob(job, models.ImportLogInfo, "normalizing upload in %s", job.SessionDir)
	index, err := NormalizeSessionDir(job.SessionDir)
	if err != nil {
		return nil, "", fmt.Errorf("normalize upload: %w", err)
	}

	// Verify required sources BEFORE any destructive staging or overwrite
	// step, so a partial upload can never wipe existing data.
	if missing := MissingRequiredFiles(index); len(missing) > 0 {
		return nil, "", fmt.Errorf("required legacy files missing: %s", strings.Join(missing, ", "))
	}

	// ---- Stage every present source ----
	loader := NewStagingLoader(p.db, p.logger, p.dbfEncoding)
	loaded := make(map[string]bool)
	for _, src := range ImportSources {
		path, present := index[src.File]
		if !present {
			p.logJob(job, models.ImportLogWarn, "optional source %s not present, skipping", src.File)
			continue
		}
		count, err := loader.LoadSource(src, path)
		if err != nil {
			return nil, "", fmt.Errorf("stage %s: %w", src.File, err)
		}
		loaded[src.Table] = true
		summary.Staged[src.Entity] = count
		p.logJob(job, models.ImportLogInfo, "staged %s: %d rows", src.File, count)
	}

	// ---- Master data ----
	p.logJob(job, models.ImportLogInfo, "migrating reference entities")
	masterCounts, err := NewMasterMigrator(p.db, p.logger).MigrateAll(loaded)
	if err != nil {
		return nil, "", err
	}
	summary.Master = masterCounts

	// ---- Transactions ----
	p.logJob(job, models.ImportLogInfo, "migrating sales and orders (overwrite=%t)", job.Overwrite)
	transactions, err := NewTransactionMigrator(p.db, p.logger).Migrate(job.Overwrite, loaded)
	if err != nil {
		return nil, "", err
	}
	summary.Transactions = transactions
	if len(transactions.Mismatches) > 0 {
		p.logJob(job, models.ImportLogWarn, "%d line items dropped due to unresolved product codes", len(transactions.Mismatches))
	}

	// ---- Auxiliary histories ----
	histories := NewHistoryMigrator(p.db, p.logger)
	if loaded["legacy_receber"] {
		migrated, skipped, err := histories.MigrateCustomerPayments()
		if err != nil {
			return nil, "", err
		}
		summary.CustomerPayments = HistoryCounts{Migrated: migrated, Skipped: skipped}
		p.logJob(job, models.ImportLogInfo, "customer payments: %d migrated, %d skipped", migrated, skipped)
	}
	if loaded["legacy_movestoq"] {
		migrated, skipped, err := histories.MigrateStockMovements()
		if err != nil {
			return nil, "", err
		}
		summary.StockMovements = HistoryCounts{Migrated: migrated, Skipped: skipped}
		p.logJob(job, models.ImportLogInfo, "stock movements: %d migrated, %d skipped", migrated, skipped)
	}

	// ---- Reconciliation ----
	summary.Reconciliation = p.buildReconciliation(summary, loaded)
	reportPath, err := WriteReconciliationReport(job.SessionDir, job.SessionID, summary.Reconciliation, transactions.Mismatches)
	if err != nil {
		return nil, "", err
	}
	p.logJob(job, models.ImportLogInfo, "reconciliation report written to %s", reportPath)

	if len(transactions.Mismatches) > 0 {
		if workbook, err := utils.GenerateMismatchWorkbook(job.SessionDir, job.SessionID, transactions.Mismatches); err != nil {
			p.logJob(job, models.ImportLogWarn, "failed to generate mismatch workbook: %v", err)
		} else {
			p.logJob(job, models.ImportLogInfo, "mismatch workbook written to %s", workbook)
		}
	}

	// ---- Post-import hooks, never fatal ----
	p.reindexCatalog(job)
	p.notifyCompletion(job, summary, reportPath)

	return summary, reportPath, nil
}

func (p *ImportPipeline) buildReconciliation(summary *ImportSummary, loaded map[string]bool) []ReconciliationEntry {
	var entries []ReconciliationEntry
	for _, src := range ImportSources {
		if !loaded[src.Table] {
			continue
		}
		entry := ReconciliationEntry{
			Entity:     src.Entity,
			SourceRows: summary.Staged[src.Entity],
		}
		switch src.Entity {
		case "sales":
			entry.MigratedRows = summary.Transactions.Sales
		case "orders":
			entry.MigratedRows = summary.Transactions.Orders
		case "customer_payments":
			entry.MigratedRows = summary.CustomerPayments.Migrated
		case "stock_movements":
			entry.MigratedRows = summary.StockMovements.Migrated
		default:
			entry.MigratedRows = summary.Master[src.Entity]
		}
		entries = append(entries, entry)
	}
	return entries
}

// reindexCatalog refreshes the back-office search indexes after a successful
// migration. Indexing failures are logged and never fail the job.
func (p *ImportPipeline) reindexCatalog(job *models.ImportJob) {
	if p.catalogIndex == nil {
		return
	}

	var products []models.Product
	if err := p.db.Find(&products).Error; err != nil {
		p.logJob(job, models.ImportLogWarn, "failed to load products for search reindex: %v", err)
	} else if err := p.catalogIndex.IndexExistingProducts(products); err != nil {
		p.logJob(job, models.ImportLogWarn, "failed to reindex products: %v", err)
	}

	var customers []models.Customer
	if err := p.db.Find(&customers).Error; err != nil {
		p.logJob(job, models.ImportLogWarn, "failed to load customers for search reindex: %v", err)
	} else if err := p.catalogIndex.IndexExistingCustomers(customers); err != nil {
		p.logJob(job, models.ImportLogWarn, "failed to reindex customers: %v", err)
	}
}

// notifyCompletion mails the reconciliation report to the initiating actor
// when SMTP is configured
func (p *ImportPipeline) notifyCompletion(job *models.ImportJob, summary *ImportSummary, reportPath string) {
	if utils.GetMailer() == nil || job.CreatedBy == "" {
		return
	}

	mismatches := 0
	if summary.Transactions != nil {
		mismatches = len(summary.Transactions.Mismatches)
	}
	message := fmt.Sprintf(
		"Import session %s finished.\nSales migrated: %d\nOrders migrated: %d\nMismatches: %d\n\nThe reconciliation report is attached.",
		job.SessionID, summary.Transactions.Sales, summary.Transactions.Orders, mismatches,
	)
	subject := "Legacy import completed - " + job.SessionID

	if err := utils.SendEmail(job.CreatedBy, message, subject, reportPath); err != nil {
		p.logJob(job, models.ImportLogWarn, "failed to send report email: %v", err)
	}
}

// logJob appends to the job's persistent log; failures only hit the zap log
func (p *ImportPipeline) logJob(job *models.ImportJob, level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if err := p.jobRepo.AppendLog(job.ID, level, message); err != nil {
		p.logger.Warn("failed to append import log entry",
			zap.String("session_id", job.SessionID),
			zap.Error(err),
		)
	}
}
