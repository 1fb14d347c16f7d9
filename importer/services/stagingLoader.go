package services

import (
	"fmt"
	"strings"

	"github.com/brunomedeirosisi/pos/dbf"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const stagingBatchSize = 500

// StagingLoader streams decoded legacy rows into per-source staging tables.
// Staging is all-text and fully replaced on each run, so it always reflects
// only the current upload.
type StagingLoader struct {
	db       *gorm.DB
	logger   *zap.Logger
	encoding string // optional code-page override for all sources
}

func NewStagingLoader(db *gorm.DB, logger *zap.Logger, encoding string) *StagingLoader {
	return &StagingLoader{
		db:       db,
		logger:   logger,
		encoding: encoding,
	}
}

// LoadSource (re)creates the staging table for one source and bulk-inserts
// the decoded file in fixed-size batches. Returns the loaded row count.
func (l *StagingLoader) LoadSource(src Source, path string) (int64, error) {
	if err := l.resetStagingTable(src); err != nil {
		return 0, err
	}

	table, err := dbf.Open(path)
	if err != nil {
		return 0, err
	}
	if l.encoding != "" {
		table.SetCharmap(dbf.CharmapByName(l.encoding))
	}

	var total int64
	err = table.ReadBatches(stagingBatchSize, func(rows []dbf.Row) error {
		batch := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			record := make(map[string]interface{}, len(src.Columns))
			for _, col := range src.Columns {
				value, ok := row[strings.ToUpper(col)]
				if !ok {
					record[col] = nil
					continue
				}
				record[col] = value.StagingText()
			}
			batch = append(batch, record)
		}
		if err := l.db.Table(src.Table).Create(&batch).Error; err != nil {
			return fmt.Errorf("insert into %s: %w", src.Table, err)
		}
		total += int64(len(batch))
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("staging table loaded",
		zap.String("table", src.Table),
		zap.String("file", src.File),
		zap.Int64("rows", total),
	)
	return total, nil
}

// resetStagingTable creates the staging table if absent and truncates it
func (l *StagingLoader) resetStagingTable(src Source) error {
	cols := make([]string, len(src.Columns))
	for i, c := range src.Columns {
		cols[i] = fmt.Sprintf("%s text", c)
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", src.Table, strings.Join(cols, ", "))
	if err := l.db.Exec(create).Error; err != nil {
		return fmt.Errorf("create staging table %s: %w", src.Table, err)
	}
	if err := l.db.Exec(fmt.Sprintf("TRUNCATE TABLE %s", src.Table)).Error; err != nil {
		return fmt.Errorf("truncate staging table %s: %w", src.Table, err)
	}
	return nil
}
