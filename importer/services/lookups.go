package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// legacyCodeLookup builds the in-memory legacy-code → current-id table for
// one core entity, in a single pass. The migrators resolve every foreign key
// through these maps instead of per-row queries.
func legacyCodeLookup(db *gorm.DB, model interface{}) (map[string]uuid.UUID, error) {
	type pair struct {
		ID         uuid.UUID
		LegacyCode *string
	}
	var pairs []pair
	err := db.Model(model).
		Select("id", "legacy_code").
		Where("legacy_code IS NOT NULL").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("build legacy code lookup: %w", err)
	}

	lookup := make(map[string]uuid.UUID, len(pairs))
	for _, p := range pairs {
		if p.LegacyCode != nil && *p.LegacyCode != "" {
			lookup[*p.LegacyCode] = p.ID
		}
	}
	return lookup, nil
}

// stagingRows selects all staging rows whose key column is non-blank
func stagingRows(db *gorm.DB, table, keyColumn string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := db.Table(table).
		Where(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", keyColumn, keyColumn)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read staging table %s: %w", table, err)
	}
	return rows, nil
}

// stagingText reads one all-text staging column, treating NULL as blank
func stagingText(row map[string]interface{}, column string) string {
	value, ok := row[column]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
