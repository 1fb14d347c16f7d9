package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleStatus distinguishes completed sales from open orders
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusDraft     SaleStatus = "draft"
)

// Sale represents one sales transaction (or open order) header.
// Source + SourceKey form the natural key for idempotent re-import:
// Source identifies which legacy origin produced the row (e.g. "vendas",
// "pedidos") and SourceKey is the legacy record key within that origin.
type Sale struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Source    string    `gorm:"not null;uniqueIndex:idx_sales_source_key" json:"source"`
	SourceKey string    `gorm:"not null;uniqueIndex:idx_sales_source_key" json:"source_key"`

	SaleDate      *time.Time `gorm:"index" json:"sale_date"`
	SellerID      *uuid.UUID `gorm:"type:uuid;index" json:"seller_id"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	PaymentTermID *uuid.UUID `gorm:"type:uuid;index" json:"payment_term_id"`

	Total    *decimal.Decimal `gorm:"type:decimal(15,2)" json:"total"`
	Discount *decimal.Decimal `gorm:"type:decimal(15,2)" json:"discount"`

	Status SaleStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// Relationships
	Seller      *Seller      `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Customer    *Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	PaymentTerm *PaymentTerm `gorm:"foreignKey:PaymentTermID" json:"payment_term,omitempty"`
	Items       []SaleItem   `gorm:"foreignKey:SaleID" json:"items,omitempty"`

	// Audit fields
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SaleItem is one product line expanded from a legacy slot
type SaleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`

	// Slot position (1..7) inside the original denormalized record
	Slot int `gorm:"not null" json:"slot"`

	Quantity  decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (si *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	return nil
}
