package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductGroup represents a product category carried over from the legacy system
type ProductGroup struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name string    `gorm:"not null;index" json:"name"`

	// Natural key for idempotent re-import from the legacy system
	LegacyCode *string `gorm:"uniqueIndex" json:"legacy_code"`

	Status string `gorm:"default:'active'" json:"status"`

	// Audit fields
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product represents a sellable item in the catalog
type Product struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name string    `gorm:"not null;index" json:"name"`

	// Group Reference (Optional - legacy rows may point at a missing group)
	GroupID *uuid.UUID `gorm:"type:uuid;index" json:"group_id"`

	Unit      *string          `gorm:"type:varchar(10)" json:"unit"`
	CostPrice *decimal.Decimal `gorm:"type:decimal(15,4)" json:"cost_price"`
	SalePrice *decimal.Decimal `gorm:"type:decimal(15,4)" json:"sale_price"`
	StockQty  *decimal.Decimal `gorm:"type:decimal(15,3)" json:"stock_qty"`
	MinStock  *decimal.Decimal `gorm:"type:decimal(15,3)" json:"min_stock"`

	LegacyCode *string `gorm:"uniqueIndex" json:"legacy_code"`
	Status     string  `gorm:"default:'active'" json:"status"`

	// Relationships
	Group *ProductGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`

	// Audit fields
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Customer represents a retail customer
type Customer struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name string    `gorm:"not null;index" json:"name"`

	Address     *string `json:"address"`
	City        *string `gorm:"index" json:"city"`
	State       *string `gorm:"type:varchar(2)" json:"state"`
	PostalCode  *string `json:"postal_code"`
	Phone       *string `json:"phone"`
	TaxID       *string `gorm:"index" json:"tax_id"`
	CreditLimit *decimal.Decimal `gorm:"type:decimal(15,2)" json:"credit_limit"`
	RegisteredAt *time.Time      `json:"registered_at"`

	LegacyCode *string `gorm:"uniqueIndex" json:"legacy_code"`
	Status     string  `gorm:"default:'active'" json:"status"`

	// Audit fields
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Seller represents a sales person
type Seller struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name string    `gorm:"not null;index" json:"name"`

	CommissionRate *decimal.Decimal `gorm:"type:decimal(6,3)" json:"commission_rate"`

	LegacyCode *string `gorm:"uniqueIndex" json:"legacy_code"`
	Status     string  `gorm:"default:'active'" json:"status"`

	// Audit fields
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PaymentTerm represents a payment condition (cash, installments, etc.)
type PaymentTerm struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name string    `gorm:"not null" json:"name"`

	Installments *int `json:"installments"`
	IntervalDays *int `json:"interval_days"`

	LegacyCode *string `gorm:"uniqueIndex" json:"legacy_code"`
	Status     string  `gorm:"default:'active'" json:"status"`

	// Audit fields
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hooks
func (pg *ProductGroup) BeforeCreate(tx *gorm.DB) error {
	if pg.ID == uuid.Nil {
		pg.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (s *Seller) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (pt *PaymentTerm) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	return nil
}
