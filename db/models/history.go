package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerPayment is one row of the legacy receivables history.
// LegacyKey is a deterministic composite of the source fields so re-importing
// the same export updates rather than duplicates.
type CustomerPayment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`

	DueDate     *time.Time       `gorm:"index" json:"due_date"`
	PaidDate    *time.Time       `json:"paid_date"`
	Amount      decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	Interest    *decimal.Decimal `gorm:"type:decimal(15,2)" json:"interest"`
	DocumentRef *string          `json:"document_ref"`

	LegacyKey *string `gorm:"uniqueIndex" json:"legacy_key"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockMovementDirection is the normalized legacy movement type (E=in, S=out)
type StockMovementDirection string

const (
	StockMovementIn  StockMovementDirection = "in"
	StockMovementOut StockMovementDirection = "out"
)

// StockMovement is one row of the legacy stock movement history
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`

	MovedAt     *time.Time             `gorm:"index" json:"moved_at"`
	Direction   StockMovementDirection `gorm:"type:varchar(5);not null" json:"direction"`
	Quantity    decimal.Decimal        `gorm:"type:decimal(15,3);not null" json:"quantity"`
	DocumentRef *string                `json:"document_ref"`

	LegacyKey *string `gorm:"uniqueIndex" json:"legacy_key"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (cp *CustomerPayment) BeforeCreate(tx *gorm.DB) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	return nil
}

func (sm *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if sm.ID == uuid.Nil {
		sm.ID = uuid.New()
	}
	return nil
}
