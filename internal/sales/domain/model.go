// Package domain contains core types for the sales ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// SalesModel is a model profile accumulating dated sale records.
type SalesModel struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerID   snowflake.ID  `gorm:"column:owner_id;not null;index" json:"owner_id"`
	CreatedBy *snowflake.ID `gorm:"column:created_by" json:"created_by,omitempty"`
	FirstName string        `gorm:"type:text;not null" json:"first_name"`
	LastName  string        `gorm:"type:text" json:"last_name"`
	PhotoPath *string       `gorm:"type:text" json:"photo_path,omitempty"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SalesModel) TableName() string { return "sales_models" }

// OwnedBy returns the owning account.
func (m *SalesModel) OwnedBy() snowflake.ID { return m.OwnerID }

// FullName joins first and last name for display.
func (m *SalesModel) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// SaleRecord is one dated USD amount belonging to a SalesModel.
type SaleRecord struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	ModelID   snowflake.ID    `gorm:"column:model_id;not null;index" json:"model_id"`
	Date      time.Time       `gorm:"type:date;not null" json:"date"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SaleRecord) TableName() string { return "sale_records" }

// The revenue split applied to every sale: 80% net to the model, 20%
// platform fee.
var (
	netShare = decimal.NewFromFloat(0.8)
)

// Net returns the model's share of the amount, rounded to the cent.
func (r *SaleRecord) Net() decimal.Decimal {
	return r.Amount.Mul(netShare).Round(2)
}

// Fee returns the platform share. Derived as amount minus net so that
// net + fee always equals the amount to the cent.
func (r *SaleRecord) Fee() decimal.Decimal {
	return r.Amount.Sub(r.Net())
}

// Stats is the aggregate re-derived on every call, never stored.
type Stats struct {
	Gross         decimal.Decimal `json:"gross"`
	Net           decimal.Decimal `json:"net"`
	Fees          decimal.Decimal `json:"fees"`
	DaysWithSales int64           `json:"days_with_sales"`
}

// ComputeStats aggregates the given records: gross is the plain sum,
// net is 80% of gross rounded to the cent, fees is the remainder.
func ComputeStats(records []SaleRecord) Stats {
	gross := decimal.Zero
	for _, record := range records {
		gross = gross.Add(record.Amount)
	}
	net := gross.Mul(netShare).Round(2)
	return Stats{
		Gross:         gross,
		Net:           net,
		Fees:          gross.Sub(net),
		DaysWithSales: int64(len(records)),
	}
}
