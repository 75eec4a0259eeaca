package models

import "time"

type SaleStatus string

const SaleStatusPaid SaleStatus = "paid"

type Sale struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Reference     string     `gorm:"size:64;not null;uniqueIndex" json:"reference"`
	Cashier       string     `gorm:"size:100" json:"cashier"`
	CustomerName  string     `gorm:"size:100" json:"customer_name"`
	PaymentMethod string     `gorm:"size:20" json:"payment_method"`
	Total         float64    `gorm:"not null" json:"total"`
	Status        SaleStatus `gorm:"size:20;not null" json:"status"`
	Items         []SaleItem `json:"items"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}

type SaleItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	SaleID      uint    `gorm:"index;not null" json:"sale_id"`
	ProductID   uint    `gorm:"index;not null" json:"product_id"`
	ProductName string  `gorm:"size:100;not null" json:"product_name"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	PriceAtSale float64 `gorm:"not null" json:"price_at_sale"`
}
