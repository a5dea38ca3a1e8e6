package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:'user'"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	Categories = []string{"office", "kitchen", "bedroom"}
	Companies  = []string{"ikea", "liddy", "marcos"}
)

type Product struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name          string    `gorm:"not null;size:100"             json:"name"`
	Price         float64   `gorm:"not null;default:0"            json:"price"`
	Description   string    `gorm:"not null;size:1000"            json:"description"`
	Image         string    `gorm:"default:'/uploads/example.jpeg'" json:"image"`
	Category      string    `gorm:"not null"                      json:"category"`
	Company       string    `gorm:"not null"                      json:"company"`
	Colors        []string  `gorm:"serializer:json"               json:"colors"`
	Featured      bool      `gorm:"default:false"                 json:"featured"`
	FreeShipping  bool      `gorm:"default:false"                 json:"freeShipping"`
	Inventory     uint      `gorm:"not null;default:15"           json:"inventory"`
	AverageRating float64   `gorm:"default:0"                     json:"averageRating"`
	NumOfReviews  int64     `gorm:"default:0"                     json:"numOfReviews"`
	UserID        uint      `gorm:"index;not null"                json:"user"`
	Reviews       []Review  `gorm:"foreignKey:ProductID"          json:"reviews,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// The unique (product_id, user_id) index enforces one review per user per
// product. Concurrent duplicate submissions race and the index decides the
// winner.
type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                      json:"id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"    json:"rating"`
	Title     string    `gorm:"not null;size:50"                              json:"title"`
	Comment   string    `gorm:"not null"                                      json:"comment"`
	UserID    uint      `gorm:"uniqueIndex:idx_reviews_product_user;not null" json:"user"`
	ProductID uint      `gorm:"uniqueIndex:idx_reviews_product_user;not null" json:"product"`
	Product   *Product  `gorm:"foreignKey:ProductID"                          json:"productInfo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusFailed    = "failed"
	OrderStatusPaid      = "paid"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint        `gorm:"index;not null"           json:"user"`
	Tax             float64     `gorm:"not null"                 json:"tax"`
	ShippingFee     float64     `gorm:"not null"                 json:"shippingFee"`
	Subtotal        float64     `gorm:"not null"                 json:"subtotal"`
	Total           float64     `gorm:"not null"                 json:"total"`
	Status          string      `gorm:"not null;default:'pending'" json:"status"`
	ClientSecret    string      `json:"clientSecret"`
	PaymentIntentID string      `json:"paymentIntentId"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"       json:"orderItems"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem snapshots the product at purchase time so later catalog edits do
// not rewrite order history.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null"           json:"-"`
	ProductID uint    `gorm:"not null"                 json:"product"`
	Name      string  `gorm:"not null"                 json:"name"`
	Image     string  `json:"image"`
	Price     float64 `gorm:"not null"                 json:"price"`
	Amount    uint    `gorm:"not null"                 json:"amount"`
}
