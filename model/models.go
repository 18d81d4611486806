package model

import "time"

type Role string
type ProductType string
type PaymentStatus string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

const (
	ProductTypeGemstone ProductType = "Gemstone"
	ProductTypeShilajit ProductType = "Shilajit"
)

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// IsTerminal reports whether a human reviewer has decided the payment.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusVerified || s == PaymentStatusRejected
}

type Product struct {
	MongoID     string      `json:"_id,omitempty"`
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	ProductType ProductType `json:"productType,omitempty"`
	Image       string      `json:"image"`
	Price       *float64    `json:"price,omitempty"`
	Category    string      `json:"category,omitempty"`
	Carat       float64     `json:"carat,omitempty"`
	Origin      string      `json:"origin,omitempty"`
	Treatment   string      `json:"treatment,omitempty"`
	Shape       string      `json:"shape,omitempty"`
	Color       string      `json:"color,omitempty"`
	Description string      `json:"description,omitempty"`
	Featured    bool        `json:"featured,omitempty"`
}

// Key is the product identity: the backend _id, falling back to id.
func (p Product) Key() string {
	if p.MongoID != "" {
		return p.MongoID
	}
	return p.ID
}

// PriceOrZero treats a missing price as zero.
func (p Product) PriceOrZero() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

type CartLineItem struct {
	Product
	Quantity int `json:"quantity"`
}

type User struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
}

type SessionSnapshot struct {
	User      User  `json:"user"`
	Timestamp int64 `json:"timestamp"`
}

func (s SessionSnapshot) CapturedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

type ExchangeRateCache struct {
	Rate        float64 `json:"rate"`
	LastUpdated int64   `json:"lastUpdated"`
}

func (c ExchangeRateCache) FetchedAt() time.Time {
	return time.UnixMilli(c.LastUpdated)
}

type LoginRequestBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequestBody struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type AuthStatusResponse struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

type SessionInfo struct {
	SessionID     string                 `json:"sessionId"`
	Authenticated bool                   `json:"authenticated"`
	UserID        string                 `json:"userId,omitempty"`
	Cookie        map[string]interface{} `json:"cookie,omitempty"`
}

type ProductsResponse struct {
	Products []Product `json:"products"`
}

type ProductResponse struct {
	Product Product `json:"product"`
}

type PaymentSettings struct {
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	BankName      string `json:"bankName"`
	IBAN          string `json:"iban,omitempty"`
	QRCode        string `json:"qrCode,omitempty"`
}

type PaymentSettingsResponse struct {
	Success  bool            `json:"success"`
	Settings PaymentSettings `json:"settings"`
}

type PaymentProduct struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Image string  `json:"image"`
	Price float64 `json:"price"`
}

type Payment struct {
	ID            string          `json:"_id"`
	BookingID     string          `json:"bookingId"`
	Product       *PaymentProduct `json:"productId,omitempty"`
	AccountName   string          `json:"accountName,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	Screenshot    string          `json:"screenshot"`
	Amount        float64         `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	VerifiedAt    *time.Time      `json:"verifiedAt,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ProductName tolerates a payment whose product was not populated.
func (p Payment) ProductName() string {
	if p.Product == nil || p.Product.Name == "" {
		return "N/A"
	}
	return p.Product.Name
}

type PaymentsResponse struct {
	Payments []Payment `json:"payments"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
