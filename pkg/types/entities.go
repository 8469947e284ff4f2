package types

// Tagged structs for the well-known tables. Records may carry more fields
// than these; DecodeRow ignores the rest.

// Profile is a denormalized projection of a user's metadata.
type Profile struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name,omitempty"`
	AvatarURL    string   `json:"avatar_url,omitempty"`
	Role         string   `json:"role,omitempty"`
	AccessRights []string `json:"access_rights,omitempty"`
	Birthday     string   `json:"birthday,omitempty"`
	Mobile       string   `json:"mobile,omitempty"`
}

// ContactPerson is a named person at a customer.
type ContactPerson struct {
	ID        string `json:"id"`
	Enabled   bool   `json:"enabled"`
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
	Birthday  string `json:"birthday,omitempty"`
	Telephone string `json:"telephone,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Contact is a customer account.
type Contact struct {
	ID             string          `json:"id"`
	Company        string          `json:"company"`
	CustomerSince  string          `json:"customerSince,omitempty"`
	Team           string          `json:"team,omitempty"`
	Salesman       string          `json:"salesman,omitempty"`
	Province       string          `json:"province,omitempty"`
	City           string          `json:"city,omitempty"`
	Area           string          `json:"area,omitempty"`
	PriceGroup     string          `json:"priceGroup,omitempty"`
	Terms          string          `json:"terms,omitempty"`
	CreditLimit    float64         `json:"creditLimit,omitempty"`
	Status         string          `json:"status,omitempty"`
	IsHidden       bool            `json:"isHidden"`
	ContactPersons []ContactPerson `json:"contactPersons,omitempty"`
	Name           string          `json:"name,omitempty"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	TotalSales     float64         `json:"totalSales,omitempty"`
	Balance        float64         `json:"balance,omitempty"`
}

// Deal is a sales pipeline card.
type Deal struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	ContactName string  `json:"contactName,omitempty"`
	Value       float64 `json:"value"`
	Currency    string  `json:"currency,omitempty"`
	StageID     string  `json:"stageId"`
	OwnerName   string  `json:"ownerName,omitempty"`
	DaysInStage int     `json:"daysInStage,omitempty"`
	IsOverdue   bool    `json:"isOverdue,omitempty"`
}

// Product is a catalog item with tiered prices and per-warehouse stock.
type Product struct {
	ID                string  `json:"id"`
	PartNo            string  `json:"part_no"`
	OEMNo             string  `json:"oem_no,omitempty"`
	Brand             string  `json:"brand"`
	Barcode           string  `json:"barcode,omitempty"`
	ItemCode          string  `json:"item_code,omitempty"`
	Description       string  `json:"description"`
	Size              string  `json:"size,omitempty"`
	ReorderQuantity   int     `json:"reorder_quantity"`
	ReplenishQuantity int     `json:"replenish_quantity"`
	Status            string  `json:"status"`
	Category          string  `json:"category,omitempty"`
	PriceAA           float64 `json:"price_aa"`
	PriceBB           float64 `json:"price_bb"`
	PriceCC           float64 `json:"price_cc"`
	PriceDD           float64 `json:"price_dd"`
	PriceVIP1         float64 `json:"price_vip1"`
	PriceVIP2         float64 `json:"price_vip2"`
	StockWH1          int     `json:"stock_wh1"`
	StockWH2          int     `json:"stock_wh2"`
	StockWH3          int     `json:"stock_wh3"`
	StockWH4          int     `json:"stock_wh4"`
	StockWH5          int     `json:"stock_wh5"`
	StockWH6          int     `json:"stock_wh6"`
}

// TotalStock sums stock across warehouses.
func (p Product) TotalStock() int {
	return p.StockWH1 + p.StockWH2 + p.StockWH3 + p.StockWH4 + p.StockWH5 + p.StockWH6
}

// ReorderEntry is one row of the reorder report.
type ReorderEntry struct {
	ID                string         `json:"id"`
	ProductID         string         `json:"product_id"`
	PartNo            string         `json:"part_no"`
	Description       string         `json:"description"`
	Brand             string         `json:"brand"`
	ReorderPoint      int            `json:"reorder_point"`
	TotalStock        int            `json:"total_stock"`
	ReplenishQuantity int            `json:"replenish_quantity"`
	Status            string         `json:"status"`
	StockSnapshot     map[string]int `json:"stock_snapshot,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// Task is a team to-do item.
type Task struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	AssignedTo     string `json:"assignedTo,omitempty"`
	AssigneeAvatar string `json:"assigneeAvatar,omitempty"`
	CreatedBy      string `json:"createdBy,omitempty"`
	DueDate        string `json:"dueDate,omitempty"`
	Priority       string `json:"priority"`
	Status         string `json:"status"`
}

// CallLog is one logged call or text with a customer.
type CallLog struct {
	ID              string `json:"id"`
	ContactID       string `json:"contact_id"`
	AgentName       string `json:"agent_name"`
	Channel         string `json:"channel"`
	Direction       string `json:"direction"`
	DurationSeconds int    `json:"duration_seconds"`
	Notes           string `json:"notes"`
	Outcome         string `json:"outcome"`
	OccurredAt      string `json:"occurred_at"`
	NextAction      string `json:"next_action,omitempty"`
	NextActionDue   string `json:"next_action_due,omitempty"`
}

// Inquiry is an inbound customer question.
type Inquiry struct {
	ID         string `json:"id"`
	ContactID  string `json:"contact_id"`
	Title      string `json:"title"`
	Channel    string `json:"channel"`
	Sentiment  string `json:"sentiment"`
	OccurredAt string `json:"occurred_at"`
	Notes      string `json:"notes"`
}

// Purchase is a customer order total.
type Purchase struct {
	ID          string  `json:"id"`
	ContactID   string  `json:"contact_id"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	PurchasedAt string  `json:"purchased_at"`
	Notes       string  `json:"notes"`
}

// TeamMessage is a post on the team board.
type TeamMessage struct {
	ID           string `json:"id"`
	SenderID     string `json:"sender_id"`
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
	Message      string `json:"message"`
	CreatedAt    string `json:"created_at"`
	IsFromOwner  bool   `json:"is_from_owner"`
}

// Notification is a message addressed to one user.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Type        string         `json:"type"`
	ActionURL   string         `json:"action_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IsRead      bool           `json:"is_read"`
	CreatedAt   string         `json:"created_at"`
	ReadAt      string         `json:"read_at,omitempty"`
}
