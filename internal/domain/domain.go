package domain

type Client struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Project struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	Title           string    `json:"title"`
	ProjectType     string    `json:"project_type" enum:"garage_door_install,gate_install,roller_shutter_install,repair,maintenance"`
	Status          string    `json:"status" enum:"open,in_progress,completed,cancelled"`
	ClientConfirmed bool      `json:"client_confirmed"`
	Notes           string    `json:"notes,omitempty"`
	Doors           []Door    `json:"doors,omitempty"`
	Payments        []Payment `json:"payments,omitempty"`
	CreatedAt       string    `json:"created_at" format:"date-time"`
	UpdatedAt       string    `json:"updated_at" format:"date-time"`
}

type Door struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	Height    *float64 `json:"height,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	DoorType  string   `json:"door_type,omitempty"`
	Style     string   `json:"style,omitempty"`
}

type Payment struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	PaymentName   string  `json:"payment_name"`
	PaymentStatus string  `json:"payment_status" enum:"Pending,Paid,Refunded"`
	Amount        float64 `json:"amount,omitempty"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
}

type Quote struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	Status    string  `json:"status" enum:"Draft,Sent,Accepted,Declined"`
	Total     float64 `json:"total,omitempty"`
	SentAt    *string `json:"sent_at,omitempty" format:"date-time"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type Invoice struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Status     string  `json:"status"`
	DueDate    *string `json:"due_date,omitempty" format:"date-time"`
	Total      float64 `json:"total,omitempty"`
	AmountPaid float64 `json:"amount_paid"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

// Job is a scheduled field visit (install, site measure, service call).
type Job struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	JobType        string  `json:"job_type,omitempty"`
	JobTypeName    string  `json:"job_type_name,omitempty"`
	ScheduledDate  *string `json:"scheduled_date,omitempty" format:"date-time"`
	Status         string  `json:"status" enum:"Open,Scheduled,Completed,Cancelled"`
	Assignee       *string `json:"assignee,omitempty"`
	OutcomeSummary string  `json:"outcome_summary,omitempty"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
}

// Part statuses are free-form strings carried over from the previous store
// ("ordered", "In Vehicle", "in_storage", ...); the attention engine
// normalizes them rather than the repo enforcing an enum.
type Part struct {
	ID               string  `json:"id"`
	ProjectID        string  `json:"project_id"`
	Name             string  `json:"name"`
	Status           string  `json:"status,omitempty"`
	PurchaseOrderID  *string `json:"purchase_order_id,omitempty"`
	Quantity         int     `json:"quantity,omitempty"`
	ReceivedQty      *int    `json:"received_qty,omitempty"`
	QuantityReceived *int    `json:"quantity_received,omitempty"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
}

type PurchaseOrder struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	PONumber     string  `json:"po_number,omitempty"`
	SupplierName string  `json:"supplier_name,omitempty"`
	Status       string  `json:"status,omitempty"`
	ETADate      *string `json:"eta_date,omitempty" format:"date-time"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
}

// Email is one message on a project's client thread. Imported records carry
// either sent_at or created_at, and either body_text or content.
type Email struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	IsOutbound  bool    `json:"is_outbound"`
	Subject     string  `json:"subject,omitempty"`
	BodyText    string  `json:"body_text,omitempty"`
	Content     string  `json:"content,omitempty"`
	FromAddress string  `json:"from_address,omitempty"`
	ToAddress   string  `json:"to_address,omitempty"`
	SentAt      *string `json:"sent_at,omitempty" format:"date-time"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
}

// ManualLog records client contact made outside email (phone, SMS, in person).
type ManualLog struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Method      string  `json:"method,omitempty" enum:"phone,sms,in_person"`
	Summary     string  `json:"summary,omitempty"`
	ActorID     string  `json:"actor_id,omitempty"`
	CreatedDate *string `json:"created_date,omitempty" format:"date-time"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
}

type TradeRequirement struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Trade      string  `json:"trade"`
	IsRequired bool    `json:"is_required"`
	IsBooked   bool    `json:"is_booked"`
	BookedDate *string `json:"booked_date,omitempty" format:"date-time"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
