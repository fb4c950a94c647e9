// Package attention derives "what needs attention" items for a project from
// one in-memory snapshot of its related records. It is a pure evaluator: no
// I/O, no stored results, and the clock is an explicit parameter.
package attention

import (
	"doorline/internal/domain"
)

type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

type Category string

const (
	CategoryOps          Category = "Ops"
	CategoryFinance      Category = "Finance"
	CategoryRequirements Category = "Requirements"
	CategoryComms        Category = "Comms"
)

type ReasonCode string

const (
	ReasonClientNotConfirmedUpcomingJob ReasonCode = "CLIENT_NOT_CONFIRMED_UPCOMING_JOB"
	ReasonDepositMissing                ReasonCode = "DEPOSIT_MISSING_AFTER_ACCEPTED_QUOTE"
	ReasonInvoiceOverdue                ReasonCode = "INVOICE_OVERDUE"
	ReasonPartsNotReady                 ReasonCode = "INSTALL_SCHEDULED_PARTS_NOT_READY"
	ReasonInstallRequirementsIncomplete ReasonCode = "INSTALL_REQUIREMENTS_INCOMPLETE"
	ReasonTradeNotBooked                ReasonCode = "THIRD_PARTY_TRADE_NOT_BOOKED"
	ReasonVisitOverdue                  ReasonCode = "VISIT_OVERDUE_NOT_COMPLETED"
	ReasonPOETAMissed                   ReasonCode = "PO_ETA_MISSED"
	ReasonEmailAwaitingResponse         ReasonCode = "CLIENT_EMAIL_AWAITING_RESPONSE"
	ReasonNegativeSentiment             ReasonCode = "NEGATIVE_CLIENT_SENTIMENT"
)

// Deep-link tab names consumed by the UI layer. Opaque to this package.
const (
	tabOverview     = "overview"
	tabInvoices     = "invoices"
	tabParts        = "parts"
	tabRequirements = "requirements"
	tabActivity     = "activity"
)

// Item is one derived attention finding. Items are ephemeral: recomputed on
// every call and never persisted.
type Item struct {
	ID          string     `json:"id"`
	ReasonCode  ReasonCode `json:"reason_code"`
	Priority    Priority   `json:"priority"`
	Category    Category   `json:"category"`
	Message     string     `json:"message"`
	DeepLinkTab string     `json:"deep_link_tab"`
	SortWeight  float64    `json:"sort_weight,omitempty"`
}

// Snapshot is everything the engine reads. Nil slices are treated as empty;
// a nil Project short-circuits to an empty result.
type Snapshot struct {
	Project           *domain.Project
	Quotes            []domain.Quote
	Invoices          []domain.Invoice
	Jobs              []domain.Job
	Parts             []domain.Part
	PurchaseOrders    []domain.PurchaseOrder
	Emails            []domain.Email
	ManualLogs        []domain.ManualLog
	TradeRequirements []domain.TradeRequirement
}
