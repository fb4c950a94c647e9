package server

import (
	"encoding/json"

	"doorline/internal/attention"
	"doorline/internal/config"
	"doorline/internal/domain"
)

// Request payloads

type CreateClientRequest struct {
	ID      *string `json:"id,omitempty"`
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty" format:"email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type CreateProjectRequest struct {
	ID              *string `json:"id,omitempty"`
	ClientID        *string `json:"client_id,omitempty"`
	Title           string  `json:"title"`
	ProjectType     string  `json:"project_type" enum:"garage_door_install,gate_install,roller_shutter_install,repair,maintenance"`
	ClientConfirmed bool    `json:"client_confirmed,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type UpdateProjectRequest struct {
	Status          *string `json:"status,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	ClientConfirmed *bool   `json:"client_confirmed,omitempty"`
}

type CreateDoorRequest struct {
	ID       *string  `json:"id,omitempty"`
	DoorType *string  `json:"door_type,omitempty"`
	Style    *string  `json:"style,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Width    *float64 `json:"width,omitempty"`
}

type CreateQuoteRequest struct {
	ID    *string `json:"id,omitempty"`
	Total float64 `json:"total,omitempty"`
}

type SetQuoteStatusRequest struct {
	Status string `json:"status" enum:"Draft,Sent,Accepted,Declined"`
}

type CreateInvoiceRequest struct {
	ID      *string `json:"id,omitempty"`
	Status  *string `json:"status,omitempty"`
	Total   float64 `json:"total,omitempty"`
	DueDate *string `json:"due_date,omitempty" format:"date-time"`
}

type RecordPaymentRequest struct {
	Name   string  `json:"name,omitempty"`
	Amount float64 `json:"amount"`
}

type CreateJobRequest struct {
	ID            *string `json:"id,omitempty"`
	JobType       string  `json:"job_type"`
	ScheduledDate *string `json:"scheduled_date,omitempty" format:"date-time"`
	Assignee      *string `json:"assignee,omitempty"`
}

type SetJobStatusRequest struct {
	Status        string  `json:"status" enum:"Open,Scheduled,Completed,Cancelled"`
	ScheduledDate *string `json:"scheduled_date,omitempty" format:"date-time"`
}

type CompleteJobRequest struct {
	OutcomeSummary string `json:"outcome_summary,omitempty"`
}

type CreatePartRequest struct {
	ID              *string `json:"id,omitempty"`
	Name            string  `json:"name"`
	Status          *string `json:"status,omitempty"`
	Quantity        *int    `json:"quantity,omitempty"`
	PurchaseOrderID *string `json:"purchase_order_id,omitempty"`
}

type SetPartStatusRequest struct {
	Status string `json:"status"`
}

type ReceivePartRequest struct {
	Quantity int `json:"quantity"`
}

type CreatePurchaseOrderRequest struct {
	ID           *string `json:"id,omitempty"`
	PONumber     *string `json:"po_number,omitempty"`
	SupplierName *string `json:"supplier_name,omitempty"`
	Status       *string `json:"status,omitempty"`
	ETADate      *string `json:"eta_date,omitempty" format:"date-time"`
}

type SetPurchaseOrderStatusRequest struct {
	Status string `json:"status"`
}

type RecordEmailRequest struct {
	ID          *string `json:"id,omitempty"`
	Subject     *string `json:"subject,omitempty"`
	BodyText    *string `json:"body_text,omitempty"`
	FromAddress *string `json:"from_address,omitempty"`
	ToAddress   *string `json:"to_address,omitempty"`
	IsOutbound  bool    `json:"is_outbound,omitempty"`
	SentAt      *string `json:"sent_at,omitempty" format:"date-time"`
}

type RecordManualLogRequest struct {
	ID      *string `json:"id,omitempty"`
	Method  string  `json:"method" enum:"phone,sms,in_person"`
	Summary *string `json:"summary,omitempty"`
}

type CreateTradeRequirementRequest struct {
	ID         *string `json:"id,omitempty"`
	Trade      string  `json:"trade"`
	IsRequired bool    `json:"is_required,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type BookTradeRequest struct {
	BookedDate *string `json:"booked_date,omitempty" format:"date-time"`
}

type DevLoginRequest struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

type WhoAmIResponse struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles"`
	Source  string   `json:"source"`
}

// Response payloads

type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type ProjectResponse struct {
	ID              string            `json:"id"`
	ClientID        string            `json:"client_id,omitempty"`
	Title           string            `json:"title"`
	ProjectType     string            `json:"project_type"`
	Status          string            `json:"status"`
	ClientConfirmed bool              `json:"client_confirmed"`
	Notes           string            `json:"notes,omitempty"`
	Doors           []DoorResponse    `json:"doors"`
	Payments        []PaymentResponse `json:"payments"`
	CreatedAt       string            `json:"created_at" format:"date-time"`
	UpdatedAt       string            `json:"updated_at" format:"date-time"`
}

type DoorResponse struct {
	ID       string   `json:"id"`
	DoorType string   `json:"door_type,omitempty"`
	Style    string   `json:"style,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Width    *float64 `json:"width,omitempty"`
}

type PaymentResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Status    string  `json:"status,omitempty"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type QuoteResponse struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	Status    string  `json:"status" enum:"Draft,Sent,Accepted,Declined"`
	Total     float64 `json:"total,omitempty"`
	SentAt    *string `json:"sent_at,omitempty" format:"date-time"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type InvoiceResponse struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Status     string  `json:"status"`
	Total      float64 `json:"total,omitempty"`
	AmountPaid float64 `json:"amount_paid"`
	DueDate    *string `json:"due_date,omitempty" format:"date-time"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

type JobResponse struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	JobType        string  `json:"job_type,omitempty"`
	Status         string  `json:"status" enum:"Open,Scheduled,Completed,Cancelled"`
	ScheduledDate  *string `json:"scheduled_date,omitempty" format:"date-time"`
	Assignee       *string `json:"assignee,omitempty"`
	OutcomeSummary string  `json:"outcome_summary,omitempty"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
}

type PartResponse struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id"`
	Name            string  `json:"name"`
	Status          string  `json:"status,omitempty"`
	Quantity        int     `json:"quantity,omitempty"`
	ReceivedQty     *int    `json:"received_qty,omitempty"`
	PurchaseOrderID *string `json:"purchase_order_id,omitempty"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
}

type PurchaseOrderResponse struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	PONumber     string  `json:"po_number,omitempty"`
	SupplierName string  `json:"supplier_name,omitempty"`
	Status       string  `json:"status,omitempty"`
	ETADate      *string `json:"eta_date,omitempty" format:"date-time"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
}

type EmailResponse struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Subject     string  `json:"subject,omitempty"`
	BodyText    string  `json:"body_text,omitempty"`
	FromAddress string  `json:"from_address,omitempty"`
	ToAddress   string  `json:"to_address,omitempty"`
	IsOutbound  bool    `json:"is_outbound"`
	SentAt      *string `json:"sent_at,omitempty" format:"date-time"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
}

type ManualLogResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Method    string `json:"method,omitempty" enum:"phone,sms,in_person"`
	Summary   string `json:"summary,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type TradeRequirementResponse struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Trade      string  `json:"trade"`
	IsRequired bool    `json:"is_required"`
	IsBooked   bool    `json:"is_booked"`
	BookedDate *string `json:"booked_date,omitempty" format:"date-time"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

type AttentionItemResponse struct {
	ID          string `json:"id"`
	ReasonCode  string `json:"reason_code"`
	Priority    string `json:"priority" enum:"CRITICAL,HIGH,MEDIUM,LOW"`
	Category    string `json:"category" enum:"Ops,Finance,Requirements,Comms"`
	Message     string `json:"message"`
	DeepLinkTab string `json:"deep_link_tab" enum:"overview,invoices,parts,requirements,activity"`
}

type AttentionResponse struct {
	ProjectID string                  `json:"project_id"`
	AsOf      string                  `json:"as_of" format:"date-time"`
	Items     []AttentionItemResponse `json:"items"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type ProjectConfigResponse struct {
	Project projectConfigSection `json:"project"`
	Company companyConfigSection `json:"company"`
	Catalog catalogConfigSection `json:"catalog"`
}

type projectConfigSection struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type companyConfigSection struct {
	Name     string `json:"name,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

type catalogConfigSection struct {
	JobTypes []string `json:"job_types"`
	Trades   []string `json:"trades"`
}

// Conversion helpers

func clientResponse(c domain.Client) ClientResponse {
	return ClientResponse(c)
}

func projectResponse(p domain.Project) ProjectResponse {
	doors := make([]DoorResponse, 0, len(p.Doors))
	for _, d := range p.Doors {
		doors = append(doors, DoorResponse{
			ID:       d.ID,
			DoorType: d.DoorType,
			Style:    d.Style,
			Height:   d.Height,
			Width:    d.Width,
		})
	}
	payments := make([]PaymentResponse, 0, len(p.Payments))
	for _, pay := range p.Payments {
		payments = append(payments, PaymentResponse{
			ID:        pay.ID,
			Name:      pay.PaymentName,
			Status:    pay.PaymentStatus,
			Amount:    pay.Amount,
			CreatedAt: pay.CreatedAt,
		})
	}
	return ProjectResponse{
		ID:              p.ID,
		ClientID:        p.ClientID,
		Title:           p.Title,
		ProjectType:     p.ProjectType,
		Status:          p.Status,
		ClientConfirmed: p.ClientConfirmed,
		Notes:           p.Notes,
		Doors:           doors,
		Payments:        payments,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func quoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		ProjectID: q.ProjectID,
		Status:    q.Status,
		Total:     q.Total,
		SentAt:    q.SentAt,
		CreatedAt: q.CreatedAt,
	}
}

func invoiceResponse(inv domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:         inv.ID,
		ProjectID:  inv.ProjectID,
		Status:     inv.Status,
		Total:      inv.Total,
		AmountPaid: inv.AmountPaid,
		DueDate:    inv.DueDate,
		CreatedAt:  inv.CreatedAt,
	}
}

func jobResponse(j domain.Job) JobResponse {
	jobType := j.JobTypeName
	if jobType == "" {
		jobType = j.JobType
	}
	return JobResponse{
		ID:             j.ID,
		ProjectID:      j.ProjectID,
		JobType:        jobType,
		Status:         j.Status,
		ScheduledDate:  j.ScheduledDate,
		Assignee:       j.Assignee,
		OutcomeSummary: j.OutcomeSummary,
		CreatedAt:      j.CreatedAt,
	}
}

func partResponse(p domain.Part) PartResponse {
	return PartResponse{
		ID:              p.ID,
		ProjectID:       p.ProjectID,
		Name:            p.Name,
		Status:          p.Status,
		Quantity:        p.Quantity,
		ReceivedQty:     p.ReceivedQty,
		PurchaseOrderID: p.PurchaseOrderID,
		CreatedAt:       p.CreatedAt,
	}
}

func purchaseOrderResponse(po domain.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:           po.ID,
		ProjectID:    po.ProjectID,
		PONumber:     po.PONumber,
		SupplierName: po.SupplierName,
		Status:       po.Status,
		ETADate:      po.ETADate,
		CreatedAt:    po.CreatedAt,
	}
}

func emailResponse(em domain.Email) EmailResponse {
	return EmailResponse{
		ID:          em.ID,
		ProjectID:   em.ProjectID,
		Subject:     em.Subject,
		BodyText:    em.BodyText,
		FromAddress: em.FromAddress,
		ToAddress:   em.ToAddress,
		IsOutbound:  em.IsOutbound,
		SentAt:      em.SentAt,
		CreatedAt:   em.CreatedAt,
	}
}

func manualLogResponse(l domain.ManualLog) ManualLogResponse {
	return ManualLogResponse{
		ID:        l.ID,
		ProjectID: l.ProjectID,
		Method:    l.Method,
		Summary:   l.Summary,
		ActorID:   l.ActorID,
		CreatedAt: l.CreatedAt,
	}
}

func tradeRequirementResponse(tr domain.TradeRequirement) TradeRequirementResponse {
	return TradeRequirementResponse{
		ID:         tr.ID,
		ProjectID:  tr.ProjectID,
		Trade:      tr.Trade,
		IsRequired: tr.IsRequired,
		IsBooked:   tr.IsBooked,
		BookedDate: tr.BookedDate,
		Notes:      tr.Notes,
		CreatedAt:  tr.CreatedAt,
	}
}

func attentionItemResponse(it attention.Item) AttentionItemResponse {
	return AttentionItemResponse{
		ID:          it.ID,
		ReasonCode:  string(it.ReasonCode),
		Priority:    string(it.Priority),
		Category:    string(it.Category),
		Message:     it.Message,
		DeepLinkTab: it.DeepLinkTab,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(strPtr(e.Payload)),
	}
}

func configResponse(cfg *config.Config) ProjectConfigResponse {
	return ProjectConfigResponse{
		Project: projectConfigSection{ID: cfg.Project.ID, Kind: cfg.Project.Kind},
		Company: companyConfigSection{Name: cfg.Company.Name, Timezone: cfg.Company.Timezone},
		Catalog: catalogConfigSection{
			JobTypes: nonNilSlice(cfg.Catalog.JobTypes),
			Trades:   nonNilSlice(cfg.Catalog.Trades),
		},
	}
}

// JSON helpers

func decodeJSONMap(raw *string) map[string]any {
	if raw == nil || *raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(*raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func strPtr(in string) *string {
	return &in
}

// Request to domain builders

func domainClient(req CreateClientRequest) domain.Client {
	c := domain.Client{Name: req.Name}
	if req.ID != nil {
		c.ID = *req.ID
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	return c
}

func domainDoor(projectID string, req CreateDoorRequest) domain.Door {
	d := domain.Door{
		ProjectID: projectID,
		Height:    req.Height,
		Width:     req.Width,
	}
	if req.ID != nil {
		d.ID = *req.ID
	}
	if req.DoorType != nil {
		d.DoorType = *req.DoorType
	}
	if req.Style != nil {
		d.Style = *req.Style
	}
	return d
}

func domainQuote(projectID string, req CreateQuoteRequest) domain.Quote {
	q := domain.Quote{ProjectID: projectID, Total: req.Total}
	if req.ID != nil {
		q.ID = *req.ID
	}
	return q
}

func domainInvoice(projectID string, req CreateInvoiceRequest) domain.Invoice {
	inv := domain.Invoice{
		ProjectID: projectID,
		Total:     req.Total,
		DueDate:   req.DueDate,
	}
	if req.ID != nil {
		inv.ID = *req.ID
	}
	if req.Status != nil {
		inv.Status = *req.Status
	}
	return inv
}

func domainPart(projectID string, req CreatePartRequest) domain.Part {
	p := domain.Part{
		ProjectID:       projectID,
		Name:            req.Name,
		PurchaseOrderID: req.PurchaseOrderID,
	}
	if req.ID != nil {
		p.ID = *req.ID
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	return p
}

func domainPurchaseOrder(projectID string, req CreatePurchaseOrderRequest) domain.PurchaseOrder {
	po := domain.PurchaseOrder{ProjectID: projectID, ETADate: req.ETADate}
	if req.ID != nil {
		po.ID = *req.ID
	}
	if req.PONumber != nil {
		po.PONumber = *req.PONumber
	}
	if req.SupplierName != nil {
		po.SupplierName = *req.SupplierName
	}
	if req.Status != nil {
		po.Status = *req.Status
	}
	return po
}

func domainEmail(projectID string, req RecordEmailRequest) domain.Email {
	em := domain.Email{
		ProjectID:  projectID,
		IsOutbound: req.IsOutbound,
		SentAt:     req.SentAt,
	}
	if req.ID != nil {
		em.ID = *req.ID
	}
	if req.Subject != nil {
		em.Subject = *req.Subject
	}
	if req.BodyText != nil {
		em.BodyText = *req.BodyText
	}
	if req.FromAddress != nil {
		em.FromAddress = *req.FromAddress
	}
	if req.ToAddress != nil {
		em.ToAddress = *req.ToAddress
	}
	return em
}

func domainManualLog(projectID string, req RecordManualLogRequest) domain.ManualLog {
	l := domain.ManualLog{ProjectID: projectID, Method: req.Method}
	if req.ID != nil {
		l.ID = *req.ID
	}
	if req.Summary != nil {
		l.Summary = *req.Summary
	}
	return l
}

func domainTradeRequirement(projectID string, req CreateTradeRequirementRequest) domain.TradeRequirement {
	tr := domain.TradeRequirement{
		ProjectID:  projectID,
		Trade:      req.Trade,
		IsRequired: req.IsRequired,
	}
	if req.ID != nil {
		tr.ID = *req.ID
	}
	if req.Notes != nil {
		tr.Notes = *req.Notes
	}
	return tr
}
