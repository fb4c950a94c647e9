package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"doorline/internal/attention"
	"doorline/internal/config"
	"doorline/internal/domain"
	"doorline/internal/events"
	"doorline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowString() string {
	return e.now().UTC().Format(time.RFC3339)
}

func newID() string {
	return uuid.New().String()
}

// Attention derives the current attention list for a project. Results are
// recomputed on every call and never stored.
func (e Engine) Attention(ctx context.Context, projectID string) ([]attention.Item, error) {
	p, err := e.Repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	snap := attention.Snapshot{Project: &p}
	if snap.Quotes, err = e.Repo.ListQuotes(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Invoices, err = e.Repo.ListInvoices(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Jobs, err = e.Repo.ListJobs(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Parts, err = e.Repo.ListParts(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.PurchaseOrders, err = e.Repo.ListPurchaseOrders(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Emails, err = e.Repo.ListEmails(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.ManualLogs, err = e.Repo.ListManualLogs(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.TradeRequirements, err = e.Repo.ListTradeRequirements(ctx, projectID); err != nil {
		return nil, err
	}
	return attention.Compute(snap, e.now()), nil
}

// --- clients ---

func (e Engine) CreateClient(ctx context.Context, c domain.Client, actorID string) (domain.Client, error) {
	if c.Name == "" {
		return c, errors.New("name is required")
	}
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt = e.nowString()
	if err := e.Repo.InsertClient(ctx, c); err != nil {
		return c, fmt.Errorf("insert client: %w", err)
	}
	return c, nil
}

// --- projects ---

var validProjectTypes = map[string]bool{
	"garage_door_install":    true,
	"gate_install":           true,
	"roller_shutter_install": true,
	"repair":                 true,
	"maintenance":            true,
}

// ProjectCreateOptions are parameters for creating a project.
type ProjectCreateOptions struct {
	ID              string
	ClientID        string
	Title           string
	ProjectType     string
	ClientConfirmed bool
	Notes           string
	ActorID         string
}

func (e Engine) CreateProject(ctx context.Context, opts ProjectCreateOptions) (domain.Project, error) {
	if opts.Title == "" {
		return domain.Project{}, errors.New("title is required")
	}
	if !validProjectTypes[opts.ProjectType] {
		return domain.Project{}, fmt.Errorf("unknown project type %q", opts.ProjectType)
	}
	if opts.ClientID != "" {
		if _, err := e.Repo.GetClient(ctx, opts.ClientID); err != nil {
			return domain.Project{}, err
		}
	}
	id := opts.ID
	if id == "" {
		id = newID()
	}
	now := e.nowString()
	p := domain.Project{
		ID:              id,
		ClientID:        opts.ClientID,
		Title:           opts.Title,
		ProjectType:     opts.ProjectType,
		Status:          "open",
		ClientConfirmed: opts.ClientConfirmed,
		Notes:           opts.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Repo.UpsertProjectConfigTx(ctx, tx, p.ID, config.Default(p.ID)); err != nil {
		return domain.Project{}, fmt.Errorf("insert project config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "project.created", p.ID, "project", p.ID, opts.ActorID, events.EventPayload{
		"title": p.Title, "project_type": p.ProjectType,
	}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// ConfirmClient marks the client as having confirmed the project.
func (e Engine) ConfirmClient(ctx context.Context, projectID, actorID string) (domain.Project, error) {
	confirmed := true
	if err := e.Repo.UpdateProject(ctx, projectID, nil, nil, &confirmed); err != nil {
		return domain.Project{}, err
	}
	if err := e.appendEvent(ctx, "project.client_confirmed", projectID, "project", projectID, actorID, nil); err != nil {
		return domain.Project{}, err
	}
	return e.Repo.GetProject(ctx, projectID)
}

func (e Engine) UpdateProject(ctx context.Context, projectID string, status, notes *string, clientConfirmed *bool, actorID string) (domain.Project, error) {
	if err := e.Repo.UpdateProject(ctx, projectID, status, notes, clientConfirmed); err != nil {
		return domain.Project{}, err
	}
	payload := events.EventPayload{}
	if status != nil {
		payload["status"] = *status
	}
	if err := e.appendEvent(ctx, "project.updated", projectID, "project", projectID, actorID, payload); err != nil {
		return domain.Project{}, err
	}
	return e.Repo.GetProject(ctx, projectID)
}

// AddDoor records a door opening on an install project.
func (e Engine) AddDoor(ctx context.Context, d domain.Door, actorID string) (domain.Door, error) {
	if d.ProjectID == "" {
		return d, errors.New("project is required")
	}
	if _, err := e.Repo.GetProject(ctx, d.ProjectID); err != nil {
		return d, err
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if err := e.Repo.InsertDoor(ctx, d); err != nil {
		return d, fmt.Errorf("insert door: %w", err)
	}
	if err := e.appendEvent(ctx, "door.added", d.ProjectID, "door", d.ID, actorID, nil); err != nil {
		return d, err
	}
	return d, nil
}

// --- quotes ---

func (e Engine) CreateQuote(ctx context.Context, q domain.Quote, actorID string) (domain.Quote, error) {
	if q.ProjectID == "" {
		return q, errors.New("project is required")
	}
	if _, err := e.Repo.GetProject(ctx, q.ProjectID); err != nil {
		return q, err
	}
	if q.ID == "" {
		q.ID = newID()
	}
	if q.Status == "" {
		q.Status = "Draft"
	}
	q.CreatedAt = e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return q, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertQuoteTx(ctx, tx, q); err != nil {
		return q, fmt.Errorf("insert quote: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "quote.created", q.ProjectID, "quote", q.ID, actorID, events.EventPayload{"status": q.Status}); err != nil {
		return q, err
	}
	if err := tx.Commit(); err != nil {
		return q, err
	}
	return q, nil
}

func ensureQuoteTransition(oldStatus, newStatus string, force bool) error {
	if force {
		return nil
	}
	switch oldStatus {
	case "Draft":
		if newStatus == "Sent" {
			return nil
		}
	case "Sent":
		if newStatus == "Accepted" || newStatus == "Declined" {
			return nil
		}
	}
	return fmt.Errorf("invalid quote status transition %s -> %s", oldStatus, newStatus)
}

func (e Engine) SetQuoteStatus(ctx context.Context, id, status, actorID string, force bool) (domain.Quote, error) {
	q, err := e.Repo.GetQuote(ctx, id)
	if err != nil {
		return q, err
	}
	if err := ensureQuoteTransition(q.Status, status, force); err != nil {
		return q, err
	}
	var sentAt *string
	if status == "Sent" {
		now := e.nowString()
		sentAt = &now
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return q, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateQuoteStatusTx(ctx, tx, id, status, sentAt); err != nil {
		return q, err
	}
	if err := e.Events.Append(ctx, tx, "quote.updated", q.ProjectID, "quote", q.ID, actorID, events.EventPayload{
		"from_status": q.Status, "to_status": status,
	}); err != nil {
		return q, err
	}
	if err := tx.Commit(); err != nil {
		return q, err
	}
	q.Status = status
	if sentAt != nil {
		q.SentAt = sentAt
	}
	return q, nil
}

// --- invoices ---

func (e Engine) CreateInvoice(ctx context.Context, inv domain.Invoice, actorID string) (domain.Invoice, error) {
	if inv.ProjectID == "" {
		return inv, errors.New("project is required")
	}
	if _, err := e.Repo.GetProject(ctx, inv.ProjectID); err != nil {
		return inv, err
	}
	if inv.ID == "" {
		inv.ID = newID()
	}
	if inv.Status == "" {
		inv.Status = "DRAFT"
	}
	inv.CreatedAt = e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return inv, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertInvoiceTx(ctx, tx, inv); err != nil {
		return inv, fmt.Errorf("insert invoice: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "invoice.created", inv.ProjectID, "invoice", inv.ID, actorID, events.EventPayload{"status": inv.Status}); err != nil {
		return inv, err
	}
	if err := tx.Commit(); err != nil {
		return inv, err
	}
	return inv, nil
}

// RecordInvoicePayment applies a payment to an invoice and mirrors it onto
// the project's payment list. A fully paid invoice flips to PAID.
func (e Engine) RecordInvoicePayment(ctx context.Context, invoiceID, paymentName string, amount float64, actorID string) (domain.Invoice, error) {
	if amount <= 0 {
		return domain.Invoice{}, errors.New("amount must be positive")
	}
	inv, err := e.Repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return inv, err
	}
	inv.AmountPaid += amount
	if inv.Total > 0 && inv.AmountPaid >= inv.Total {
		inv.Status = "PAID"
	}
	if paymentName == "" {
		paymentName = "Payment"
	}
	now := e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return inv, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateInvoiceTx(ctx, tx, inv); err != nil {
		return inv, err
	}
	if err := e.Repo.InsertPaymentTx(ctx, tx, domain.Payment{
		ID:            newID(),
		ProjectID:     inv.ProjectID,
		PaymentName:   paymentName,
		PaymentStatus: "Paid",
		Amount:        amount,
		CreatedAt:     now,
	}); err != nil {
		return inv, fmt.Errorf("insert payment: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "invoice.paid", inv.ProjectID, "invoice", inv.ID, actorID, events.EventPayload{
		"amount": amount, "amount_paid": inv.AmountPaid, "status": inv.Status,
	}); err != nil {
		return inv, err
	}
	if err := tx.Commit(); err != nil {
		return inv, err
	}
	return inv, nil
}

// --- jobs ---

// JobCreateOptions are parameters for scheduling a field visit.
type JobCreateOptions struct {
	ID            string
	ProjectID     string
	JobTypeName   string
	ScheduledDate string
	Assignee      string
	ActorID       string
}

func (e Engine) CreateJob(ctx context.Context, opts JobCreateOptions) (domain.Job, error) {
	if opts.ProjectID == "" {
		return domain.Job{}, errors.New("project is required")
	}
	if opts.JobTypeName == "" {
		return domain.Job{}, errors.New("job type is required")
	}
	if e.Config != nil && !e.Config.KnowsJobType(opts.JobTypeName) {
		return domain.Job{}, fmt.Errorf("job type %q not in catalog", opts.JobTypeName)
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.Job{}, err
	}
	id := opts.ID
	if id == "" {
		id = newID()
	}
	j := domain.Job{
		ID:          id,
		ProjectID:   opts.ProjectID,
		JobTypeName: opts.JobTypeName,
		Status:      "Open",
		CreatedAt:   e.nowString(),
	}
	if opts.ScheduledDate != "" {
		j.ScheduledDate = &opts.ScheduledDate
		j.Status = "Scheduled"
	}
	if opts.Assignee != "" {
		j.Assignee = &opts.Assignee
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return j, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertJobTx(ctx, tx, j); err != nil {
		return j, fmt.Errorf("insert job: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "job.created", j.ProjectID, "job", j.ID, opts.ActorID, events.EventPayload{
		"job_type": j.JobTypeName, "status": j.Status,
	}); err != nil {
		return j, err
	}
	if err := tx.Commit(); err != nil {
		return j, err
	}
	return j, nil
}

func ensureJobTransition(oldStatus, newStatus string, force bool) error {
	if force {
		return nil
	}
	switch oldStatus {
	case "Open":
		if newStatus == "Scheduled" || newStatus == "Cancelled" {
			return nil
		}
	case "Scheduled":
		if newStatus == "Completed" || newStatus == "Cancelled" || newStatus == "Open" {
			return nil
		}
	}
	return fmt.Errorf("invalid job status transition %s -> %s", oldStatus, newStatus)
}

// SetJobStatus moves a visit through its lifecycle; scheduling requires a
// date.
func (e Engine) SetJobStatus(ctx context.Context, id, status, scheduledDate, actorID string, force bool) (domain.Job, error) {
	j, err := e.Repo.GetJob(ctx, id)
	if err != nil {
		return j, err
	}
	if err := ensureJobTransition(j.Status, status, force); err != nil {
		return j, err
	}
	if status == "Scheduled" && scheduledDate == "" && j.ScheduledDate == nil {
		return j, errors.New("scheduled date required")
	}
	from := j.Status
	j.Status = status
	if scheduledDate != "" {
		j.ScheduledDate = &scheduledDate
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return j, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateJobTx(ctx, tx, j); err != nil {
		return j, err
	}
	if err := e.Events.Append(ctx, tx, "job.updated", j.ProjectID, "job", j.ID, actorID, events.EventPayload{
		"from_status": from, "to_status": status,
	}); err != nil {
		return j, err
	}
	if err := tx.Commit(); err != nil {
		return j, err
	}
	return j, nil
}

// CompleteJob marks a visit done and records the field summary.
func (e Engine) CompleteJob(ctx context.Context, id, outcomeSummary, actorID string, force bool) (domain.Job, error) {
	j, err := e.Repo.GetJob(ctx, id)
	if err != nil {
		return j, err
	}
	if err := ensureJobTransition(j.Status, "Completed", force); err != nil {
		return j, err
	}
	from := j.Status
	j.Status = "Completed"
	j.OutcomeSummary = outcomeSummary
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return j, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateJobTx(ctx, tx, j); err != nil {
		return j, err
	}
	if err := e.Events.Append(ctx, tx, "job.completed", j.ProjectID, "job", j.ID, actorID, events.EventPayload{
		"from_status": from, "outcome_summary": outcomeSummary,
	}); err != nil {
		return j, err
	}
	if err := tx.Commit(); err != nil {
		return j, err
	}
	return j, nil
}

// --- parts ---

func (e Engine) CreatePart(ctx context.Context, p domain.Part, actorID string) (domain.Part, error) {
	if p.ProjectID == "" {
		return p, errors.New("project is required")
	}
	if p.Name == "" {
		return p, errors.New("name is required")
	}
	if _, err := e.Repo.GetProject(ctx, p.ProjectID); err != nil {
		return p, err
	}
	if p.PurchaseOrderID != nil {
		if _, err := e.Repo.GetPurchaseOrder(ctx, *p.PurchaseOrderID); err != nil {
			return p, fmt.Errorf("purchase order %s: %w", *p.PurchaseOrderID, err)
		}
	}
	if p.ID == "" {
		p.ID = newID()
	}
	p.CreatedAt = e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertPartTx(ctx, tx, p); err != nil {
		return p, fmt.Errorf("insert part: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "part.created", p.ProjectID, "part", p.ID, actorID, events.EventPayload{"name": p.Name, "status": p.Status}); err != nil {
		return p, err
	}
	if err := tx.Commit(); err != nil {
		return p, err
	}
	return p, nil
}

func (e Engine) SetPartStatus(ctx context.Context, id, status, actorID string) (domain.Part, error) {
	p, err := e.Repo.GetPart(ctx, id)
	if err != nil {
		return p, err
	}
	from := p.Status
	p.Status = status
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdatePartTx(ctx, tx, p); err != nil {
		return p, err
	}
	if err := e.Events.Append(ctx, tx, "part.updated", p.ProjectID, "part", p.ID, actorID, events.EventPayload{
		"from_status": from, "to_status": status,
	}); err != nil {
		return p, err
	}
	if err := tx.Commit(); err != nil {
		return p, err
	}
	return p, nil
}

// ReceivePart records delivered quantity against a part.
func (e Engine) ReceivePart(ctx context.Context, id string, qty int, actorID string) (domain.Part, error) {
	if qty <= 0 {
		return domain.Part{}, errors.New("quantity must be positive")
	}
	p, err := e.Repo.GetPart(ctx, id)
	if err != nil {
		return p, err
	}
	total := qty
	if p.ReceivedQty != nil {
		total += *p.ReceivedQty
	}
	p.ReceivedQty = &total
	p.Status = "received"
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdatePartTx(ctx, tx, p); err != nil {
		return p, err
	}
	if err := e.Events.Append(ctx, tx, "part.received", p.ProjectID, "part", p.ID, actorID, events.EventPayload{"received_qty": total}); err != nil {
		return p, err
	}
	if err := tx.Commit(); err != nil {
		return p, err
	}
	return p, nil
}

// --- purchase orders ---

func (e Engine) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, actorID string) (domain.PurchaseOrder, error) {
	if po.ProjectID == "" {
		return po, errors.New("project is required")
	}
	if _, err := e.Repo.GetProject(ctx, po.ProjectID); err != nil {
		return po, err
	}
	if po.ID == "" {
		po.ID = newID()
	}
	if po.Status == "" {
		po.Status = "ordered"
	}
	po.CreatedAt = e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return po, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertPurchaseOrderTx(ctx, tx, po); err != nil {
		return po, fmt.Errorf("insert purchase order: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "po.created", po.ProjectID, "purchase_order", po.ID, actorID, events.EventPayload{
		"po_number": po.PONumber, "supplier": po.SupplierName,
	}); err != nil {
		return po, err
	}
	if err := tx.Commit(); err != nil {
		return po, err
	}
	return po, nil
}

func (e Engine) SetPurchaseOrderStatus(ctx context.Context, id, status, actorID string) (domain.PurchaseOrder, error) {
	po, err := e.Repo.GetPurchaseOrder(ctx, id)
	if err != nil {
		return po, err
	}
	from := po.Status
	po.Status = status
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return po, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdatePurchaseOrderTx(ctx, tx, po); err != nil {
		return po, err
	}
	if err := e.Events.Append(ctx, tx, "po.updated", po.ProjectID, "purchase_order", po.ID, actorID, events.EventPayload{
		"from_status": from, "to_status": status,
	}); err != nil {
		return po, err
	}
	if err := tx.Commit(); err != nil {
		return po, err
	}
	return po, nil
}

// --- communications ---

// RecordEmail stores one message on the project thread. sent_at defaults to
// the engine clock for outbound mail.
func (e Engine) RecordEmail(ctx context.Context, em domain.Email, actorID string) (domain.Email, error) {
	if em.ProjectID == "" {
		return em, errors.New("project is required")
	}
	if _, err := e.Repo.GetProject(ctx, em.ProjectID); err != nil {
		return em, err
	}
	if em.ID == "" {
		em.ID = newID()
	}
	em.CreatedAt = e.nowString()
	if em.IsOutbound && em.SentAt == nil {
		now := e.nowString()
		em.SentAt = &now
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return em, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertEmailTx(ctx, tx, em); err != nil {
		return em, fmt.Errorf("insert email: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "email.recorded", em.ProjectID, "email", em.ID, actorID, events.EventPayload{
		"is_outbound": em.IsOutbound, "subject": em.Subject,
	}); err != nil {
		return em, err
	}
	if err := tx.Commit(); err != nil {
		return em, err
	}
	return em, nil
}

var validLogMethods = map[string]bool{"phone": true, "sms": true, "in_person": true}

// RecordManualLog stores a non-email client contact; it counts as a reply
// for response-latency purposes.
func (e Engine) RecordManualLog(ctx context.Context, l domain.ManualLog, actorID string) (domain.ManualLog, error) {
	if l.ProjectID == "" {
		return l, errors.New("project is required")
	}
	if l.Method != "" && !validLogMethods[l.Method] {
		return l, fmt.Errorf("unknown contact method %q", l.Method)
	}
	if _, err := e.Repo.GetProject(ctx, l.ProjectID); err != nil {
		return l, err
	}
	if l.ID == "" {
		l.ID = newID()
	}
	if l.ActorID == "" {
		l.ActorID = actorID
	}
	l.CreatedAt = e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return l, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertManualLogTx(ctx, tx, l); err != nil {
		return l, fmt.Errorf("insert manual log: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "contact.logged", l.ProjectID, "manual_log", l.ID, actorID, events.EventPayload{"method": l.Method}); err != nil {
		return l, err
	}
	if err := tx.Commit(); err != nil {
		return l, err
	}
	return l, nil
}

// --- trade requirements ---

func (e Engine) AddTradeRequirement(ctx context.Context, tr domain.TradeRequirement, actorID string) (domain.TradeRequirement, error) {
	if tr.ProjectID == "" {
		return tr, errors.New("project is required")
	}
	if tr.Trade == "" {
		return tr, errors.New("trade is required")
	}
	if e.Config != nil && !e.Config.KnowsTrade(tr.Trade) {
		return tr, fmt.Errorf("trade %q not in catalog", tr.Trade)
	}
	if _, err := e.Repo.GetProject(ctx, tr.ProjectID); err != nil {
		return tr, err
	}
	if tr.ID == "" {
		tr.ID = newID()
	}
	tr.CreatedAt = e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return tr, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTradeRequirementTx(ctx, tx, tr); err != nil {
		return tr, fmt.Errorf("insert trade requirement: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "trade.required", tr.ProjectID, "trade_requirement", tr.ID, actorID, events.EventPayload{
		"trade": tr.Trade, "is_required": tr.IsRequired,
	}); err != nil {
		return tr, err
	}
	if err := tx.Commit(); err != nil {
		return tr, err
	}
	return tr, nil
}

// BookTrade marks a required trade as booked for a date.
func (e Engine) BookTrade(ctx context.Context, id, bookedDate, actorID string) (domain.TradeRequirement, error) {
	tr, err := e.Repo.GetTradeRequirement(ctx, id)
	if err != nil {
		return tr, err
	}
	tr.IsBooked = true
	if bookedDate != "" {
		tr.BookedDate = &bookedDate
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return tr, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTradeRequirementTx(ctx, tx, tr); err != nil {
		return tr, err
	}
	if err := e.Events.Append(ctx, tx, "trade.booked", tr.ProjectID, "trade_requirement", tr.ID, actorID, events.EventPayload{"trade": tr.Trade}); err != nil {
		return tr, err
	}
	if err := tx.Commit(); err != nil {
		return tr, err
	}
	return tr, nil
}

// appendEvent wraps a standalone event append in its own transaction.
func (e Engine) appendEvent(ctx context.Context, evtType, projectID, entityKind, entityID, actorID string, payload events.EventPayload) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, evtType, projectID, entityKind, entityID, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}
