package repo

import (
	"context"
	"database/sql"

	"doorline/internal/domain"
)

// --- quotes ---

func (r Repo) InsertQuoteTx(ctx context.Context, tx *sql.Tx, q domain.Quote) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO quotes(id,project_id,status,total,sent_at,created_at) VALUES (?,?,?,?,?,?)`,
		q.ID, q.ProjectID, q.Status, q.Total, nullableStr(q.SentAt), q.CreatedAt)
	return err
}

func (r Repo) GetQuote(ctx context.Context, id string) (domain.Quote, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,project_id,status,COALESCE(total,0),sent_at,created_at FROM quotes WHERE id=?`, id)
	var q domain.Quote
	var sentAt sql.NullString
	err := row.Scan(&q.ID, &q.ProjectID, &q.Status, &q.Total, &sentAt, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return q, ErrNotFound
	}
	q.SentAt = nullStringPtr(sentAt)
	return q, err
}

func (r Repo) ListQuotes(ctx context.Context, projectID string) ([]domain.Quote, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,status,COALESCE(total,0),sent_at,created_at FROM quotes WHERE project_id=? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Quote
	for rows.Next() {
		var q domain.Quote
		var sentAt sql.NullString
		if err := rows.Scan(&q.ID, &q.ProjectID, &q.Status, &q.Total, &sentAt, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.SentAt = nullStringPtr(sentAt)
		res = append(res, q)
	}
	return res, rows.Err()
}

func (r Repo) UpdateQuoteStatusTx(ctx context.Context, tx *sql.Tx, id, status string, sentAt *string) error {
	res, err := tx.ExecContext(ctx, `UPDATE quotes SET status=?, sent_at=COALESCE(?,sent_at) WHERE id=?`, status, nullableStr(sentAt), id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- invoices ---

func (r Repo) InsertInvoiceTx(ctx context.Context, tx *sql.Tx, inv domain.Invoice) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO invoices(id,project_id,status,due_date,total,amount_paid,created_at) VALUES (?,?,?,?,?,?,?)`,
		inv.ID, inv.ProjectID, inv.Status, nullableStr(inv.DueDate), inv.Total, inv.AmountPaid, inv.CreatedAt)
	return err
}

func (r Repo) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,project_id,status,due_date,COALESCE(total,0),amount_paid,created_at FROM invoices WHERE id=?`, id)
	var inv domain.Invoice
	var due sql.NullString
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Status, &due, &inv.Total, &inv.AmountPaid, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return inv, ErrNotFound
	}
	inv.DueDate = nullStringPtr(due)
	return inv, err
}

func (r Repo) ListInvoices(ctx context.Context, projectID string) ([]domain.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,status,due_date,COALESCE(total,0),amount_paid,created_at FROM invoices WHERE project_id=? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		var due sql.NullString
		if err := rows.Scan(&inv.ID, &inv.ProjectID, &inv.Status, &due, &inv.Total, &inv.AmountPaid, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.DueDate = nullStringPtr(due)
		res = append(res, inv)
	}
	return res, rows.Err()
}

func (r Repo) UpdateInvoiceTx(ctx context.Context, tx *sql.Tx, inv domain.Invoice) error {
	res, err := tx.ExecContext(ctx, `UPDATE invoices SET status=?, due_date=?, total=?, amount_paid=? WHERE id=?`,
		inv.Status, nullableStr(inv.DueDate), inv.Total, inv.AmountPaid, inv.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- jobs ---

func (r Repo) InsertJobTx(ctx context.Context, tx *sql.Tx, j domain.Job) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO jobs(id,project_id,job_type,job_type_name,scheduled_date,status,assignee,outcome_summary,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		j.ID, j.ProjectID, nullable(j.JobType), nullable(j.JobTypeName), nullableStr(j.ScheduledDate), j.Status, nullableStr(j.Assignee), nullable(j.OutcomeSummary), j.CreatedAt)
	return err
}

func scanJob(scan func(...any) error) (domain.Job, error) {
	var j domain.Job
	var sched, assignee sql.NullString
	err := scan(&j.ID, &j.ProjectID, &j.JobType, &j.JobTypeName, &sched, &j.Status, &assignee, &j.OutcomeSummary, &j.CreatedAt)
	if err != nil {
		return j, err
	}
	j.ScheduledDate = nullStringPtr(sched)
	j.Assignee = nullStringPtr(assignee)
	return j, nil
}

const jobColumns = `id,project_id,COALESCE(job_type,''),COALESCE(job_type_name,''),scheduled_date,status,assignee,COALESCE(outcome_summary,''),created_at`

func (r Repo) GetJob(ctx context.Context, id string) (domain.Job, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=?`, id)
	j, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return j, ErrNotFound
	}
	return j, err
}

func (r Repo) ListJobs(ctx context.Context, projectID string) ([]domain.Job, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE project_id=? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

func (r Repo) UpdateJobTx(ctx context.Context, tx *sql.Tx, j domain.Job) error {
	res, err := tx.ExecContext(ctx, `UPDATE jobs SET job_type=?, job_type_name=?, scheduled_date=?, status=?, assignee=?, outcome_summary=? WHERE id=?`,
		nullable(j.JobType), nullable(j.JobTypeName), nullableStr(j.ScheduledDate), j.Status, nullableStr(j.Assignee), nullable(j.OutcomeSummary), j.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- parts ---

func (r Repo) InsertPartTx(ctx context.Context, tx *sql.Tx, p domain.Part) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO parts(id,project_id,name,status,purchase_order_id,quantity,received_qty,quantity_received,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.ProjectID, p.Name, nullable(p.Status), nullableStr(p.PurchaseOrderID), p.Quantity, p.ReceivedQty, p.QuantityReceived, p.CreatedAt)
	return err
}

func scanPart(scan func(...any) error) (domain.Part, error) {
	var p domain.Part
	var poID sql.NullString
	var recv, qtyRecv sql.NullInt64
	err := scan(&p.ID, &p.ProjectID, &p.Name, &p.Status, &poID, &p.Quantity, &recv, &qtyRecv, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	p.PurchaseOrderID = nullStringPtr(poID)
	if recv.Valid {
		v := int(recv.Int64)
		p.ReceivedQty = &v
	}
	if qtyRecv.Valid {
		v := int(qtyRecv.Int64)
		p.QuantityReceived = &v
	}
	return p, nil
}

const partColumns = `id,project_id,name,COALESCE(status,''),purchase_order_id,COALESCE(quantity,0),received_qty,quantity_received,created_at`

func (r Repo) GetPart(ctx context.Context, id string) (domain.Part, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE id=?`, id)
	p, err := scanPart(row.Scan)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) ListParts(ctx context.Context, projectID string) ([]domain.Part, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+partColumns+` FROM parts WHERE project_id=? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Part
	for rows.Next() {
		p, err := scanPart(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) UpdatePartTx(ctx context.Context, tx *sql.Tx, p domain.Part) error {
	res, err := tx.ExecContext(ctx, `UPDATE parts SET name=?, status=?, purchase_order_id=?, quantity=?, received_qty=?, quantity_received=? WHERE id=?`,
		p.Name, nullable(p.Status), nullableStr(p.PurchaseOrderID), p.Quantity, p.ReceivedQty, p.QuantityReceived, p.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- purchase orders ---

func (r Repo) InsertPurchaseOrderTx(ctx context.Context, tx *sql.Tx, po domain.PurchaseOrder) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO purchase_orders(id,project_id,po_number,supplier_name,status,eta_date,created_at) VALUES (?,?,?,?,?,?,?)`,
		po.ID, po.ProjectID, nullable(po.PONumber), nullable(po.SupplierName), nullable(po.Status), nullableStr(po.ETADate), po.CreatedAt)
	return err
}

func (r Repo) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,project_id,COALESCE(po_number,''),COALESCE(supplier_name,''),COALESCE(status,''),eta_date,created_at FROM purchase_orders WHERE id=?`, id)
	var po domain.PurchaseOrder
	var eta sql.NullString
	err := row.Scan(&po.ID, &po.ProjectID, &po.PONumber, &po.SupplierName, &po.Status, &eta, &po.CreatedAt)
	if err == sql.ErrNoRows {
		return po, ErrNotFound
	}
	po.ETADate = nullStringPtr(eta)
	return po, err
}

func (r Repo) ListPurchaseOrders(ctx context.Context, projectID string) ([]domain.PurchaseOrder, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,COALESCE(po_number,''),COALESCE(supplier_name,''),COALESCE(status,''),eta_date,created_at FROM purchase_orders WHERE project_id=? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.PurchaseOrder
	for rows.Next() {
		var po domain.PurchaseOrder
		var eta sql.NullString
		if err := rows.Scan(&po.ID, &po.ProjectID, &po.PONumber, &po.SupplierName, &po.Status, &eta, &po.CreatedAt); err != nil {
			return nil, err
		}
		po.ETADate = nullStringPtr(eta)
		res = append(res, po)
	}
	return res, rows.Err()
}

func (r Repo) UpdatePurchaseOrderTx(ctx context.Context, tx *sql.Tx, po domain.PurchaseOrder) error {
	res, err := tx.ExecContext(ctx, `UPDATE purchase_orders SET po_number=?, supplier_name=?, status=?, eta_date=? WHERE id=?`,
		nullable(po.PONumber), nullable(po.SupplierName), nullable(po.Status), nullableStr(po.ETADate), po.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- emails ---

func (r Repo) InsertEmailTx(ctx context.Context, tx *sql.Tx, e domain.Email) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO emails(id,project_id,is_outbound,subject,body_text,content,from_address,to_address,sent_at,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.ProjectID, boolInt(e.IsOutbound), nullable(e.Subject), nullable(e.BodyText), nullable(e.Content), nullable(e.FromAddress), nullable(e.ToAddress), nullableStr(e.SentAt), e.CreatedAt)
	return err
}

func (r Repo) ListEmails(ctx context.Context, projectID string) ([]domain.Email, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,is_outbound,COALESCE(subject,''),COALESCE(body_text,''),COALESCE(content,''),COALESCE(from_address,''),COALESCE(to_address,''),sent_at,created_at FROM emails WHERE project_id=? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Email
	for rows.Next() {
		var e domain.Email
		var outbound int
		var sentAt sql.NullString
		if err := rows.Scan(&e.ID, &e.ProjectID, &outbound, &e.Subject, &e.BodyText, &e.Content, &e.FromAddress, &e.ToAddress, &sentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.IsOutbound = outbound != 0
		e.SentAt = nullStringPtr(sentAt)
		res = append(res, e)
	}
	return res, rows.Err()
}

// --- manual logs ---

func (r Repo) InsertManualLogTx(ctx context.Context, tx *sql.Tx, l domain.ManualLog) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO manual_logs(id,project_id,method,summary,actor_id,created_date,created_at) VALUES (?,?,?,?,?,?,?)`,
		l.ID, l.ProjectID, nullable(l.Method), nullable(l.Summary), nullable(l.ActorID), nullableStr(l.CreatedDate), l.CreatedAt)
	return err
}

func (r Repo) ListManualLogs(ctx context.Context, projectID string) ([]domain.ManualLog, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,COALESCE(method,''),COALESCE(summary,''),COALESCE(actor_id,''),created_date,created_at FROM manual_logs WHERE project_id=? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ManualLog
	for rows.Next() {
		var l domain.ManualLog
		var createdDate sql.NullString
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Method, &l.Summary, &l.ActorID, &createdDate, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.CreatedDate = nullStringPtr(createdDate)
		res = append(res, l)
	}
	return res, rows.Err()
}

// --- trade requirements ---

func (r Repo) InsertTradeRequirementTx(ctx context.Context, tx *sql.Tx, tr domain.TradeRequirement) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO trade_requirements(id,project_id,trade,is_required,is_booked,booked_date,notes,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		tr.ID, tr.ProjectID, tr.Trade, boolInt(tr.IsRequired), boolInt(tr.IsBooked), nullableStr(tr.BookedDate), nullable(tr.Notes), tr.CreatedAt)
	return err
}

func (r Repo) GetTradeRequirement(ctx context.Context, id string) (domain.TradeRequirement, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,project_id,trade,is_required,is_booked,booked_date,COALESCE(notes,''),created_at FROM trade_requirements WHERE id=?`, id)
	var tr domain.TradeRequirement
	var required, booked int
	var bookedDate sql.NullString
	err := row.Scan(&tr.ID, &tr.ProjectID, &tr.Trade, &required, &booked, &bookedDate, &tr.Notes, &tr.CreatedAt)
	if err == sql.ErrNoRows {
		return tr, ErrNotFound
	}
	tr.IsRequired = required != 0
	tr.IsBooked = booked != 0
	tr.BookedDate = nullStringPtr(bookedDate)
	return tr, err
}

func (r Repo) ListTradeRequirements(ctx context.Context, projectID string) ([]domain.TradeRequirement, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,trade,is_required,is_booked,booked_date,COALESCE(notes,''),created_at FROM trade_requirements WHERE project_id=? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.TradeRequirement
	for rows.Next() {
		var tr domain.TradeRequirement
		var required, booked int
		var bookedDate sql.NullString
		if err := rows.Scan(&tr.ID, &tr.ProjectID, &tr.Trade, &required, &booked, &bookedDate, &tr.Notes, &tr.CreatedAt); err != nil {
			return nil, err
		}
		tr.IsRequired = required != 0
		tr.IsBooked = booked != 0
		tr.BookedDate = nullStringPtr(bookedDate)
		res = append(res, tr)
	}
	return res, rows.Err()
}

func (r Repo) UpdateTradeRequirementTx(ctx context.Context, tx *sql.Tx, tr domain.TradeRequirement) error {
	res, err := tx.ExecContext(ctx, `UPDATE trade_requirements SET trade=?, is_required=?, is_booked=?, booked_date=?, notes=? WHERE id=?`,
		tr.Trade, boolInt(tr.IsRequired), boolInt(tr.IsBooked), nullableStr(tr.BookedDate), nullable(tr.Notes), tr.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
