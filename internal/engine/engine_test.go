package engine_test

import (
	"context"
	"testing"
	"time"

	"doorline/internal/attention"
	"doorline/internal/config"
	"doorline/internal/db"
	"doorline/internal/domain"
	"doorline/internal/engine"
	"doorline/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

var testClock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("proj-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return testClock }
	ctx := context.Background()
	if _, err := eng.CreateProject(ctx, engine.ProjectCreateOptions{
		ID:          "proj-1",
		Title:       "Smith garage door",
		ProjectType: "garage_door_install",
		ActorID:     "tester",
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func iso(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func TestQuoteStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	q, err := env.Engine.CreateQuote(env.Ctx, domain.Quote{ProjectID: "proj-1", Total: 4200}, "tester")
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if q.Status != "Draft" {
		t.Fatalf("expected Draft, got %s", q.Status)
	}
	// Draft -> Accepted skips Sent
	if _, err := env.Engine.SetQuoteStatus(env.Ctx, q.ID, "Accepted", "tester", false); err == nil {
		t.Fatalf("expected transition error")
	}
	q, err = env.Engine.SetQuoteStatus(env.Ctx, q.ID, "Sent", "tester", false)
	if err != nil || q.Status != "Sent" {
		t.Fatalf("to Sent: %v", err)
	}
	if q.SentAt == nil {
		t.Fatalf("expected sent_at stamp")
	}
	q, err = env.Engine.SetQuoteStatus(env.Ctx, q.ID, "Accepted", "tester", false)
	if err != nil || q.Status != "Accepted" {
		t.Fatalf("to Accepted: %v", err)
	}
	// terminal
	if _, err := env.Engine.SetQuoteStatus(env.Ctx, q.ID, "Declined", "tester", false); err == nil {
		t.Fatalf("expected error on accepted quote")
	}
}

func TestJobStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	j, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{
		ProjectID: "proj-1", JobTypeName: "Site Measure", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if j.Status != "Open" {
		t.Fatalf("expected Open, got %s", j.Status)
	}
	// completing an unscheduled job is not allowed
	if _, err := env.Engine.CompleteJob(env.Ctx, j.ID, "done", "tester", false); err == nil {
		t.Fatalf("expected transition error")
	}
	// scheduling requires a date
	if _, err := env.Engine.SetJobStatus(env.Ctx, j.ID, "Scheduled", "", "tester", false); err == nil {
		t.Fatalf("expected scheduled date error")
	}
	j, err = env.Engine.SetJobStatus(env.Ctx, j.ID, "Scheduled", iso(testClock.Add(48*time.Hour)), "tester", false)
	if err != nil || j.Status != "Scheduled" {
		t.Fatalf("to Scheduled: %v", err)
	}
	j, err = env.Engine.CompleteJob(env.Ctx, j.ID, "installed and tested", "tester", false)
	if err != nil || j.Status != "Completed" {
		t.Fatalf("complete: %v", err)
	}
	if j.OutcomeSummary != "installed and tested" {
		t.Fatalf("missing outcome summary")
	}
}

func TestJobTypeCatalog(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{
		ProjectID: "proj-1", JobTypeName: "Chimney Sweep", ActorID: "tester",
	})
	if err == nil {
		t.Fatalf("expected catalog rejection")
	}
}

func TestInvoicePaymentsMirrorToProject(t *testing.T) {
	env := newTestEnv(t)
	inv, err := env.Engine.CreateInvoice(env.Ctx, domain.Invoice{
		ProjectID: "proj-1", Status: "SENT", Total: 1000,
	}, "tester")
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	inv, err = env.Engine.RecordInvoicePayment(env.Ctx, inv.ID, "Deposit", 300, "tester")
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if inv.Status == "PAID" {
		t.Fatalf("should not be paid at 300/1000")
	}
	inv, err = env.Engine.RecordInvoicePayment(env.Ctx, inv.ID, "Final", 700, "tester")
	if err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if inv.Status != "PAID" || inv.AmountPaid != 1000 {
		t.Fatalf("expected PAID/1000, got %s/%v", inv.Status, inv.AmountPaid)
	}
	p, err := env.Engine.Repo.GetProject(env.Ctx, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Payments) != 2 {
		t.Fatalf("expected 2 mirrored payments, got %d", len(p.Payments))
	}
}

func TestReceivePartAccumulates(t *testing.T) {
	env := newTestEnv(t)
	part, err := env.Engine.CreatePart(env.Ctx, domain.Part{
		ProjectID: "proj-1", Name: "Panel lift door 2540x5500", Status: "ordered",
	}, "tester")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part, err = env.Engine.ReceivePart(env.Ctx, part.ID, 2, "tester")
	if err != nil {
		t.Fatal(err)
	}
	part, err = env.Engine.ReceivePart(env.Ctx, part.ID, 3, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if part.ReceivedQty == nil || *part.ReceivedQty != 5 {
		t.Fatalf("expected received qty 5")
	}
	if part.Status != "received" {
		t.Fatalf("expected received status, got %s", part.Status)
	}
}

func TestTradeBooking(t *testing.T) {
	env := newTestEnv(t)
	tr, err := env.Engine.AddTradeRequirement(env.Ctx, domain.TradeRequirement{
		ProjectID: "proj-1", Trade: "electrician", IsRequired: true,
	}, "tester")
	if err != nil {
		t.Fatalf("add trade: %v", err)
	}
	if tr.IsBooked {
		t.Fatalf("new requirement should be unbooked")
	}
	tr, err = env.Engine.BookTrade(env.Ctx, tr.ID, iso(testClock.Add(72*time.Hour)), "tester")
	if err != nil || !tr.IsBooked {
		t.Fatalf("book trade: %v", err)
	}
	// unknown trade is rejected by the catalog
	if _, err := env.Engine.AddTradeRequirement(env.Ctx, domain.TradeRequirement{
		ProjectID: "proj-1", Trade: "astrologer", IsRequired: true,
	}, "tester"); err == nil {
		t.Fatalf("expected catalog rejection")
	}
}

func TestOutboundEmailGetsSentAt(t *testing.T) {
	env := newTestEnv(t)
	em, err := env.Engine.RecordEmail(env.Ctx, domain.Email{
		ProjectID: "proj-1", Subject: "Quote attached", IsOutbound: true,
	}, "tester")
	if err != nil {
		t.Fatalf("record email: %v", err)
	}
	if em.SentAt == nil || *em.SentAt != iso(testClock) {
		t.Fatalf("expected sent_at from engine clock")
	}
}

func TestManualLogMethodValidation(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.RecordManualLog(env.Ctx, domain.ManualLog{
		ProjectID: "proj-1", Method: "carrier_pigeon",
	}, "tester"); err == nil {
		t.Fatalf("expected method rejection")
	}
	l, err := env.Engine.RecordManualLog(env.Ctx, domain.ManualLog{
		ProjectID: "proj-1", Method: "phone", Summary: "Confirmed access arrangements",
	}, "tester")
	if err != nil {
		t.Fatalf("record log: %v", err)
	}
	if l.ActorID != "tester" {
		t.Fatalf("expected actor id fallback")
	}
}

func TestAttentionEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	// overdue invoice
	due := iso(testClock.Add(-10 * 24 * time.Hour))
	if _, err := env.Engine.CreateInvoice(env.Ctx, domain.Invoice{
		ProjectID: "proj-1", Status: "SENT", Total: 900, DueDate: &due,
	}, "tester"); err != nil {
		t.Fatal(err)
	}
	// unconfirmed client with install job in 3h
	if _, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{
		ProjectID:     "proj-1",
		JobTypeName:   "Garage Door Install",
		ScheduledDate: iso(testClock.Add(3 * time.Hour)),
		ActorID:       "tester",
	}); err != nil {
		t.Fatal(err)
	}
	items, err := env.Engine.Attention(env.Ctx, "proj-1")
	if err != nil {
		t.Fatalf("attention: %v", err)
	}
	var sawConfirm, sawInvoice bool
	for _, it := range items {
		switch it.ReasonCode {
		case attention.ReasonClientNotConfirmedUpcomingJob:
			sawConfirm = true
		case attention.ReasonInvoiceOverdue:
			sawInvoice = true
		}
	}
	if !sawConfirm || !sawInvoice {
		t.Fatalf("expected confirmation and invoice items, got %+v", items)
	}
	if items[0].ReasonCode != attention.ReasonClientNotConfirmedUpcomingJob {
		t.Fatalf("critical item should sort first")
	}
	// confirming the client clears the critical item
	if _, err := env.Engine.ConfirmClient(env.Ctx, "proj-1", "tester"); err != nil {
		t.Fatal(err)
	}
	items, err = env.Engine.Attention(env.Ctx, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.ReasonCode == attention.ReasonClientNotConfirmedUpcomingJob {
			t.Fatalf("confirmation item should be gone")
		}
	}
}

func TestEventAppendOnStateChanges(t *testing.T) {
	env := newTestEnv(t)
	q, err := env.Engine.CreateQuote(env.Ctx, domain.Quote{ProjectID: "proj-1", Total: 100}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SetQuoteStatus(env.Ctx, q.ID, "Sent", "tester", false); err != nil {
		t.Fatal(err)
	}
	rows, err := env.Engine.DB.QueryContext(env.Ctx, `SELECT type FROM events WHERE entity_id=?`, q.ID)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		count++
	}
	if count < 2 {
		t.Fatalf("expected create and update events, got %d", count)
	}
}
