package attention

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"doorline/internal/domain"
)

func intPtr(v int) *int { return &v }

func fPtr(v float64) *float64 { return &v }

func isoAt(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func daysAgo(d int) string { return isoAt(testNow.AddDate(0, 0, -d)) }

func hoursAhead(h int) string { return isoAt(testNow.Add(time.Duration(h) * time.Hour)) }
func baseProject() *domain.Project {
	return &domain.Project{
		ID:              "prj-1",
		ClientID:        "cl-1",
		Title:           "Smith residence",
		ProjectType:     "repair",
		Status:          "in_progress",
		ClientConfirmed: true,
	}
}

func findReason(items []Item, code ReasonCode) *Item {
	for i := range items {
		if items[i].ReasonCode == code {
			return &items[i]
		}
	}
	return nil
}

func TestComputeNilProject(t *testing.T) {
	out := Compute(Snapshot{}, testNow)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty result, got %#v", out)
	}
}

func TestComputeDeterministic(t *testing.T) {
	p := baseProject()
	p.ClientConfirmed = false
	p.ProjectType = "garage_door_install"
	due := daysAgo(10)
	sched := hoursAhead(3)
	past := daysAgo(4)
	snap := Snapshot{
		Project:  p,
		Quotes:   []domain.Quote{{ID: "q1", Status: "Accepted"}},
		Invoices: []domain.Invoice{{ID: "inv1", Status: "AUTHORISED", DueDate: &due}},
		Jobs: []domain.Job{
			{ID: "j1", JobTypeName: "Garage Door Install", ScheduledDate: &sched, Status: "Scheduled"},
			{ID: "j2", JobTypeName: "Site Measure", ScheduledDate: &past, Status: "Open"},
		},
		Parts:  []domain.Part{{ID: "pt1", Name: "Motor", Status: "ordered"}},
		Emails: []domain.Email{{ID: "e1", BodyText: "still waiting, please explain", SentAt: &past}},
		TradeRequirements: []domain.TradeRequirement{
			{ID: "tr1", Trade: "electrician", IsRequired: true},
		},
	}
	a := Compute(snap, testNow)
	b := Compute(snap, testNow)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same snapshot produced different results:\n%v\n%v", a, b)
	}
	if len(a) > maxItems {
		t.Fatalf("cap violated: %d items", len(a))
	}
	seen := map[ReasonCode]bool{}
	for _, it := range a {
		if seen[it.ReasonCode] {
			t.Fatalf("duplicate reason %s in output", it.ReasonCode)
		}
		seen[it.ReasonCode] = true
	}
	for i := 1; i < len(a); i++ {
		pr, cur := priorityRank(a[i-1].Priority), priorityRank(a[i].Priority)
		if pr > cur {
			t.Fatalf("priority order violated at %d: %v", i, a)
		}
		if pr == cur && a[i-1].SortWeight < a[i].SortWeight {
			t.Fatalf("sort weight order violated at %d: %v", i, a)
		}
	}
}

func TestClientNotConfirmedImminentJob(t *testing.T) {
	p := baseProject()
	p.ClientConfirmed = false
	sched := hoursAhead(3)
	snap := Snapshot{
		Project: p,
		Jobs:    []domain.Job{{ID: "j1", ScheduledDate: &sched, Status: "Scheduled"}},
	}
	out := Compute(snap, testNow)
	if len(out) != 1 {
		t.Fatalf("expected exactly one item, got %d: %v", len(out), out)
	}
	it := out[0]
	if it.ReasonCode != ReasonClientNotConfirmedUpcomingJob || it.Priority != PriorityCritical {
		t.Fatalf("unexpected item %+v", it)
	}
	if !strings.Contains(it.Message, "3h") {
		t.Fatalf("message should carry the countdown, got %q", it.Message)
	}
}

func TestClientNotConfirmedIgnoresClosedAndDistantJobs(t *testing.T) {
	p := baseProject()
	p.ClientConfirmed = false
	soon := hoursAhead(3)
	distant := hoursAhead(72)
	snap := Snapshot{
		Project: p,
		Jobs: []domain.Job{
			{ID: "j1", ScheduledDate: &soon, Status: "Cancelled"},
			{ID: "j2", ScheduledDate: &distant, Status: "Scheduled"},
		},
	}
	if it := findReason(Compute(snap, testNow), ReasonClientNotConfirmedUpcomingJob); it != nil {
		t.Fatalf("expected no finding, got %+v", it)
	}
}

func TestDepositMissingAfterAcceptedQuote(t *testing.T) {
	snap := Snapshot{
		Project:  baseProject(),
		Quotes:   []domain.Quote{{ID: "q1", Status: "Accepted"}},
		Invoices: []domain.Invoice{{ID: "inv1", Status: "DRAFT", AmountPaid: 0}},
	}
	it := findReason(Compute(snap, testNow), ReasonDepositMissing)
	if it == nil || it.Priority != PriorityHigh || it.Category != CategoryFinance {
		t.Fatalf("expected HIGH finance finding, got %+v", it)
	}
}

func TestDepositSatisfiedByPaymentOrInvoice(t *testing.T) {
	p := baseProject()
	p.Payments = []domain.Payment{{PaymentName: "Initial Deposit", PaymentStatus: "Paid"}}
	snap := Snapshot{Project: p, Quotes: []domain.Quote{{ID: "q1", Status: "accepted"}}}
	if it := findReason(Compute(snap, testNow), ReasonDepositMissing); it != nil {
		t.Fatalf("paid deposit payment should satisfy, got %+v", it)
	}

	snap = Snapshot{
		Project:  baseProject(),
		Quotes:   []domain.Quote{{ID: "q1", Status: "Accepted"}},
		Invoices: []domain.Invoice{{ID: "inv1", Status: "AUTHORISED", AmountPaid: 150}},
	}
	if it := findReason(Compute(snap, testNow), ReasonDepositMissing); it != nil {
		t.Fatalf("paid invoice amount should satisfy, got %+v", it)
	}
}

func TestInvoiceOverdueThreshold(t *testing.T) {
	due10 := daysAgo(10)
	snap := Snapshot{
		Project:  baseProject(),
		Invoices: []domain.Invoice{{ID: "inv1", Status: "AUTHORISED", DueDate: &due10}},
	}
	it := findReason(Compute(snap, testNow), ReasonInvoiceOverdue)
	if it == nil || it.Priority != PriorityHigh || it.SortWeight != 10 {
		t.Fatalf("10 days overdue should be HIGH weight 10, got %+v", it)
	}

	due3 := daysAgo(3)
	snap.Invoices = []domain.Invoice{{ID: "inv1", Status: "AUTHORISED", DueDate: &due3}}
	it = findReason(Compute(snap, testNow), ReasonInvoiceOverdue)
	if it == nil || it.Priority != PriorityMedium || it.SortWeight != 3 {
		t.Fatalf("3 days overdue should be MEDIUM weight 3, got %+v", it)
	}

	snap.Invoices = []domain.Invoice{{ID: "inv1", Status: "PAID", DueDate: &due10}}
	if it := findReason(Compute(snap, testNow), ReasonInvoiceOverdue); it != nil {
		t.Fatalf("paid invoice must not flag, got %+v", it)
	}
}

func TestPartsNotReadyExcludesCancelledAndInstalled(t *testing.T) {
	p := baseProject()
	sched := hoursAhead(30)
	snap := Snapshot{
		Project: p,
		Jobs:    []domain.Job{{ID: "j1", JobTypeName: "Garage Door Install", ScheduledDate: &sched, Status: "Scheduled"}},
		Parts: []domain.Part{
			{ID: "pt1", Name: "Panel", Status: "cancelled"},
			{ID: "pt2", Name: "Track", Status: "Installed"},
		},
	}
	if it := findReason(Compute(snap, testNow), ReasonPartsNotReady); it != nil {
		t.Fatalf("cancelled/installed parts should not count, got %+v", it)
	}

	snap.Parts = append(snap.Parts, domain.Part{ID: "pt3", Name: "Motor", Status: "ordered"})
	it := findReason(Compute(snap, testNow), ReasonPartsNotReady)
	if it == nil || it.Priority != PriorityHigh {
		t.Fatal("ordered part before an install should flag")
	}
	if !strings.Contains(it.Message, "1 part") {
		t.Fatalf("aggregate count expected in message, got %q", it.Message)
	}
}

func TestPartReadinessPOStatusTakesPrecedence(t *testing.T) {
	poID := "po-1"
	orders := []domain.PurchaseOrder{{ID: poID, Status: "In Vehicle"}}
	if !partReady(domain.Part{ID: "pt1", Status: "ordered", PurchaseOrderID: &poID}, orders) {
		t.Fatal("ready PO status should make the part ready")
	}
	orders = []domain.PurchaseOrder{{ID: poID, Status: "ordered"}}
	if partReady(domain.Part{ID: "pt1", Status: "ready", PurchaseOrderID: &poID}, orders) {
		t.Fatal("unready PO status overrides the part's own status")
	}
	if !partReady(domain.Part{ID: "pt2", Status: "in_storage"}, nil) {
		t.Fatal("own ready status should count without a PO")
	}
	if !partReady(domain.Part{ID: "pt3", ReceivedQty: intPtr(2)}, nil) {
		t.Fatal("received quantity should count as ready")
	}
	if !partReady(domain.Part{ID: "pt4", QuantityReceived: intPtr(1)}, nil) {
		t.Fatal("quantity_received fallback should count as ready")
	}
	if partReady(domain.Part{ID: "pt5", Status: "ordered"}, nil) {
		t.Fatal("ordered part with nothing received is not ready")
	}
}

func TestInstallRequirementsCollapseUnderDedup(t *testing.T) {
	p := baseProject()
	p.ProjectType = "garage_door_install"
	out := Compute(Snapshot{Project: p}, testNow)
	count := 0
	for _, it := range out {
		if it.ReasonCode == ReasonInstallRequirementsIncomplete {
			count++
		}
	}
	// Two findings are emitted (dimensions and spec) but share a reason code,
	// so exactly one survives resolution.
	if count != 1 {
		t.Fatalf("expected one surviving requirements item, got %d: %v", count, out)
	}

	p.Doors = []domain.Door{{ID: "d1", Height: fPtr(2.4), Width: fPtr(4.8), DoorType: "sectional"}}
	if it := findReason(Compute(Snapshot{Project: p}, testNow), ReasonInstallRequirementsIncomplete); it != nil {
		t.Fatalf("complete door spec should not flag, got %+v", it)
	}
}

func TestInstallRequirementsSkippedForNonInstall(t *testing.T) {
	p := baseProject()
	p.ProjectType = "maintenance"
	if it := findReason(Compute(Snapshot{Project: p}, testNow), ReasonInstallRequirementsIncomplete); it != nil {
		t.Fatalf("non-install project should not be checked, got %+v", it)
	}
}

func TestTradeNotBookedCount(t *testing.T) {
	snap := Snapshot{
		Project: baseProject(),
		TradeRequirements: []domain.TradeRequirement{
			{ID: "tr1", Trade: "electrician", IsRequired: true, IsBooked: false},
			{ID: "tr2", Trade: "welder", IsRequired: true, IsBooked: true},
		},
	}
	it := findReason(Compute(snap, testNow), ReasonTradeNotBooked)
	if it == nil || !strings.Contains(it.Message, "(1)") {
		t.Fatalf("expected unbooked count (1) in message, got %+v", it)
	}
}

func TestVisitOverdue(t *testing.T) {
	past := daysAgo(5)
	snap := Snapshot{
		Project: baseProject(),
		Jobs: []domain.Job{
			{ID: "j1", JobType: "Service Call", ScheduledDate: &past, Status: "Open"},
			{ID: "j2", ScheduledDate: &past, Status: "Completed"},
		},
	}
	out := Compute(snap, testNow)
	it := findReason(out, ReasonVisitOverdue)
	if it == nil || it.Priority != PriorityMedium || it.SortWeight != 5 {
		t.Fatalf("expected MEDIUM weight 5, got %+v", it)
	}
	if it.ID != "VISIT_OVERDUE_j1" {
		t.Fatalf("completed job must not flag; got %s", it.ID)
	}
}

func TestPOETAMissed(t *testing.T) {
	eta := daysAgo(4)
	snap := Snapshot{
		Project: baseProject(),
		PurchaseOrders: []domain.PurchaseOrder{
			{ID: "po1", Status: "ordered", ETADate: &eta},
			{ID: "po2", Status: "Received", ETADate: &eta},
		},
	}
	out := Compute(snap, testNow)
	it := findReason(out, ReasonPOETAMissed)
	if it == nil || it.SortWeight != 4 {
		t.Fatalf("expected weight 4, got %+v", it)
	}
	if !strings.Contains(it.Message, "Unknown") {
		t.Fatalf("missing po_number/supplier should read Unknown, got %q", it.Message)
	}
	if it.ID != "PO_ETA_MISSED_po1" {
		t.Fatalf("received PO must not flag; got %s", it.ID)
	}
}

func TestEmailAwaitingResponse(t *testing.T) {
	in := daysAgo(3)
	snap := Snapshot{
		Project: baseProject(),
		Emails:  []domain.Email{{ID: "e1", BodyText: "any update on the gate?", SentAt: &in}},
	}
	it := findReason(Compute(snap, testNow), ReasonEmailAwaitingResponse)
	if it == nil || it.SortWeight != 3 {
		t.Fatalf("expected awaiting-response weight 3, got %+v", it)
	}

	// An outbound reply after the inbound email clears it.
	reply := daysAgo(1)
	snap.Emails = append(snap.Emails, domain.Email{ID: "e2", IsOutbound: true, SentAt: &reply})
	if it := findReason(Compute(snap, testNow), ReasonEmailAwaitingResponse); it != nil {
		t.Fatalf("outbound reply should clear, got %+v", it)
	}

	// A manual contact log after the email also counts as a reply.
	snap.Emails = snap.Emails[:1]
	snap.ManualLogs = []domain.ManualLog{{ID: "ml1", Method: "phone", CreatedAt: daysAgo(1)}}
	if it := findReason(Compute(snap, testNow), ReasonEmailAwaitingResponse); it != nil {
		t.Fatalf("manual log should clear, got %+v", it)
	}
}

func TestEmailAwaitingResponseUnder48Hours(t *testing.T) {
	in := isoAt(testNow.Add(-40 * time.Hour))
	snap := Snapshot{
		Project: baseProject(),
		Emails:  []domain.Email{{ID: "e1", BodyText: "checking in", SentAt: &in}},
	}
	if it := findReason(Compute(snap, testNow), ReasonEmailAwaitingResponse); it != nil {
		t.Fatalf("40h is inside the response window, got %+v", it)
	}
}

func TestNegativeSentimentEscalation(t *testing.T) {
	in := daysAgo(2)
	due := daysAgo(10)
	snap := Snapshot{
		Project:  baseProject(),
		Emails:   []domain.Email{{ID: "e1", BodyText: "this is unacceptable", SentAt: &in}},
		Invoices: []domain.Invoice{{ID: "inv1", Status: "AUTHORISED", DueDate: &due}},
	}
	it := findReason(Compute(snap, testNow), ReasonNegativeSentiment)
	if it == nil || it.Priority != PriorityHigh {
		t.Fatalf("overdue invoice should escalate sentiment to HIGH, got %+v", it)
	}

	snap.Invoices = nil
	it = findReason(Compute(snap, testNow), ReasonNegativeSentiment)
	if it == nil || it.Priority != PriorityMedium {
		t.Fatalf("without finance/visit findings sentiment stays MEDIUM, got %+v", it)
	}

	// A reply after the negative email suppresses the finding entirely.
	reply := daysAgo(1)
	snap.Emails = append(snap.Emails, domain.Email{ID: "e2", IsOutbound: true, SentAt: &reply})
	if it := findReason(Compute(snap, testNow), ReasonNegativeSentiment); it != nil {
		t.Fatalf("replied sentiment should not flag, got %+v", it)
	}
}

func TestMalformedRecordsDoNotPanic(t *testing.T) {
	garbage := "not-a-date"
	p := baseProject()
	p.ClientConfirmed = false
	snap := Snapshot{
		Project:        p,
		Invoices:       []domain.Invoice{{ID: "inv1", Status: "AUTHORISED", DueDate: &garbage}},
		Jobs:           []domain.Job{{ID: "j1", Status: "Open"}, {ID: "j2", ScheduledDate: &garbage, Status: "Open"}},
		PurchaseOrders: []domain.PurchaseOrder{{ID: "po1"}},
		Emails:         []domain.Email{{ID: "e1"}},
		Parts:          []domain.Part{{ID: "pt1"}},
	}
	out := Compute(snap, testNow)
	if len(out) != 0 {
		t.Fatalf("malformed records should not trigger rules, got %v", out)
	}
}
