package attention

import "testing"

func TestResolveUpgradeOnlyDedup(t *testing.T) {
	in := []Item{
		{ID: "a", ReasonCode: ReasonInvoiceOverdue, Priority: PriorityHigh},
		{ID: "b", ReasonCode: ReasonInvoiceOverdue, Priority: PriorityMedium},
		{ID: "c", ReasonCode: ReasonInvoiceOverdue, Priority: PriorityHigh},
	}
	out := resolve(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}
	// later MEDIUM must not displace the HIGH keeper, but a later HIGH does.
	if out[0].ID != "c" {
		t.Fatalf("expected later HIGH to replace earlier HIGH, kept %s", out[0].ID)
	}
}

func TestResolveCriticalAlwaysWins(t *testing.T) {
	in := []Item{
		{ID: "a", ReasonCode: ReasonVisitOverdue, Priority: PriorityCritical},
		{ID: "b", ReasonCode: ReasonVisitOverdue, Priority: PriorityHigh},
	}
	out := resolve(in)
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("HIGH must not displace CRITICAL keeper: %+v", out)
	}
}

func TestResolveFirstWinsOnEqualMedium(t *testing.T) {
	in := []Item{
		{ID: "a", ReasonCode: ReasonPOETAMissed, Priority: PriorityMedium},
		{ID: "b", ReasonCode: ReasonPOETAMissed, Priority: PriorityMedium},
	}
	out := resolve(in)
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("first MEDIUM should stand: %+v", out)
	}
}

func TestResolveOrderingAndCap(t *testing.T) {
	in := []Item{
		{ID: "m1", ReasonCode: ReasonPOETAMissed, Priority: PriorityMedium, SortWeight: 2},
		{ID: "h1", ReasonCode: ReasonInvoiceOverdue, Priority: PriorityHigh, SortWeight: 1},
		{ID: "c1", ReasonCode: ReasonClientNotConfirmedUpcomingJob, Priority: PriorityCritical},
		{ID: "m2", ReasonCode: ReasonVisitOverdue, Priority: PriorityMedium, SortWeight: 9},
		{ID: "h2", ReasonCode: ReasonDepositMissing, Priority: PriorityHigh, SortWeight: 4},
		{ID: "l1", ReasonCode: ReasonNegativeSentiment, Priority: PriorityLow},
		{ID: "m3", ReasonCode: ReasonEmailAwaitingResponse, Priority: PriorityMedium, SortWeight: 5},
	}
	out := resolve(in)
	if len(out) != 6 {
		t.Fatalf("expected cap at 6, got %d", len(out))
	}
	wantOrder := []string{"c1", "h2", "h1", "m2", "m3", "m1"}
	for i, want := range wantOrder {
		if out[i].ID != want {
			t.Fatalf("position %d: got %s, want %s (full: %+v)", i, out[i].ID, want, out)
		}
	}
}

func TestResolveEmptyInput(t *testing.T) {
	out := resolve(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", out)
	}
}
