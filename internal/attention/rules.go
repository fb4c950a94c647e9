package attention

import (
	"fmt"
	"strings"
	"time"

	"doorline/internal/domain"
)

// maxItems caps the resolved list for display.
const maxItems = 6

// installProjectTypes gate the install-requirements check.
var installProjectTypes = map[string]bool{
	"garage_door_install":    true,
	"gate_install":           true,
	"roller_shutter_install": true,
}

// readyStatuses is the set of part/PO statuses that count as "on hand".
// Both spaced/underscored and fully collapsed spellings appear in imported
// data, so both forms are members.
var readyStatuses = map[string]bool{
	"received":       true,
	"in_vehicle":     true,
	"in_storage":     true,
	"in_loading_bay": true,
	"reserved":       true,
	"available":      true,
	"installed":      true,
	"ready":          true,
	"instorage":      true,
	"invehicle":      true,
	"inloadingbay":   true,
}

// Compute runs every rule against the snapshot in a fixed order, then
// deduplicates, sorts and caps the findings. Identical inputs (including now)
// always produce an identical list.
func Compute(s Snapshot, now time.Time) []Item {
	if s.Project == nil {
		return []Item{}
	}
	var findings []Item
	findings = append(findings, checkClientNotConfirmed(s, now)...)
	findings = append(findings, checkDepositMissing(s)...)
	findings = append(findings, checkInvoicesOverdue(s, now)...)
	findings = append(findings, checkPartsNotReady(s, now)...)
	findings = append(findings, checkInstallRequirements(s)...)
	findings = append(findings, checkTradesNotBooked(s)...)
	findings = append(findings, checkVisitsOverdue(s, now)...)
	findings = append(findings, checkPOETAMissed(s, now)...)
	findings = append(findings, checkEmailAwaitingResponse(s, now)...)
	// Sentiment runs last: its priority depends on findings already emitted.
	findings = append(findings, checkNegativeSentiment(s, findings)...)
	return resolve(findings)
}

// checkClientNotConfirmed flags an unconfirmed client with a visit inside the
// next 24 hours.
func checkClientNotConfirmed(s Snapshot, now time.Time) []Item {
	if s.Project.ClientConfirmed {
		return nil
	}
	var earliest *domain.Job
	var earliestAt time.Time
	for i, j := range s.Jobs {
		if jobClosed(j.Status) {
			continue
		}
		h, ok := hoursSince(strOrEmpty(j.ScheduledDate), now)
		if !ok || h > 0 || h < -24 {
			continue
		}
		at, _ := parseTime(strOrEmpty(j.ScheduledDate))
		if earliest == nil || at.Before(earliestAt) {
			earliest = &s.Jobs[i]
			earliestAt = at
		}
	}
	if earliest == nil {
		return nil
	}
	h, _ := hoursSince(strOrEmpty(earliest.ScheduledDate), now)
	countdown := -h
	if countdown < 0 {
		countdown = 0
	}
	return []Item{{
		ID:          fmt.Sprintf("CLIENT_NOT_CONFIRMED_%s", earliest.ID),
		ReasonCode:  ReasonClientNotConfirmedUpcomingJob,
		Priority:    PriorityCritical,
		Category:    CategoryOps,
		Message:     fmt.Sprintf("Client has not confirmed but a visit is scheduled in %dh", countdown),
		DeepLinkTab: tabOverview,
	}}
}

// checkDepositMissing flags an accepted quote with no deposit payment and no
// invoice money received.
func checkDepositMissing(s Snapshot) []Item {
	accepted := false
	for _, q := range s.Quotes {
		if q.Status == "Accepted" || q.Status == "accepted" {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil
	}
	for _, p := range s.Project.Payments {
		if p.PaymentStatus == "Paid" && strings.Contains(strings.ToLower(p.PaymentName), "deposit") {
			return nil
		}
	}
	for _, inv := range s.Invoices {
		if inv.AmountPaid > 0 {
			return nil
		}
	}
	return []Item{{
		ID:          "DEPOSIT_MISSING",
		ReasonCode:  ReasonDepositMissing,
		Priority:    PriorityHigh,
		Category:    CategoryFinance,
		Message:     "Quote accepted but no deposit has been received",
		DeepLinkTab: tabInvoices,
	}}
}

// checkInvoicesOverdue emits one finding per unpaid invoice past its due date.
// More than 7 days overdue escalates to HIGH.
func checkInvoicesOverdue(s Snapshot, now time.Time) []Item {
	var out []Item
	for _, inv := range s.Invoices {
		if inv.Status == "PAID" {
			continue
		}
		d, ok := daysSince(strOrEmpty(inv.DueDate), now)
		if !ok || d <= 0 {
			continue
		}
		priority := PriorityMedium
		if d > 7 {
			priority = PriorityHigh
		}
		out = append(out, Item{
			ID:          fmt.Sprintf("INVOICE_OVERDUE_%s", inv.ID),
			ReasonCode:  ReasonInvoiceOverdue,
			Priority:    priority,
			Category:    CategoryFinance,
			Message:     fmt.Sprintf("Invoice %s is %d days overdue", inv.ID, d),
			DeepLinkTab: tabInvoices,
			SortWeight:  float64(d),
		})
	}
	return out
}

// checkPartsNotReady flags an upcoming install visit whose parts are short.
// One aggregate finding, not one per part.
func checkPartsNotReady(s Snapshot, now time.Time) []Item {
	installSoon := false
	for _, j := range s.Jobs {
		if jobClosed(j.Status) {
			continue
		}
		if !strings.Contains(strings.ToLower(jobType(j)), "install") {
			continue
		}
		at, ok := parseTime(strOrEmpty(j.ScheduledDate))
		if ok && at.After(now) {
			installSoon = true
			break
		}
	}
	if !installSoon {
		return nil
	}
	notReady := 0
	for _, p := range s.Parts {
		norm := normalizeStatus(p.Status)
		if norm == "cancelled" || norm == "installed" {
			continue
		}
		if !partReady(p, s.PurchaseOrders) {
			notReady++
		}
	}
	if notReady == 0 {
		return nil
	}
	return []Item{{
		ID:          "PARTS_NOT_READY",
		ReasonCode:  ReasonPartsNotReady,
		Priority:    PriorityHigh,
		Category:    CategoryOps,
		Message:     fmt.Sprintf("Install visit scheduled but %d part(s) are not ready", notReady),
		DeepLinkTab: tabParts,
	}}
}

// partReady classifies one part. A linked purchase order's status takes
// precedence over the part's own status; a positive received quantity is the
// final fallback.
func partReady(p domain.Part, orders []domain.PurchaseOrder) bool {
	if p.PurchaseOrderID != nil {
		for _, po := range orders {
			if po.ID == *p.PurchaseOrderID {
				return statusReady(po.Status)
			}
		}
	}
	if statusReady(p.Status) {
		return true
	}
	return receivedQty(p) > 0
}

func statusReady(status string) bool {
	if status == "" {
		return false
	}
	if readyStatuses[strings.ToLower(strings.TrimSpace(status))] {
		return true
	}
	return readyStatuses[normalizeStatus(status)]
}

// normalizeStatus lower-cases and strips spaces, hyphens and underscores so
// "In Vehicle", "in-vehicle" and "in_vehicle" compare equal.
func normalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, s)
}

func receivedQty(p domain.Part) int {
	if p.ReceivedQty != nil {
		return *p.ReceivedQty
	}
	if p.QuantityReceived != nil {
		return *p.QuantityReceived
	}
	return 0
}

// checkInstallRequirements flags install projects with no usable door specs.
// Both findings share one reason code, so the resolver keeps only one; that
// collapse is long-standing behavior the UI depends on.
func checkInstallRequirements(s Snapshot) []Item {
	if !installProjectTypes[s.Project.ProjectType] {
		return nil
	}
	var out []Item
	hasDimensions := false
	hasSpec := false
	for _, d := range s.Project.Doors {
		if d.Height != nil && d.Width != nil {
			hasDimensions = true
		}
		if d.DoorType != "" || d.Style != "" {
			hasSpec = true
		}
	}
	if !hasDimensions {
		out = append(out, Item{
			ID:          "INSTALL_REQS_DIMENSIONS",
			ReasonCode:  ReasonInstallRequirementsIncomplete,
			Priority:    PriorityHigh,
			Category:    CategoryRequirements,
			Message:     "Install project has no door with height and width recorded",
			DeepLinkTab: tabRequirements,
		})
	}
	if !hasSpec {
		out = append(out, Item{
			ID:          "INSTALL_REQS_SPEC",
			ReasonCode:  ReasonInstallRequirementsIncomplete,
			Priority:    PriorityHigh,
			Category:    CategoryRequirements,
			Message:     "Install project has no door with type or style recorded",
			DeepLinkTab: tabRequirements,
		})
	}
	return out
}

func checkTradesNotBooked(s Snapshot) []Item {
	unbooked := 0
	for _, tr := range s.TradeRequirements {
		if tr.IsRequired && !tr.IsBooked {
			unbooked++
		}
	}
	if unbooked == 0 {
		return nil
	}
	return []Item{{
		ID:          "TRADES_NOT_BOOKED",
		ReasonCode:  ReasonTradeNotBooked,
		Priority:    PriorityHigh,
		Category:    CategoryRequirements,
		Message:     fmt.Sprintf("Required third-party trades not booked (%d)", unbooked),
		DeepLinkTab: tabRequirements,
	}}
}

// checkVisitsOverdue emits one finding per visit past its scheduled date that
// never completed.
func checkVisitsOverdue(s Snapshot, now time.Time) []Item {
	var out []Item
	for _, j := range s.Jobs {
		if jobClosed(j.Status) {
			continue
		}
		d, ok := daysSince(strOrEmpty(j.ScheduledDate), now)
		if !ok || d <= 0 {
			continue
		}
		label := jobType(j)
		if label == "" {
			label = "Visit"
		}
		out = append(out, Item{
			ID:          fmt.Sprintf("VISIT_OVERDUE_%s", j.ID),
			ReasonCode:  ReasonVisitOverdue,
			Priority:    PriorityMedium,
			Category:    CategoryOps,
			Message:     fmt.Sprintf("%s is %d days overdue and not completed", label, d),
			DeepLinkTab: tabOverview,
			SortWeight:  float64(d),
		})
	}
	return out
}

// checkPOETAMissed emits one finding per purchase order past its ETA that is
// not received or completed.
func checkPOETAMissed(s Snapshot, now time.Time) []Item {
	var out []Item
	for _, po := range s.PurchaseOrders {
		norm := normalizeStatus(po.Status)
		if norm == "received" || norm == "completed" {
			continue
		}
		d, ok := daysSince(strOrEmpty(po.ETADate), now)
		if !ok || d <= 0 {
			continue
		}
		ref := po.PONumber
		if ref == "" {
			ref = po.SupplierName
		}
		if ref == "" {
			ref = "Unknown"
		}
		out = append(out, Item{
			ID:          fmt.Sprintf("PO_ETA_MISSED_%s", po.ID),
			ReasonCode:  ReasonPOETAMissed,
			Priority:    PriorityMedium,
			Category:    CategoryOps,
			Message:     fmt.Sprintf("Purchase order %s missed its ETA by %d days", ref, d),
			DeepLinkTab: tabParts,
			SortWeight:  float64(d),
		})
	}
	return out
}

// checkEmailAwaitingResponse flags the latest inbound email when nothing went
// back out for more than 48 hours.
func checkEmailAwaitingResponse(s Snapshot, now time.Time) []Item {
	var latest *domain.Email
	var latestAt time.Time
	for i, e := range s.Emails {
		if e.IsOutbound {
			continue
		}
		at := emailTime(s.Emails[i])
		if latest == nil || at.After(latestAt) {
			latest = &s.Emails[i]
			latestAt = at
		}
	}
	if latest == nil {
		return nil
	}
	if repliedAfter(s, latestAt) {
		return nil
	}
	ts := firstTimestamp(strOrEmpty(latest.SentAt), latest.CreatedAt)
	h, ok := hoursSince(ts, now)
	if !ok || h <= 48 {
		return nil
	}
	d, _ := daysSince(ts, now)
	return []Item{{
		ID:          "EMAIL_AWAITING_RESPONSE",
		ReasonCode:  ReasonEmailAwaitingResponse,
		Priority:    PriorityMedium,
		Category:    CategoryComms,
		Message:     fmt.Sprintf("Client email has been awaiting a response for %d days", d),
		DeepLinkTab: tabActivity,
		SortWeight:  float64(d),
	}}
}

// checkNegativeSentiment runs last in the pass: it escalates to HIGH when an
// overdue invoice, overdue visit, or missing deposit was already found.
func checkNegativeSentiment(s Snapshot, found []Item) []Item {
	hit := detectNegativeSentiment(s.Emails)
	if hit == nil {
		return nil
	}
	if repliedAfter(s, hit.At) {
		return nil
	}
	priority := PriorityMedium
	for _, f := range found {
		switch f.ReasonCode {
		case ReasonInvoiceOverdue, ReasonVisitOverdue, ReasonDepositMissing:
			priority = PriorityHigh
		}
	}
	return []Item{{
		ID:          fmt.Sprintf("NEGATIVE_SENTIMENT_%s", hit.EmailID),
		ReasonCode:  ReasonNegativeSentiment,
		Priority:    priority,
		Category:    CategoryComms,
		Message:     fmt.Sprintf("Recent client email reads negative (%q)", hit.Keyword),
		DeepLinkTab: tabActivity,
	}}
}

// repliedAfter reports whether any outbound email or manual contact log is
// timestamped strictly after t.
func repliedAfter(s Snapshot, t time.Time) bool {
	for _, e := range s.Emails {
		if e.IsOutbound && emailTime(e).After(t) {
			return true
		}
	}
	for _, l := range s.ManualLogs {
		if manualLogTime(l).After(t) {
			return true
		}
	}
	return false
}

func jobClosed(status string) bool {
	return status == "Completed" || status == "Cancelled"
}

func jobType(j domain.Job) string {
	if j.JobTypeName != "" {
		return j.JobTypeName
	}
	return j.JobType
}
