package attention

import (
	"testing"

	"doorline/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestSentimentDetectorPicksMostRecentInbound(t *testing.T) {
	emails := []domain.Email{
		{ID: "e1", BodyText: "I am disappointed with the delay", SentAt: strPtr("2024-04-01T10:00:00Z")},
		{ID: "e2", BodyText: "this is unacceptable", SentAt: strPtr("2024-04-20T10:00:00Z")},
		{ID: "e3", IsOutbound: true, BodyText: "we are very disappointed too", SentAt: strPtr("2024-04-25T10:00:00Z")},
	}
	hit := detectNegativeSentiment(emails)
	if hit == nil {
		t.Fatal("expected a sentiment hit")
	}
	if hit.EmailID != "e2" {
		t.Fatalf("expected most recent inbound e2, got %s", hit.EmailID)
	}
	if hit.Keyword != "unacceptable" {
		t.Fatalf("unexpected keyword %q", hit.Keyword)
	}
}

func TestSentimentDetectorKeywordListOrder(t *testing.T) {
	emails := []domain.Email{
		{ID: "e1", BodyText: "Frankly unacceptable, and I am disappointed.", SentAt: strPtr("2024-04-20T10:00:00Z")},
	}
	hit := detectNegativeSentiment(emails)
	if hit == nil {
		t.Fatal("expected a hit")
	}
	// "disappointed" precedes "unacceptable" in the fixed list, so it wins
	// even though "unacceptable" appears first in the message.
	if hit.Keyword != "disappointed" {
		t.Fatalf("expected first-listed keyword, got %q", hit.Keyword)
	}
}

func TestSentimentDetectorFallsBackToContentAndCreatedAt(t *testing.T) {
	emails := []domain.Email{
		{ID: "e1", Content: "still waiting on the quote", CreatedAt: "2024-04-18T09:00:00Z"},
	}
	hit := detectNegativeSentiment(emails)
	if hit == nil || hit.Keyword != "still waiting" {
		t.Fatalf("expected content fallback hit, got %+v", hit)
	}
	if hit.Timestamp != "2024-04-18T09:00:00Z" {
		t.Fatalf("expected created_at fallback, got %q", hit.Timestamp)
	}
}

func TestSentimentDetectorNoMatch(t *testing.T) {
	if hit := detectNegativeSentiment(nil); hit != nil {
		t.Fatalf("nil emails should not match, got %+v", hit)
	}
	emails := []domain.Email{
		{ID: "e1", BodyText: "thanks, all looks great", SentAt: strPtr("2024-04-20T10:00:00Z")},
		{ID: "e2", IsOutbound: true, BodyText: "unacceptable draft attached", SentAt: strPtr("2024-04-21T10:00:00Z")},
	}
	if hit := detectNegativeSentiment(emails); hit != nil {
		t.Fatalf("expected no hit, got %+v", hit)
	}
}
