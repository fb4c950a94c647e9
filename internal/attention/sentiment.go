package attention

import (
	"sort"
	"strings"
	"time"

	"doorline/internal/domain"
)

// negativeKeywords are scanned in order against inbound email text; the first
// listed keyword found in the most recent matching message wins. Fixed data,
// not configuration.
var negativeKeywords = []string{
	"disappointed",
	"unacceptable",
	"very poor",
	"not good enough",
	"still waiting",
	"no one has",
	"nobody has",
	"please explain",
	"frustrated",
	"frustrating",
	"unhappy",
	"not happy",
	"taking too long",
	"escalate",
	"complaint",
	"refund",
	"cancel the order",
	"cancel my order",
}

type sentimentHit struct {
	EmailID   string
	Keyword   string
	Timestamp string
	At        time.Time
}

// detectNegativeSentiment scans inbound messages, most recent first, and
// returns the first message containing any negative keyword. Returns nil when
// nothing matches.
func detectNegativeSentiment(emails []domain.Email) *sentimentHit {
	var inbound []domain.Email
	for _, e := range emails {
		if !e.IsOutbound {
			inbound = append(inbound, e)
		}
	}
	if len(inbound) == 0 {
		return nil
	}
	sort.SliceStable(inbound, func(i, j int) bool {
		return emailTime(inbound[i]).After(emailTime(inbound[j]))
	})
	for _, e := range inbound {
		text := strings.ToLower(emailText(e))
		if text == "" {
			continue
		}
		for _, kw := range negativeKeywords {
			if strings.Contains(text, kw) {
				return &sentimentHit{
					EmailID:   e.ID,
					Keyword:   kw,
					Timestamp: firstTimestamp(strOrEmpty(e.SentAt), e.CreatedAt),
					At:        emailTime(e),
				}
			}
		}
	}
	return nil
}

func emailText(e domain.Email) string {
	if e.BodyText != "" {
		return e.BodyText
	}
	return e.Content
}

// emailTime resolves sent_at, then created_at; unparseable or absent dates
// collapse to the zero time so ordering still works.
func emailTime(e domain.Email) time.Time {
	if t, ok := parseTime(strOrEmpty(e.SentAt)); ok {
		return t
	}
	if t, ok := parseTime(e.CreatedAt); ok {
		return t
	}
	return time.Time{}
}

func manualLogTime(l domain.ManualLog) time.Time {
	if t, ok := parseTime(strOrEmpty(l.CreatedDate)); ok {
		return t
	}
	if t, ok := parseTime(l.CreatedAt); ok {
		return t
	}
	return time.Time{}
}
