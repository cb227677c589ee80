package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for funding events and report names.
const DateLayout = "2006-01-02"

// FundingEvent is a single financing announcement.
type FundingEvent struct {
	Company     string   `json:"company"`
	Round       string   `json:"round"`
	Amount      string   `json:"amount"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	SourceURL   string   `json:"source_url"`
	Platform    string   `json:"platform"`
	Investors   []string `json:"investors,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Item converts the event into an engine input. Tags are appended to the body
// so they take part in keyword matching.
func (e FundingEvent) Item() Item {
	body := e.Description
	if len(e.Tags) > 0 {
		body = strings.TrimSpace(body + " " + strings.Join(e.Tags, " "))
	}

	ts, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		ts = time.Time{}
	}

	meta := map[string]string{
		"company": e.Company,
		"round":   e.Round,
		"date":    e.Date,
	}
	if e.Amount != "" {
		meta["amount"] = e.Amount
	}
	if len(e.Investors) > 0 {
		meta["investors"] = strings.Join(e.Investors, ", ")
	}

	return Item{
		Kind:       KindFunding,
		Source:     e.Platform,
		SourceType: "feed",
		Title:      e.Company,
		Body:       body,
		URL:        e.SourceURL,
		Tags:       append([]string(nil), e.Tags...),
		Metadata:   meta,
		Timestamp:  ts,
	}
}
