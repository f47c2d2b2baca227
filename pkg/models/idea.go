package models

// IdeaStatus is the coarse lifecycle of an idea, derived from free-text and
// emoji markers in the idea log rather than a strict field.
type IdeaStatus string

const (
	IdeaCaptured IdeaStatus = "captured"
	IdeaAssigned IdeaStatus = "assigned"
	IdeaDrafted  IdeaStatus = "drafted"
	IdeaShipped  IdeaStatus = "shipped"
)

// Idea is a single entry parsed from the markdown idea log. Ideas are never
// mutated by this system; the whole list is re-derived from the log on every
// cache miss.
type Idea struct {
	// Number is the numeric id from the idea header. Expected unique and
	// increasing but not validated.
	Number int `json:"number"`
	// CapturedAt is the capture timestamp string from the idea header,
	// kept verbatim (e.g. "08:00 AM PST").
	CapturedAt string `json:"captured_at"`
	// Date is the calendar date from the most recent date header.
	Date string `json:"date"`

	// Quote is the canonical text: the refined quote when present,
	// otherwise the original.
	Quote         string `json:"quote"`
	QuoteOriginal string `json:"quote_original,omitempty"`
	QuoteRefined  string `json:"quote_refined,omitempty"`

	Tags    []string   `json:"tags,omitempty"`
	Chapter string     `json:"chapter,omitempty"`
	Status  IdeaStatus `json:"status"`

	// Long-form free-text sections.
	Notes       string `json:"notes,omitempty"`
	Tension     string `json:"tension,omitempty"`
	Paradox     string `json:"paradox,omitempty"`
	Connections string `json:"connections,omitempty"`

	// ContentAngles holds the bulleted items of the potential-content
	// section; non-bullet lines in that section are discarded.
	ContentAngles []string `json:"content_angles,omitempty"`
}
