package models

import "strings"

// Section is one successfully extracted page.
type Section struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// ExtractedDocument is the ordered output of a batch. Sections appear in
// the order their URLs were given; failed URLs contribute nothing.
type ExtractedDocument struct {
	Sections []Section `json:"sections"`
}

// Append adds a section to the end of the document.
func (d *ExtractedDocument) Append(s Section) {
	d.Sections = append(d.Sections, s)
}

// Empty reports whether nothing was extracted.
func (d *ExtractedDocument) Empty() bool {
	return len(d.Sections) == 0
}

// Text renders the aggregate blob handed to the generator:
//
//	\n# {title}\n\n{body}\n\n---\n
//
// per section. An empty document renders as "".
func (d *ExtractedDocument) Text() string {
	var b strings.Builder
	for _, s := range d.Sections {
		b.WriteString("\n# ")
		b.WriteString(s.Title)
		b.WriteString("\n\n")
		b.WriteString(s.Body)
		b.WriteString("\n\n---\n")
	}
	return b.String()
}

// URLState is the position of a single URL in the retrieval state machine.
type URLState string

const (
	StatePending        URLState = "pending"
	StateBrowserAttempt URLState = "browser_attempt"
	StateHTTPFallback   URLState = "http_fallback"
	StateSuccess        URLState = "success"
	StateFailed         URLState = "failed"
)

// Terminal reports whether no further transition can happen.
func (s URLState) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// URLOutcome records what happened to one URL of a batch.
type URLOutcome struct {
	URL    string   `json:"url"`
	State  URLState `json:"state"`
	Method string   `json:"method,omitempty"` // engine that produced the section
	Title  string   `json:"title,omitempty"`
	Code   string   `json:"error_code,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// BatchSummary reports how many of the given URLs produced a section.
type BatchSummary struct {
	Successful int          `json:"successful"`
	Total      int          `json:"total"`
	Outcomes   []URLOutcome `json:"outcomes,omitempty"`
}
