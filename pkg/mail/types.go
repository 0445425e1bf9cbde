package mail

import "time"

// Message is a fetched song email: metadata plus whichever bodies the
// message carried. HTMLBody is preferred by the extractor when present.
type Message struct {
	MessageID string    `yaml:"message_id" json:"message_id"`
	From      string    `yaml:"from" json:"from"`
	Subject   string    `yaml:"subject" json:"subject"`
	Date      time.Time `yaml:"date" json:"date"`
	Body      string    `yaml:"body" json:"body"`
	HTMLBody  string    `yaml:"html_body,omitempty" json:"html_body,omitempty"`
}

// IsRich reports whether the message has a rich (HTML) body.
func (m *Message) IsRich() bool {
	return m.HTMLBody != ""
}

// BestBody returns the body the extractor should segment and whether it is
// rich markup.
func (m *Message) BestBody() (string, bool) {
	if m.HTMLBody != "" {
		return m.HTMLBody, true
	}
	return m.Body, false
}
