package mail

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/prasanthmj/servicedeck/pkg/config"
)

// IMAPClient fetches song emails from the configured account.
type IMAPClient struct {
	config *config.Config
	dial   func(addr string) (*client.Client, error)
}

// NewIMAPClient creates a new IMAP client.
func NewIMAPClient(cfg *config.Config) *IMAPClient {
	return &IMAPClient{
		config: cfg,
		dial: func(addr string) (*client.Client, error) {
			return client.DialTLS(addr, nil)
		},
	}
}

// connect establishes a connection to the IMAP server.
func (ic *IMAPClient) connect() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", ic.config.IMAPServer, ic.config.IMAPPort)

	c, err := ic.dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to email server: %w", err)
	}

	c.Timeout = ic.config.Timeout

	if err := c.Login(ic.config.EmailAddress, ic.config.EmailPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("authentication failed")
	}

	return c, nil
}

// FetchLatestMatching returns the newest INBOX message whose subject
// contains subjectContains, received after since. A nil message with a nil
// error means nothing matched.
func (ic *IMAPClient) FetchLatestMatching(subjectContains string, since time.Time) (*Message, error) {
	c, err := ic.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select("INBOX", true) // read-only
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	if !since.IsZero() {
		criteria.Since = since
	}
	if subjectContains != "" {
		criteria.Header.Set("Subject", subjectContains)
	}

	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	// Sequence numbers increase with arrival order; the last one is newest
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums[len(seqNums)-1])

	messages := make(chan *imap.Message, 1)
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchRFC822}

	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	msg := <-messages
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch matched message: %w", err)
	}
	if msg == nil || msg.Envelope == nil {
		return nil, fmt.Errorf("failed to fetch matched message")
	}

	m := &Message{
		MessageID: msg.Envelope.MessageId,
		From:      formatAddress(msg.Envelope.From),
		Subject:   msg.Envelope.Subject,
		Date:      msg.Envelope.Date,
	}
	m.Body, m.HTMLBody = readBodies(msg)
	return m, nil
}

// readBodies extracts the plain and HTML bodies from a fetched message.
func readBodies(msg *imap.Message) (body, htmlBody string) {
	r := msg.GetBody(&imap.BodySectionName{})
	if r == nil {
		return "", ""
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", ""
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		b, _ := io.ReadAll(p.Body)
		ct, _, _ := h.ContentType()
		if strings.Contains(ct, "text/html") {
			htmlBody = string(b)
		} else if strings.Contains(ct, "text/plain") {
			body = string(b)
		}
	}
	return body, htmlBody
}

func formatAddress(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	addr := addrs[0]
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName)
	}
	return fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName)
}
