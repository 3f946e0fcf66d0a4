package smtprelay

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
)

// Message is a single plain-text mail handed to the relay.
type Message struct {
	ID      string
	From    string
	To      string
	Subject string
	Body    string
}

// envelope returns the bare MAIL FROM and RCPT TO addresses.
func (m Message) envelope() (string, string, error) {
	if strings.TrimSpace(m.From) == "" || strings.TrimSpace(m.To) == "" {
		return "", "", errors.New("smtp relay: sender and recipient are required")
	}
	from, err := mail.ParseAddress(m.From)
	if err != nil {
		return "", "", fmt.Errorf("smtp relay: invalid sender address: %w", err)
	}
	to, err := mail.ParseAddress(m.To)
	if err != nil {
		return "", "", fmt.Errorf("smtp relay: invalid recipient address: %w", err)
	}
	return from.Address, to.Address, nil
}

// buildMessage renders msg as a multipart/mixed document with a single
// text/plain part.
func buildMessage(msg Message, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="utf-8"`},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, fmt.Errorf("smtp relay: create part: %w", err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("smtp relay: encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("smtp relay: encode body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("smtp relay: close multipart: %w", err)
	}

	var out bytes.Buffer
	writeHeader(&out, "From", msg.From)
	writeHeader(&out, "To", msg.To)
	writeHeader(&out, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&out, "Date", now.Format(time.RFC1123Z))
	if msg.ID != "" {
		writeHeader(&out, "Message-ID", "<"+msg.ID+"@"+domainOf(msg.From)+">")
	}
	writeHeader(&out, "MIME-Version", "1.0")
	writeHeader(&out, "Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mw.Boundary()}))
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(strings.TrimSpace(value))
	buf.WriteString("\r\n")
}

func domainOf(address string) string {
	if addr, err := mail.ParseAddress(address); err == nil {
		address = addr.Address
	}
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}
