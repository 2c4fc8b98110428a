package infrastructure

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobboard/domain"
)

// SMTPMailer delivers notifications over SMTP.
type SMTPMailer struct {
	Addr string
	Auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	m := &SMTPMailer{
		Addr: net.JoinHostPort(host, strconv.Itoa(port)),
		send: smtp.SendMail,
	}
	if username != "" {
		m.Auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) Dispatch(_ context.Context, n domain.Notification) error {
	if len(n.Recipients) == 0 {
		return errors.New("notification has no recipients")
	}
	if err := m.send(m.Addr, m.Auth, n.From, n.Recipients, formatMessage(n)); err != nil {
		return errors.Wrapf(err, "send mail via %s", m.Addr)
	}
	return nil
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue folds line breaks away and RFC 2047-encodes non-ASCII text,
// so a value can never start a new header.
func headerValue(v string) string {
	return mime.QEncoding.Encode("utf-8", headerBreaks.Replace(v))
}

func formatMessage(n domain.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerBreaks.Replace(n.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerBreaks.Replace(strings.Join(n.Recipients, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(n.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(n.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogMailer writes notifications to the log instead of sending them.
type LogMailer struct {
	Log *zap.SugaredLogger
}

func (m LogMailer) Dispatch(_ context.Context, n domain.Notification) error {
	m.Log.Infow("Notification", "subject", n.Subject, "from", n.From, "to", n.Recipients, "body", n.Body)
	return nil
}
