// Package mailer delivers the digest as a multipart/alternative email.
package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/wneessen/go-mail"
)

// Settings is the SMTP account used for delivery.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

type Mailer struct {
	cfg    Settings
	logger *slog.Logger
}

func New(cfg Settings, logger *slog.Logger) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Subject is the subject line for a digest sent at now.
func Subject(now time.Time) string {
	return "AI Recap // " + now.Format("January 02, 2006")
}

// Message builds the email without sending it.
func (m *Mailer) Message(now time.Time, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(Subject(now))
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, PlainText(body))
	msg.AddAlternativeString(mail.TypeTextHTML, body)
	return msg, nil
}

// Send delivers body over an authenticated session, upgrading to TLS when the
// server offers it. Errors are returned as is; there is no retry.
func (m *Mailer) Send(ctx context.Context, now time.Time, body string) error {
	msg, err := m.Message(now, body)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email via %s:%d: %w", m.cfg.Host, m.cfg.Port, err)
	}

	m.logger.Info("email sent", "to", strings.Join(m.cfg.To, ","), "subject", Subject(now))
	return nil
}

// PlainText renders html as readable text for the text/plain part.
func PlainText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	doc.Find("head, style, script").Remove()
	doc.Find("p, div, h1, h2, h3, h4, li, br, tr, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href != "" && strings.TrimSpace(s.Text()) != href {
			s.AppendHtml(" (" + html.EscapeString(href) + ")")
		}
	})

	var (
		out   []string
		blank bool
	)
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
