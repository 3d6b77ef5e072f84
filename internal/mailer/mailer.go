// Package mailer sends the weekly report as an HTML email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/routine"

	"github.com/rs/zerolog/log"
)

const defaultFrom = "MR Tracker <noreply@localhost>"

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type Mailer struct {
	cfg     Config
	catalog *activities.Catalog
	loc     *time.Location
	send    func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config, catalog *activities.Catalog, loc *time.Location) *Mailer {
	if cfg.From == "" {
		cfg.From = defaultFrom
	}
	if loc == nil {
		loc = time.UTC
	}
	m := &Mailer{cfg: cfg, catalog: catalog, loc: loc}
	m.send = m.dial
	return m
}

func (m *Mailer) SendWeeklyReport(ctx context.Context, report routine.WeeklyReport, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return fmt.Errorf("send weekly report: no recipient")
	}

	body, err := Render(report, m.catalog, m.loc)
	if err != nil {
		return err
	}
	msg := m.message(Subject(report, m.loc), to, body)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(ctx, addr, auth, envelope(m.cfg.From), []string{to}, msg); err != nil {
		return fmt.Errorf("send weekly report to %s: %w", to, err)
	}

	log.Info().Str("to", to).Msg("📧 weekly report emailed")
	return nil
}

func (m *Mailer) message(subject, to, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}

// dial uses implicit TLS on port 465 and upgrades with STARTTLS when the
// server offers it otherwise. The connection is bound to ctx.
func (m *Mailer) dial(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{ServerName: m.cfg.Host}

	var (
		conn net.Conn
		err  error
	)
	if m.cfg.Port == 465 {
		conn, err = (&tls.Dialer{Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if m.cfg.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return err
			}
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server does not support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// envelope extracts the bare address of "Name <addr>".
func envelope(from string) string {
	if a, err := mail.ParseAddress(from); err == nil {
		return a.Address
	}
	return from
}
