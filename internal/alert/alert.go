// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alert sends e-mail alerts about acquisition sessions.
package alert // import "github.com/go-lpc/picoq/internal/alert"

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
	mail "gopkg.in/gomail.v2"
)

var (
	// ErrNoCredentials is returned when the mailer is not fully configured.
	ErrNoCredentials = errors.New("alert: missing credentials")
)

// Mailer sends alerts by e-mail.
type Mailer struct {
	Name string // name of the application sending alerts

	usr  string
	pwd  string
	srv  string
	port int
	tgts []string

	send func(msg *mail.Message) error
}

// FromEnv creates a mailer configured from the MAIL_USERNAME, MAIL_PASSWORD,
// MAIL_SERVER, MAIL_PORT and MAIL_TGTS (comma separated) environment
// variables.
func FromEnv(name string) *Mailer {
	port, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
	return New(
		name,
		os.Getenv("MAIL_USERNAME"),
		os.Getenv("MAIL_PASSWORD"),
		os.Getenv("MAIL_SERVER"),
		port,
		targets(os.Getenv("MAIL_TGTS")),
	)
}

// New creates a mailer sending alerts from usr to tgts, through the
// srv:port SMTP server.
func New(name, usr, pwd, srv string, port int, tgts []string) *Mailer {
	m := &Mailer{
		Name: name,
		usr:  usr,
		pwd:  pwd,
		srv:  srv,
		port: port,
		tgts: tgts,
	}
	m.send = m.dialAndSend
	return m
}

func targets(s string) []string {
	var tgts []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		tgts = append(tgts, v)
	}
	return tgts
}

// Valid returns whether the mailer holds all the needed credentials.
func (m *Mailer) Valid() bool {
	return m.usr != "" && m.pwd != "" &&
		m.srv != "" && m.port != 0 &&
		len(m.tgts) != 0
}

// Message creates an alert message.
func (m *Mailer) Message(subject, body string) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.usr)
	msg.SetHeader("Bcc", m.tgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[%s] %s", m.Name, subject))
	msg.SetBody("text/plain", body)
	return msg
}

// Send sends an alert.
func (m *Mailer) Send(subject, body string) error {
	if !m.Valid() {
		return ErrNoCredentials
	}

	err := m.send(m.Message(subject, body))
	if err != nil {
		return xerrors.Errorf("alert: could not send mail: %w", err)
	}
	return nil
}

func (m *Mailer) dialAndSend(msg *mail.Message) error {
	dial := mail.NewDialer(m.srv, m.port, m.usr, m.pwd)
	dial.TLSConfig = &tls.Config{
		ServerName: m.srv,
	}
	return dial.DialAndSend(msg)
}
