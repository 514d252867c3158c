// Package imap fetches job-search mail from an IMAP mailbox.
package imap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/pkg/mailtext"
)

const (
	fetchBuffer  = 16
	dialTimeout  = 30 * time.Second
	maxBodyBytes = 1 << 20
)

// Config holds the mailbox credentials
type Config struct {
	Addr     string // host:port, implicit TLS
	Username string
	Password string
	Mailbox  string
}

// Provider implements domain.MailProvider over IMAP
type Provider struct {
	cfg    Config
	logger *zap.Logger
}

func NewProvider(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.Addr == "" || cfg.Username == "" {
		return nil, errors.New("imap: address and username are required")
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, logger: logger.Named("imap")}, nil
}

// FetchMessages returns the messages whose internal date is in [since, until)
func (p *Provider) FetchMessages(ctx context.Context, since, until time.Time) ([]domain.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := client.DialTLS(p.cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("imap: dial %s: %w", p.cfg.Addr, err)
	}
	c.Timeout = dialTimeout
	defer c.Logout()

	if err := c.Login(p.cfg.Username, p.cfg.Password); err != nil {
		return nil, fmt.Errorf("imap: login: %w", err)
	}
	if _, err := c.Select(p.cfg.Mailbox, true); err != nil {
		return nil, fmt.Errorf("imap: select %s: %w", p.cfg.Mailbox, err)
	}

	// SINCE and BEFORE compare dates only; the exact bounds are applied below
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.Before = until.AddDate(0, 0, 1)
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap: search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	fetched := make(chan *imap.Message, fetchBuffer)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, fetched)
	}()

	msgs := make([]domain.RawMessage, 0, len(uids))
	for m := range fetched {
		if ctx.Err() != nil {
			continue // drain so UidFetch can return
		}
		if m.InternalDate.Before(since) || !m.InternalDate.Before(until) {
			continue
		}
		body := m.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := ParseMessage(io.LimitReader(body, maxBodyBytes), m.InternalDate)
		if err != nil {
			p.logger.Warn("skipping unparsable message", zap.Uint32("uid", m.Uid), zap.Error(err))
			continue
		}
		raw.ID = strconv.FormatUint(uint64(m.Uid), 10)
		msgs = append(msgs, raw)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap: fetch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Info("messages fetched",
		zap.String("mailbox", p.cfg.Mailbox),
		zap.Int("matched", len(uids)),
		zap.Int("returned", len(msgs)))
	return msgs, nil
}

// ParseMessage reads an RFC 5322 message. receivedAt is used when the
// message carries no usable Date header.
func ParseMessage(r io.Reader, receivedAt time.Time) (domain.RawMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return domain.RawMessage{}, err
	}
	defer mr.Close()

	msg := domain.RawMessage{ReceivedAt: receivedAt.UTC()}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = mr.Header.Get("Subject")
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.Sender = from[0].Address
	}
	if msg.ReceivedAt.IsZero() {
		if date, err := mr.Header.Date(); err == nil {
			msg.ReceivedAt = date.UTC()
		}
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return msg, err
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := h.ContentType()
		if err != nil {
			contentType, _, _ = mime.ParseMediaType(h.Get("Content-Type"))
		}
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return msg, err
		}
		switch strings.ToLower(contentType) {
		case "text/html":
			if html == "" {
				html = string(data)
			}
		case "text/plain", "":
			if plain == "" {
				plain = string(data)
			}
		}
	}

	msg.Body = mailtext.Body(plain, html)
	return msg, nil
}
