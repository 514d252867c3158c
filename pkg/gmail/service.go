package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/pkg/mailtext"
)

const (
	user           = "me"
	pageSize       = 500 // Gmail API maximum
	maxConcurrency = 10
)

// TokenUpdateFunc is called when the access token was refreshed
type TokenUpdateFunc func(token *oauth2.Token) error

// Config holds the OAuth client and the mailbox query
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Query        string // extra Gmail search terms
	MaxMessages  int
}

// Service implements domain.MailProvider on the Gmail API
type Service struct {
	cfg            Config
	logger         *zap.Logger
	onTokenRefresh TokenUpdateFunc
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	logger   *zap.Logger
	callback TokenUpdateFunc

	mu      sync.Mutex
	current *oauth2.Token
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.AccessToken != t.AccessToken {
		s.current = t
		s.logger.Debug("access token refreshed", zap.Time("expiry", t.Expiry))
		if s.callback != nil {
			if err := s.callback(t); err != nil {
				s.logger.Warn("failed to persist refreshed token", zap.Error(err))
			}
		}
	}
	return t, nil
}

func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("gmail: client id, client secret and refresh token are required")
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = pageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, logger: logger.Named("gmail")}, nil
}

// OnTokenRefresh registers a callback for refreshed access tokens
func (s *Service) OnTokenRefresh(fn TokenUpdateFunc) {
	s.onTokenRefresh = fn
}

// GetGmailService creates a Gmail client authorized by the refresh token
func (s *Service) GetGmailService(ctx context.Context) (*gmail.Service, error) {
	// Expired on purpose so the first call refreshes
	token := &oauth2.Token{
		RefreshToken: s.cfg.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now(),
	}

	config := &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		logger:   s.logger,
		callback: s.onTokenRefresh,
		current:  token,
	}

	client := oauth2.NewClient(ctx, wrappedSource)
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// FetchMessages returns the messages received in [since, until), at most
// MaxMessages of them.
func (s *Service) FetchMessages(ctx context.Context, since, until time.Time) ([]domain.RawMessage, error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return nil, err
	}
	return s.fetchMessages(ctx, srv, since, until)
}

func (s *Service) fetchMessages(ctx context.Context, srv *gmail.Service, since, until time.Time) ([]domain.RawMessage, error) {
	q := BuildQuery(since, until, s.cfg.Query)
	ids, err := s.listMessageIDs(ctx, srv, q)
	if err != nil {
		return nil, err
	}

	fetched := make([]*domain.RawMessage, len(ids))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			full, err := srv.Users.Messages.Get(user, id).Format("full").Context(gctx).Do()
			if err != nil {
				failed.Add(1)
				s.logger.Warn("failed to fetch message", zap.String("message_id", id), zap.Error(err))
				return nil
			}
			msg := ConvertMessage(full)
			fetched[i] = &msg
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs := make([]domain.RawMessage, 0, len(ids))
	for _, msg := range fetched {
		if msg == nil {
			continue
		}
		// Gmail's after/before operate on seconds; keep the bounds exact
		if msg.ReceivedAt.Before(since) || !msg.ReceivedAt.Before(until) {
			continue
		}
		msgs = append(msgs, *msg)
	}
	if n := int(failed.Load()); n > 0 && len(msgs) == 0 {
		return nil, fmt.Errorf("unable to retrieve messages: %d of %d failed", n, len(ids))
	}

	s.logger.Info("messages fetched",
		zap.String("query", q),
		zap.Int("listed", len(ids)),
		zap.Int("returned", len(msgs)),
		zap.Int("failed", int(failed.Load())))
	return msgs, nil
}

func (s *Service) listMessageIDs(ctx context.Context, srv *gmail.Service, q string) ([]string, error) {
	var ids []string
	pageToken := ""
	for len(ids) < s.cfg.MaxMessages {
		remaining := s.cfg.MaxMessages - len(ids)
		if remaining > pageSize {
			remaining = pageSize
		}

		call := srv.Users.Messages.List(user).Q(q).MaxResults(int64(remaining)).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	if len(ids) >= s.cfg.MaxMessages && pageToken != "" {
		s.logger.Warn("message limit reached, older messages are not synced",
			zap.Int("max_messages", s.cfg.MaxMessages))
	}
	return ids, nil
}

// Watch sets up push notifications for the inbox on a Pub/Sub topic
func (s *Service) Watch(ctx context.Context, topicName string) (historyID uint64, expiration time.Time, err error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}

	// Only one watch per user is allowed; clear any previous one
	_ = srv.Users.Stop(user).Context(ctx).Do()

	resp, err := srv.Users.Watch(user, &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("unable to watch mailbox: %w", err)
	}

	expiration = time.UnixMilli(resp.Expiration).UTC()
	s.logger.Info("watch started",
		zap.String("topic", topicName),
		zap.Uint64("history_id", resp.HistoryId),
		zap.Time("expiration", expiration))
	return resp.HistoryId, expiration, nil
}

// Stop stops push notifications for the mailbox
func (s *Service) Stop(ctx context.Context) error {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return err
	}
	if err := srv.Users.Stop(user).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %w", err)
	}
	return nil
}

// BuildQuery builds a Gmail search query for [since, until)
func BuildQuery(since, until time.Time, extra string) string {
	parts := []string{
		"after:" + strconv.FormatInt(since.Unix(), 10),
		"before:" + strconv.FormatInt(until.Unix(), 10),
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, " ")
}

// ConvertMessage maps a full-format Gmail message to a RawMessage
func ConvertMessage(msg *gmail.Message) domain.RawMessage {
	raw := domain.RawMessage{
		ID:         msg.Id,
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}
	if msg.Payload == nil {
		raw.Body = msg.Snippet
		return raw
	}

	raw.Subject = getHeader(msg.Payload.Headers, "Subject")
	raw.Sender = senderAddress(getHeader(msg.Payload.Headers, "From"))

	plain, html := getEmailBody(msg.Payload)
	raw.Body = mailtext.Body(plain, html)
	if raw.Body == "" {
		raw.Body = msg.Snippet
	}
	return raw
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// senderAddress extracts the address from "Name <email@example.com>"
func senderAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.Index(from[start:], ">"); end > 0 {
			return from[start+1 : start+end]
		}
	}
	return strings.TrimSpace(from)
}

// getEmailBody returns the first text/plain and text/html bodies
func getEmailBody(payload *gmail.MessagePart) (plain, html string) {
	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		if part.Body != nil && part.Body.Data != "" && part.Filename == "" {
			if data, ok := decodeBody(part.Body.Data); ok {
				switch part.MimeType {
				case "text/plain":
					if plain == "" {
						plain = data
					}
				case "text/html":
					if html == "" {
						html = data
					}
				}
			}
		}
		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(payload)
	return plain, html
}

func decodeBody(data string) (string, bool) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), true
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b), true
	}
	return "", false
}
