package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"jobtrack-backend/internal/application/domain"
)

// pushSyncDays is the mail window reconciled when a push arrives
const pushSyncDays = 2

// renewWatchEvery keeps the Gmail watch alive; Gmail expires it after 7 days
const renewWatchEvery = 24 * time.Hour

type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Syncer runs a mail sync
type Syncer interface {
	Sync(ctx context.Context, sinceDays int) (*domain.Summary, error)
}

// Watcher registers the mailbox for push notifications
type Watcher interface {
	Watch(ctx context.Context, topicName string) (historyID uint64, expiration time.Time, err error)
}

// Service turns Gmail push notifications received over Pub/Sub into syncs
type Service struct {
	pubsubClient *pubsub.Client
	syncer       Syncer
	watcher      Watcher
	logger       *zap.Logger
	projectID    string
	topicID      string
	subName      string

	mu sync.Mutex
	// Deduplication: Gmail may deliver several pushes for one history id
	lastHistoryID uint64
}

func NewService(ctx context.Context, projectID, topic, credentialsFile string, syncer Syncer, watcher Watcher, logger *zap.Logger) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	s := newService(syncer, watcher, logger)
	s.pubsubClient = client
	s.projectID = projectID
	s.topicID = TopicID(topic)
	s.subName = s.topicID + "-sub" // Convention: topic-sub
	return s, nil
}

func newService(syncer Syncer, watcher Watcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{syncer: syncer, watcher: watcher, logger: logger.Named("pubsub")}
}

// TopicID returns the short id of a topic given as an id or as
// projects/{project}/topics/{id}
func TopicID(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

// Start watches the mailbox and consumes notifications until ctx is done
func (s *Service) Start(ctx context.Context) error {
	if s.watcher != nil {
		s.watch(ctx)
		go s.renewWatch(ctx)
	}

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check subscription %s: %w", s.subName, err)
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicID)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("check topic %s: %w", s.topicID, err)
		}
		if !topicExists {
			return fmt.Errorf("topic %s does not exist, cannot create subscription", s.topicID)
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 60 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("create subscription %s: %w", s.subName, err)
		}
		s.logger.Info("created subscription", zap.String("subscription", s.subName))
	}

	// Syncs are serialized anyway
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	s.logger.Info("listening for mailbox notifications", zap.String("subscription", s.subName))
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if _, err := s.HandleNotification(ctx, msg.Data); err != nil {
			s.logger.Warn("notification handling failed", zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

// Close releases the Pub/Sub client
func (s *Service) Close() error {
	return s.pubsubClient.Close()
}

// HandleNotification syncs recent mail for a new history id. It reports
// whether a sync ran. Malformed payloads are dropped without error so they
// are not redelivered.
func (s *Service) HandleNotification(ctx context.Context, data []byte) (bool, error) {
	var notification GmailNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		s.logger.Warn("failed to unmarshal notification", zap.Error(err))
		return false, nil
	}

	s.mu.Lock()
	if notification.HistoryID != 0 && notification.HistoryID <= s.lastHistoryID {
		last := s.lastHistoryID
		s.mu.Unlock()
		s.logger.Debug("skipping duplicate notification",
			zap.Uint64("history_id", notification.HistoryID),
			zap.Uint64("last_history_id", last))
		return false, nil
	}
	s.mu.Unlock()

	summary, err := s.syncer.Sync(ctx, pushSyncDays)
	if err != nil {
		return false, fmt.Errorf("sync after push: %w", err)
	}

	s.mu.Lock()
	if notification.HistoryID > s.lastHistoryID {
		s.lastHistoryID = notification.HistoryID
	}
	s.mu.Unlock()

	s.logger.Info("synced after push",
		zap.String("email", notification.EmailAddress),
		zap.Uint64("history_id", notification.HistoryID),
		zap.Int("created", summary.Created),
		zap.Int("events_added", summary.EventsAdded))
	return true, nil
}

func (s *Service) fullTopicName() string {
	return fmt.Sprintf("projects/%s/topics/%s", s.projectID, s.topicID)
}

func (s *Service) watch(ctx context.Context) {
	historyID, expiration, err := s.watcher.Watch(ctx, s.fullTopicName())
	if err != nil {
		s.logger.Warn("failed to watch mailbox", zap.Error(err))
		return
	}
	s.mu.Lock()
	if historyID > s.lastHistoryID {
		s.lastHistoryID = historyID
	}
	s.mu.Unlock()
	s.logger.Info("mailbox watch active", zap.Time("expiration", expiration))
}

func (s *Service) renewWatch(ctx context.Context) {
	ticker := time.NewTicker(renewWatchEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.watch(ctx)
		}
	}
}
