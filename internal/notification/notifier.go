package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
	devicerepo "jobtrack-backend/internal/device/repository"
	"jobtrack-backend/pkg/fcm"
)

// Pusher delivers a notification to device tokens and returns the tokens
// that are no longer valid
type Pusher interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) ([]string, error)
}

// Notifier pushes status changes and follow-up reminders to registered
// devices
type Notifier struct {
	devices devicerepo.DeviceRepository
	pusher  Pusher
	logger  *zap.Logger
}

func NewNotifier(devices devicerepo.DeviceRepository, pusher Pusher, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{devices: devices, pusher: pusher, logger: logger.Named("notifier")}
}

// NotifyTransitions sends one notification per status change. It matches
// the reconciler's transition callback.
func (n *Notifier) NotifyTransitions(ctx context.Context, transitions []domain.StatusTransition) {
	for _, t := range transitions {
		data := fcm.NotificationData{
			Title: fmt.Sprintf("%s: %s", displayName(t.Company), t.To),
			Body:  fmt.Sprintf("%s moved from %s to %s", roleOrDefault(t.RoleTitle), t.From, t.To),
			Data: map[string]string{
				"type":           "status_change",
				"application_id": t.ApplicationID,
				"from":           string(t.From),
				"to":             string(t.To),
				"click_action":   "/applications/" + t.ApplicationID,
			},
		}
		if err := n.push(ctx, data); err != nil {
			n.logger.Warn("status change notification failed",
				zap.String("application_id", t.ApplicationID), zap.Error(err))
		}
	}
}

// NotifyFollowUp reminds the user to follow up on an application
func (n *Notifier) NotifyFollowUp(ctx context.Context, app *domain.Application) error {
	body := fmt.Sprintf("Time to follow up on %s (%s)", roleOrDefault(app.RoleTitle), app.Status)
	return n.push(ctx, fcm.NotificationData{
		Title: "Follow up: " + displayName(app.Company),
		Body:  body,
		Data: map[string]string{
			"type":           "follow_up",
			"application_id": app.ID,
			"click_action":   "/applications/" + app.ID,
		},
	})
}

func (n *Notifier) push(ctx context.Context, data fcm.NotificationData) error {
	tokens, err := n.devices.ListTokens(ctx)
	if err != nil {
		return fmt.Errorf("list device tokens: %w", err)
	}
	if len(tokens) == 0 {
		n.logger.Debug("no devices registered, skipping push", zap.String("title", data.Title))
		return nil
	}

	stale, err := n.pusher.SendToDevices(ctx, tokens, data)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		n.logger.Info("removing stale device tokens", zap.Int("count", len(stale)))
		if err := n.devices.DeleteTokens(ctx, stale); err != nil {
			n.logger.Warn("failed to remove stale tokens", zap.Error(err))
		}
	}
	return nil
}

func displayName(company string) string {
	if strings.TrimSpace(company) == "" {
		return "Unknown company"
	}
	return company
}

func roleOrDefault(role string) string {
	if strings.TrimSpace(role) == "" {
		return "Your application"
	}
	return role
}
