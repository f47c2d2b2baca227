package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/brainboard/internal/storage"
	"github.com/valter-silva-au/brainboard/pkg/models"
)

// NotificationService manages notification records in the structured store.
// Notifications are created whole and mutated only to flip the read flag.
type NotificationService struct {
	store *storage.StructuredStore
	now   func() time.Time
}

// NewNotificationService creates a notification service over the given store.
func NewNotificationService(store *storage.StructuredStore) *NotificationService {
	return &NotificationService{store: store, now: time.Now}
}

// GetAllNotifications returns a copy of every notification in the store.
func (s *NotificationService) GetAllNotifications() ([]models.Notification, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, len(doc.Notifications))
	copy(out, doc.Notifications)
	return out, nil
}

// UnreadCount returns how many notifications have not been read.
func (s *NotificationService) UnreadCount() (int, error) {
	all, err := s.GetAllNotifications()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range all {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// CreateNotification persists a notification, filling in ID and creation
// time when absent.
func (s *NotificationService) CreateNotification(n models.Notification) error {
	if n.Message == "" {
		return fmt.Errorf("creating notification: message must not be empty")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}

	return s.store.Mutate(func(doc *models.StoreDocument) error {
		doc.Notifications = append([]models.Notification{n}, doc.Notifications...)
		doc.PrependActivity(models.Activity{
			ID:          uuid.NewString(),
			Timestamp:   s.now().UTC(),
			Type:        ActivityNotifyCreated,
			Description: n.Message,
			Metadata:    map[string]any{"notification_id": n.ID, "type": n.Type},
		})
		return nil
	})
}

// MarkRead flips the read flag on a notification.
func (s *NotificationService) MarkRead(id string) error {
	return s.store.Mutate(func(doc *models.StoreDocument) error {
		n := doc.FindNotification(id)
		if n == nil {
			return fmt.Errorf("marking notification %s read: not found", id)
		}
		if n.Read {
			return storage.ErrNoChange
		}
		n.Read = true
		doc.PrependActivity(models.Activity{
			ID:          uuid.NewString(),
			Timestamp:   s.now().UTC(),
			Type:        ActivityNotifyRead,
			Description: fmt.Sprintf("notification %s read", id),
		})
		return nil
	})
}
