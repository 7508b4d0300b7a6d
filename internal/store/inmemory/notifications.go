package inmemory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// ExistsUndismissed implements store.NotificationStore.
func (s *Store) ExistsUndismissed(ctx context.Context, userID, referenceID string, t domain.NotificationType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications {
		if n.UserID == userID && n.ReferenceID == referenceID && n.Type == t && !n.IsDismissed {
			return true, nil
		}
	}
	return false, nil
}

// InsertNotification implements store.NotificationStore.
func (s *Store) InsertNotification(ctx context.Context, userID string, c domain.Candidate) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	n := &storedNotification{
		Notification: domain.Notification{
			Candidate: c,
			ID:        uuid.New().String(),
			UserID:    userID,
			CreatedAt: s.now().UTC(),
		},
		seq: s.seq,
	}
	s.notifications = append(s.notifications, n)
	return n.ID, nil
}

// ListNotifications implements store.NotificationStore.
func (s *Store) ListNotifications(ctx context.Context, userID string, filter store.NotificationFilter) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*storedNotification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if n.IsDismissed && !filter.IncludeDismissed {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	result := make([]domain.Notification, 0, len(matched))
	for _, n := range matched {
		result = append(result, n.Notification)
	}
	return result, nil
}

// CountUnread implements store.NotificationStore. Dismissed notifications
// are not counted.
func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead && !n.IsDismissed {
			count++
		}
	}
	return count, nil
}

// MarkRead implements store.NotificationStore.
func (s *Store) MarkRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.find(userID, id)
	if n == nil {
		return store.ErrNotFound
	}
	n.IsRead = true
	return nil
}

// MarkAllRead implements store.NotificationStore and returns how many
// notifications changed.
func (s *Store) MarkAllRead(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead && !n.IsDismissed {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

// Dismiss implements store.NotificationStore.
func (s *Store) Dismiss(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.find(userID, id)
	if n == nil {
		return store.ErrNotFound
	}
	n.IsDismissed = true
	return nil
}

func (s *Store) find(userID, id string) *storedNotification {
	for _, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			return n
		}
	}
	return nil
}
