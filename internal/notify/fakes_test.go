package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/mmynk/bandmates/internal/models"
)

// memoryStore is an in-memory Store for dispatcher tests.
type memoryStore struct {
	mu            sync.Mutex
	devices       []*models.Device
	notifications []*models.Notification
	subscribers   map[models.Application][]string // user IDs
	nextID        int64
	createCalls   int
	deviceErr     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{subscribers: make(map[models.Application][]string)}
}

func (s *memoryStore) RegisterDevice(ctx context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
	return nil
}

func (s *memoryStore) ListDevicesByUser(ctx context.Context, userID string, app models.Application) ([]*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deviceErr != nil {
		return nil, s.deviceErr
	}
	var out []*models.Device
	for _, d := range s.devices {
		if d.UserID == userID && d.Application == app {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.CreateNotifications(ctx, []*models.Notification{n})
}

func (s *memoryStore) CreateNotifications(ctx context.Context, ns []*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	for _, n := range ns {
		s.nextID++
		n.ID = s.nextID
		s.notifications = append(s.notifications, n)
	}
	return nil
}

func (s *memoryStore) CreateBroadcastCopies(ctx context.Context, n *models.Notification) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.subscribers[n.Application]
	for _, userID := range users {
		c := *n
		s.nextID++
		c.ID = s.nextID
		c.UserID = userID
		s.notifications = append(s.notifications, &c)
	}
	return len(users), nil
}

func (s *memoryStore) Subscribe(ctx context.Context, profileID string, app models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[app] = append(s.subscribers[app], profileID)
	return nil
}

func (s *memoryStore) ListNotificationsByUser(ctx context.Context, userID string, app models.Application, skip, size int) ([]*models.Notification, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.UserID == userID && n.Application == app {
			all = append(all, n)
		}
	}
	total := len(all)
	if skip > len(all) {
		skip = len(all)
	}
	all = all[skip:]
	if size < len(all) {
		all = all[:size]
	}
	return all, total, nil
}

func (s *memoryStore) MarkAllAsRead(ctx context.Context, userID string, app models.Application, maxID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID && n.Application == app && (maxID <= 0 || n.ID <= maxID) {
			n.Read = true
		}
	}
	return nil
}

func (s *memoryStore) CountUnread(ctx context.Context, userID string, app models.Application) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && n.Application == app && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

// recordingChannel records deliveries and fails for the configured tokens.
type recordingChannel struct {
	mu       sync.Mutex
	devices  []string
	topics   []string
	messages []Message
	failFor  map[string]bool
	topicErr error
}

var errDeliveryFailed = errors.New("delivery failed")

func (c *recordingChannel) DeliverToDevice(ctx context.Context, token string, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices = append(c.devices, token)
	c.messages = append(c.messages, msg)
	if c.failFor[token] {
		return errDeliveryFailed
	}
	return nil
}

func (c *recordingChannel) DeliverToTopic(ctx context.Context, topic string, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.messages = append(c.messages, msg)
	return c.topicErr
}
