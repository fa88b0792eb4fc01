package notificationService

import (
	"Focus2026/internal/api/notification"
	"Focus2026/internal/entity"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/log"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Start schedules the welcome entry and the periodic alert rotation. It is a
// no-op while already started.
func (s *notificationService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done

	if s.cfg.Welcome != "" {
		s.welcome = s.cfg.Clock.AfterFunc(s.cfg.WelcomeDelay, func() {
			s.Add(context.Background(), s.cfg.Welcome, entity.NotificationSuccess)
		})
	}
	ticks, stopTicker := s.cfg.Clock.NewTicker(s.cfg.AlertInterval)
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer stopTicker()
		defer log.WithComponent(s.log, "notification").Debug("Alert rotation stopped")

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticks:
				if len(s.cfg.Alerts) == 0 {
					continue
				}
				msg := s.cfg.Alerts[s.cfg.Pick(len(s.cfg.Alerts))]
				s.Add(ctx, msg, entity.NotificationAlert)
			}
		}
	}()
}

// Stop cancels the welcome entry, the alert rotation and every pending
// removal timer, then waits for the rotation goroutine to exit.
func (s *notificationService) Stop() {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return
	}
	if s.welcome != nil {
		s.welcome.Stop()
		s.welcome = nil
	}
	for id, t := range s.expiry {
		t.Stop()
		delete(s.expiry, id)
	}
	s.items = nil
	close(s.stop)
	done := s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	<-done
}

func (s *notificationService) Add(ctx context.Context, message string, kind entity.NotificationType) entity.Notification {
	if kind == "" {
		kind = entity.NotificationAlert
	}
	now := s.cfg.Clock.Now()

	s.mu.Lock()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	n := entity.Notification{
		ID:        id,
		Message:   message,
		Type:      kind,
		CreatedAt: now,
	}
	s.items = append(s.items, n)
	s.expiry[id] = s.cfg.Clock.AfterFunc(s.cfg.Lifetime, func() {
		if s.remove(id) {
			s.hub.Broadcast(notification.EventRemoved, notification.RemovedPayload{ID: id})
		}
	})
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"id":         id,
		"type":       kind,
	}).Debug("Notification added")

	s.hub.Broadcast(notification.EventAdded, n)

	if kind == entity.NotificationAlert {
		_ = s.cue.Play(AlertVolume)
		s.push(n)
	}

	return n
}

func (s *notificationService) Remove(ctx context.Context, id int64) error {
	if !s.remove(id) {
		return notification.ErrNotificationNotFound
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"id":         id,
	}).Debug("Notification dismissed")

	s.hub.Broadcast(notification.EventRemoved, notification.RemovedPayload{ID: id})
	return nil
}

func (s *notificationService) List() []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *notificationService) remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.expiry[id]; ok {
		t.Stop()
		delete(s.expiry, id)
	}
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// push forwards alerts to WhatsApp. Delivery failures are logged and dropped.
func (s *notificationService) push(n entity.Notification) {
	if s.cfg.Sender == nil || s.cfg.Phone == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.cfg.Sender.SendMessage(ctx, s.cfg.Phone, "Focus2026: "+n.Message); err != nil {
			log.WithComponent(s.log, "notification").WithFields(logrus.Fields{
				"id":    n.ID,
				"error": err.Error(),
			}).Warn("WhatsApp push failed")
		}
	}()
}
