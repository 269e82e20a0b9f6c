package memory

import (
	"context"
	"fmt"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/repository"
)

type notificationRepository struct{ s *Store }

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.s.view(ctx, func(st *state) error {
		st.seq.notification++
		n.ID = st.seq.notification
		n.CreatedOn = time.Now().UTC()
		row := *n
		row.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			row.Attributes[k] = v
		}
		st.notifications = append(st.notifications, row)
		return nil
	})
}

func (r *notificationRepository) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	var mine []domain.Notification
	err := r.s.view(ctx, func(st *state) error {
		// newest first
		for i := len(st.notifications) - 1; i >= 0; i-- {
			if st.notifications[i].UserID == userID {
				mine = append(mine, st.notifications[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	total := int32(len(mine))
	if offset >= total {
		return []domain.Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	return r.s.view(ctx, func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].ID == id && st.notifications[i].UserID == userID {
				st.notifications[i].IsRead = true
				return nil
			}
		}
		return fmt.Errorf("notification %d: %w", id, repository.ErrNotFound)
	})
}
