// Package notify is the delivery-agnostic notification dispatcher. Every
// event is persisted as a notifications row (when addressed to a user)
// and published on the auction's Redis event channel for live fan-out.
// Delivery is fire-and-forget: failures are logged and never propagate
// into the operation that emitted the event.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vehicleauctiongo/internal/auction"
)

const eventChannelPrefix = "auction:"

func EventChannel(auctionID string) string {
	return eventChannelPrefix + auctionID + ":events"
}

type event struct {
	Event     string `json:"event"`
	UserID    string `json:"user_id,omitempty"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	AuctionID string `json:"auction_id,omitempty"`
	At        int64  `json:"at"`
}

type Dispatcher struct {
	db  *sql.DB
	rdc *redis.Client
}

var _ auction.Notifier = (*Dispatcher)(nil)

func NewDispatcher(db *sql.DB, rdc *redis.Client) *Dispatcher {
	return &Dispatcher{db: db, rdc: rdc}
}

func (d *Dispatcher) Notify(ctx context.Context, userID, notifType, title, message, auctionID string) {
	if userID != "" {
		_, err := d.db.ExecContext(ctx, `
		  INSERT INTO notifications (id, user_id, type, title, message, auction_id, created_at)
		       VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), userID, notifType, title, message, nullable(auctionID), time.Now().UTC())
		if err != nil {
			zap.L().Warn("notify.persist",
				zap.String("type", notifType),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	if auctionID == "" || d.rdc == nil {
		return
	}
	payload, err := json.Marshal(event{
		Event:     notifType,
		UserID:    userID,
		Title:     title,
		Message:   message,
		AuctionID: auctionID,
		At:        time.Now().Unix(),
	})
	if err != nil {
		zap.L().Warn("notify.marshal", zap.Error(err))
		return
	}
	if err := d.rdc.Publish(ctx, EventChannel(auctionID), string(payload)).Err(); err != nil {
		zap.L().Warn("notify.publish",
			zap.String("type", notifType),
			zap.String("auction_id", auctionID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) HasNotification(ctx context.Context, userID, notifType, auctionID string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, `
	  SELECT EXISTS (SELECT 1 FROM notifications
	                  WHERE user_id = $1 AND type = $2 AND auction_id = $3)`,
		userID, notifType, auctionID,
	).Scan(&exists)
	return exists, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
