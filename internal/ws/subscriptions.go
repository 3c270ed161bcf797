package ws

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"vehicleauctiongo/internal/notify"
)

// subscriptionManager keeps exactly one Redis subscription per auction
// event channel, no matter how many websocket clients watch the same
// auction.
type subscriptionManager struct {
	rdc  *redis.Client
	hub  *Hub
	mu   sync.Mutex
	subs map[string]*subEntry // auctionID -> subscription data
}

type subEntry struct {
	refCnt int
	cancel context.CancelFunc
}

func newSubscriptionManager(rdc *redis.Client, hub *Hub) *subscriptionManager {
	return &subscriptionManager{
		rdc:  rdc,
		hub:  hub,
		subs: make(map[string]*subEntry),
	}
}

// Subscribe ensures the process listens to the auction's channel;
// subsequent calls for the same auction only bump the ref-counter.
func (sm *subscriptionManager) Subscribe(auctionID string) {
	sm.mu.Lock()
	if e, ok := sm.subs[auctionID]; ok {
		e.refCnt++
		sm.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ps := sm.rdc.Subscribe(ctx, notify.EventChannel(auctionID))
	sm.subs[auctionID] = &subEntry{refCnt: 1, cancel: cancel}
	sm.mu.Unlock()

	go func() {
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ps.Channel():
				if !ok {
					return
				}
				sm.hub.Broadcast(auctionID, []byte(m.Payload))
			}
		}
	}()
}

// Unsubscribe drops the ref-counter and tears the Redis subscription
// down when the last watcher leaves.
func (sm *subscriptionManager) Unsubscribe(auctionID string) {
	sm.mu.Lock()
	e, ok := sm.subs[auctionID]
	if !ok {
		sm.mu.Unlock()
		return
	}
	e.refCnt--
	if e.refCnt > 0 {
		sm.mu.Unlock()
		return
	}
	delete(sm.subs, auctionID)
	sm.mu.Unlock()

	e.cancel()
}
