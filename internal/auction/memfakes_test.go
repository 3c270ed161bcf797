package auction

import (
	"context"
	"sort"
	"sync"
	"time"
)

// fakeClock is a settable clock for deterministic engine tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// memStore is an in-memory Store. Run snapshots all state up front and
// restores it when fn fails, matching the all-or-nothing semantics of
// the transactional implementation.
type memStore struct {
	mu       sync.Mutex
	auctions map[string]Auction
	bids     map[string][]Bid
	winners  map[string]Winner
}

func newMemStore() *memStore {
	return &memStore{
		auctions: map[string]Auction{},
		bids:     map[string][]Bid{},
		winners:  map[string]Winner{},
	}
}

func (m *memStore) Run(ctx context.Context, fn func(Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapA := make(map[string]Auction, len(m.auctions))
	for k, v := range m.auctions {
		snapA[k] = v
	}
	snapB := make(map[string][]Bid, len(m.bids))
	for k, v := range m.bids {
		snapB[k] = append([]Bid(nil), v...)
	}
	snapW := make(map[string]Winner, len(m.winners))
	for k, v := range m.winners {
		snapW[k] = v
	}

	if err := fn((*memSession)(m)); err != nil {
		m.auctions, m.bids, m.winners = snapA, snapB, snapW
		return err
	}
	return nil
}

// memSession is memStore without the outer lock, used inside Run.
type memSession memStore

func (m *memStore) GetAuction(ctx context.Context, id string) (*Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).GetAuction(ctx, id)
}

func (m *memStore) GetAuctionForUpdate(ctx context.Context, id string) (*Auction, error) {
	return m.GetAuction(ctx, id)
}

func (m *memStore) HasAuctionForVehicle(ctx context.Context, vehicleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).HasAuctionForVehicle(ctx, vehicleID)
}

func (m *memStore) InsertAuction(ctx context.Context, a *Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).InsertAuction(ctx, a)
}

func (m *memStore) UpdateAuction(ctx context.Context, a *Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).UpdateAuction(ctx, a)
}

func (m *memStore) ListByStatus(ctx context.Context, statuses ...Status) ([]Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).ListByStatus(ctx, statuses...)
}

func (m *memStore) ListAuctions(ctx context.Context, status Status, limit, offset int) ([]Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).ListAuctions(ctx, status, limit, offset)
}

func (m *memStore) InsertBid(ctx context.Context, b *Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).InsertBid(ctx, b)
}

func (m *memStore) BidCount(ctx context.Context, auctionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).BidCount(ctx, auctionID)
}

func (m *memStore) HighestBid(ctx context.Context, auctionID string) (*Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).HighestBid(ctx, auctionID)
}

func (m *memStore) UniqueBidders(ctx context.Context, auctionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).UniqueBidders(ctx, auctionID)
}

func (m *memStore) ListBids(ctx context.Context, auctionID string) ([]Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).ListBids(ctx, auctionID)
}

func (m *memStore) HasWinner(ctx context.Context, auctionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).HasWinner(ctx, auctionID)
}

func (m *memStore) InsertWinner(ctx context.Context, w *Winner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*memSession)(m).InsertWinner(ctx, w)
}

func (s *memSession) GetAuction(_ context.Context, id string) (*Auction, error) {
	a, ok := s.auctions[id]
	if !ok {
		return nil, ErrAuctionNotFound
	}
	cp := a
	return &cp, nil
}

func (s *memSession) GetAuctionForUpdate(ctx context.Context, id string) (*Auction, error) {
	return s.GetAuction(ctx, id)
}

func (s *memSession) HasAuctionForVehicle(_ context.Context, vehicleID string) (bool, error) {
	for _, a := range s.auctions {
		if a.VehicleID == vehicleID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memSession) InsertAuction(_ context.Context, a *Auction) error {
	s.auctions[a.ID] = *a
	return nil
}

func (s *memSession) UpdateAuction(_ context.Context, a *Auction) error {
	if _, ok := s.auctions[a.ID]; !ok {
		return ErrAuctionNotFound
	}
	s.auctions[a.ID] = *a
	return nil
}

func (s *memSession) ListByStatus(_ context.Context, statuses ...Status) ([]Auction, error) {
	var out []Auction
	for _, a := range s.auctions {
		for _, st := range statuses {
			if a.Status == st {
				out = append(out, a)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndUTC.Before(out[j].EndUTC) })
	return out, nil
}

func (s *memSession) ListAuctions(_ context.Context, status Status, limit, offset int) ([]Auction, error) {
	var out []Auction
	for _, a := range s.auctions {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndUTC.After(out[j].EndUTC) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memSession) InsertBid(_ context.Context, b *Bid) error {
	s.bids[b.AuctionID] = append(s.bids[b.AuctionID], *b)
	return nil
}

func (s *memSession) BidCount(_ context.Context, auctionID string) (int, error) {
	return len(s.bids[auctionID]), nil
}

func (s *memSession) HighestBid(_ context.Context, auctionID string) (*Bid, error) {
	bids := s.bids[auctionID]
	if len(bids) == 0 {
		return nil, nil
	}
	best := bids[0]
	for _, b := range bids[1:] {
		switch {
		case b.Amount > best.Amount:
			best = b
		case b.Amount == best.Amount && b.CreatedAt.Before(best.CreatedAt):
			best = b
		case b.Amount == best.Amount && b.CreatedAt.Equal(best.CreatedAt) && b.ID < best.ID:
			best = b
		}
	}
	cp := best
	return &cp, nil
}

func (s *memSession) UniqueBidders(_ context.Context, auctionID string) (int, error) {
	seen := map[string]struct{}{}
	for _, b := range s.bids[auctionID] {
		seen[b.BidderID] = struct{}{}
	}
	return len(seen), nil
}

func (s *memSession) ListBids(_ context.Context, auctionID string) ([]Bid, error) {
	return append([]Bid(nil), s.bids[auctionID]...), nil
}

func (s *memSession) HasWinner(_ context.Context, auctionID string) (bool, error) {
	_, ok := s.winners[auctionID]
	return ok, nil
}

func (s *memSession) InsertWinner(_ context.Context, w *Winner) error {
	if _, ok := s.winners[w.AuctionID]; !ok {
		s.winners[w.AuctionID] = *w
	}
	return nil
}

// fakeGateways serves vehicles and users from maps.
type fakeGateways struct {
	vehicles map[string]Vehicle
	users    map[string]User
}

func (g *fakeGateways) GetVehicleByID(_ context.Context, id string) (*Vehicle, error) {
	if v, ok := g.vehicles[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (g *fakeGateways) GetUserByID(_ context.Context, id string) (*User, error) {
	if u, ok := g.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

type notifCall struct {
	userID    string
	notifType string
	auctionID string
}

// recordingNotifier captures emissions; HasNotification answers from the
// record, which is exactly how the once-only winner guard is exercised.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifCall
}

func (n *recordingNotifier) Notify(_ context.Context, userID, notifType, _, _, auctionID string) {
	n.mu.Lock()
	n.calls = append(n.calls, notifCall{userID: userID, notifType: notifType, auctionID: auctionID})
	n.mu.Unlock()
}

func (n *recordingNotifier) HasNotification(_ context.Context, userID, notifType, auctionID string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.calls {
		if c.userID == userID && c.notifType == notifType && c.auctionID == auctionID {
			return true, nil
		}
	}
	return false, nil
}

func (n *recordingNotifier) count(notifType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	cnt := 0
	for _, c := range n.calls {
		if c.notifType == notifType {
			cnt++
		}
	}
	return cnt
}

func (n *recordingNotifier) typesInOrder(auctionID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, c := range n.calls {
		if c.auctionID == auctionID {
			out = append(out, c.notifType)
		}
	}
	return out
}
