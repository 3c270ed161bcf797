package pgstore

import (
	"context"
	"database/sql"
	"errors"

	"vehicleauctiongo/internal/auction"
)

const bidColumns = `id, auction_id, bidder_id, amount, is_auto, preferred_timing, created_at`

func scanBid(row interface{ Scan(...any) error }) (*auction.Bid, error) {
	var (
		b      auction.Bid
		timing sql.NullString
	)
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.IsAuto, &timing, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.PreferredTiming = timing.String
	return &b, nil
}

func (s *session) InsertBid(ctx context.Context, b *auction.Bid) error {
	var timing any
	if b.PreferredTiming != "" {
		timing = b.PreferredTiming
	}
	_, err := s.q.ExecContext(ctx, `
	  INSERT INTO bids (id, auction_id, bidder_id, amount, is_auto, preferred_timing, created_at)
	       VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.AuctionID, b.BidderID, b.Amount, b.IsAuto, timing, b.CreatedAt)
	return err
}

func (s *session) BidCount(ctx context.Context, auctionID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT count(*) FROM bids WHERE auction_id = $1`, auctionID).Scan(&n)
	return n, err
}

// HighestBid orders by amount, then earliest bid, then id, so selection
// stays total even under equal timestamps.
func (s *session) HighestBid(ctx context.Context, auctionID string) (*auction.Bid, error) {
	b, err := scanBid(s.q.QueryRowContext(ctx, `
	  SELECT `+bidColumns+` FROM bids
	   WHERE auction_id = $1
	   ORDER BY amount DESC, created_at ASC, id ASC
	   LIMIT 1`, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *session) UniqueBidders(ctx context.Context, auctionID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT count(DISTINCT bidder_id) FROM bids WHERE auction_id = $1`, auctionID).Scan(&n)
	return n, err
}

func (s *session) ListBids(ctx context.Context, auctionID string) ([]auction.Bid, error) {
	rows, err := s.q.QueryContext(ctx, `
	  SELECT `+bidColumns+` FROM bids
	   WHERE auction_id = $1 ORDER BY created_at ASC, id ASC`, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []auction.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}
