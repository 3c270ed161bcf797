package pgstore

import (
	"context"

	"vehicleauctiongo/internal/auction"
)

func (s *session) HasWinner(ctx context.Context, auctionID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM auction_winners WHERE auction_id = $1)`, auctionID,
	).Scan(&exists)
	return exists, err
}

func (s *session) InsertWinner(ctx context.Context, w *auction.Winner) error {
	// ON CONFLICT keeps the write idempotent even if two finalizers race
	// past the existence check.
	_, err := s.q.ExecContext(ctx, `
	  INSERT INTO auction_winners (id, auction_id, vehicle_id, user_id, user_name, amount, won_at)
	       VALUES ($1,$2,$3,$4,$5,$6,$7)
	  ON CONFLICT (auction_id) DO NOTHING`,
		w.ID, w.AuctionID, w.VehicleID, w.UserID, w.UserName, w.Amount, w.WonAt)
	return err
}
