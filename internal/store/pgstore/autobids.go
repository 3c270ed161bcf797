package pgstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"vehicleauctiongo/internal/autobid"
)

const autoBidColumns = `id, auction_id, user_id, max_bid_amount, last_bid_amount, active,
       strategy_type, delay_seconds, max_bids_per_minute, max_spread_bids,
       preferred_timing, successful_bids, failed_bids, last_bid_at,
       created_at, updated_at`

// AutoBidStore is the Postgres implementation of autobid.Store. A
// partial unique index on (auction_id, user_id) WHERE active backs the
// one-active-auto-bid-per-user invariant.
type AutoBidStore struct {
	db *sql.DB
}

var _ autobid.Store = (*AutoBidStore)(nil)

func NewAutoBidStore(db *sql.DB) *AutoBidStore { return &AutoBidStore{db: db} }

func scanAutoBid(row interface{ Scan(...any) error }) (*autobid.AutoBid, error) {
	var (
		ab        autobid.AutoBid
		lastAmt   sql.NullFloat64
		timing    sql.NullString
		lastBidAt sql.NullTime
	)
	err := row.Scan(&ab.ID, &ab.AuctionID, &ab.UserID, &ab.MaxBidAmount, &lastAmt, &ab.Active,
		&ab.Strategy.Type, &ab.Strategy.DelaySeconds, &ab.Strategy.MaxBidsPerMinute,
		&ab.Strategy.MaxSpreadBids, &timing, &ab.SuccessfulBids, &ab.FailedBids,
		&lastBidAt, &ab.CreatedAt, &ab.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastAmt.Valid {
		v := lastAmt.Float64
		ab.LastBidAmount = &v
	}
	ab.Strategy.PreferredTiming = timing.String
	if lastBidAt.Valid {
		t := lastBidAt.Time
		ab.LastBidAt = &t
	}
	return &ab, nil
}

func (s *AutoBidStore) InsertAutoBid(ctx context.Context, ab *autobid.AutoBid) error {
	var timing any
	if ab.Strategy.PreferredTiming != "" {
		timing = ab.Strategy.PreferredTiming
	}
	_, err := s.db.ExecContext(ctx, `
	  INSERT INTO auto_bids (id, auction_id, user_id, max_bid_amount, last_bid_amount, active,
	                         strategy_type, delay_seconds, max_bids_per_minute, max_spread_bids,
	                         preferred_timing, successful_bids, failed_bids, last_bid_at,
	                         created_at, updated_at)
	       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		ab.ID, ab.AuctionID, ab.UserID, ab.MaxBidAmount, ab.LastBidAmount, ab.Active,
		ab.Strategy.Type, ab.Strategy.DelaySeconds, ab.Strategy.MaxBidsPerMinute,
		ab.Strategy.MaxSpreadBids, timing, ab.SuccessfulBids, ab.FailedBids,
		ab.LastBidAt, ab.CreatedAt, ab.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return autobid.ErrDuplicateAutoBid
	}
	return err
}

func (s *AutoBidStore) GetActive(ctx context.Context, auctionID, userID string) (*autobid.AutoBid, error) {
	ab, err := scanAutoBid(s.db.QueryRowContext(ctx, `
	  SELECT `+autoBidColumns+` FROM auto_bids
	   WHERE auction_id = $1 AND user_id = $2 AND active`, auctionID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ab, err
}

func (s *AutoBidStore) ListActiveByAuction(ctx context.Context, auctionID string) ([]autobid.AutoBid, error) {
	rows, err := s.db.QueryContext(ctx, `
	  SELECT `+autoBidColumns+` FROM auto_bids
	   WHERE auction_id = $1 AND active
	   ORDER BY created_at ASC, id ASC`, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []autobid.AutoBid
	for rows.Next() {
		ab, err := scanAutoBid(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ab)
	}
	return list, rows.Err()
}

func (s *AutoBidStore) ListAuctionIDsWithActive(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT auction_id FROM auto_bids WHERE active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *AutoBidStore) UpdateAutoBid(ctx context.Context, ab *autobid.AutoBid) error {
	_, err := s.db.ExecContext(ctx, `
	  UPDATE auto_bids
	     SET max_bid_amount = $2, last_bid_amount = $3, active = $4,
	         successful_bids = $5, failed_bids = $6, last_bid_at = $7,
	         updated_at = $8
	   WHERE id = $1`,
		ab.ID, ab.MaxBidAmount, ab.LastBidAmount, ab.Active,
		ab.SuccessfulBids, ab.FailedBids, ab.LastBidAt, ab.UpdatedAt)
	return err
}
