package pgstore

import (
	"context"
	"database/sql"
	"errors"

	"vehicleauctiongo/internal/auction"
)

const auctionColumns = `id, vehicle_id, status, scheduled_start, preview_start,
       start_utc, end_utc, starting_price, current_price, reserve_price,
       reserve_met, reserve_met_at, extension_count, max_extensions,
       trigger_minutes, extension_minutes, created_at, updated_at`

func scanAuction(row interface{ Scan(...any) error }) (*auction.Auction, error) {
	var (
		a            auction.Auction
		preview      sql.NullTime
		start        sql.NullTime
		reserveMetAt sql.NullTime
	)
	err := row.Scan(&a.ID, &a.VehicleID, &a.Status, &a.ScheduledStart, &preview,
		&start, &a.EndUTC, &a.StartingPrice, &a.CurrentPrice, &a.ReservePrice,
		&a.ReserveMet, &reserveMetAt, &a.ExtensionCount, &a.MaxExtensions,
		&a.TriggerMinutes, &a.ExtensionMinutes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if preview.Valid {
		t := preview.Time
		a.PreviewStart = &t
	}
	if start.Valid {
		t := start.Time
		a.StartUTC = &t
	}
	if reserveMetAt.Valid {
		t := reserveMetAt.Time
		a.ReserveMetAt = &t
	}
	return &a, nil
}

func (s *session) getAuction(ctx context.Context, id string, forUpdate bool) (*auction.Auction, error) {
	q := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	a, err := scanAuction(s.q.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auction.ErrAuctionNotFound
	}
	return a, err
}

func (s *session) GetAuction(ctx context.Context, id string) (*auction.Auction, error) {
	return s.getAuction(ctx, id, false)
}

func (s *session) GetAuctionForUpdate(ctx context.Context, id string) (*auction.Auction, error) {
	return s.getAuction(ctx, id, true)
}

func (s *session) HasAuctionForVehicle(ctx context.Context, vehicleID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM auctions WHERE vehicle_id = $1)`, vehicleID,
	).Scan(&exists)
	return exists, err
}

func (s *session) InsertAuction(ctx context.Context, a *auction.Auction) error {
	_, err := s.q.ExecContext(ctx, `
	  INSERT INTO auctions (id, vehicle_id, status, scheduled_start, preview_start,
	                        start_utc, end_utc, starting_price, current_price, reserve_price,
	                        reserve_met, reserve_met_at, extension_count, max_extensions,
	                        trigger_minutes, extension_minutes, created_at, updated_at)
	       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.VehicleID, a.Status, a.ScheduledStart, a.PreviewStart,
		a.StartUTC, a.EndUTC, a.StartingPrice, a.CurrentPrice, a.ReservePrice,
		a.ReserveMet, a.ReserveMetAt, a.ExtensionCount, a.MaxExtensions,
		a.TriggerMinutes, a.ExtensionMinutes, a.CreatedAt, a.UpdatedAt)
	return err
}

func (s *session) UpdateAuction(ctx context.Context, a *auction.Auction) error {
	res, err := s.q.ExecContext(ctx, `
	  UPDATE auctions
	     SET status = $2, start_utc = $3, end_utc = $4, current_price = $5,
	         reserve_met = $6, reserve_met_at = $7, extension_count = $8,
	         updated_at = $9
	   WHERE id = $1`,
		a.ID, a.Status, a.StartUTC, a.EndUTC, a.CurrentPrice,
		a.ReserveMet, a.ReserveMetAt, a.ExtensionCount, a.UpdatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auction.ErrAuctionNotFound
	}
	return nil
}

func (s *session) listAuctions(ctx context.Context, query string, args ...any) ([]auction.Auction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (s *session) ListByStatus(ctx context.Context, statuses ...auction.Status) ([]auction.Auction, error) {
	ss := make([]string, len(statuses))
	for i, st := range statuses {
		ss[i] = string(st)
	}
	return s.listAuctions(ctx, `
	  SELECT `+auctionColumns+` FROM auctions
	   WHERE status = ANY($1) ORDER BY end_utc ASC`, ss)
}

func (s *session) ListAuctions(ctx context.Context, status auction.Status, limit, offset int) ([]auction.Auction, error) {
	if limit == 0 {
		limit = 10
	}
	if status != "" {
		return s.listAuctions(ctx, `
		  SELECT `+auctionColumns+` FROM auctions
		   WHERE status = $1 ORDER BY end_utc DESC LIMIT $2 OFFSET $3`,
			string(status), limit, offset)
	}
	return s.listAuctions(ctx, `
	  SELECT `+auctionColumns+` FROM auctions
	   ORDER BY end_utc DESC LIMIT $1 OFFSET $2`, limit, offset)
}
