// Package gateways holds the lookups into aggregates the bidding core
// does not own: vehicles and users live in the catalog/account side of
// the marketplace and are read-only here.
package gateways

import (
	"context"
	"database/sql"
	"errors"

	lru "github.com/hashicorp/golang-lru"

	"vehicleauctiongo/internal/auction"
)

// VehicleGateway reads the vehicle catalog through a small LRU cache;
// a listed vehicle's identity never changes, so cached entries do not
// go stale in any way the auction core cares about.
type VehicleGateway struct {
	db    *sql.DB
	cache *lru.Cache
}

var _ auction.VehicleGateway = (*VehicleGateway)(nil)

func NewVehicleGateway(db *sql.DB, cacheSize int) (*VehicleGateway, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &VehicleGateway{db: db, cache: cache}, nil
}

func (g *VehicleGateway) GetVehicleByID(ctx context.Context, id string) (*auction.Vehicle, error) {
	if v, ok := g.cache.Get(id); ok {
		return v.(*auction.Vehicle), nil
	}

	var v auction.Vehicle
	err := g.db.QueryRowContext(ctx,
		`SELECT id, make, model, year FROM vehicles WHERE id = $1`, id,
	).Scan(&v.ID, &v.Make, &v.Model, &v.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.cache.Add(id, &v)
	return &v, nil
}

type UserGateway struct {
	db *sql.DB
}

var _ auction.UserGateway = (*UserGateway)(nil)

func NewUserGateway(db *sql.DB) *UserGateway { return &UserGateway{db: db} }

func (g *UserGateway) GetUserByID(ctx context.Context, id string) (*auction.User, error) {
	var u auction.User
	err := g.db.QueryRowContext(ctx,
		`SELECT id, display_name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
