package auctionhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleauctiongo/internal/auction"
	"vehicleauctiongo/internal/autobid"
)

type stubAuctionSvc struct {
	auction.IAuctionEngine
	placeBid      func(req auction.PlaceBidRequest) (*auction.Bid, error)
	createAuction func(req auction.CreateAuctionRequest) (*auction.Auction, error)
	processResult func(id string) (*auction.Result, error)
	getAuction    func(id string) (*auction.Auction, error)
	bidHistory    func(id string) ([]auction.Bid, error)
}

func (s *stubAuctionSvc) PlaceBid(_ context.Context, req auction.PlaceBidRequest) (*auction.Bid, error) {
	return s.placeBid(req)
}

func (s *stubAuctionSvc) CreateAuction(_ context.Context, req auction.CreateAuctionRequest) (*auction.Auction, error) {
	return s.createAuction(req)
}

func (s *stubAuctionSvc) ProcessAuctionResult(_ context.Context, id string) (*auction.Result, error) {
	return s.processResult(id)
}

func (s *stubAuctionSvc) GetAuction(_ context.Context, id string) (*auction.Auction, error) {
	return s.getAuction(id)
}

func (s *stubAuctionSvc) BidHistory(_ context.Context, id string) ([]auction.Bid, error) {
	return s.bidHistory(id)
}

type stubAutoBidSvc struct {
	autobid.IAutoBidEngine
	create func(req autobid.CreateAutoBidRequest) (*autobid.AutoBid, error)
	cancel func(auctionID, userID string) error
}

func (s *stubAutoBidSvc) CreateAutoBid(_ context.Context, req autobid.CreateAutoBidRequest) (*autobid.AutoBid, error) {
	return s.create(req)
}

func (s *stubAutoBidSvc) CancelAutoBid(_ context.Context, auctionID, userID string) error {
	return s.cancel(auctionID, userID)
}

func newRouter(svc auction.IAuctionEngine, autoSvc autobid.IAutoBidEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(svc, autoSvc).Register(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPlaceBidCreated(t *testing.T) {
	svc := &stubAuctionSvc{placeBid: func(req auction.PlaceBidRequest) (*auction.Bid, error) {
		assert.Equal(t, "a1", req.AuctionID)
		assert.Equal(t, "u1", req.BidderID)
		assert.Equal(t, 1600.0, req.Amount)
		return &auction.Bid{ID: "b1", AuctionID: "a1", BidderID: "u1", Amount: 1600,
			CreatedAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}, nil
	}}
	r := newRouter(svc, &stubAutoBidSvc{})

	w := doJSON(t, r, http.MethodPost, "/auctions/a1/bids",
		`{"bidder_id":"u1","amount":1600}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var got BidDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "b1", got.ID)
	assert.Equal(t, 1600.0, got.Amount)
}

func TestPlaceBidErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", auction.ErrAuctionNotFound, http.StatusNotFound},
		{"not active", auction.ErrAuctionNotActive, http.StatusConflict},
		{"validation", auction.ValidationFailure("bid amount 1000.00 must exceed the current price 1200.00"), http.StatusBadRequest},
		{"unexpected", auction.ErrUnexpected, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubAuctionSvc{placeBid: func(auction.PlaceBidRequest) (*auction.Bid, error) {
				return nil, tc.err
			}}
			r := newRouter(svc, &stubAutoBidSvc{})

			w := doJSON(t, r, http.MethodPost, "/auctions/a1/bids",
				`{"bidder_id":"u1","amount":1000}`)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestPlaceBidValidationExposesReasons(t *testing.T) {
	svc := &stubAuctionSvc{placeBid: func(auction.PlaceBidRequest) (*auction.Bid, error) {
		return nil, auction.ValidationFailure("too low", "below minimum increment")
	}}
	r := newRouter(svc, &stubAutoBidSvc{})

	w := doJSON(t, r, http.MethodPost, "/auctions/a1/bids",
		`{"bidder_id":"u1","amount":1}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"too low", "below minimum increment"}, resp.Reasons)
}

func TestUnexpectedErrorIsOpaque(t *testing.T) {
	svc := &stubAuctionSvc{placeBid: func(auction.PlaceBidRequest) (*auction.Bid, error) {
		return nil, auction.ErrUnexpected
	}}
	r := newRouter(svc, &stubAutoBidSvc{})

	w := doJSON(t, r, http.MethodPost, "/auctions/a1/bids",
		`{"bidder_id":"u1","amount":1000}`)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal failure", resp.Error)
	assert.Empty(t, resp.Reasons)
}

func TestCreateAuctionRejectsInvertedWindow(t *testing.T) {
	r := newRouter(&stubAuctionSvc{}, &stubAutoBidSvc{})

	w := doJSON(t, r, http.MethodPost, "/auctions", `{
		"vehicle_id":"veh1",
		"scheduled_start":"2025-07-28T16:00:00Z",
		"ends_at":"2025-07-27T16:00:00Z",
		"starting_price":1000
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfoAggregatesBids(t *testing.T) {
	end := time.Now().UTC().Add(30 * time.Minute)
	svc := &stubAuctionSvc{
		getAuction: func(id string) (*auction.Auction, error) {
			return &auction.Auction{ID: id, VehicleID: "veh1", Status: auction.StatusActive,
				EndUTC: end, StartingPrice: 1000, CurrentPrice: 1600, ReserveMet: true}, nil
		},
		bidHistory: func(string) ([]auction.Bid, error) {
			return []auction.Bid{
				{ID: "b1", BidderID: "u1", Amount: 1200},
				{ID: "b2", BidderID: "u2", Amount: 1400},
				{ID: "b3", BidderID: "u1", Amount: 1600},
			}, nil
		},
	}
	r := newRouter(svc, &stubAutoBidSvc{})

	w := doJSON(t, r, http.MethodGet, "/auctions/a1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got AuctionDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3, got.BidCount)
	assert.Equal(t, 2, got.UniqueBidders)
	assert.True(t, got.SecondsRemaining > 0 && got.SecondsRemaining <= 1800)
	assert.True(t, got.ReserveMet)
}

func TestResultSold(t *testing.T) {
	svc := &stubAuctionSvc{processResult: func(id string) (*auction.Result, error) {
		return &auction.Result{
			AuctionID: id,
			Sold:      true,
			HighBid:   &auction.Bid{BidderID: "u2", Amount: 1600},
		}, nil
	}}
	r := newRouter(svc, &stubAutoBidSvc{})

	w := doJSON(t, r, http.MethodGet, "/auctions/a1/result", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got ResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Sold)
	assert.Equal(t, "u2", got.WinnerUserID)
	require.NotNil(t, got.WinningAmount)
	assert.Equal(t, 1600.0, *got.WinningAmount)
}

func TestCreateAutoBidDefaultsStrategy(t *testing.T) {
	autoSvc := &stubAutoBidSvc{create: func(req autobid.CreateAutoBidRequest) (*autobid.AutoBid, error) {
		assert.Equal(t, autobid.StrategyImmediate, req.StrategyType)
		return &autobid.AutoBid{ID: "ab1", AuctionID: req.AuctionID, UserID: req.UserID,
			MaxBidAmount: req.MaxBidAmount, Active: true,
			Strategy: autobid.Strategy{Type: autobid.StrategyImmediate}}, nil
	}}
	r := newRouter(&stubAuctionSvc{}, autoSvc)

	w := doJSON(t, r, http.MethodPost, "/auctions/a1/autobids",
		`{"user_id":"u1","max_bid_amount":5000}`)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateAutoBidConflict(t *testing.T) {
	autoSvc := &stubAutoBidSvc{create: func(autobid.CreateAutoBidRequest) (*autobid.AutoBid, error) {
		return nil, autobid.ErrDuplicateAutoBid
	}}
	r := newRouter(&stubAuctionSvc{}, autoSvc)

	w := doJSON(t, r, http.MethodPost, "/auctions/a1/autobids",
		`{"user_id":"u1","max_bid_amount":5000,"strategy":"patient"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelAutoBidNoContent(t *testing.T) {
	autoSvc := &stubAutoBidSvc{cancel: func(auctionID, userID string) error {
		assert.Equal(t, "a1", auctionID)
		assert.Equal(t, "u1", userID)
		return nil
	}}
	r := newRouter(&stubAuctionSvc{}, autoSvc)

	w := doJSON(t, r, http.MethodDelete, "/auctions/a1/autobids/u1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
}
