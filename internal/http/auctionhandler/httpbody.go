package auctionhandler

import "time"

type CreateAuctionBody struct {
	VehicleID      string     `json:"vehicle_id"      binding:"required"       example:"veh123"`
	ScheduledStart time.Time  `json:"scheduled_start" binding:"required"       example:"2025-07-27T16:05:05Z"`
	PreviewStart   *time.Time `json:"preview_start"   binding:"omitempty"      example:"2025-07-27T15:05:05Z"`
	EndsAt         time.Time  `json:"ends_at"         binding:"required"       example:"2025-07-28T16:05:05Z"`
	StartingPrice  float64    `json:"starting_price"  binding:"required,gt=0"  example:"1000"`
	ReservePrice   *float64   `json:"reserve_price"   binding:"omitempty,gt=0" example:"1500"`

	TriggerMinutes   *int `json:"trigger_minutes"   binding:"omitempty,gte=0"`
	ExtensionMinutes *int `json:"extension_minutes" binding:"omitempty,gte=0"`
	MaxExtensions    *int `json:"max_extensions"    binding:"omitempty,gte=0"`
} // @name CreateAuctionRequest

type UpdateStatusBody struct {
	Status string `json:"status" binding:"required,oneof=SCHEDULED PREVIEW ACTIVE ENDED" example:"ACTIVE"`
} // @name UpdateStatusRequest

type PlaceBidBody struct {
	BidderID string  `json:"bidder_id" binding:"required"      example:"user123"`
	Amount   float64 `json:"amount"    binding:"required,gt=0" example:"1200"`
} // @name PlaceBidRequest

type CreateAutoBidBody struct {
	UserID       string  `json:"user_id"        binding:"required"      example:"user123"`
	MaxBidAmount float64 `json:"max_bid_amount" binding:"required,gt=0" example:"5000"`
	Strategy     string  `json:"strategy"       binding:"omitempty,oneof=immediate patient closing" example:"immediate"`
} // @name CreateAutoBidRequest

type ErrorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=SCHEDULED PREVIEW ACTIVE ENDED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListAuctionsQuery
