package auctionhandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vehicleauctiongo/internal/auction"
	"vehicleauctiongo/internal/autobid"
)

type Handler struct {
	svc     auction.IAuctionEngine
	autoSvc autobid.IAutoBidEngine
}

func New(svc auction.IAuctionEngine, autoSvc autobid.IAutoBidEngine) *Handler {
	return &Handler{svc: svc, autoSvc: autoSvc}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/auctions", h.create)
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.PATCH("/auctions/:id/status", h.updateStatus)
	r.POST("/auctions/:id/bids", h.placeBid)
	r.GET("/auctions/:id/bids", h.bidHistory)
	r.GET("/auctions/:id/result", h.result)
	r.POST("/auctions/:id/autobids", h.createAutoBid)
	r.DELETE("/auctions/:id/autobids/:userId", h.cancelAutoBid)
}

// fail maps the domain failure taxonomy onto HTTP statuses.
func fail(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	switch auction.KindOf(err) {
	case auction.KindNotFound:
		status = http.StatusNotFound
	case auction.KindInvalidState, auction.KindConflict:
		status = http.StatusConflict
	case auction.KindValidationFailed:
		status = http.StatusBadRequest
		var f *auction.Failure
		if errors.As(err, &f) {
			resp.Reasons = f.Reasons
		}
	default:
		resp.Error = "internal failure"
	}
	c.JSON(status, resp)
}

// @Summary		Create an auction
// @Description	Lists a vehicle for sale. A vehicle can carry at most one auction.
// @Tags			Auctions
// @Param			body	body		CreateAuctionBody	true	"Auction payload"
// @Success		201		{object}	AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !body.EndsAt.After(body.ScheduledStart) {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: "ends_at must be after scheduled_start"})
		return
	}

	a, err := h.svc.CreateAuction(ginCtx.Request.Context(), auction.CreateAuctionRequest{
		VehicleID:        body.VehicleID,
		ScheduledStart:   body.ScheduledStart.UTC(),
		PreviewStart:     utcPtr(body.PreviewStart),
		EndUTC:           body.EndsAt.UTC(),
		StartingPrice:    body.StartingPrice,
		ReservePrice:     body.ReservePrice,
		TriggerMinutes:   body.TriggerMinutes,
		ExtensionMinutes: body.ExtensionMinutes,
		MaxExtensions:    body.MaxExtensions,
	})
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusCreated, toAuctionDTO(a))
}

// @Summary		Get auction details
// @Description	Listing shape plus bid aggregates and time remaining. The reserve amount is never exposed.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	AuctionDetailDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	a, err := h.svc.GetAuction(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		fail(ginCtx, err)
		return
	}
	bids, err := h.svc.BidHistory(ginCtx.Request.Context(), a.ID)
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, toAuctionDetailDTO(a, bids, time.Now().UTC()))
}

// @Summary		List auctions
// @Tags			Auctions
// @Param			status	query		string	false	"Status filter"	Enums(SCHEDULED,PREVIEW,ACTIVE,ENDED)
// @Param			limit	query		int		false	"Max results"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset"		minimum(0)	default(0)
// @Success		200		{array}		AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(ginCtx *gin.Context) {
	var q ListAuctionsQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	auctions, err := h.svc.ListAuctions(ginCtx.Request.Context(), auction.Status(q.Status), q.Limit, q.Offset)
	if err != nil {
		fail(ginCtx, err)
		return
	}
	out := make([]AuctionDTO, 0, len(auctions))
	for i := range auctions {
		out = append(out, toAuctionDTO(&auctions[i]))
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Update auction status
// @Description	Administrative forward-only transition.
// @Tags			Auctions
// @Param			id		path		string				true	"Auction ID"
// @Param			body	body		UpdateStatusBody	true	"New status"
// @Success		200		{object}	AuctionDTO
// @Failure		404		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions/{id}/status [patch]
func (h *Handler) updateStatus(ginCtx *gin.Context) {
	var body UpdateStatusBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	a, err := h.svc.UpdateStatus(ginCtx.Request.Context(), ginCtx.Param("id"), auction.Status(body.Status))
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, toAuctionDTO(a))
}

// @Summary		Place a bid
// @Tags			Bids
// @Param			id		path		string			true	"Auction ID"
// @Param			body	body		PlaceBidBody	true	"Bid payload"
// @Success		201		{object}	BidDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions/{id}/bids [post]
func (h *Handler) placeBid(ginCtx *gin.Context) {
	var body PlaceBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	bid, err := h.svc.PlaceBid(ginCtx.Request.Context(), auction.PlaceBidRequest{
		AuctionID: ginCtx.Param("id"),
		BidderID:  body.BidderID,
		Amount:    body.Amount,
	})
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusCreated, toBidDTO(bid))
}

// @Summary		Bid history
// @Tags			Bids
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{array}		BidDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/bids [get]
func (h *Handler) bidHistory(ginCtx *gin.Context) {
	bids, err := h.svc.BidHistory(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		fail(ginCtx, err)
		return
	}
	out := make([]BidDTO, 0, len(bids))
	for i := range bids {
		out = append(out, toBidDTO(&bids[i]))
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Auction result
// @Description	Finalized outcome of an ended auction; idempotent.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	ResultDTO
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/result [get]
func (h *Handler) result(ginCtx *gin.Context) {
	res, err := h.svc.ProcessAuctionResult(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, toResultDTO(res))
}

// @Summary		Create an auto-bid
// @Description	Stands up proxy bidding on the caller's behalf up to a ceiling.
// @Tags			AutoBids
// @Param			id		path		string				true	"Auction ID"
// @Param			body	body		CreateAutoBidBody	true	"Auto-bid payload"
// @Success		201		{object}	AutoBidDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions/{id}/autobids [post]
func (h *Handler) createAutoBid(ginCtx *gin.Context) {
	var body CreateAutoBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	strategy := autobid.StrategyType(body.Strategy)
	if body.Strategy == "" {
		strategy = autobid.StrategyImmediate
	}
	ab, err := h.autoSvc.CreateAutoBid(ginCtx.Request.Context(), autobid.CreateAutoBidRequest{
		AuctionID:    ginCtx.Param("id"),
		UserID:       body.UserID,
		MaxBidAmount: body.MaxBidAmount,
		StrategyType: strategy,
	})
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusCreated, toAutoBidDTO(ab))
}

// @Summary		Cancel an auto-bid
// @Tags			AutoBids
// @Param			id		path	string	true	"Auction ID"
// @Param			userId	path	string	true	"User ID"
// @Success		204
// @Router			/auctions/{id}/autobids/{userId} [delete]
func (h *Handler) cancelAutoBid(ginCtx *gin.Context) {
	err := h.autoSvc.CancelAutoBid(ginCtx.Request.Context(), ginCtx.Param("id"), ginCtx.Param("userId"))
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.Status(http.StatusNoContent)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
