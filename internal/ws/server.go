// Package ws pushes live auction events (new bids, reserve met,
// extensions, closing) to websocket watchers. The feed is push-only:
// bids are placed through the REST API, never over the socket.
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vehicleauctiongo/internal/auction"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second // must be < pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type WsServer struct {
	hub        *Hub
	subMgr     *subscriptionManager
	auctionSvc auction.IAuctionEngine
}

func NewWsServer(h *Hub, rdc *redis.Client, auctionSvc auction.IAuctionEngine) *WsServer {
	return &WsServer{
		hub:        h,
		subMgr:     newSubscriptionManager(rdc, h),
		auctionSvc: auctionSvc,
	}
}

// Handle upgrades the connection and streams the auction's event feed
// until the client goes away.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	auctionID := ginCtx.Query("auction_id")
	if auctionID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "auction_id is required"})
		return
	}
	if _, err := s.auctionSvc.GetAuction(ginCtx.Request.Context(), auctionID); err != nil {
		ginCtx.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}

	conn := &clientConn{rawConn: rawConn}
	s.hub.Join(auctionID, conn)
	s.subMgr.Subscribe(auctionID)

	go s.pingLoop(conn)
	go s.readLoop(auctionID, conn)
}

// readLoop discards anything the client sends and tears the connection
// down on close or timeout.
func (s *WsServer) readLoop(auctionID string, c *clientConn) {
	defer func() {
		s.hub.Leave(auctionID, c)
		s.subMgr.Unsubscribe(auctionID)
	}()

	c.rawConn.SetReadLimit(512)
	_ = c.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	c.rawConn.SetPongHandler(func(string) error {
		return c.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.rawConn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WsServer) pingLoop(c *clientConn) {
	tk := time.NewTicker(pingPeriod)
	defer tk.Stop()
	for range tk.C {
		if err := c.write(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}
