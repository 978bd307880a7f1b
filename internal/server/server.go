package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biplawofficial/TradeAutomation/internal/exchange"
	"github.com/biplawofficial/TradeAutomation/internal/journal"
	"github.com/biplawofficial/TradeAutomation/internal/services"
	"github.com/biplawofficial/TradeAutomation/internal/store"
	"github.com/biplawofficial/TradeAutomation/pkg/config"
)

// Server wires the API surface: REST endpoints plus the push streams.
// It is the only creator/canceller of scheduled trades; execution
// transitions belong to the scheduler.
type Server struct {
	cfg   *config.Config
	dcx   *exchange.CoinDCX
	delta *exchange.Delta
	store *store.Store
	jnl   *journal.Journal
	flow  *services.TradeFlow
}

func New(cfg *config.Config, dcx *exchange.CoinDCX, delta *exchange.Delta, st *store.Store, jnl *journal.Journal, flow *services.TradeFlow) *Server {
	return &Server{
		cfg:   cfg,
		dcx:   dcx,
		delta: delta,
		store: st,
		jnl:   jnl,
		flow:  flow,
	}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsAllowAll())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.POST("/order", s.handlePlaceOrder)
	api.POST("/order/cancel", s.handleCancelOrder)
	api.GET("/positions", s.handleListPositions)
	api.POST("/positions/exit/:position_id", s.handleExitPosition)
	api.POST("/positions/exit-all", s.handleExitAll)
	api.GET("/orderbook", s.handleOrderbook)
	api.GET("/orderbook/best", s.handleBestPrice)
	api.GET("/orders", s.handleListOrders)
	api.POST("/schedule", s.handleScheduleCreate)
	api.GET("/schedule", s.handleScheduleList)
	api.DELETE("/schedule/:trade_id", s.handleScheduleCancel)
	api.GET("/executions", s.handleExecutions)
	api.POST("/flow/reenter", s.handleReenter)

	delta := api.Group("/delta")
	delta.POST("/order", s.handleDeltaOrder)
	delta.GET("/balances", s.handleDeltaBalances)

	ws := r.Group("/ws")
	ws.GET("/positions", s.wsPositions)
	ws.GET("/orders", s.wsOrders)
	ws.GET("/orderbook", s.wsOrderbook)

	return r
}

// corsAllowAll mirrors the permissive policy the web front-end relies
// on: any origin, any method, any header.
func corsAllowAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
