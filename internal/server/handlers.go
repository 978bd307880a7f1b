package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
	"github.com/biplawofficial/TradeAutomation/internal/exchange"
	"github.com/biplawofficial/TradeAutomation/internal/journal"
	"github.com/biplawofficial/TradeAutomation/internal/store"
)

// Every endpoint answers HTTP 200 with {success, data|error}; clients
// inspect the success field, not the status code.

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, err error) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
}

func failMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
}

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := req.Validate(s.cfg.DefaultLeverage); err != nil {
		fail(c, err)
		return
	}

	data, err := s.dcx.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		s.jnl.Record(c.Request.Context(), journal.SourceAPI, req, "failed", err.Error())
		fail(c, err)
		return
	}
	s.jnl.Record(c.Request.Context(), journal.SourceAPI, req, "executed", string(data))
	ok(c, data)
}

type cancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if req.OrderID == "" {
		failMsg(c, "order_id is required")
		return
	}

	data, err := s.dcx.CancelOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}

func (s *Server) handleListPositions(c *gin.Context) {
	positions, err := s.dcx.ListPositions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, positions)
}

func (s *Server) handleExitPosition(c *gin.Context) {
	data, err := s.dcx.ExitPosition(c.Request.Context(), c.Param("position_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}

func (s *Server) handleExitAll(c *gin.Context) {
	results, err := s.dcx.ExitAllPositions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, results)
}

func (s *Server) handleOrderbook(c *gin.Context) {
	data, err := s.dcx.GetOrderbook(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}

func (s *Server) handleBestPrice(c *gin.Context) {
	side, err := domain.ParseSide(c.Query("side"))
	if err != nil {
		fail(c, err)
		return
	}
	price, err := s.dcx.BestCounterpartyPrice(c.Request.Context(), side)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"side": side, "price": price})
}

func (s *Server) handleListOrders(c *gin.Context) {
	data, err := s.dcx.ListOrders(c.Request.Context(), c.DefaultQuery("page", "1"), c.DefaultQuery("size", "50"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}

type scheduleRequest struct {
	Side      string   `json:"side"`
	Quantity  float64  `json:"quantity"`
	OrderType string   `json:"order_type"`
	Price     *float64 `json:"price,omitempty"`
	Leverage  int      `json:"leverage"`
	ExecuteAt string   `json:"execute_at"`
}

// parseExecuteAt accepts RFC3339 or a bare local timestamp like
// "2026-02-16T00:30:00" (the format the front-end sends).
func parseExecuteAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, domain.NewValidationError("execute_at must be an ISO timestamp")
	}
	return t, nil
}

func (s *Server) handleScheduleCreate(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	order := domain.OrderRequest{
		Side:      domain.OrderSide(req.Side),
		Quantity:  req.Quantity,
		OrderType: domain.OrderType(req.OrderType),
		Price:     req.Price,
		Leverage:  req.Leverage,
	}
	if err := order.Validate(s.cfg.DefaultLeverage); err != nil {
		fail(c, err)
		return
	}

	executeAt, err := parseExecuteAt(req.ExecuteAt)
	if err != nil {
		fail(c, err)
		return
	}

	trade, err := s.store.Create(store.CreateRequest{Order: order, ExecuteAt: executeAt}, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, trade)
}

func (s *Server) handleScheduleList(c *gin.Context) {
	ok(c, s.store.List())
}

func (s *Server) handleScheduleCancel(c *gin.Context) {
	trade, err := s.store.Cancel(c.Param("trade_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, trade)
}

func (s *Server) handleExecutions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := s.jnl.Recent(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, entries)
}

func (s *Server) handleReenter(c *gin.Context) {
	result, err := s.flow.Reenter(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}

func (s *Server) handleDeltaOrder(c *gin.Context) {
	var req exchange.DeltaOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	data, err := s.delta.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}

func (s *Server) handleDeltaBalances(c *gin.Context) {
	data, err := s.delta.GetBalances(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}
