package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/biplawofficial/TradeAutomation/pkg/logger"
	"github.com/biplawofficial/TradeAutomation/pkg/sigchan"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// same allow-all policy as the REST CORS layer
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamEnvelope is the per-tick message shape shared by all streams.
type streamEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Page    *int   `json:"page,omitempty"`
}

// fetchFunc produces one tick's payload.
type fetchFunc func(ctx context.Context) (any, error)

// runStream drives one push stream: a 1s cadence, one fetch per tick,
// the result (or the error) forwarded as a message. A failing tick
// emits {success:false} and the loop continues; only client disconnect
// or server shutdown ends it.
func (s *Server) runStream(ctx context.Context, conn *websocket.Conn, name string, fetch fetchFunc) {
	defer conn.Close()

	// read pump: its only job here is disconnect detection
	done := sigchan.New(1)
	go func() {
		defer done.Emit()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done.C():
			logger.Debugf("ws %s: client disconnected", name)
			return
		case <-ticker.C:
		}

		var msg streamEnvelope
		data, err := fetch(ctx)
		if err != nil {
			msg = streamEnvelope{Success: false, Error: err.Error()}
		} else {
			msg = streamEnvelope{Success: true, Data: data}
		}
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debugf("ws %s: write failed: %v", name, err)
			return
		}
	}
}

func (s *Server) wsPositions(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.runStream(c.Request.Context(), conn, "positions", func(ctx context.Context) (any, error) {
		return s.dcx.ListPositions(ctx)
	})
}

func (s *Server) wsOrderbook(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.runStream(c.Request.Context(), conn, "orderbook", func(ctx context.Context) (any, error) {
		return s.dcx.GetOrderbook(ctx)
	})
}

// ordersControl is the inbound page/size update a client may send on
// the orders stream.
type ordersControl struct {
	Page *json.Number `json:"page"`
	Size *json.Number `json:"size"`
}

func (s *Server) wsOrders(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	page, size := "1", "50"

	// read pump: forwards page/size updates, signals disconnect.
	// Malformed control messages are ignored, not fatal.
	done := sigchan.New(1)
	updates := make(chan ordersControl, 1)
	go func() {
		defer done.Emit()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ctl ordersControl
			if err := json.Unmarshal(raw, &ctl); err != nil {
				continue
			}
			select {
			case updates <- ctl:
			default:
			}
		}
	}()

	applyUpdates := func() {
		for {
			select {
			case ctl := <-updates:
				if ctl.Page != nil {
					page = ctl.Page.String()
				}
				if ctl.Size != nil {
					size = ctl.Size.String()
				}
			default:
				return
			}
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done.C():
			logger.Debugf("ws orders: client disconnected")
			return
		case <-ticker.C:
		}

		applyUpdates()

		var msg streamEnvelope
		data, err := s.dcx.ListOrders(ctx, page, size)
		if err != nil {
			msg = streamEnvelope{Success: false, Error: err.Error()}
		} else {
			p, _ := strconv.Atoi(page)
			msg = streamEnvelope{Success: true, Data: data, Page: &p}
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
