package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
	"github.com/biplawofficial/TradeAutomation/pkg/config"
	"github.com/biplawofficial/TradeAutomation/pkg/logger"
)

// CoinDCXConfig configures the CoinDCX derivatives client. Zero-value
// hosts fall back to the production endpoints.
type CoinDCXConfig struct {
	Credentials config.Credentials
	Pair        string
	Depth       int
	BaseURL     string
	PublicURL   string
}

// CoinDCX is a derivatives client for a single instrument pair. Every
// call is one synchronous round-trip; there is no retry and no client
// timeout, so a hung exchange call stalls the caller until it returns.
type CoinDCX struct {
	signer *Signer
	rest   *resty.Client
	public *resty.Client
	pair   string
	depth  int
}

func NewCoinDCX(cfg CoinDCXConfig) (*CoinDCX, error) {
	signer, err := NewSigner(SchemeCoinDCX, cfg.Credentials.Key, cfg.Credentials.Secret)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURLCoinDCX
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = PublicURLCoinDCX
	}
	if cfg.Depth <= 0 {
		cfg.Depth = 10
	}
	return &CoinDCX{
		signer: signer,
		rest:   resty.New().SetBaseURL(cfg.BaseURL),
		public: resty.New().SetBaseURL(cfg.PublicURL),
		pair:   cfg.Pair,
		depth:  cfg.Depth,
	}, nil
}

// Pair returns the instrument this client trades.
func (c *CoinDCX) Pair() string {
	return c.pair
}

// stamp carries the body-embedded timestamp. Embedded first so the
// serialized key order starts with "timestamp", matching the bytes
// the exchange verifies.
type stamp struct {
	Timestamp int64 `json:"timestamp"`
}

func (s *stamp) SetTimestamp(ts int64) {
	s.Timestamp = ts
}

type orderPayload struct {
	Side          domain.OrderSide `json:"side"`
	Pair          string           `json:"pair"`
	OrderType     domain.OrderType `json:"order_type"`
	TotalQuantity float64          `json:"total_quantity"`
	Leverage      int              `json:"leverage"`
	Price         *string          `json:"price,omitempty"`
}

type createOrderBody struct {
	stamp
	Order orderPayload `json:"order"`
}

type idBody struct {
	stamp
	ID string `json:"id"`
}

type listOrdersBody struct {
	stamp
	Page string `json:"page"`
	Size string `json:"size"`
}

type listPositionsBody struct {
	stamp
	Page                    string   `json:"page"`
	Size                    string   `json:"size"`
	MarginCurrencyShortName []string `json:"margin_currency_short_name"`
}

// post sends a signed POST and decodes the response into out (unless
// out is nil). Non-2xx responses surface as *domain.UpstreamError with
// the raw body attached.
func (c *CoinDCX) post(ctx context.Context, path string, payload any, out any) error {
	signed, err := c.signer.Sign(http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(signed.Headers).
		SetBody(signed.Body).
		Post(path)
	if err != nil {
		return errors.Wrapf(err, "coindcx POST %s", path)
	}
	if resp.IsError() {
		return &domain.UpstreamError{StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return errors.Wrapf(err, "coindcx POST %s: decode response %q", path, resp.Body())
		}
	}
	return nil
}

// PlaceOrder submits a market or limit order. The request must already
// be validated; market orders must not carry a price (the exchange
// contract requires its absence) and Validate enforces that.
func (c *CoinDCX) PlaceOrder(ctx context.Context, req domain.OrderRequest) (json.RawMessage, error) {
	order := orderPayload{
		Side:          req.Side,
		Pair:          c.pair,
		OrderType:     req.OrderType,
		TotalQuantity: req.Quantity,
		Leverage:      req.Leverage,
	}
	if req.OrderType == domain.OrderTypeLimit && req.Price != nil {
		p := strconv.FormatFloat(*req.Price, 'f', -1, 64)
		order.Price = &p
	}

	var out json.RawMessage
	if err := c.post(ctx, EndpointCreateOrder, &createOrderBody{Order: order}, &out); err != nil {
		return nil, err
	}
	logger.Infof("order placed: side=%s qty=%v type=%s pair=%s", req.Side, req.Quantity, req.OrderType, c.pair)
	return out, nil
}

// CancelOrder cancels an open order by exchange order id.
func (c *CoinDCX) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, EndpointCancelOrder, &idBody{ID: orderID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPositions returns the account's derivatives positions.
func (c *CoinDCX) ListPositions(ctx context.Context) ([]domain.Position, error) {
	body := &listPositionsBody{
		Page:                    "1",
		Size:                    "50",
		MarginCurrencyShortName: []string{"USDT"},
	}
	var positions []domain.Position
	if err := c.post(ctx, EndpointListPositions, body, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetActivePosition returns the first position with nonzero active
// size, or nil when the account is flat.
func (c *CoinDCX) GetActivePosition(ctx context.Context) (*domain.Position, error) {
	positions, err := c.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range positions {
		if !positions[i].IsFlat() {
			return &positions[i], nil
		}
	}
	return nil, nil
}

// ExitPosition closes one position via a market action netting it to zero.
func (c *CoinDCX) ExitPosition(ctx context.Context, positionID string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, EndpointExitPosition, &idBody{ID: positionID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExitResult records the outcome of one exit attempt within an exit-all.
type ExitResult struct {
	PositionID string  `json:"position_id"`
	ActivePos  float64 `json:"active_pos"`
	Error      string  `json:"error,omitempty"`
}

// ExitAllPositions exits every position with nonzero active size,
// skipping flat ones. Best-effort and not transactional: a failure on
// one position neither rolls back earlier exits nor stops later ones.
// The returned error is non-nil only when listing positions fails.
func (c *CoinDCX) ExitAllPositions(ctx context.Context) ([]ExitResult, error) {
	positions, err := c.ListPositions(ctx)
	if err != nil {
		return nil, err
	}

	var results []ExitResult
	for i := range positions {
		pos := &positions[i]
		if pos.IsFlat() {
			logger.Debugf("skipping position %s, no active size", pos.ID)
			continue
		}
		res := ExitResult{PositionID: pos.ID, ActivePos: pos.ActivePos}
		if _, err := c.ExitPosition(ctx, pos.ID); err != nil {
			res.Error = err.Error()
			logger.Errorf("exit position %s failed: %v", pos.ID, err)
		} else {
			logger.Infof("exited position %s, size=%v", pos.ID, pos.ActivePos)
		}
		results = append(results, res)
	}
	return results, nil
}

// ListOrders returns a page of order history. Page and size travel as
// strings on the wire.
func (c *CoinDCX) ListOrders(ctx context.Context, page, size string) (json.RawMessage, error) {
	if page == "" {
		page = "1"
	}
	if size == "" {
		size = "50"
	}
	var out json.RawMessage
	if err := c.post(ctx, EndpointListOrders, &listOrdersBody{Page: page, Size: size}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrderbook fetches the unauthenticated public snapshot.
func (c *CoinDCX) GetOrderbook(ctx context.Context) (json.RawMessage, error) {
	path := fmt.Sprintf(EndpointOrderbookFmt, c.pair, c.depth)
	resp, err := c.public.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, errors.Wrapf(err, "coindcx GET %s", path)
	}
	if resp.IsError() {
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	return json.RawMessage(resp.Body()), nil
}

// orderbookSides is the subset of the snapshot used for best-price
// lookups: price-string -> quantity maps per side.
type orderbookSides struct {
	Bids map[string]json.Number `json:"bids"`
	Asks map[string]json.Number `json:"asks"`
}

// BestCounterpartyPrice returns the price a market order on the given
// side would cross at: the maximum bid for a sell, the minimum ask for
// a buy. Returns domain.ErrNoData when that side of the book is empty.
func (c *CoinDCX) BestCounterpartyPrice(ctx context.Context, side domain.OrderSide) (decimal.Decimal, error) {
	raw, err := c.GetOrderbook(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	var book orderbookSides
	if err := json.Unmarshal(raw, &book); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode orderbook")
	}

	var levels map[string]json.Number
	switch side {
	case domain.SideSell:
		levels = book.Bids
	case domain.SideBuy:
		levels = book.Asks
	default:
		return decimal.Zero, NewSideError(side)
	}
	if len(levels) == 0 {
		return decimal.Zero, domain.ErrNoData
	}

	var best decimal.Decimal
	first := true
	for priceStr := range levels {
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "orderbook price %q", priceStr)
		}
		if first {
			best = price
			first = false
			continue
		}
		// sell crosses the highest bid, buy crosses the lowest ask
		if side == domain.SideSell && price.GreaterThan(best) {
			best = price
		}
		if side == domain.SideBuy && price.LessThan(best) {
			best = price
		}
	}
	return best, nil
}

// NewSideError wraps an unknown side as a validation error.
func NewSideError(side domain.OrderSide) error {
	return domain.NewValidationError(fmt.Sprintf("side must be %q or %q, got %q", domain.SideBuy, domain.SideSell, side))
}
