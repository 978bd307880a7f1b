package exchange

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
	"github.com/biplawofficial/TradeAutomation/pkg/config"
	"github.com/biplawofficial/TradeAutomation/pkg/logger"
)

// DeltaConfig configures the Delta Exchange client.
type DeltaConfig struct {
	Credentials config.Credentials
	Product     string
	BaseURL     string
}

// Delta is a client for Delta Exchange derivatives. It is independent
// of the CoinDCX integration; only the signing scheme parameters differ.
type Delta struct {
	signer  *Signer
	rest    *resty.Client
	product string
}

func NewDelta(cfg DeltaConfig) (*Delta, error) {
	signer, err := NewSigner(SchemeDelta, cfg.Credentials.Key, cfg.Credentials.Secret)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURLDelta
	}
	return &Delta{
		signer:  signer,
		rest:    resty.New().SetBaseURL(cfg.BaseURL),
		product: cfg.Product,
	}, nil
}

// DeltaOrderRequest is the Delta order payload. Field order is fixed;
// the serialized bytes are signed and transmitted as-is.
type DeltaOrderRequest struct {
	ProductSymbol string  `json:"product_symbol"`
	Size          int     `json:"size"`
	Side          string  `json:"side"`
	OrderType     string  `json:"order_type"`
	LimitPrice    *string `json:"limit_price,omitempty"`
	StopOrderType string  `json:"stop_order_type,omitempty"`
	StopPrice     string  `json:"stop_price,omitempty"`
	TimeInForce   string  `json:"time_in_force,omitempty"`
	ReduceOnly    bool    `json:"reduce_only,omitempty"`
}

func (d *Delta) do(ctx context.Context, method, path string, payload any, out any) error {
	signed, err := d.signer.Sign(method, path, payload)
	if err != nil {
		return err
	}

	req := d.rest.R().
		SetContext(ctx).
		SetHeaders(signed.Headers).
		SetHeader("Accept", "application/json")

	var resp *resty.Response
	if method == http.MethodGet {
		resp, err = req.Get(path)
	} else {
		resp, err = req.SetBody(signed.Body).Post(path)
	}
	if err != nil {
		return errors.Wrapf(err, "delta %s %s", method, path)
	}
	if resp.IsError() {
		return &domain.UpstreamError{StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return errors.Wrapf(err, "delta %s %s: decode response %q", method, path, resp.Body())
		}
	}
	return nil
}

// PlaceOrder submits an order. A zero ProductSymbol falls back to the
// configured product.
func (d *Delta) PlaceOrder(ctx context.Context, req DeltaOrderRequest) (json.RawMessage, error) {
	if req.ProductSymbol == "" {
		req.ProductSymbol = d.product
	}
	var out json.RawMessage
	if err := d.do(ctx, http.MethodPost, EndpointDeltaOrders, &req, &out); err != nil {
		return nil, err
	}
	logger.Infof("delta order placed: product=%s side=%s size=%d", req.ProductSymbol, req.Side, req.Size)
	return out, nil
}

// GetBalances returns the wallet balances. The signed GET covers an
// empty body.
func (d *Delta) GetBalances(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := d.do(ctx, http.MethodGet, EndpointDeltaBalances, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
