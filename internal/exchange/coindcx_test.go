package exchange

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
	"github.com/biplawofficial/TradeAutomation/pkg/config"
)

func testClient(t *testing.T, api, public string) *CoinDCX {
	t.Helper()
	c, err := NewCoinDCX(CoinDCXConfig{
		Credentials: config.Credentials{Key: "k", Secret: "s"},
		Pair:        "B-RIVER_USDT",
		Depth:       10,
		BaseURL:     api,
		PublicURL:   public,
	})
	if err != nil {
		t.Fatalf("NewCoinDCX: %v", err)
	}
	return c
}

func TestPlaceOrderMarketOmitsPrice(t *testing.T) {
	var gotBody []byte
	var gotSig, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-AUTH-SIGNATURE")
		gotKey = r.Header.Get("X-AUTH-APIKEY")
		w.Write([]byte(`[{"id":"abc","status":"open"}]`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	out, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Side:      domain.SideSell,
		Quantity:  2.5,
		OrderType: domain.OrderTypeMarket,
		Leverage:  15,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !strings.Contains(string(out), `"id":"abc"`) {
		t.Fatalf("unexpected response passthrough: %s", out)
	}

	body := string(gotBody)
	if strings.Contains(body, `"price"`) {
		t.Fatalf("market order body must not contain a price: %s", body)
	}
	if !strings.HasPrefix(body, `{"timestamp":`) {
		t.Fatalf("timestamp must lead the signed body: %s", body)
	}
	for _, want := range []string{`"side":"sell"`, `"pair":"B-RIVER_USDT"`, `"order_type":"market_order"`, `"total_quantity":2.5`, `"leverage":15`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}

	// the transmitted bytes must verify against the signature header
	want := hmacHex("s", gotBody)
	if !hmac.Equal([]byte(want), []byte(gotSig)) {
		t.Fatalf("signature %s does not cover transmitted body (want %s)", gotSig, want)
	}
	if gotKey != "k" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if _, err := hex.DecodeString(gotSig); err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}
}

func TestPlaceOrderLimitCarriesPriceString(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`[{"id":"def"}]`))
	}))
	defer srv.Close()

	price := 0.2962
	c := testClient(t, srv.URL, srv.URL)
	if _, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Side:      domain.SideBuy,
		Quantity:  1,
		OrderType: domain.OrderTypeLimit,
		Price:     &price,
		Leverage:  10,
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !strings.Contains(string(gotBody), `"price":"0.2962"`) {
		t.Fatalf("limit order must stringify price: %s", gotBody)
	}
}

func TestPlaceOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Insufficient balance"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	_, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Side: domain.SideBuy, Quantity: 1, OrderType: domain.OrderTypeMarket, Leverage: 10,
	})
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", ue.StatusCode)
	}
	if !strings.Contains(string(ue.Body), "Insufficient balance") {
		t.Fatalf("raw body not carried: %s", ue.Body)
	}
}

func TestExitAllPositionsSkipsFlatAndContinuesOnFailure(t *testing.T) {
	var exited []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case EndpointListPositions:
			w.Write([]byte(`[
				{"id":"p1","pair":"B-RIVER_USDT","active_pos":5},
				{"id":"p2","pair":"B-RIVER_USDT","active_pos":0},
				{"id":"p3","pair":"B-RIVER_USDT","active_pos":-3}
			]`))
		case EndpointExitPosition:
			body, _ := io.ReadAll(r.Body)
			var req struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(body, &req)
			exited = append(exited, req.ID)
			if req.ID == "p1" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message":"exit rejected"}`))
				return
			}
			w.Write([]byte(`{"message":"ok"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	results, err := c.ExitAllPositions(context.Background())
	if err != nil {
		t.Fatalf("ExitAllPositions: %v", err)
	}

	// exactly two exit calls: the flat position is skipped, and the
	// failure on p1 does not prevent the attempt on p3
	if len(exited) != 2 || exited[0] != "p1" || exited[1] != "p3" {
		t.Fatalf("exit calls = %v, want [p1 p3]", exited)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Error == "" {
		t.Fatalf("p1 failure must be collected, got %+v", results[0])
	}
	if results[1].Error != "" {
		t.Fatalf("p3 should have succeeded, got %+v", results[1])
	}
}

func TestGetActivePosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"p0","pair":"B-RIVER_USDT","active_pos":0},
			{"id":"p1","pair":"B-RIVER_USDT","active_pos":-4}
		]`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	pos, err := c.GetActivePosition(context.Background())
	if err != nil {
		t.Fatalf("GetActivePosition: %v", err)
	}
	if pos == nil || pos.ID != "p1" {
		t.Fatalf("pos = %+v, want p1", pos)
	}
	if pos.Side() != domain.SideSell || pos.Size() != 4 {
		t.Fatalf("short -4 must map to sell/4, got %s/%v", pos.Side(), pos.Size())
	}
}

func TestBestCounterpartyPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":{"100":1,"105":2},"asks":{"110":1,"108":3}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)

	sellAt, err := c.BestCounterpartyPrice(context.Background(), domain.SideSell)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if sellAt.String() != "105" {
		t.Fatalf("sell crosses max bid: got %s, want 105", sellAt)
	}

	buyAt, err := c.BestCounterpartyPrice(context.Background(), domain.SideBuy)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if buyAt.String() != "108" {
		t.Fatalf("buy crosses min ask: got %s, want 108", buyAt)
	}
}

func TestBestCounterpartyPriceEmptySide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":{},"asks":{"110":1}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	if _, err := c.BestCounterpartyPrice(context.Background(), domain.SideSell); !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("empty bid side: got %v, want ErrNoData", err)
	}
}

func TestListOrdersPagination(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL)
	if _, err := c.ListOrders(context.Background(), "3", "25"); err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if !strings.Contains(gotBody, `"page":"3"`) || !strings.Contains(gotBody, `"size":"25"`) {
		t.Fatalf("page/size must travel as strings: %s", gotBody)
	}
}
