package exchange

// Exchange endpoints. CoinDCX derivatives paths are signed against the
// api host; the orderbook lives on the separate public host.
const (
	BaseURLCoinDCX   = "https://api.coindcx.com"
	PublicURLCoinDCX = "https://public.coindcx.com"

	EndpointCreateOrder   = "/exchange/v1/derivatives/futures/orders/create"
	EndpointCancelOrder   = "/exchange/v1/derivatives/futures/orders/cancel"
	EndpointListOrders    = "/exchange/v1/derivatives/futures/orders"
	EndpointListPositions = "/exchange/v1/derivatives/futures/positions"
	EndpointExitPosition  = "/exchange/v1/derivatives/futures/positions/exit"

	// path args: instrument pair, depth
	EndpointOrderbookFmt = "/market_data/v3/orderbook/%s-futures/%d"

	BaseURLDelta          = "https://cdn-ind.testnet.deltaex.org"
	EndpointDeltaOrders   = "/v2/orders"
	EndpointDeltaBalances = "/v2/wallet/balances"
)
