package exchange

import (
	"context"
	"fmt"
)

// NotImplementedAdapter is the stub used for any Name other than Bybit.
// It mirrors the original source's per-exchange `// [TODO]` arms in
// target/exchange.rs, which still constructed a BybitClient under the
// hood; here the stub instead returns a clear error rather than silently
// talking Bybit's wire format to a different venue.
type NotImplementedAdapter struct {
	Name Name
}

func (n NotImplementedAdapter) errf() error {
	return fmt.Errorf("exchange %q is not implemented", n.Name)
}

func (n NotImplementedAdapter) CancelOrder(ctx context.Context, orderLinkID string) error {
	return n.errf()
}

func (n NotImplementedAdapter) PlaceOrder(ctx context.Context, params OrderParams) (string, error) {
	return "", n.errf()
}

func (n NotImplementedAdapter) StreamTicker(ctx context.Context, symbol string, txWS chan<- Ticker, rxRESTReq <-chan struct{}, publish func(Ticker)) error {
	return n.errf()
}

func (n NotImplementedAdapter) StreamOrderboard(ctx context.Context, symbol string, depth int, txWS chan<- BookEvent, rxRESTReq <-chan struct{}, publish func(BookEvent)) error {
	return n.errf()
}

func (n NotImplementedAdapter) StreamPosition(ctx context.Context, symbol string, txWS chan<- []Position, rxRESTReq <-chan struct{}, publish func([]Position)) error {
	return n.errf()
}

func (n NotImplementedAdapter) Instruments(ctx context.Context) ([]Instrument, error) {
	return nil, n.errf()
}

func (n NotImplementedAdapter) TickerInfo(ctx context.Context, symbol string) (Ticker, error) {
	return Ticker{}, n.errf()
}
