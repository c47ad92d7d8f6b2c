package pipeline

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/howlrs/board4go/internal/controller"
	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/order"
	"github.com/howlrs/board4go/internal/position"
)

// orderLinkSuffix is the fixed client-order-id suffix reused across every
// place call in a run (SPEC_FULL.md §9/§6): `{exchange}_{symbol}_board4rs`.
// Kept unchanged from the distilled spec's literal wire value — it is a
// documented, deliberately-unvalidated format, not a naming choice for
// this module.
const orderLinkSuffix = "board4rs"

func orderLinkID(exchangeName, symbol string) string {
	return exchangeName + "_" + symbol + "_" + orderLinkSuffix
}

// runOrderManagerStage is the wall-chasing decision loop: on every
// targetPrice it re-checks spacing, cancels any previous order, dedups
// against an unchanged self-price, aggregates fills to decide whether the
// configured size is satisfied, and otherwise places a fresh order one
// tick more aggressive than the wall it chased.
func (r *Runner) runOrderManagerStage() error {
	linkID := orderLinkID(string(r.exchangeName), r.symbol)

	for {
		select {
		case <-r.t.Dying():
			return nil
		case target := <-r.targetPrice:
			if err := r.handleTargetPrice(r.ctx, linkID, target); err != nil {
				return err
			}
		}
	}
}

// handleTargetPrice runs one full iteration of the order-manager
// algorithm against a single scan hit. Returning a non-nil error here
// only for "completed" (via ErrCompleted through t.Kill); all other
// failures are logged and the loop continues.
func (r *Runner) handleTargetPrice(ctx context.Context, linkID string, target float64) error {
	if !r.orderState.IsAllowed() {
		return nil
	}
	snap := r.orderState.Snapshot()

	prevID := snap.OrderID
	if prevID != nil {
		if err := r.adapter.CancelOrder(ctx, *prevID); err != nil {
			r.logger.Add(controller.LevelError, "cancel previous order failed: "+err.Error())
			r.orderState.RecordError()
			// Per the REDESIGN FLAG (SPEC_FULL.md §7.4/§9): a cancel
			// failure is not fatal. The loop proceeds to re-place.
		}
	}

	snap = r.orderState.Snapshot()
	if snap.Price != nil && *snap.Price == target {
		return nil
	}

	rows, err := position.GetPositions(ctx, r.positionCell, r.positionRESTReq, r.broadcaster)
	if err != nil {
		r.logger.Add(controller.LevelError, "fetch positions failed: "+err.Error())
		return nil
	}

	aggID := ""
	if prevID != nil {
		aggID = *prevID
	}
	aggregated := position.Aggregate(aggID, rows)

	// qty_remaining never mutates after ToState: it stays fixed at the
	// configured size for the whole run, so every cycle recomputes the
	// remaining quantity fresh against the current aggregated fills
	// instead of compounding off a previously-shrunk value.
	// With no previous order there are no fills to subtract: the first
	// order is placed for the full configured size.
	effectiveQty := snap.QtyRemaining
	if prevID != nil {
		effectiveQty = snap.QtyRemaining.Sub(decimal.NewFromFloat(aggregated.Qty))
	}
	if prevID != nil && effectiveQty.Sign() <= 0 {
		r.logger.Add(controller.LevelSuccess, "order wall-chase [completed] for "+r.symbol)
		r.t.Kill(ErrCompleted)
		return ErrCompleted
	}

	execPrice := r.orderCfg.AddTickSize(decimal.NewFromFloat(target))
	execFloat, _ := execPrice.Float64()
	qtyFloat, _ := effectiveQty.Float64()

	params := exchange.OrderParams{
		OrderLinkID: &linkID,
		Side:        toExchangeSide(r.orderCfg.Side),
		Price:       execFloat,
		Qty:         qtyFloat,
		IsPostOnly:  r.orderCfg.IsPostOnly,
	}

	returnedID, err := r.adapter.PlaceOrder(ctx, params)
	if err != nil {
		r.orderState.RecordError()
		r.logger.Add(controller.LevelError, "place order failed: "+err.Error())
		return nil
	}

	r.orderState.RecordPlaced(returnedID, execPrice)
	r.logger.Add(controller.LevelInfo, "placed order "+returnedID+" at "+execPrice.String())
	return nil
}

func toExchangeSide(s order.Side) exchange.OrderSide {
	if s == order.Sell {
		return exchange.SideSell
	}
	return exchange.SideBuy
}
