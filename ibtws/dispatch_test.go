/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ibtws

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// newTestDispatcher builds a dispatcher with no live socket, for
// exercising dispatch() directly against synthetic events.
func newTestDispatcher() *dispatcher {
	return &dispatcher{
		log: zap.NewNop(),
		reg: newRegistry(),
	}
}

func TestDispatchTickPriceUpdatesTicker(t *testing.T) {
	d := newTestDispatcher()
	ticker := newTicker(7)
	d.reg.putTicker(ticker)

	size := 200.0
	d.dispatch(TickPriceEvent{ReqID: 7, Kind: TickBid, Price: 99.5, Size: &size})
	d.dispatch(TickPriceEvent{ReqID: 7, Kind: TickAsk, Price: 99.75})

	bid, ok := ticker.Bid()
	if !ok || bid != 99.5 {
		t.Fatalf("Bid() = (%v, %v), want (99.5, true)", bid, ok)
	}
	bidSize, ok := ticker.BidSize()
	if !ok || bidSize != 200 {
		t.Fatalf("BidSize() = (%v, %v), want (200, true)", bidSize, ok)
	}
	ask, ok := ticker.Ask()
	if !ok || ask != 99.75 {
		t.Fatalf("Ask() = (%v, %v), want (99.75, true)", ask, ok)
	}

	mid, ok := ticker.Midpoint()
	if !ok || mid != (99.5+99.75)/2 {
		t.Fatalf("Midpoint() = (%v, %v)", mid, ok)
	}
}

func TestDispatchCreatesTickerOnFirstTickAndDeliversReadyEvent(t *testing.T) {
	d := newTestDispatcher()
	slot := newPendingSlot()
	d.reg.pending[1] = slot

	d.dispatch(TickPriceEvent{ReqID: 1, Kind: TickBid, Price: 10})

	if _, ok := d.reg.ticker(1); !ok {
		t.Fatalf("expected a ticker to be installed for reqID 1")
	}

	select {
	case ev := <-slot:
		res, ok := ev.(tickerReadyEvent)
		if !ok || res.ticker == nil {
			t.Fatalf("got %#v", ev)
		}
		bid, ok := res.ticker.Bid()
		if !ok || bid != 10 {
			t.Fatalf("Bid() = (%v, %v), want (10, true)", bid, ok)
		}
	default:
		t.Fatalf("expected a tickerReadyEvent delivery on the first tick")
	}

	// A second tick for the same reqID updates the existing ticker and
	// does not deliver again (the slot already fired once).
	d.dispatch(TickPriceEvent{ReqID: 1, Kind: TickAsk, Price: 11})
	select {
	case ev := <-slot:
		t.Fatalf("expected no second delivery, got %#v", ev)
	default:
	}
}

func TestDispatchShortableGenericTick(t *testing.T) {
	d := newTestDispatcher()
	ticker := newTicker(3)
	d.reg.putTicker(ticker)

	d.dispatch(TickGenericEvent{ReqID: 3, Kind: TickShortable, Value: 2.6})

	avail, ok := ticker.ShortAvailability()
	if !ok || avail != ShortAvailable {
		t.Fatalf("ShortAvailability() = (%v, %v), want (Available, true)", avail, ok)
	}
}

func TestDispatchOrderLifecycle(t *testing.T) {
	d := newTestDispatcher()

	order := &Order{OrderID: 11, Action: "BUY", OrderType: "LMT"}
	state := &OrderState{Status: "PreSubmitted"}
	d.dispatch(OpenOrderEvent{OrderID: 11, Order: order, State: state})

	tr, ok := d.reg.orderTracker(11)
	if !ok {
		t.Fatalf("expected an order tracker for id 11")
	}
	got, ok := tr.Order()
	if !ok || got.Action != "BUY" {
		t.Fatalf("Order() = (%#v, %v)", got, ok)
	}

	filled := decimal.NewFromInt(100)
	remaining := decimal.NewFromInt(0)
	d.dispatch(OrderStatusEvent{Status: OrderStatus{
		OrderID: 11, Status: "Filled", Filled: filled, Remaining: remaining, AvgFillPrice: 50.25,
	}})

	status, ok := tr.Status()
	if !ok || status != "Filled" {
		t.Fatalf("Status() = (%q, %v), want (\"Filled\", true)", status, ok)
	}
	isFilled, ok := tr.IsFilled()
	if !ok || !isFilled {
		t.Fatalf("IsFilled() = (%v, %v), want (true, true)", isFilled, ok)
	}

	exec := &Execution{OrderID: 11, ExecID: "exec-1", Shares: decimal.NewFromInt(100), Price: 50.25}
	d.dispatch(ExecutionDataEvent{ReqID: 11, Execution: exec})
	d.dispatch(CommissionReportEvent{Report: CommissionReport{ExecID: "exec-1", Commission: 1.25}})

	execs := tr.Executions()
	if len(execs) != 1 || execs[0].ExecID != "exec-1" {
		t.Fatalf("Executions() = %#v", execs)
	}
	paid, ok := tr.CommissionsPaid()
	if !ok || paid != 1.25 {
		t.Fatalf("CommissionsPaid() = (%v, %v), want (1.25, true)", paid, ok)
	}
}

func TestDispatchContractDataAccumulatesUntilTerminator(t *testing.T) {
	d := newTestDispatcher()
	slot := newPendingSlot()
	d.reg.pending[5] = slot

	d.dispatch(ContractDataEvent{ReqID: 5, Details: ContractDetails{MarketName: "NASDAQ"}})
	d.dispatch(ContractDataEvent{ReqID: 5, Details: ContractDetails{MarketName: "NYSE"}})

	select {
	case <-slot:
		t.Fatalf("expected no delivery before ContractDataEnd")
	default:
	}

	d.dispatch(ContractDataEndEvent{ReqID: 5})

	select {
	case ev := <-slot:
		res, ok := ev.(contractDataResult)
		if !ok || len(res.details) != 2 {
			t.Fatalf("got %#v", ev)
		}
	default:
		t.Fatalf("expected a delivery after ContractDataEnd")
	}
}

func TestDispatchAccountSnapshotPublishedOnDownloadEnd(t *testing.T) {
	d := newTestDispatcher()

	pos1 := Position{Contract: &Contract{SecType: "STK"}, AccountName: "DU123"}
	pos2 := Position{Contract: &Contract{SecType: "OPT"}, AccountName: "DU123"}
	d.dispatch(PortfolioValueEvent{Position: pos1})
	d.dispatch(PortfolioValueEvent{Position: pos2})

	if _, ok := d.reg.account.Portfolio(); ok {
		t.Fatalf("expected no portfolio snapshot before AcctDownloadEnd")
	}

	d.dispatch(AcctDownloadEndEvent{})

	snap, ok := d.reg.account.Portfolio()
	if !ok || len(snap) != 2 {
		t.Fatalf("Portfolio() = (%#v, %v)", snap, ok)
	}

	d.dispatch(AcctValueEvent{Key: "NetLiquidation", Value: "98765.43", Currency: "USD"})
	nlv, ok := d.reg.account.NetLiquidationValue()
	if !ok || !nlv.Equal(decimal.RequireFromString("98765.43")) {
		t.Fatalf("NetLiquidationValue() = (%v, %v)", nlv, ok)
	}
}
