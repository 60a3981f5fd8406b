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
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rolandgg/ibtws/builder"
	"github.com/rolandgg/ibtws/constants"
)

// pendingSlot is a one-shot reply channel for a single outstanding
// request, the Go counterpart of original_source's oneshot::channel.
// Buffered at capacity 1 so the reader never blocks handing off a
// reply even if the requestor never collects it.
type pendingSlot chan InboundEvent

func newPendingSlot() pendingSlot { return make(pendingSlot, 1) }

// registry owns every table the reader loop mutates. It is exclusively
// owned by the reader goroutine except for the request-registration
// path, which arrives over a channel so the reader never needs a
// mutex on its own state — the same single-writer discipline the
// teacher's tradestore/orderstore enforce with RWMutex, pushed one
// step further since there is only ever one writer at all.
type registry struct {
	pending map[int32]pendingSlot

	// orderTrackers and tickers are created only by the reader task
	// (ensureOrderTracker/tickerOrCreate), but CancelMarketData deletes
	// from tickers and Client.OrderTracker/ticker accessors read both
	// maps from the caller's own goroutine, so unlike the
	// reader-exclusive tables below they need a mutex rather than
	// single-writer discipline.
	tableMu       sync.Mutex
	orderTrackers map[int32]*OrderTracker
	tickers       map[int32]*Ticker

	contractAccum map[int32][]ContractDetails

	account *AccountReceiver
	// portfolioAccum collects PortfolioValue rows between AcctUpdate
	// start and AcctDownloadEnd, published as one slice on the
	// terminator per spec.md §4.4.
	portfolioAccum []Position
}

func newRegistry() *registry {
	return &registry{
		pending:       make(map[int32]pendingSlot),
		orderTrackers: make(map[int32]*OrderTracker),
		tickers:       make(map[int32]*Ticker),
		contractAccum: make(map[int32][]ContractDetails),
		account:       newAccountChannel(),
	}
}

func (r *registry) orderTracker(orderID int32) (*OrderTracker, bool) {
	r.tableMu.Lock()
	defer r.tableMu.Unlock()
	tr, ok := r.orderTrackers[orderID]
	return tr, ok
}

// ensureOrderTracker returns the existing tracker for orderID, or
// creates, stores, and returns a new one.
func (r *registry) ensureOrderTracker(orderID int32) *OrderTracker {
	r.tableMu.Lock()
	defer r.tableMu.Unlock()
	tr, ok := r.orderTrackers[orderID]
	if !ok {
		tr = newOrderTracker(orderID)
		r.orderTrackers[orderID] = tr
	}
	return tr
}

func (r *registry) allOrderTrackers() []*OrderTracker {
	r.tableMu.Lock()
	defer r.tableMu.Unlock()
	out := make([]*OrderTracker, 0, len(r.orderTrackers))
	for _, tr := range r.orderTrackers {
		out = append(out, tr)
	}
	return out
}

func (r *registry) ticker(reqID int32) (*Ticker, bool) {
	r.tableMu.Lock()
	defer r.tableMu.Unlock()
	t, ok := r.tickers[reqID]
	return t, ok
}

func (r *registry) putTicker(t *Ticker) {
	r.tableMu.Lock()
	r.tickers[t.ReqID()] = t
	r.tableMu.Unlock()
}

func (r *registry) deleteTicker(reqID int32) {
	r.tableMu.Lock()
	delete(r.tickers, reqID)
	r.tableMu.Unlock()
}

// registration is sent over the registration channel by a facade
// method just before it writes its request frame, so the reader can
// never observe a reply before the requestor has registered to
// receive it.
type registration struct {
	id   int32
	slot pendingSlot
}

// dispatcher ties the framed transport, the registries, and the three
// long-running tasks (reader, writer, keepalive) together. It is the
// generalization of the teacher's session goroutines in fixclient to
// IB's simpler single-socket protocol.
type dispatcher struct {
	reader *framedReader
	writer *framedWriter
	log    *zap.Logger

	reg *registry

	regCh   chan registration
	writeCh chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	deadMu sync.RWMutex
	dead   map[string]error

	wg sync.WaitGroup
}

func newDispatcher(conn netConn, log *zap.Logger) *dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &dispatcher{
		reader:  newFramedReader(conn),
		writer:  newFramedWriter(conn),
		log:     log,
		reg:     newRegistry(),
		regCh:   make(chan registration, constants.RegistrationQueueCapacity),
		writeCh: make(chan []byte, constants.WriterQueueCapacity),
		ctx:     ctx,
		cancel:  cancel,
		dead:    make(map[string]error),
	}
}

// netConn is the minimal surface dispatcher needs from net.Conn,
// narrowed so tests can substitute net.Pipe() ends or any io.ReadWriter
// wrapped with a deadline-less Close.
type netConn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

func (d *dispatcher) markDead(which string, err error) {
	d.deadMu.Lock()
	d.dead[which] = err
	d.deadMu.Unlock()
	d.cancel()
}

func (d *dispatcher) deadErr(which string) error {
	d.deadMu.RLock()
	defer d.deadMu.RUnlock()
	return d.dead[which]
}

// register installs a pending slot for id before the caller's request
// frame is written, and returns the slot to await.
func (d *dispatcher) register(id int32) pendingSlot {
	slot := newPendingSlot()
	select {
	case d.regCh <- registration{id: id, slot: slot}:
	case <-d.ctx.Done():
	}
	return slot
}

// enqueueWrite hands a fully-encoded frame payload to the writer task.
func (d *dispatcher) enqueueWrite(payload []byte) error {
	if err := d.deadErr("writer"); err != nil {
		return err
	}
	select {
	case d.writeCh <- payload:
		return nil
	case <-d.ctx.Done():
		return &SocketDeadError{Which: "writer"}
	}
}

// runWriter drains writeCh and writes one frame at a time. Exclusive
// owner of the write half of the socket.
func (d *dispatcher) runWriter() {
	defer d.wg.Done()
	for {
		select {
		case payload := <-d.writeCh:
			if err := d.writer.write(payload); err != nil {
				d.markDead("writer", err)
				d.log.Error("writer task exiting", zap.Error(err))
				return
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// runKeepalive sends ReqCurrentTime on a fixed interval, matching
// spec.md §4.7's "keep the connection observably alive" requirement.
func (d *dispatcher) runKeepalive() {
	defer d.wg.Done()
	t := time.NewTicker(constants.KeepaliveIntervalSeconds * time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m := builder.New()
			m.Int32(int32(constants.OutReqCurrentTime))
			m.Str("1")
			_ = d.enqueueWrite(m.Bytes())
		case <-d.ctx.Done():
			return
		}
	}
}

// runReader is the sole owner of every registry table except pending
// registrations, which arrive over regCh. It reads one frame, drains
// any pending registrations, parses the frame, then dispatches.
func (d *dispatcher) runReader() {
	defer d.wg.Done()
	for {
		payload, err := d.reader.read()
		if err != nil {
			d.markDead("reader", err)
			d.log.Warn("reader task exiting", zap.Error(err))
			return
		}

		d.drainRegistrations()

		ev, err := parseFrame(payload)
		if err != nil {
			kind, _ := newFieldCursor(payload).str()
			d.log.Warn("dropping malformed frame", zap.Error(&ParseError{Kind: kind, Err: err}))
			continue
		}
		d.dispatch(ev)
	}
}

func (d *dispatcher) drainRegistrations() {
	for {
		select {
		case r := <-d.regCh:
			d.reg.pending[r.id] = r.slot
		default:
			return
		}
	}
}

// tickerOrCreate returns the ticker already installed for reqID, or
// installs a new one and delivers it to reqID's pending slot (if any)
// as a tickerReadyEvent. This is the "complete the one-shot on the
// first event, install a long-lived producer record" mechanism spec.md
// §9 describes for stream-shaped subscriptions: ReqMarketData
// registers a slot and awaits it, and whichever price/size/generic
// tick for that reqID arrives first both creates the Ticker and
// resolves the caller's await.
func (d *dispatcher) tickerOrCreate(reqID int32) *Ticker {
	if t, ok := d.reg.ticker(reqID); ok {
		return t
	}
	t := newTicker(reqID)
	d.reg.putTicker(t)
	d.deliver(reqID, tickerReadyEvent{ticker: t})
	return t
}

// tickerReadyEvent is the aggregate value delivered to a ReqMarketData
// caller once its first correlated tick arrives, the Ticker-flavored
// counterpart of contractDataResult.
type tickerReadyEvent struct {
	ticker *Ticker
}

func (tickerReadyEvent) inboundEvent() {}

// deliver hands an event to a pending slot if one is registered for
// id, non-blocking since every slot is buffered at capacity 1.
func (d *dispatcher) deliver(id int32, ev InboundEvent) {
	slot, ok := d.reg.pending[id]
	if !ok {
		return
	}
	select {
	case slot <- ev:
	default:
	}
}

// dispatch routes one decoded event to its subscription table and/or
// pending-request slot, per spec.md §4.4's full routing table.
func (d *dispatcher) dispatch(ev InboundEvent) {
	switch e := ev.(type) {

	case AcctValueEvent:
		switch e.Key {
		case "AccountCode":
			d.reg.account.accountCode.set(e.Value)
		case "AccountType":
			d.reg.account.accountType.set(e.Value)
		case "NetLiquidationByCurrency", "NetLiquidation":
			if v, err := decimalFromString(e.Value); err == nil {
				d.reg.account.netLiquidation.set(v)
			}
		case "CashBalance":
			if v, err := decimalFromString(e.Value); err == nil {
				d.reg.account.cashBalance.set(v)
			}
		case "EquityWithLoanValue":
			if v, err := decimalFromString(e.Value); err == nil {
				d.reg.account.equityWithLoan.set(v)
			}
		case "ExcessLiquidity":
			if v, err := decimalFromString(e.Value); err == nil {
				d.reg.account.excessLiquidity.set(v)
			}
		case "RealizedPnL":
			if v, err := decimalFromString(e.Value); err == nil {
				d.reg.account.realizedPNL.set(v)
			}
		case "UnrealizedPnL":
			if v, err := decimalFromString(e.Value); err == nil {
				d.reg.account.unrealizedPNL.set(v)
			}
		case "TotalCashBalance":
			if v, err := decimalFromString(e.Value); err == nil {
				d.reg.account.totalCashBalance.set(v)
			}
		}

	case PortfolioValueEvent:
		d.reg.portfolioAccum = append(d.reg.portfolioAccum, e.Position)

	case AcctDownloadEndEvent:
		snapshot := make([]Position, len(d.reg.portfolioAccum))
		copy(snapshot, d.reg.portfolioAccum)
		d.reg.account.portfolio.set(snapshot)
		d.reg.portfolioAccum = nil

	case AcctUpdateTimeEvent:
		d.reg.account.updateTime.set(e.Time)

	case CurrentTimeEvent:
		// keepalive round-trip only; nothing subscribes to it today.

	case NextValidIDEvent:
		d.deliver(nextValidIDCorrelationID, e)

	case ContractDataEvent:
		d.reg.contractAccum[e.ReqID] = append(d.reg.contractAccum[e.ReqID], e.Details)

	case ContractDataEndEvent:
		details := d.reg.contractAccum[e.ReqID]
		delete(d.reg.contractAccum, e.ReqID)
		d.deliver(e.ReqID, contractDataResult{details: details})

	case OpenOrderEvent:
		tr := d.reg.ensureOrderTracker(e.OrderID)
		tr.order.set(e.Order)
		tr.state.set(e.State)
		d.deliver(e.OrderID, e)

	case ExecutionDataEvent:
		tr := d.reg.ensureOrderTracker(e.Execution.OrderID)
		tr.executions.push(e.Execution)
		d.deliver(e.ReqID, e)

	case OrderStatusEvent:
		tr := d.reg.ensureOrderTracker(e.Status.OrderID)
		tr.status.set(&e.Status)

	case CommissionReportEvent:
		// CommissionReport does not carry an order id on the wire; it
		// is correlated to its execution out of band by ExecID, which
		// is resolved here by scanning every order tracker's executions.
		for _, tr := range d.reg.allOrderTrackers() {
			for _, ex := range tr.executions.all() {
				if ex.ExecID == e.Report.ExecID {
					tr.commissions.push(&e.Report)
					return
				}
			}
		}

	case TickPriceEvent:
		t := d.tickerOrCreate(e.ReqID)
		switch e.Kind {
		case TickBid, TickDelayedBid:
			t.bid.set(e.Price)
		case TickAsk, TickDelayedAsk:
			t.ask.set(e.Price)
		case TickLast, TickDelayedLast:
			t.last.set(e.Price)
		}
		if e.Size != nil {
			switch e.Kind {
			case TickBid, TickDelayedBid:
				t.bidSize.set(*e.Size)
			case TickAsk, TickDelayedAsk:
				t.askSize.set(*e.Size)
			case TickLast, TickDelayedLast:
				t.lastSize.set(*e.Size)
			}
		}

	case TickSizeEvent:
		t := d.tickerOrCreate(e.ReqID)
		switch e.Kind {
		case TickBidSize, TickDelayedBidSize:
			t.bidSize.set(e.Size)
		case TickAskSize, TickDelayedAskSize:
			t.askSize.set(e.Size)
		case TickLastSize, TickDelayedLastSize:
			t.lastSize.set(e.Size)
		case TickShortableShares:
			t.shortableShares.set(e.Size)
		}

	case TickStringEvent:
		// generic string ticks (e.g. RT volume timestamps) carry no
		// subscriber-visible state today; reserved for future ticker
		// fields.

	case TickGenericEvent:
		t := d.tickerOrCreate(e.ReqID)
		if e.Kind == TickShortable {
			t.shortAvail.set(shortAvailabilityFromFloat(e.Value))
		}

	case HistoricalDataEvent:
		d.deliver(e.ReqID, e)

	case ErrMsgEvent:
		if e.ID != nil {
			d.deliver(*e.ID, e)
		}
		d.log.Warn("broker error", zap.Int32("code", e.Code), zap.String("message", e.Message))

	case NotImplementedEvent:
		d.log.Debug("unhandled message kind", zap.Int32("kind", e.Kind))
	}
}

// contractDataResult is the aggregate value delivered to a
// ReqContractDetails caller once ContractDataEnd arrives: zero or more
// ContractData rows collapsed into one reply, since a single request
// can match several contracts.
type contractDataResult struct {
	details []ContractDetails
}

func (contractDataResult) inboundEvent() {}

// nextValidIDCorrelationID is the fixed slot id Connect registers
// before StartApi to await the broker's one NextValidId frame, chosen
// outside the ordinary request-id space (which starts at 1) so it
// never collides with a real request.
const nextValidIDCorrelationID int32 = -1
