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
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rolandgg/ibtws/builder"
	"github.com/rolandgg/ibtws/constants"
	"github.com/rolandgg/ibtws/internal/cache"
)

// Client is the caller-facing handle. It owns request-id/order-id
// allocation and every PlaceOrder/ReqXxx facade method; the reader,
// writer, and keepalive tasks live underneath it in a *dispatcher.
// Generalizes the teacher's session handle, narrowed from a FIX
// session's Application callbacks to IB's request/response + streaming
// model described in spec.md §4.
type Client struct {
	conn net.Conn
	d    *dispatcher
	log  *zap.Logger

	account *AccountReceiver
	bars    *cache.Cache

	nextReqID   atomic.Int32 // request ids; the first one issued is 1
	nextOrderID atomic.Int32 // next order id to hand out, seeded from NextValidId
}

// Connect opens a TCP connection and brings the client fully up:
// raw handshake literal, version-range negotiation, reader/writer
// start, StartApi (sent through the writer queue), await NextValidId,
// keepalive start, optional cache open, then subscribe to account
// updates.
func Connect(ctx context.Context, cfg *Config) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.addr())
	if err != nil {
		return nil, fmt.Errorf("ibtws: dialing %s: %w", cfg.addr(), err)
	}
	return connectOver(ctx, conn, cfg)
}

// connectOver runs the bring-up sequence over an already-open
// connection. Split out from Connect so tests can drive it over
// net.Pipe() without a real TCP listener.
func connectOver(ctx context.Context, conn net.Conn, cfg *Config) (*Client, error) {
	log := cfg.logger()

	if err := performHandshake(conn); err != nil {
		conn.Close()
		return nil, err
	}

	disp := newDispatcher(conn, log)

	slot := disp.register(nextValidIDCorrelationID)

	disp.wg.Add(2)
	go disp.runReader()
	go disp.runWriter()

	if err := writeStartAPI(disp, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	ev, err := awaitSlot(ctx, slot, 10*time.Second)
	if err != nil {
		conn.Close()
		return nil, &HandshakeError{Reason: fmt.Sprintf("awaiting NextValidId: %v", err)}
	}
	nvi, ok := ev.(NextValidIDEvent)
	if !ok {
		conn.Close()
		return nil, &ResponseShapeError{Want: "NextValidIDEvent", Got: fmt.Sprintf("%T", ev)}
	}

	disp.wg.Add(1)
	go disp.runKeepalive()

	c := &Client{conn: conn, d: disp, log: log, account: disp.reg.account}
	c.nextOrderID.Store(nvi.OrderID)

	if cfg.CachePath != "" {
		bars, err := cache.Open(cfg.CachePath)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("ibtws: opening bar cache: %w", err)
		}
		c.bars = bars
	}

	if err := c.subscribeAccountUpdates(); err != nil {
		conn.Close()
		return nil, err
	}

	return c, nil
}

// performHandshake writes the "API\0" literal followed by the
// length-prefixed client version range, then reads up to
// HandshakeMaxReads frames looking for the broker's version-ack reply:
// the first frame whose payload splits into exactly three NUL-separated
// fields. Its first field, the server version, must parse as an
// integer; the other fields are not interpreted.
func performHandshake(conn net.Conn) error {
	w := newFramedWriter(conn)
	if err := w.writeRaw([]byte(constants.HandshakePrefix)); err != nil {
		return &HandshakeError{Reason: err.Error()}
	}
	versionRange := fmt.Sprintf("v%d..%d", constants.MinClientVersion, constants.MaxClientVersion)
	if err := w.write([]byte(versionRange)); err != nil {
		return &HandshakeError{Reason: err.Error()}
	}

	r := newFramedReader(conn)
	for i := 0; i < constants.HandshakeMaxReads; i++ {
		payload, err := r.read()
		if err != nil {
			return &HandshakeError{Reason: err.Error()}
		}
		c := newFieldCursor(payload)
		if len(c.fields) != 3 { // server version, connection time, trailing split
			continue
		}
		version, _ := c.str()
		if _, err := strconv.Atoi(version); err != nil {
			return &HandshakeError{Reason: fmt.Sprintf("unparseable server version %q", version)}
		}
		return nil
	}
	return &HandshakeError{Reason: "no version-ack received within read budget"}
}

func writeStartAPI(d *dispatcher, cfg *Config) error {
	m := builder.New()
	m.Int32(int32(constants.OutStartApi))
	m.Int32(constants.APIStartVersion)
	m.Int32(cfg.ClientID)
	m.Str(cfg.OptionalCapabilities)
	return d.enqueueWrite(m.Bytes())
}

func awaitSlot(ctx context.Context, slot pendingSlot, timeout time.Duration) (InboundEvent, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev := <-slot:
		if em, ok := ev.(ErrMsgEvent); ok {
			be := &BrokerError{Code: em.Code, Message: em.Message}
			if em.ID != nil {
				be.ID = *em.ID
			}
			return nil, be
		}
		return ev, nil
	case <-t.C:
		return nil, fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsConnected reports whether both the reader and writer tasks are
// still running.
func (c *Client) IsConnected() bool {
	return c.d.deadErr("reader") == nil && c.d.deadErr("writer") == nil
}

// checkConnected is the fail-fast guard every request method runs
// first, per spec.md §4.5: "check is_connected() ... else fail with
// socket-dead error" rather than let a dead reader/writer strand the
// caller until its own context deadline.
func (c *Client) checkConnected() error {
	if err := c.d.deadErr("reader"); err != nil {
		return &SocketDeadError{Which: "reader"}
	}
	if err := c.d.deadErr("writer"); err != nil {
		return &SocketDeadError{Which: "writer"}
	}
	return nil
}

// Close tears down the socket; the reader/writer/keepalive tasks exit
// on their own once the connection breaks.
func (c *Client) Close() error {
	c.d.cancel()
	if c.bars != nil {
		_ = c.bars.Close()
	}
	return c.conn.Close()
}

func (c *Client) nextRequestID() int32 {
	return c.nextReqID.Add(1)
}

// --- account facade, reading straight through the shared AccountReceiver ---

func (c *Client) NetLiquidationValue() (decimal.Decimal, bool) { return c.account.NetLiquidationValue() }
func (c *Client) CashBalance() (decimal.Decimal, bool)         { return c.account.CashBalance() }
func (c *Client) ExcessLiquidity() (decimal.Decimal, bool)     { return c.account.ExcessLiquidity() }

// Account returns the live account-update handle directly, for callers
// who want the full AccountReceiver surface rather than the narrow
// convenience wrappers above.
func (c *Client) Account() *AccountReceiver { return c.account }

func (c *Client) subscribeAccountUpdates() error {
	m := builder.New()
	m.Int32(int32(constants.OutReqAcctData))
	m.Str("2")
	m.Bool(true)
	m.Str("")
	return c.d.enqueueWrite(m.Bytes())
}

// --- contract details ---

// ReqContractDetails resolves a (possibly partial) Contract into every
// matching ContractDetails row the broker knows about, blocking until
// ContractDataEnd arrives.
func (c *Client) ReqContractDetails(ctx context.Context, contract *Contract) ([]ContractDetails, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	reqID := c.nextRequestID()
	slot := c.d.register(reqID)

	m := builder.New()
	m.Int32(int32(constants.OutReqContractData))
	m.Str("8")
	m.Int32(reqID)
	contract.encode(m)
	if err := c.d.enqueueWrite(m.Bytes()); err != nil {
		return nil, err
	}

	ev, err := awaitSlot(ctx, slot, 30*time.Second)
	if err != nil {
		return nil, err
	}
	res, ok := ev.(contractDataResult)
	if !ok {
		return nil, &ResponseShapeError{Want: "contractDataResult", Got: fmt.Sprintf("%T", ev)}
	}
	return res.details, nil
}

// --- orders ---

// PlaceOrder assigns the order its id, sends PlaceOrder, and blocks
// until the broker's first OpenOrder event for it arrives, per spec.md
// §4.5's facade contract ("inbound first open-order event yields the
// OrderTracker"). The returned OrderTracker stays live afterward for
// status/fill/commission updates.
func (c *Client) PlaceOrder(ctx context.Context, order *Order) (*OrderTracker, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	orderID := c.nextOrderID.Add(1) - 1
	order.OrderID = orderID
	slot := c.d.register(orderID)

	m := builder.New()
	m.Int32(int32(constants.OutPlaceOrder))
	m.Int32(orderID)
	order.encode(m)
	if err := c.d.enqueueWrite(m.Bytes()); err != nil {
		return nil, err
	}

	ev, err := awaitSlot(ctx, slot, 30*time.Second)
	if err != nil {
		return nil, err
	}
	if _, ok := ev.(OpenOrderEvent); !ok {
		return nil, &ResponseShapeError{Want: "OpenOrderEvent", Got: fmt.Sprintf("%T", ev)}
	}

	tr, _ := c.d.reg.orderTracker(orderID)
	return tr, nil
}

// CancelOrder cancels a previously placed order by id.
func (c *Client) CancelOrder(orderID int32) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	m := builder.New()
	m.Int32(int32(constants.OutCancelOrder))
	m.Int32(1)
	m.Int32(orderID)
	m.Str("")
	return c.d.enqueueWrite(m.Bytes())
}

// OrderTracker returns the tracker for a previously placed order, if
// the dispatcher has seen any OpenOrder/OrderStatus/ExecutionData
// frame for it.
func (c *Client) OrderTracker(orderID int32) (*OrderTracker, bool) {
	return c.d.reg.orderTracker(orderID)
}

// --- market data ---

// ReqMarketData subscribes to streaming quotes for contract and blocks
// until the broker's first price/size/generic tick for it arrives, per
// spec.md §4.5's facade contract ("inbound first price/size/generic
// tick yields a Ticker"). The returned Ticker stays live afterward for
// further updates.
func (c *Client) ReqMarketData(ctx context.Context, contract *Contract, genericTickList string, snapshot bool) (*Ticker, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	reqID := c.nextRequestID()
	slot := c.d.register(reqID)

	m := builder.New()
	m.Int32(int32(constants.OutReqMktData))
	m.Str("11")
	m.Int32(reqID)
	contract.encodeForTicker(m)
	m.Str(genericTickList)
	m.Bool(snapshot)
	m.Bool(false) // regulatory snapshot, out of scope
	m.Str("")     // mkt data options
	if err := c.d.enqueueWrite(m.Bytes()); err != nil {
		return nil, err
	}

	ev, err := awaitSlot(ctx, slot, 30*time.Second)
	if err != nil {
		return nil, err
	}
	res, ok := ev.(tickerReadyEvent)
	if !ok {
		return nil, &ResponseShapeError{Want: "tickerReadyEvent", Got: fmt.Sprintf("%T", ev)}
	}
	return res.ticker, nil
}

// CancelMarketData unsubscribes a live Ticker.
func (c *Client) CancelMarketData(t *Ticker) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	c.d.reg.deleteTicker(t.ReqID())
	m := builder.New()
	m.Int32(int32(constants.OutCancelMktData))
	m.Int32(2)
	m.Int32(t.ReqID())
	return c.d.enqueueWrite(m.Bytes())
}

// SetMktDataDelayed switches market data type to delayed (15-minute)
// quotes, the no-subscription tier.
func (c *Client) SetMktDataDelayed() error {
	return c.setMarketDataType(3)
}

// SetMktDataRealTime switches market data type back to live quotes.
func (c *Client) SetMktDataRealTime() error {
	return c.setMarketDataType(1)
}

func (c *Client) setMarketDataType(kind int32) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	m := builder.New()
	m.Int32(int32(constants.OutReqMarketDataType))
	m.Int32(1)
	m.Int32(kind)
	return c.d.enqueueWrite(m.Bytes())
}

// --- historical data ---

// ReqHistoricalData requests a bar series ending at endDateTime (empty
// for "now"), spanning duration (broker duration-string grammar, e.g.
// "1 D"), at the given bar size (e.g. "1 min"), for whatToShow (e.g.
// "TRADES", "MIDPOINT").
func (c *Client) ReqHistoricalData(ctx context.Context, contract *Contract, endDateTime, duration, barSize, whatToShow string, useRTH bool) (BarSeries, error) {
	return c.reqHistoricalData(ctx, contract, endDateTime, duration, barSize, whatToShow, useRTH, false)
}

// ReqAdjHistoricalData requests a bar series adjusted for splits and
// dividends, via the broker's ADJUSTED_LAST whatToShow token.
func (c *Client) ReqAdjHistoricalData(ctx context.Context, contract *Contract, endDateTime, duration, barSize string, useRTH bool) (BarSeries, error) {
	return c.reqHistoricalData(ctx, contract, endDateTime, duration, barSize, constants.HistoricalDataAdjustedToken, useRTH, true)
}

func (c *Client) reqHistoricalData(ctx context.Context, contract *Contract, endDateTime, duration, barSize, whatToShow string, useRTH, keepUpToDate bool) (BarSeries, error) {
	if err := c.checkConnected(); err != nil {
		return BarSeries{}, err
	}

	// A cache hit only ever serves a completed, closed-ended request
	// (no keep-up-to-date subscription, and a concrete end date rather
	// than "now") since a live tail can't be answered from disk.
	if c.bars != nil && !keepUpToDate && endDateTime != "" && contract.ConID != 0 {
		if rows, err := c.bars.LoadBars(contract.ConID, barSize, whatToShow); err == nil && len(rows) > 0 {
			return BarSeries{Data: cacheRowsToBars(rows)}, nil
		}
	}

	reqID := c.nextRequestID()
	slot := c.d.register(reqID)

	m := builder.New()
	m.Int32(int32(constants.OutReqHistoricalData))
	m.Int32(reqID)
	contract.encodeForHistData(m)
	m.Str(endDateTime)
	m.Str(barSize)
	m.Str(duration)
	m.Bool(useRTH)
	m.Str(whatToShow)
	m.Int(2) // format date as yyyyMMdd HH:mm:ss
	m.Bool(keepUpToDate)
	m.Str("") // chart options
	if err := c.d.enqueueWrite(m.Bytes()); err != nil {
		return BarSeries{}, err
	}

	ev, err := awaitSlot(ctx, slot, 60*time.Second)
	if err != nil {
		return BarSeries{}, err
	}
	hd, ok := ev.(HistoricalDataEvent)
	if !ok {
		return BarSeries{}, &ResponseShapeError{Want: "HistoricalDataEvent", Got: fmt.Sprintf("%T", ev)}
	}

	if c.bars != nil && !keepUpToDate && contract.ConID != 0 {
		if err := c.bars.StoreBars(contract.ConID, barSize, whatToShow, barsToCache(hd.Series.Data)); err != nil {
			c.log.Warn("caching historical bars failed", zap.Error(err))
		}
	}

	return hd.Series, nil
}

func barsToCache(bars []Bar) []cache.Bar {
	out := make([]cache.Bar, len(bars))
	for i, b := range bars {
		out[i] = cache.Bar{
			Timestamp: b.Timestamp, Open: b.Open, High: b.High, Low: b.Low,
			Close: b.Close, Volume: b.Volume, WAP: b.WAP, Count: b.Count,
		}
	}
	return out
}

func cacheRowsToBars(rows []cache.Bar) []Bar {
	out := make([]Bar, len(rows))
	for i, r := range rows {
		out[i] = Bar{
			Timestamp: r.Timestamp, Open: r.Open, High: r.High, Low: r.Low,
			Close: r.Close, Volume: r.Volume, WAP: r.WAP, Count: r.Count,
		}
	}
	return out
}

// --- options metadata ---

// ReqSecDefOptParams sends the option-chain metadata request (expiries,
// strikes, trading class, exchange) for an underlying. The broker
// replies with one or more SecurityDefinitionOptionParameter frames
// followed by a terminator; this port does not yet decode that kind
// (see DESIGN.md's options-metadata open question), so this method
// only sends the request and registers the reply slot for a future
// decoder to consume — it does not await a reply itself, and callers
// have no way to observe the response through this method yet.
func (c *Client) ReqSecDefOptParams(ctx context.Context, underlyingSymbol, futFopExchange, underlyingSecType string, underlyingConID int32) error {
	if err := c.checkConnected(); err != nil {
		return err
	}

	reqID := c.nextRequestID()
	_ = c.d.register(reqID)

	m := builder.New()
	m.Int32(int32(constants.OutReqSecDefOptParams))
	m.Int32(reqID)
	m.Str(underlyingSymbol)
	m.Str(futFopExchange)
	m.Str(underlyingSecType)
	m.Int32(underlyingConID)
	return c.d.enqueueWrite(m.Bytes())
}
