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

// InboundEvent is the discriminated union spec.md §3 describes: one
// variant per recognized inbound message kind, every correlatable
// variant carrying an id. Go has no native sum type, so the union is
// modeled as a marker interface with one concrete struct per variant —
// parseFrame returns one of these, and dispatch uses a type switch.
type InboundEvent interface {
	inboundEvent()
}

// TickType numeric codes, from the reference tick-type table. Only the
// codes the dispatch core routes are named; anything else is matched
// structurally by TickPriceEvent.Kind/TickSizeEvent.Kind and falls
// through to the "other tick kinds are silently ignored" rule.
const (
	TickBidSize  int32 = 0
	TickBid      int32 = 1
	TickAsk      int32 = 2
	TickAskSize  int32 = 3
	TickLast     int32 = 4
	TickLastSize int32 = 5

	TickShortable       int32 = 46 // generic tick
	TickShortableShares int32 = 89

	TickDelayedBid      int32 = 66
	TickDelayedAsk      int32 = 67
	TickDelayedLast      int32 = 68
	TickDelayedBidSize  int32 = 69
	TickDelayedAskSize  int32 = 70
	TickDelayedLastSize int32 = 71
)

type AcctValueEvent struct {
	Key      string
	Value    string
	Currency string
}

func (AcctValueEvent) inboundEvent() {}

type PortfolioValueEvent struct {
	Position Position
}

func (PortfolioValueEvent) inboundEvent() {}

// AcctDownloadEndEvent is the portfolio-snapshot terminator.
type AcctDownloadEndEvent struct{}

func (AcctDownloadEndEvent) inboundEvent() {}

type AcctUpdateTimeEvent struct {
	Time string
}

func (AcctUpdateTimeEvent) inboundEvent() {}

type CurrentTimeEvent struct {
	Unix int64
}

func (CurrentTimeEvent) inboundEvent() {}

type NextValidIDEvent struct {
	OrderID int32
}

func (NextValidIDEvent) inboundEvent() {}

type ContractDataEvent struct {
	ReqID   int32
	Details ContractDetails
}

func (ContractDataEvent) inboundEvent() {}

type ContractDataEndEvent struct {
	ReqID int32
}

func (ContractDataEndEvent) inboundEvent() {}

type OpenOrderEvent struct {
	OrderID int32
	Order   *Order
	State   *OrderState
}

func (OpenOrderEvent) inboundEvent() {}

type ExecutionDataEvent struct {
	ReqID     int32
	Execution *Execution
}

func (ExecutionDataEvent) inboundEvent() {}

type OrderStatusEvent struct {
	Status OrderStatus
}

func (OrderStatusEvent) inboundEvent() {}

type CommissionReportEvent struct {
	Report CommissionReport
}

func (CommissionReportEvent) inboundEvent() {}

type TickPriceEvent struct {
	ReqID  int32
	Kind   int32
	Price  float64
	Size   *float64
	Attrib int32
}

func (TickPriceEvent) inboundEvent() {}

type TickSizeEvent struct {
	ReqID int32
	Kind  int32
	Size  float64
}

func (TickSizeEvent) inboundEvent() {}

type TickStringEvent struct {
	ReqID int32
	Kind  int32
	Value string
}

func (TickStringEvent) inboundEvent() {}

type TickGenericEvent struct {
	ReqID int32
	Kind  int32
	Value float64
}

func (TickGenericEvent) inboundEvent() {}

type HistoricalDataEvent struct {
	ReqID  int32
	Series BarSeries
}

func (HistoricalDataEvent) inboundEvent() {}

// ErrMsgEvent mirrors the broker's ErrMsg frame. ID is nil for
// connection-wide notices that do not correlate to any pending
// request.
type ErrMsgEvent struct {
	ID      *int32
	Code    int32
	Message string
}

func (ErrMsgEvent) inboundEvent() {}

// NotImplementedEvent is the explicit catch-all for recognized-but-
// unhandled or wholly unrecognized message kinds.
type NotImplementedEvent struct {
	Kind int32
}

func (NotImplementedEvent) inboundEvent() {}
