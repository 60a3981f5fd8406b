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
	"github.com/shopspring/decimal"

	"github.com/rolandgg/ibtws/builder"
)

// SoftDollarTier mirrors the broker's three-string soft-dollar
// classification, reconstructed on decode from three optional strings
// the way original_source/src/order.rs does.
type SoftDollarTier struct {
	Name        string
	Value       string
	DisplayName string
}

// Order carries every field the broker's PlaceOrder/OpenOrder wire
// schedule exchanges. Grouped by comment headers the way
// original_source/src/order.rs groups its own ~140-field struct;
// fields are Option-shaped (pointers) exactly where the source treats
// them as optional.
type Order struct {
	// contract
	Contract *Contract

	// order identification
	OrderID  int32
	ClientID int32
	PermID   int32
	ParentID int32

	// main order fields
	Action       string
	TotalQty     decimal.Decimal
	OrderType    string
	LimitPrice   *float64
	AuxPrice     *float64

	// extended order fields
	TIF               string
	ActiveStartTime   string
	ActiveStopTime    string
	OCAGroup          string
	OCAType           int32
	OrderRef          string
	Transmit          bool
	BlockOrder        bool
	SweepToFill       bool
	DisplaySize       *int32
	TriggerMethod     int32
	OutsideRTH        bool
	Hidden            bool
	GoodAfterTime     string
	GoodTillDate      string
	OverridePercentageConstraints bool
	Rule80A           string
	AllOrNone         bool
	MinQty            *int32
	PercentOffset     *float64
	ETradeOnly        bool
	FirmQuoteOnly     bool
	NBBOPriceCap      *float64
	AuctionStrategy   int32
	StartingPrice     *float64
	StockRefPrice     *float64
	Delta             *float64
	StockRangeLower   *float64
	StockRangeUpper   *float64

	// financial advisor fields
	FAGroup     string
	FAMethod    string
	FAPercentage string
	FAProfile   string

	// institutional-only fields
	DesignatedLocation string
	OpenClose          string
	Origin             int32
	ShortSaleSlot      int32
	ExemptCode         int32

	// SMART routing fields
	DiscretionaryAmt   float64
	ETradeOnlyFlag     bool
	OptOutSmartRouting bool

	// BOX exchange fields
	AuctionStrategyBox int32
	StartingPriceBox   *float64

	// pegged/VOL fields
	VolVolatility       *float64
	VolatilityType      *int32
	DeltaNeutralOrderType   string
	DeltaNeutralAuxPrice    *float64
	ContinuousUpdate    bool
	ReferencePriceType  *int32
	TrailStopPrice      *float64
	TrailingPercent     *float64

	// delta-neutral fields
	DeltaNeutralConID              int32
	DeltaNeutralSettlingFirm       string
	DeltaNeutralClearingAccount    string
	DeltaNeutralClearingIntent     string
	HasDeltaNeutralContract        bool

	// combo order fields
	BasisPoints     *float64
	BasisPointsType *int32

	// scale order fields
	ScaleInitLevelSize  *int32
	ScaleSubsLevelSize  *int32
	ScalePriceIncrement *float64
	ScalePriceAdjustValue *float64
	ScalePriceAdjustInterval *int32
	ScaleProfitOffset   *float64
	ScaleAutoReset      bool
	ScaleInitPosition   *int32
	ScaleInitFillQty    *int32
	ScaleRandomPercent  bool

	// hedge order fields
	HedgeType  string
	HedgeParam string

	// clearing info
	ClearingAccount string
	ClearingIntent  string

	// algo order fields
	AlgoStrategy string
	AlgoParams   [][2]string
	AlgoID       string

	// what-if
	WhatIf bool

	// not-held
	NotHeld bool

	// order combo legs
	OrderComboLegs []float64

	// smart combo routing params
	SmartComboRoutingParams [][2]string

	// conditions — decoded as opaque strings; the source never
	// interprets the six documented condition subtypes, and neither
	// does this port (spec.md §9 preserves this opacity deliberately).
	Conditions           []string
	ConditionsCancelOrder bool
	ConditionsIgnoreRth   bool

	// ext operator
	ExtOperator string

	SoftDollarTier SoftDollarTier

	CashQty *float64

	// mifid2 fields
	Mifid2DecisionMaker  string
	Mifid2DecisionAlgo   string
	Mifid2ExecutionTrader string
	Mifid2ExecutionAlgo  string

	// misc booleans
	DontUseAutoPriceForHedge bool
	IsOmsContainer           bool
	DiscretionaryUpToLimitPrice bool

	AutoCancelDate       string
	FilledQuantity       *decimal.Decimal
	RefFuturesConID      int32
	AutoCancelParent     bool
	Shareholder          string
	ImbalanceOnly        bool
	RouteMarketableToBbo bool
	ParentPermID         int32

	UsePriceMgmtAlgo *bool
}

// newOrder returns an Order pre-populated with original_source's
// Order::new() defaults: transmit on, open/close Open, origin
// Customer, exempt code -1, e-trade-only and firm-quote-only on,
// auction strategy NoAuctionStrategy (0).
func newOrder() *Order {
	return &Order{
		Transmit:       true,
		OpenClose:      "O",
		Origin:         0,
		ExemptCode:     -1,
		ETradeOnly:     true,
		FirmQuoteOnly:  true,
		AuctionStrategy: 0,
		TIF:            "DAY",
	}
}

// MarketOrder builds a simple market order for the given contract,
// action, and quantity — a convenience constructor, unlike Contract's
// template constructors these populate the one struct PlaceOrder
// actually needs and so stay in scope.
func MarketOrder(c *Contract, action string, qty decimal.Decimal) *Order {
	o := newOrder()
	o.Contract = c
	o.Action = action
	o.TotalQty = qty
	o.OrderType = "MKT"
	return o
}

// MarketOnCloseOrder builds a market-on-close order.
func MarketOnCloseOrder(c *Contract, action string, qty decimal.Decimal) *Order {
	o := MarketOrder(c, action, qty)
	o.OrderType = "MOC"
	return o
}

// LimitOrder builds a limit order at the given price.
func LimitOrder(c *Contract, action string, qty decimal.Decimal, limitPrice float64) *Order {
	o := newOrder()
	o.Contract = c
	o.Action = action
	o.TotalQty = qty
	o.OrderType = "LMT"
	o.LimitPrice = &limitPrice
	return o
}

// encode appends PlaceOrder's outbound field schedule: contract (order
// variant), then the order's own fields in declaration order including
// every conditional sub-block original_source/src/order.rs's
// Encodable impl emits.
func (o *Order) encode(m *builder.Message) {
	o.Contract.encodeForOrder(m)

	m.Str(o.Action)
	m.Decimal(o.TotalQty)
	m.Str(o.OrderType)
	m.OptFloat(o.LimitPrice)
	m.OptFloat(o.AuxPrice)
	m.Str(o.TIF)
	m.Str(o.OCAGroup)
	m.Str(o.OpenClose)
	m.Int32(o.Origin)
	m.Str(o.OrderRef)
	m.Bool(o.Transmit)
	m.Int32(o.ParentID)
	m.Bool(o.BlockOrder)
	m.Bool(o.SweepToFill)
	m.Int32(o.DisplaySizeOrZero())
	m.Int32(o.TriggerMethod)
	m.Bool(o.OutsideRTH)
	m.Bool(o.Hidden)

	if o.Contract.SecType == "BAG" {
		m.Int(len(o.SmartComboRoutingParams))
		m.TagValueList(o.SmartComboRoutingParams)
	}

	m.Str("") // deprecated shares-allocation field, kept as a positional placeholder
	m.Str(o.GoodAfterTime)
	m.Str(o.GoodTillDate)
	m.Str(o.FAGroup)
	m.Str(o.FAMethod)
	m.Str(o.FAPercentage)
	m.Str(o.FAProfile)
	m.Str(o.ExtOperator)
	m.Int32(o.ShortSaleSlot)
	m.Str(o.DesignatedLocation)
	m.Int32(o.ExemptCode)
	m.Float(o.DiscretionaryAmt)
	m.Bool(o.ETradeOnly)
	m.Bool(o.FirmQuoteOnly)
	m.OptFloat(o.NBBOPriceCap)
	m.Int32(o.AuctionStrategy)
	m.OptFloat(o.StartingPrice)
	m.OptFloat(o.StockRefPrice)
	m.OptFloat(o.Delta)
	m.OptFloat(o.StockRangeLower)
	m.OptFloat(o.StockRangeUpper)
	m.Bool(o.OverridePercentageConstraints)
	m.OptFloat(o.VolVolatility)
	m.OptInt32Ptr(o.VolatilityType)
	m.Str(o.DeltaNeutralOrderType)
	m.OptFloat(o.DeltaNeutralAuxPrice)

	if o.DeltaNeutralOrderType != "" {
		m.Int32(o.DeltaNeutralConID)
		m.Str(o.DeltaNeutralSettlingFirm)
		m.Str(o.DeltaNeutralClearingAccount)
		m.Str(o.DeltaNeutralClearingIntent)
		m.Bool(o.HasDeltaNeutralContract)
	}

	m.Bool(o.ContinuousUpdate)
	m.OptInt32Ptr(o.ReferencePriceType)
	m.OptFloat(o.TrailStopPrice)
	m.OptFloat(o.TrailingPercent)

	m.Int32(o.ScaleInitLevelSizeOrZero())
	m.Int32(o.ScaleSubsLevelSizeOrZero())

	if o.ScalePriceIncrement != nil && *o.ScalePriceIncrement > 0.0 {
		m.OptFloat(o.ScalePriceAdjustValue)
		m.OptInt32Ptr(o.ScalePriceAdjustInterval)
		m.OptFloat(o.ScaleProfitOffset)
		m.Bool(o.ScaleAutoReset)
		m.OptInt32Ptr(o.ScaleInitPosition)
		m.OptInt32Ptr(o.ScaleInitFillQty)
		m.Bool(o.ScaleRandomPercent)
	}

	m.Str(o.ScaleTable())
	m.Str(o.ActiveStartTime)
	m.Str(o.ActiveStopTime)

	m.Str(o.HedgeType)
	if o.HedgeType != "" {
		m.Str(o.HedgeParam)
	}

	m.Bool(o.OptOutSmartRouting)
	m.Str(o.ClearingAccount)
	m.Str(o.ClearingIntent)
	m.Bool(o.NotHeld)

	if o.Contract.DeltaNeutral != nil {
		m.Bool(true)
		m.Int32(o.Contract.DeltaNeutral.ConID)
		m.Float(o.Contract.DeltaNeutral.Delta)
		m.Float(o.Contract.DeltaNeutral.Price)
	} else {
		m.Bool(false)
	}

	m.Str(o.AlgoStrategy)
	if o.AlgoStrategy != "" {
		m.Int(len(o.AlgoParams))
		m.TagValueList(o.AlgoParams)
	}

	m.Str(o.AlgoID)
	m.Bool(o.WhatIf)

	m.Str(o.ConditionsTagValue())
	if len(o.Conditions) > 0 {
		m.Bool(o.ConditionsIgnoreRth)
		m.Bool(o.ConditionsCancelOrder)
	}

	m.Str(o.AutoCancelDate)
	m.OptDecimal(o.FilledQuantity)
	m.Int32(o.RefFuturesConID)
	m.Bool(o.AutoCancelParent)
	m.Str(o.Shareholder)
	m.Bool(o.ImbalanceOnly)
	m.Bool(o.RouteMarketableToBbo)
	m.Int32(o.ParentPermID)

	m.Str(o.SoftDollarTier.Name)
	m.Str(o.SoftDollarTier.Value)
	m.Str(o.SoftDollarTier.DisplayName)

	m.Bool(o.IsOmsContainer)
	m.Bool(o.DiscretionaryUpToLimitPrice)
	if o.UsePriceMgmtAlgo != nil {
		m.Bool(*o.UsePriceMgmtAlgo)
	} else {
		m.Bool(false)
	}
}

// The following helpers exist because Go has no Option<T> sugar; each
// packages one piece of original_source's conditional-field logic into
// a named accessor so encode() above reads as a flat field list
// instead of interleaved nil-checks.

func (o *Order) DisplaySizeOrZero() int32 {
	if o.DisplaySize == nil {
		return 0
	}
	return *o.DisplaySize
}

func (o *Order) ScaleInitLevelSizeOrZero() int32 {
	if o.ScaleInitLevelSize == nil {
		return 0
	}
	return *o.ScaleInitLevelSize
}
func (o *Order) ScaleSubsLevelSizeOrZero() int32 {
	if o.ScaleSubsLevelSize == nil {
		return 0
	}
	return *o.ScaleSubsLevelSize
}
func (o *Order) ScaleTable() string { return "" }
func (o *Order) ConditionsTagValue() string {
	s := ""
	for _, cond := range o.Conditions {
		s += cond + ";"
	}
	return s
}

// OrderState mirrors the broker's reported order state fields.
type OrderState struct {
	Status               string
	InitMarginBefore      *string
	MaintMarginBefore     *string
	EquityWithLoanBefore  *string
	InitMarginChange      *string
	MaintMarginChange     *string
	EquityWithLoanChange  *string
	InitMarginAfter       *string
	MaintMarginAfter      *string
	EquityWithLoanAfter   *string
	Commission            *decimal.Decimal
	MinCommission         *decimal.Decimal
	MaxCommission         *decimal.Decimal
	CommissionCurrency    *string
	WarningText           *string
	CompletedTime         *string
	CompletedStatus       *string
}

// OrderStatus mirrors the broker's OrderStatus push frame.
type OrderStatus struct {
	OrderID       int32
	Status        string
	Filled        decimal.Decimal
	Remaining     decimal.Decimal
	AvgFillPrice  float64
	PermID        int32
	ParentID      int32
	LastFillPrice float64
	ClientID      int32
	WhyHeld       string
	MktCapPrice   float64
}

// Execution mirrors one ExecutionData frame.
type Execution struct {
	OrderID     int32
	ClientID    int32
	ExecID      string
	Time        string
	AcctNumber  string
	Exchange    string
	Side        string
	Shares      decimal.Decimal
	Price       float64
	PermID      int32
	Liquidation int32
	CumQty      decimal.Decimal
	AvgPrice    float64
	OrderRef    string
	EVRule      string
	EVMultiplier *float64
	ModelCode   *string
	LastLiquidity int32
}

// CommissionReport mirrors one CommissionReport frame. It carries only
// an execution id, never an order id — the reader routes it to the
// tracker whose executions include that ExecID.
type CommissionReport struct {
	ExecID              string
	Commission          float64
	Currency            string
	RealizedPNL         *float64
	Yield               *float64
	YieldRedemptionDate *int32
}

// OrderTracker is the caller-visible handle returned by PlaceOrder. It
// bundles last-value-wins cells for the order/state/status images and
// unbounded queues for executions/commission reports, per spec.md §3's
// Observable handles and §4.6's operational semantics.
type OrderTracker struct {
	orderID int32

	order  *cell[*Order]
	state  *cell[*OrderState]
	status *cell[*OrderStatus]

	executions *queue[*Execution]
	commissions *queue[*CommissionReport]
}

// orderTrackerProducer is the reader-owned half, installed in
// registry.orderTrackers. It shares the same underlying cells/queues
// as the OrderTracker handed to the caller.
type orderTrackerProducer = OrderTracker

func newOrderTracker(orderID int32) *OrderTracker {
	return &OrderTracker{
		orderID:     orderID,
		order:       newCell[*Order](),
		state:       newCell[*OrderState](),
		status:      newCell[*OrderStatus](),
		executions:  newQueue[*Execution](),
		commissions: newQueue[*CommissionReport](),
	}
}

// OrderID returns the order id this tracker follows.
func (t *OrderTracker) OrderID() int32 { return t.orderID }

// Order returns the latest order image, if any has arrived.
func (t *OrderTracker) Order() (*Order, bool) { return t.order.get() }

// State returns the latest order state, if any has arrived.
func (t *OrderTracker) State() (*OrderState, bool) { return t.state.get() }

// Status returns the latest order status string, if any has arrived.
func (t *OrderTracker) Status() (string, bool) {
	s, ok := t.status.get()
	if !ok {
		return "", false
	}
	return s.Status, true
}

// IsFilled reports whether the latest known status is "Filled".
func (t *OrderTracker) IsFilled() (bool, bool) {
	s, ok := t.status.get()
	if !ok {
		return false, false
	}
	return s.Status == "Filled", true
}

// FillTime returns the completed-time reported on the latest order
// state, if present.
func (t *OrderTracker) FillTime() (string, bool) {
	st, ok := t.state.get()
	if !ok || st.CompletedTime == nil {
		return "", false
	}
	return *st.CompletedTime, true
}

// QtyFilled returns the filled quantity from the latest status.
func (t *OrderTracker) QtyFilled() (decimal.Decimal, bool) {
	s, ok := t.status.get()
	if !ok {
		return decimal.Zero, false
	}
	return s.Filled, true
}

// AvgFillPrice returns the average fill price from the latest status.
func (t *OrderTracker) AvgFillPrice() (float64, bool) {
	s, ok := t.status.get()
	if !ok {
		return 0, false
	}
	return s.AvgFillPrice, true
}

// Executions returns every execution observed so far.
func (t *OrderTracker) Executions() []*Execution {
	return t.executions.all()
}

// CommissionReports returns every commission report observed so far.
func (t *OrderTracker) CommissionReports() []*CommissionReport {
	return t.commissions.all()
}

// CommissionsPaid sums every commission report's amount, the
// direct counterpart to original_source's fold starting at
// Decimal::new(0,2).
func (t *OrderTracker) CommissionsPaid() (float64, bool) {
	reports := t.commissions.all()
	if len(reports) == 0 {
		return 0, false
	}
	var total float64
	for _, r := range reports {
		total += r.Commission
	}
	return total, true
}
