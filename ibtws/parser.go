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
	"fmt"

	"github.com/rolandgg/ibtws/constants"
)

// parseFrame reads the message-kind discriminator and decodes the
// fixed (or conditionally gated) field schedule for that kind, per
// spec.md §4.2. On a decode failure for a required field it returns an
// error — the reader loop logs and drops the frame, never the
// connection (spec.md §9's resolution of the fallible-vs-panicking
// ambiguity in original_source/src/frame.rs's two parser variants).
//
// Field schedules below assume the negotiated protocol's newest field
// set (no version-gated field omission); original_source/src/frame.rs
// additionally branches on server version for a handful of trailing
// fields on older servers, which this port does not reproduce — every
// server this client targets (100..151) sends the newer field set.
func parseFrame(payload []byte) (InboundEvent, error) {
	c := newFieldCursor(payload)
	kind, err := c.int32()
	if err != nil {
		return nil, fmt.Errorf("ibtws: reading message kind: %w", err)
	}

	switch constants.Incoming(kind) {
	case constants.InAcctValue:
		return parseAcctValue(c)
	case constants.InPortfolioValue:
		return parsePortfolioValue(c)
	case constants.InAcctDownloadEnd:
		return AcctDownloadEndEvent{}, nil
	case constants.InAcctUpdateTime:
		return parseAcctUpdateTime(c)
	case constants.InCurrentTime:
		return parseCurrentTime(c)
	case constants.InNextValidId:
		return parseNextValidID(c)
	case constants.InContractData:
		return parseContractData(c)
	case constants.InContractDataEnd:
		return parseContractDataEnd(c)
	case constants.InOpenOrder:
		return parseOpenOrder(c)
	case constants.InExecutionData:
		return parseExecutionData(c)
	case constants.InOrderStatus:
		return parseOrderStatus(c)
	case constants.InCommissionReport:
		return parseCommissionReport(c)
	case constants.InTickPrice:
		return parseTickPrice(c)
	case constants.InTickSize:
		return parseTickSize(c)
	case constants.InTickString:
		return parseTickString(c)
	case constants.InTickGeneric:
		return parseTickGeneric(c)
	case constants.InHistoricalData:
		return parseHistoricalData(c)
	case constants.InErrMsg:
		return parseErrMsg(c)
	default:
		return NotImplementedEvent{Kind: kind}, nil
	}
}

func parseAcctValue(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	key, err := c.str()
	if err != nil {
		return nil, err
	}
	value, err := c.str()
	if err != nil {
		return nil, err
	}
	currency, err := c.str()
	if err != nil {
		return nil, err
	}
	return AcctValueEvent{Key: key, Value: value, Currency: currency}, nil
}

func parsePortfolioValue(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	conID, err := c.int32()
	if err != nil {
		return nil, err
	}
	symbol, err := c.optStr()
	if err != nil {
		return nil, err
	}
	secType, err := c.str()
	if err != nil {
		return nil, err
	}
	expiry, err := c.optStr()
	if err != nil {
		return nil, err
	}
	strike, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	right, err := c.optStr()
	if err != nil {
		return nil, err
	}
	multiplier, err := c.optStr()
	if err != nil {
		return nil, err
	}
	primaryExchange, err := c.optStr()
	if err != nil {
		return nil, err
	}
	currency, err := c.optStr()
	if err != nil {
		return nil, err
	}
	localSymbol, err := c.optStr()
	if err != nil {
		return nil, err
	}
	tradingClass, err := c.optStr()
	if err != nil {
		return nil, err
	}
	position, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	marketPrice, err := c.float64()
	if err != nil {
		return nil, err
	}
	marketValue, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	averageCost, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	unrealizedPNL, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	realizedPNL, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	accountName, err := c.str()
	if err != nil {
		return nil, err
	}

	ct := &Contract{
		ConID: conID, Symbol: symbol, SecType: secType, Expiry: expiry,
		Strike: strike, Right: right, Multiplier: multiplier,
		PrimaryExchange: primaryExchange, Currency: currency,
		LocalSymbol: localSymbol, TradingClass: tradingClass,
	}
	pos := Position{Contract: ct, MarketPrice: marketPrice, AccountName: accountName}
	if position != nil {
		pos.Position = *position
	}
	if marketValue != nil {
		pos.MarketValue = *marketValue
	}
	if averageCost != nil {
		pos.AverageCost = *averageCost
	}
	if unrealizedPNL != nil {
		pos.UnrealizedPNL = *unrealizedPNL
	}
	if realizedPNL != nil {
		pos.RealizedPNL = *realizedPNL
	}
	return PortfolioValueEvent{Position: pos}, nil
}

func parseAcctUpdateTime(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	t, err := c.str()
	if err != nil {
		return nil, err
	}
	return AcctUpdateTimeEvent{Time: t}, nil
}

func parseCurrentTime(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	t, err := c.int64()
	if err != nil {
		return nil, err
	}
	return CurrentTimeEvent{Unix: t}, nil
}

func parseNextValidID(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	id, err := c.int32()
	if err != nil {
		return nil, err
	}
	return NextValidIDEvent{OrderID: id}, nil
}

func parseContractData(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	symbol, err := c.optStr()
	if err != nil {
		return nil, err
	}
	secType, err := c.str()
	if err != nil {
		return nil, err
	}
	expiry, err := c.optStr()
	if err != nil {
		return nil, err
	}
	strike, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	right, err := c.optStr()
	if err != nil {
		return nil, err
	}
	exchange, err := c.optStr()
	if err != nil {
		return nil, err
	}
	currency, err := c.optStr()
	if err != nil {
		return nil, err
	}
	localSymbol, err := c.optStr()
	if err != nil {
		return nil, err
	}
	marketName, err := c.str()
	if err != nil {
		return nil, err
	}
	tradingClass, err := c.optStr()
	if err != nil {
		return nil, err
	}
	conID, err := c.int32()
	if err != nil {
		return nil, err
	}
	minTick, err := c.float64()
	if err != nil {
		return nil, err
	}
	mdSizeMultiplier, err := c.int32()
	if err != nil {
		return nil, err
	}
	multiplier, err := c.optStr()
	if err != nil {
		return nil, err
	}
	orderTypes, err := c.str()
	if err != nil {
		return nil, err
	}
	validExchanges, err := c.str()
	if err != nil {
		return nil, err
	}
	priceMagnifier, err := c.int32()
	if err != nil {
		return nil, err
	}
	underConID, err := c.int32()
	if err != nil {
		return nil, err
	}
	longName, err := c.str()
	if err != nil {
		return nil, err
	}
	primaryExchange, err := c.optStr()
	if err != nil {
		return nil, err
	}
	contractMonth, err := c.str()
	if err != nil {
		return nil, err
	}
	industry, err := c.str()
	if err != nil {
		return nil, err
	}
	category, err := c.str()
	if err != nil {
		return nil, err
	}
	subcategory, err := c.str()
	if err != nil {
		return nil, err
	}
	timeZoneID, err := c.str()
	if err != nil {
		return nil, err
	}
	tradingHours, err := c.str()
	if err != nil {
		return nil, err
	}
	liquidHours, err := c.str()
	if err != nil {
		return nil, err
	}
	evRule, err := c.str()
	if err != nil {
		return nil, err
	}
	evMultiplier, err := c.int32()
	if err != nil {
		return nil, err
	}

	ct := &Contract{
		ConID: conID, Symbol: symbol, SecType: secType, Expiry: expiry,
		Strike: strike, Right: right, Exchange: exchange, Currency: currency,
		LocalSymbol: localSymbol, TradingClass: tradingClass,
		Multiplier: multiplier, PrimaryExchange: primaryExchange,
	}
	details := ContractDetails{
		Contract: ct, MarketName: marketName, MinTick: minTick,
		MdSizeMultiplier: mdSizeMultiplier, OrderTypes: orderTypes,
		ValidExchanges: validExchanges, PriceMagnifier: priceMagnifier,
		UnderConID: underConID, LongName: longName, ContractMonth: contractMonth,
		Industry: industry, Category: category, Subcategory: subcategory,
		TimeZoneID: timeZoneID, TradingHours: tradingHours, LiquidHours: liquidHours,
		EVRule: evRule, EVMultiplier: evMultiplier,
	}
	return ContractDataEvent{ReqID: reqID, Details: details}, nil
}

func parseContractDataEnd(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	return ContractDataEndEvent{ReqID: reqID}, nil
}

// parseOpenOrder decodes a leading subset of the OpenOrder frame: the
// order id, the contract identity fields, the main order fields
// through PermID, and then one further field taken as the OrderState
// status. Nothing after that is read: the conditional sub-blocks of
// the full broker schedule (delta-neutral, scale, conditions, combo
// legs, algo params, soft-dollar tier) are not decoded, and every
// other Order and OrderState field stays at its zero value.
func parseOpenOrder(c *fieldCursor) (InboundEvent, error) {
	orderID, err := c.int32()
	if err != nil {
		return nil, err
	}

	conID, err := c.int32()
	if err != nil {
		return nil, err
	}
	symbol, err := c.optStr()
	if err != nil {
		return nil, err
	}
	secType, err := c.str()
	if err != nil {
		return nil, err
	}
	expiry, err := c.optStr()
	if err != nil {
		return nil, err
	}
	strike, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	right, err := c.optStr()
	if err != nil {
		return nil, err
	}
	exchange, err := c.optStr()
	if err != nil {
		return nil, err
	}
	currency, err := c.optStr()
	if err != nil {
		return nil, err
	}
	localSymbol, err := c.optStr()
	if err != nil {
		return nil, err
	}
	tradingClass, err := c.optStr()
	if err != nil {
		return nil, err
	}

	action, err := c.str()
	if err != nil {
		return nil, err
	}
	totalQty, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	orderType, err := c.str()
	if err != nil {
		return nil, err
	}
	limitPrice, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	auxPrice, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	tif, err := c.str()
	if err != nil {
		return nil, err
	}
	ocaGroup, err := c.str()
	if err != nil {
		return nil, err
	}
	openClose, err := c.str()
	if err != nil {
		return nil, err
	}
	origin, err := c.int32()
	if err != nil {
		return nil, err
	}
	orderRef, err := c.str()
	if err != nil {
		return nil, err
	}
	clientID, err := c.int32()
	if err != nil {
		return nil, err
	}
	permID, err := c.int32()
	if err != nil {
		return nil, err
	}

	status, err := c.str()
	if err != nil {
		return nil, err
	}

	ct := &Contract{
		ConID: conID, Symbol: symbol, SecType: secType, Expiry: expiry,
		Strike: strike, Right: right, Exchange: exchange, Currency: currency,
		LocalSymbol: localSymbol, TradingClass: tradingClass,
	}
	order := &Order{
		Contract: ct, OrderID: orderID, ClientID: clientID, PermID: permID,
		Action: action, OrderType: orderType, LimitPrice: limitPrice,
		AuxPrice: auxPrice, TIF: tif, OCAGroup: ocaGroup, OpenClose: openClose,
		Origin: origin, OrderRef: orderRef,
	}
	if totalQty != nil {
		order.TotalQty = *totalQty
	}

	state := &OrderState{Status: status}

	return OpenOrderEvent{OrderID: orderID, Order: order, State: state}, nil
}

func parseExecutionData(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	orderID, err := c.int32()
	if err != nil {
		return nil, err
	}
	if _, err := c.int32(); err != nil { // contract conID, not carried on Execution
		return nil, err
	}
	if _, err := c.optStr(); err != nil { // symbol
		return nil, err
	}
	if _, err := c.str(); err != nil { // secType
		return nil, err
	}
	execID, err := c.str()
	if err != nil {
		return nil, err
	}
	execTime, err := c.str()
	if err != nil {
		return nil, err
	}
	acctNumber, err := c.str()
	if err != nil {
		return nil, err
	}
	exchangeName, err := c.str()
	if err != nil {
		return nil, err
	}
	side, err := c.str()
	if err != nil {
		return nil, err
	}
	shares, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	price, err := c.float64()
	if err != nil {
		return nil, err
	}
	permID, err := c.int32()
	if err != nil {
		return nil, err
	}
	clientID, err := c.int32()
	if err != nil {
		return nil, err
	}
	liquidation, err := c.int32()
	if err != nil {
		return nil, err
	}
	cumQty, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	avgPrice, err := c.float64()
	if err != nil {
		return nil, err
	}
	orderRef, err := c.str()
	if err != nil {
		return nil, err
	}
	evRule, err := c.str()
	if err != nil {
		return nil, err
	}
	evMultiplier, err := c.optFloat64()
	if err != nil {
		return nil, err
	}

	exec := &Execution{
		OrderID: orderID, ClientID: clientID, ExecID: execID, Time: execTime,
		AcctNumber: acctNumber, Exchange: exchangeName, Side: side, Price: price,
		PermID: permID, Liquidation: liquidation, AvgPrice: avgPrice,
		OrderRef: orderRef, EVRule: evRule, EVMultiplier: evMultiplier,
	}
	if shares != nil {
		exec.Shares = *shares
	}
	if cumQty != nil {
		exec.CumQty = *cumQty
	}
	return ExecutionDataEvent{ReqID: reqID, Execution: exec}, nil
}

// parseOrderStatus decodes OrderStatus. Unlike most inbound kinds it
// carries no version field (original_source/src/frame.rs calls this
// out explicitly).
func parseOrderStatus(c *fieldCursor) (InboundEvent, error) {
	orderID, err := c.int32()
	if err != nil {
		return nil, err
	}
	status, err := c.str()
	if err != nil {
		return nil, err
	}
	filled, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	remaining, err := c.optDecimal()
	if err != nil {
		return nil, err
	}
	avgFillPrice, err := c.float64()
	if err != nil {
		return nil, err
	}
	permID, err := c.int32()
	if err != nil {
		return nil, err
	}
	parentID, err := c.int32()
	if err != nil {
		return nil, err
	}
	lastFillPrice, err := c.float64()
	if err != nil {
		return nil, err
	}
	clientID, err := c.int32()
	if err != nil {
		return nil, err
	}
	whyHeld, err := c.str()
	if err != nil {
		return nil, err
	}
	mktCapPrice, err := c.float64()
	if err != nil {
		return nil, err
	}

	os := OrderStatus{
		OrderID: orderID, Status: status, AvgFillPrice: avgFillPrice,
		PermID: permID, ParentID: parentID, LastFillPrice: lastFillPrice,
		ClientID: clientID, WhyHeld: whyHeld, MktCapPrice: mktCapPrice,
	}
	if filled != nil {
		os.Filled = *filled
	}
	if remaining != nil {
		os.Remaining = *remaining
	}
	return OrderStatusEvent{Status: os}, nil
}

func parseCommissionReport(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	execID, err := c.str()
	if err != nil {
		return nil, err
	}
	commission, err := c.float64()
	if err != nil {
		return nil, err
	}
	currency, err := c.str()
	if err != nil {
		return nil, err
	}
	realizedPNL, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	yield, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	yieldRedemptionDate, err := c.optInt32()
	if err != nil {
		return nil, err
	}
	return CommissionReportEvent{Report: CommissionReport{
		ExecID: execID, Commission: commission, Currency: currency,
		RealizedPNL: realizedPNL, Yield: yield, YieldRedemptionDate: yieldRedemptionDate,
	}}, nil
}

func parseTickPrice(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	tickType, err := c.int32()
	if err != nil {
		return nil, err
	}
	price, err := c.float64()
	if err != nil {
		return nil, err
	}
	size, err := c.optFloat64()
	if err != nil {
		return nil, err
	}
	attrib, err := c.int32()
	if err != nil {
		return nil, err
	}
	return TickPriceEvent{ReqID: reqID, Kind: tickType, Price: price, Size: size, Attrib: attrib}, nil
}

func parseTickSize(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	tickType, err := c.int32()
	if err != nil {
		return nil, err
	}
	size, err := c.float64()
	if err != nil {
		return nil, err
	}
	return TickSizeEvent{ReqID: reqID, Kind: tickType, Size: size}, nil
}

func parseTickString(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	tickType, err := c.int32()
	if err != nil {
		return nil, err
	}
	value, err := c.str()
	if err != nil {
		return nil, err
	}
	return TickStringEvent{ReqID: reqID, Kind: tickType, Value: value}, nil
}

func parseTickGeneric(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	tickType, err := c.int32()
	if err != nil {
		return nil, err
	}
	value, err := c.float64()
	if err != nil {
		return nil, err
	}
	return TickGenericEvent{ReqID: reqID, Kind: tickType, Value: value}, nil
}

// parseHistoricalData decodes id, start, end, N, then N bar rows.
// Carries no version field, per original_source/src/frame.rs.
func parseHistoricalData(c *fieldCursor) (InboundEvent, error) {
	reqID, err := c.int32()
	if err != nil {
		return nil, err
	}
	start, err := c.str()
	if err != nil {
		return nil, err
	}
	end, err := c.str()
	if err != nil {
		return nil, err
	}
	n, err := c.int32()
	if err != nil {
		return nil, err
	}
	bars := make([]Bar, 0, n)
	for i := int32(0); i < n; i++ {
		ts, err := c.str()
		if err != nil {
			return nil, err
		}
		open, err := c.float64()
		if err != nil {
			return nil, err
		}
		high, err := c.float64()
		if err != nil {
			return nil, err
		}
		low, err := c.float64()
		if err != nil {
			return nil, err
		}
		closeP, err := c.float64()
		if err != nil {
			return nil, err
		}
		volume, err := c.int64()
		if err != nil {
			return nil, err
		}
		wap, err := c.float64()
		if err != nil {
			return nil, err
		}
		count, err := c.int32()
		if err != nil {
			return nil, err
		}
		bars = append(bars, Bar{
			Timestamp: ts, Open: open, High: high, Low: low, Close: closeP,
			Volume: volume, WAP: wap, Count: count,
		})
	}
	return HistoricalDataEvent{ReqID: reqID, Series: BarSeries{
		StartDateTime: start, EndDateTime: end, NBars: n, Data: bars,
	}}, nil
}

func parseErrMsg(c *fieldCursor) (InboundEvent, error) {
	if _, err := c.str(); err != nil { // version
		return nil, err
	}
	id, err := c.optInt32()
	if err != nil {
		return nil, err
	}
	code, err := c.int32()
	if err != nil {
		return nil, err
	}
	msg, err := c.str()
	if err != nil {
		return nil, err
	}
	return ErrMsgEvent{ID: id, Code: code, Message: msg}, nil
}
