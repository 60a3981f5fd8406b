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

// ComboLeg describes one leg of a combination (BAG) contract.
type ComboLeg struct {
	ConID           int32
	Ratio           int32
	Action          string
	Exchange        string
	OpenClose       string
	ShortSaleSlot   int32
	DesignatedLocation string
	ExemptCode      int32
}

// DeltaNeutralContract pairs an underlying contract with a delta used
// for combo/hedge order routing.
type DeltaNeutralContract struct {
	ConID int32
	Delta float64
	Price float64
}

// Contract identifies a tradable instrument. Field set mirrors
// original_source/src/contract.rs's Contract struct; the high-level
// convenience constructors that crate exposes (Stock/Combo/...) are
// explicitly out of scope per spec.md §1 — callers populate Contract
// values directly.
type Contract struct {
	ConID           int32
	Symbol          *string
	SecType         string
	Expiry          *string
	Strike          *float64
	Right           *string
	Multiplier      *string
	Exchange        *string
	PrimaryExchange *string
	Currency        *string
	LocalSymbol     *string
	TradingClass    *string
	IncludeExpired  bool
	SecIDType       *string
	SecID           *string

	ComboLegsDescription *string
	ComboLegs            []ComboLeg
	DeltaNeutral         *DeltaNeutralContract
}

// encode appends the base field schedule shared by most request kinds.
func (c *Contract) encode(m *builder.Message) {
	m.Int32(c.ConID)
	m.OptStr(c.Symbol)
	m.Str(c.SecType)
	m.OptStr(c.Expiry)
	m.OptFloat(c.Strike)
	m.OptStr(c.Right)
	m.OptStr(c.Multiplier)
	m.OptStr(c.Exchange)
	m.OptStr(c.PrimaryExchange)
	m.OptStr(c.Currency)
	m.OptStr(c.LocalSymbol)
	m.OptStr(c.TradingClass)
}

// encodeForOrder adds combo-leg and delta-neutral sub-blocks on top of
// the base schedule, used when the contract is attached to PlaceOrder.
func (c *Contract) encodeForOrder(m *builder.Message) {
	c.encode(m)
	m.Bool(c.IncludeExpired)
	m.OptStr(c.SecIDType)
	m.OptStr(c.SecID)

	m.OptStr(c.ComboLegsDescription)
	m.Int(len(c.ComboLegs))
	for _, leg := range c.ComboLegs {
		m.Int32(leg.ConID)
		m.Int32(leg.Ratio)
		m.Str(leg.Action)
		m.Str(leg.Exchange)
		m.Str(leg.OpenClose)
		m.Int32(leg.ShortSaleSlot)
		m.Str(leg.DesignatedLocation)
		m.Int32(leg.ExemptCode)
	}

	if c.DeltaNeutral != nil {
		m.Bool(true)
		m.Int32(c.DeltaNeutral.ConID)
		m.Float(c.DeltaNeutral.Delta)
		m.Float(c.DeltaNeutral.Price)
	} else {
		m.Bool(false)
	}
}

// encodeForTicker adds the combo-leg sub-block (no delta-neutral) used
// by ReqMktData.
func (c *Contract) encodeForTicker(m *builder.Message) {
	c.encode(m)
	m.Int(len(c.ComboLegs))
	for _, leg := range c.ComboLegs {
		m.Int32(leg.ConID)
		m.Int32(leg.Ratio)
		m.Str(leg.Action)
		m.Str(leg.Exchange)
	}
}

// encodeForHistData drops the combo/delta-neutral sub-blocks entirely,
// used by ReqHistoricalData.
func (c *Contract) encodeForHistData(m *builder.Message) {
	c.encode(m)
	m.Bool(c.IncludeExpired)
}

// ContractDetails is the accumulated row set the broker returns for a
// ReqContractData request, keyed by request id until the terminator
// arrives. Field set is intentionally wider than what parser.go's
// decoder currently populates — unpopulated fields stay nil/zero, kept
// for forward completeness as original_source/src/contract.rs defines.
type ContractDetails struct {
	Contract         *Contract
	MarketName       string
	MinTick          float64
	OrderTypes       string
	ValidExchanges   string
	PriceMagnifier   int32
	UnderConID       int32
	LongName         string
	ContractMonth    string
	Industry         string
	Category         string
	Subcategory      string
	TimeZoneID       string
	TradingHours     string
	LiquidHours      string
	EVRule           string
	EVMultiplier     int32
	MdSizeMultiplier int32
	AggGroup         *int32
	UnderSymbol      *string
	UnderSecType     *string
	MarketRuleIDs    *string
	RealExpirationDate *string
	StockType        *string
	MinSize          *decimal.Decimal
	SizeIncrement    *decimal.Decimal
	SuggestedSizeIncrement *decimal.Decimal
}

// ShortAvailability classifies the generic "Shortable" tick's numeric
// payload. Thresholds are strict per spec.md §8's boundary scenarios:
// >2.5 is Available, >1.5 is HardToBorrow, everything else is
// Unavailable.
type ShortAvailability int

const (
	ShortUnavailable ShortAvailability = iota
	ShortHardToBorrow
	ShortAvailable
)

func shortAvailabilityFromFloat(v float64) ShortAvailability {
	switch {
	case v > 2.5:
		return ShortAvailable
	case v > 1.5:
		return ShortHardToBorrow
	default:
		return ShortUnavailable
	}
}

func (s ShortAvailability) String() string {
	switch s {
	case ShortAvailable:
		return "Available"
	case ShortHardToBorrow:
		return "HardToBorrow"
	default:
		return "Unavailable"
	}
}
