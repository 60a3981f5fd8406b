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

// Ticker is the caller-visible handle returned by ReqMarketData. It
// bundles last-value-wins cells for every quote/trade/short-sale field
// spec.md §3 names. Midpoint is derived, not stored, per §4.6.
type Ticker struct {
	reqID int32

	bid             *cell[float64]
	bidSize         *cell[float64]
	ask             *cell[float64]
	askSize         *cell[float64]
	last            *cell[float64]
	lastSize        *cell[float64]
	shortableShares *cell[float64]
	shortAvail      *cell[ShortAvailability]
}

// tickerProducer is the reader-owned half, sharing the same cells as
// the Ticker handed to the caller.
type tickerProducer = Ticker

func newTicker(reqID int32) *Ticker {
	return &Ticker{
		reqID:           reqID,
		bid:             newCell[float64](),
		bidSize:         newCell[float64](),
		ask:             newCell[float64](),
		askSize:         newCell[float64](),
		last:            newCell[float64](),
		lastSize:        newCell[float64](),
		shortableShares: newCell[float64](),
		shortAvail:      newCell[ShortAvailability](),
	}
}

// ReqID returns the market-data request id this ticker follows.
func (t *Ticker) ReqID() int32 { return t.reqID }

func (t *Ticker) Bid() (float64, bool)             { return t.bid.get() }
func (t *Ticker) BidSize() (float64, bool)         { return t.bidSize.get() }
func (t *Ticker) Ask() (float64, bool)             { return t.ask.get() }
func (t *Ticker) AskSize() (float64, bool)         { return t.askSize.get() }
func (t *Ticker) Last() (float64, bool)            { return t.last.get() }
func (t *Ticker) LastSize() (float64, bool)        { return t.lastSize.get() }
func (t *Ticker) ShortableShares() (float64, bool) { return t.shortableShares.get() }
func (t *Ticker) ShortAvailability() (ShortAvailability, bool) {
	return t.shortAvail.get()
}

// Midpoint derives (bid+ask)/2 when both sides are present, per
// spec.md §4.6.
func (t *Ticker) Midpoint() (float64, bool) {
	bid, okBid := t.bid.get()
	ask, okAsk := t.ask.get()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid + ask) / 2, true
}
