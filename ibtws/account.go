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

import "github.com/shopspring/decimal"

// decimalFromString parses an AcctValue frame's string payload into a
// decimal, used for every money-shaped account field. AcctValue has no
// "absent" convention of its own (unset fields simply never arrive),
// so unlike fieldCursor.optDecimal this always expects a value.
func decimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// Position is one row of a portfolio snapshot, accumulated by the
// reader loop between PortfolioValue frames and published as a single
// list on the portfolio-snapshot cell when the terminator arrives.
type Position struct {
	Contract         *Contract
	Position         decimal.Decimal
	MarketPrice      float64
	MarketValue      decimal.Decimal
	AverageCost      decimal.Decimal
	UnrealizedPNL    decimal.Decimal
	RealizedPNL      decimal.Decimal
	AccountName      string
}

// AccountReceiver bundles independent last-value-wins cells for every
// scalar account field and the latest portfolio snapshot, per spec.md
// §3's Observable handles. Each cell is None until its first update.
type AccountReceiver struct {
	updateTime       *cell[string]
	accountCode      *cell[string]
	accountType      *cell[string]
	cashBalance      *cell[decimal.Decimal]
	equityWithLoan   *cell[decimal.Decimal]
	excessLiquidity  *cell[decimal.Decimal]
	netLiquidation   *cell[decimal.Decimal]
	realizedPNL      *cell[decimal.Decimal]
	unrealizedPNL    *cell[decimal.Decimal]
	totalCashBalance *cell[decimal.Decimal]
	portfolio        *cell[[]Position]
}

// accountSender is the reader-owned producer half sharing the same
// cells as the AccountReceiver handed to the caller — split at
// construction time so the reader task never holds a reference to the
// client handle (see DESIGN.md's cyclic-lifetime note).
type accountSender = AccountReceiver

func newAccountChannel() *AccountReceiver {
	return &AccountReceiver{
		updateTime:       newCell[string](),
		accountCode:      newCell[string](),
		accountType:      newCell[string](),
		cashBalance:      newCell[decimal.Decimal](),
		equityWithLoan:   newCell[decimal.Decimal](),
		excessLiquidity:  newCell[decimal.Decimal](),
		netLiquidation:   newCell[decimal.Decimal](),
		realizedPNL:      newCell[decimal.Decimal](),
		unrealizedPNL:    newCell[decimal.Decimal](),
		totalCashBalance: newCell[decimal.Decimal](),
		portfolio:        newCell[[]Position](),
	}
}

func (a *AccountReceiver) UpdateTime() (string, bool)             { return a.updateTime.get() }
func (a *AccountReceiver) AccountCode() (string, bool)            { return a.accountCode.get() }
func (a *AccountReceiver) AccountType() (string, bool)            { return a.accountType.get() }
func (a *AccountReceiver) CashBalance() (decimal.Decimal, bool)   { return a.cashBalance.get() }
func (a *AccountReceiver) EquityWithLoanValue() (decimal.Decimal, bool) {
	return a.equityWithLoan.get()
}
func (a *AccountReceiver) ExcessLiquidity() (decimal.Decimal, bool) {
	return a.excessLiquidity.get()
}
func (a *AccountReceiver) NetLiquidationValue() (decimal.Decimal, bool) {
	return a.netLiquidation.get()
}
func (a *AccountReceiver) RealizedPNL() (decimal.Decimal, bool)   { return a.realizedPNL.get() }
func (a *AccountReceiver) UnrealizedPNL() (decimal.Decimal, bool) { return a.unrealizedPNL.get() }
func (a *AccountReceiver) TotalCashBalance() (decimal.Decimal, bool) {
	return a.totalCashBalance.get()
}
func (a *AccountReceiver) Portfolio() ([]Position, bool) { return a.portfolio.get() }
