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

// Bar is one OHLCV row of a historical-bars response.
type Bar struct {
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	WAP       float64
	Volume    int64
	Count     int32
}

// BarSeries is the full response to ReqHistoricalData: one header plus
// N bar rows, delivered as a single event per spec.md §4.2.
type BarSeries struct {
	StartDateTime string
	EndDateTime   string
	NBars         int32
	Data          []Bar
}
