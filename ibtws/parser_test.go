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

	"github.com/rolandgg/ibtws/builder"
	"github.com/rolandgg/ibtws/constants"
)

func TestParseFrameCurrentTime(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InCurrentTime))
	m.Str("1")
	m.Int64(1700000000)

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	ct, ok := ev.(CurrentTimeEvent)
	if !ok {
		t.Fatalf("got %T, want CurrentTimeEvent", ev)
	}
	if ct.Unix != 1700000000 {
		t.Fatalf("Unix = %d, want 1700000000", ct.Unix)
	}
}

func TestParseFrameNextValidID(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InNextValidId))
	m.Str("1")
	m.Int32(77)

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	nvi, ok := ev.(NextValidIDEvent)
	if !ok || nvi.OrderID != 77 {
		t.Fatalf("got %#v, want NextValidIDEvent{OrderID: 77}", ev)
	}
}

func TestParseFrameAcctValue(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InAcctValue))
	m.Str("2")
	m.Str("NetLiquidation")
	m.Str("123456.78")
	m.Str("USD")

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	av, ok := ev.(AcctValueEvent)
	if !ok {
		t.Fatalf("got %T, want AcctValueEvent", ev)
	}
	if av.Key != "NetLiquidation" || av.Value != "123456.78" || av.Currency != "USD" {
		t.Fatalf("got %#v", av)
	}
}

func TestParseFrameTickPriceWithOptionalSize(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InTickPrice))
	m.Str("6")
	m.Int32(5)
	m.Int32(TickBid)
	m.Float(101.25)
	m.Float(300)
	m.Int32(0)

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	tp, ok := ev.(TickPriceEvent)
	if !ok {
		t.Fatalf("got %T, want TickPriceEvent", ev)
	}
	if tp.ReqID != 5 || tp.Kind != TickBid || tp.Price != 101.25 {
		t.Fatalf("got %#v", tp)
	}
	if tp.Size == nil || *tp.Size != 300 {
		t.Fatalf("Size = %v, want 300", tp.Size)
	}
}

func TestParseFrameTickPriceAbsentSize(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InTickPrice))
	m.Str("6")
	m.Int32(5)
	m.Int32(TickLast)
	m.Float(101.25)
	m.Empty() // absent size
	m.Int32(0)

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	tp := ev.(TickPriceEvent)
	if tp.Size != nil {
		t.Fatalf("Size = %v, want nil", tp.Size)
	}
}

func TestParseFrameHistoricalDataWithBars(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InHistoricalData))
	m.Int32(9)
	m.Str("20240101 00:00:00")
	m.Str("20240102 00:00:00")
	m.Int32(2)
	// bar 1
	m.Str("20240101 09:30:00")
	m.Float(100)
	m.Float(105)
	m.Float(99)
	m.Float(103)
	m.Int64(10000)
	m.Float(102.5)
	m.Int32(50)
	// bar 2
	m.Str("20240101 09:31:00")
	m.Float(103)
	m.Float(104)
	m.Float(102)
	m.Float(103.5)
	m.Int64(5000)
	m.Float(103.1)
	m.Int32(20)

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	hd, ok := ev.(HistoricalDataEvent)
	if !ok {
		t.Fatalf("got %T, want HistoricalDataEvent", ev)
	}
	if hd.ReqID != 9 || hd.Series.NBars != 2 || len(hd.Series.Data) != 2 {
		t.Fatalf("got %#v", hd)
	}
	if hd.Series.Data[1].Close != 103.5 || hd.Series.Data[1].Count != 20 {
		t.Fatalf("bar 2 = %#v", hd.Series.Data[1])
	}
}

func TestParseFrameErrMsgWithAbsentID(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InErrMsg))
	m.Str("2")
	m.Empty() // no correlating id
	m.Int32(2104)
	m.Str("Market data farm connection is OK")

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	em, ok := ev.(ErrMsgEvent)
	if !ok {
		t.Fatalf("got %T, want ErrMsgEvent", ev)
	}
	if em.ID != nil {
		t.Fatalf("ID = %v, want nil", em.ID)
	}
	if em.Code != 2104 {
		t.Fatalf("Code = %d, want 2104", em.Code)
	}
}

func TestParseFrameUnknownKindIsNotImplemented(t *testing.T) {
	m := builder.New()
	m.Int32(9999)

	ev, err := parseFrame(m.Bytes())
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	ni, ok := ev.(NotImplementedEvent)
	if !ok || ni.Kind != 9999 {
		t.Fatalf("got %#v, want NotImplementedEvent{Kind: 9999}", ev)
	}
}

func TestParseFrameTruncatedPayloadErrors(t *testing.T) {
	m := builder.New()
	m.Int32(int32(constants.InTickPrice))
	// deliberately missing every remaining field

	if _, err := parseFrame(m.Bytes()); err == nil {
		t.Fatalf("expected error decoding a truncated TickPrice frame, got nil")
	}
}

func TestIsAbsentRecognizesMaxDoubleSentinel(t *testing.T) {
	if !isAbsent(constants.MaxDoubleSentinel) {
		t.Fatalf("expected max-double sentinel to be treated as absent")
	}
	if !isAbsent("") {
		t.Fatalf("expected empty string to be treated as absent")
	}
	if isAbsent("1.5") {
		t.Fatalf("did not expect an ordinary value to be treated as absent")
	}
}
