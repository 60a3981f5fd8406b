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
	"net"
	"testing"
	"time"

	"github.com/rolandgg/ibtws/builder"
	"github.com/rolandgg/ibtws/constants"
)

// fakeBroker drives the server side of the wire protocol over a
// net.Pipe() connection, standing in for a real TWS/Gateway instance
// the way the teacher's tests stand up an in-memory FIX counterparty.
type fakeBroker struct {
	conn   net.Conn
	reader *framedReader
	writer *framedWriter
}

func newFakeBroker(conn net.Conn) *fakeBroker {
	return &fakeBroker{conn: conn, reader: newFramedReader(conn), writer: newFramedWriter(conn)}
}

// completeHandshake reads the client's raw "API\0" + framed version
// range, then replies with its own framed version-ack, reads StartApi,
// and replies with NextValidId.
// completeHandshake runs entirely on a goroutine the test spawns, so it
// reports failures via t.Errorf rather than t.Fatalf — FailNow must
// only ever be called from the goroutine running the test itself.
func (b *fakeBroker) completeHandshake(t *testing.T, clientOrderID int32) bool {
	t.Helper()

	prefix := make([]byte, len(constants.HandshakePrefix))
	if _, err := readFullNoFatal(b.conn, prefix); err != nil {
		t.Errorf("reading handshake prefix: %v", err)
		return false
	}
	if string(prefix) != constants.HandshakePrefix {
		t.Errorf("handshake prefix = %q, want %q", prefix, constants.HandshakePrefix)
		return false
	}

	if _, err := b.reader.read(); err != nil { // version range
		t.Errorf("reading version range: %v", err)
		return false
	}

	ack := builder.New()
	ack.Str("151")
	ack.Str("20240101 00:00:00")
	if err := b.writer.write(ack.Bytes()); err != nil {
		t.Errorf("writing version ack: %v", err)
		return false
	}

	if _, err := b.reader.read(); err != nil { // StartApi
		t.Errorf("reading StartApi: %v", err)
		return false
	}

	nvi := builder.New()
	nvi.Int32(int32(constants.InNextValidId))
	nvi.Str("1")
	nvi.Int32(clientOrderID)
	if err := b.writer.write(nvi.Bytes()); err != nil {
		t.Errorf("writing NextValidId: %v", err)
		return false
	}
	return true
}

// drainAccountSubscribe reads and discards the ReqAcctData frame
// Connect sends automatically after bring-up.
func (b *fakeBroker) drainAccountSubscribe(t *testing.T) bool {
	t.Helper()
	if _, err := b.reader.read(); err != nil {
		t.Errorf("reading account-subscribe frame: %v", err)
		return false
	}
	return true
}

func readFullNoFatal(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		if err != nil {
			return n, err
		}
		n += m
	}
	return n, nil
}

func TestConnectBringUpSequence(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	broker := newFakeBroker(serverConn)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if !broker.completeHandshake(t, 100) {
			return
		}
		broker.drainAccountSubscribe(t)
	}()

	cfg := NewConfig("unused", 0, 0, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := connectOver(ctx, clientConn, cfg)
	if err != nil {
		t.Fatalf("connectOver: %v", err)
	}
	defer client.Close()

	<-done

	if !client.IsConnected() {
		t.Fatalf("expected client to report connected")
	}
}

func TestReqContractDetailsRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	broker := newFakeBroker(serverConn)
	go func() {
		if !broker.completeHandshake(t, 1) {
			return
		}
		if !broker.drainAccountSubscribe(t) {
			return
		}

		// ReqContractData request
		if _, err := broker.reader.read(); err != nil {
			t.Errorf("reading ReqContractData: %v", err)
			return
		}

		row := builder.New()
		row.Int32(int32(constants.InContractData))
		row.Str("8")
		row.Int32(1) // reqID
		row.Str("AAPL")
		row.Str(constants.SecTypeStock)
		row.Empty() // expiry
		row.Empty() // strike
		row.Empty() // right
		row.Str("SMART")
		row.Str("USD")
		row.Str("AAPL")
		row.Str("NASDAQ")
		row.Str("AAPL")
		row.Int32(265598)
		row.Float(0.01)
		row.Int32(100)
		row.Empty() // multiplier
		row.Str("ACTIVETIM,ADJUST")
		row.Str("SMART,NASDAQ")
		row.Int32(1)
		row.Int32(0)
		row.Str("APPLE INC")
		row.Str("NASDAQ")
		row.Str("")
		row.Str("Technology")
		row.Str("Computers")
		row.Str("Computers")
		row.Str("EST")
		row.Str("20240101:0930-20240101:1600")
		row.Str("20240101:0930-20240101:1600")
		row.Str("")
		row.Int32(0)
		if err := broker.writer.write(row.Bytes()); err != nil {
			t.Errorf("writing ContractData: %v", err)
			return
		}

		end := builder.New()
		end.Int32(int32(constants.InContractDataEnd))
		end.Str("1")
		end.Int32(1)
		if err := broker.writer.write(end.Bytes()); err != nil {
			t.Errorf("writing ContractDataEnd: %v", err)
			return
		}
	}()

	cfg := NewConfig("unused", 0, 0, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := connectOver(ctx, clientConn, cfg)
	if err != nil {
		t.Fatalf("connectOver: %v", err)
	}
	defer client.Close()

	symbol := "AAPL"
	details, err := client.ReqContractDetails(ctx, &Contract{Symbol: &symbol, SecType: constants.SecTypeStock, Currency: strPtr("USD"), Exchange: strPtr("SMART")})
	if err != nil {
		t.Fatalf("ReqContractDetails: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("got %d rows, want 1", len(details))
	}
	if details[0].Contract.ConID != 265598 {
		t.Fatalf("ConID = %d, want 265598", details[0].Contract.ConID)
	}
	if details[0].LongName != "APPLE INC" {
		t.Fatalf("LongName = %q, want %q", details[0].LongName, "APPLE INC")
	}
}

func strPtr(s string) *string { return &s }
