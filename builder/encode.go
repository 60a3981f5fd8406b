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

// Package builder assembles outbound IB frame payloads field by field.
// It plays the role the teacher's FIX field-setter helpers played:
// a small set of composable primitives that each append one canonical
// token to a growing message body, so the higher-level request
// constructors in package ibtws read as a flat list of fields in wire
// order rather than ad-hoc string concatenation.
package builder

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Message accumulates NUL-terminated fields for one outbound frame body.
// Field order is significant: it mirrors the broker's positional wire
// grammar, so callers must append fields in declaration order.
type Message struct {
	buf []byte
}

// New starts an empty message body. Callers append the message-kind
// discriminator (and version, where the kind has one) as the first
// fields.
func New() *Message {
	return &Message{buf: make([]byte, 0, 128)}
}

func (m *Message) push(s string) *Message {
	m.buf = append(m.buf, s...)
	m.buf = append(m.buf, 0)
	return m
}

// Int appends an integer field.
func (m *Message) Int(v int) *Message {
	return m.push(strconv.Itoa(v))
}

// Int32 appends a 32-bit integer field.
func (m *Message) Int32(v int32) *Message {
	return m.push(strconv.FormatInt(int64(v), 10))
}

// Int64 appends a 64-bit integer field.
func (m *Message) Int64(v int64) *Message {
	return m.push(strconv.FormatInt(v, 10))
}

// Float appends a float64 field in the decimal representation the
// broker expects (no scientific notation for ordinary price/size
// ranges).
func (m *Message) Float(v float64) *Message {
	return m.push(strconv.FormatFloat(v, 'f', -1, 64))
}

// Decimal appends a shopspring/decimal field.
func (m *Message) Decimal(v decimal.Decimal) *Message {
	return m.push(v.String())
}

// Str appends a raw string field verbatim.
func (m *Message) Str(s string) *Message {
	return m.push(s)
}

// Bool appends "1" or "0".
func (m *Message) Bool(b bool) *Message {
	if b {
		return m.push("1")
	}
	return m.push("0")
}

// Empty appends an absent/"None" field: just the separator.
func (m *Message) Empty() *Message {
	return m.push("")
}

// OptStr appends s if non-nil, else an absent field.
func (m *Message) OptStr(s *string) *Message {
	if s == nil {
		return m.Empty()
	}
	return m.push(*s)
}

// OptInt appends *v if non-nil, else an absent field.
func (m *Message) OptInt(v *int) *Message {
	if v == nil {
		return m.Empty()
	}
	return m.Int(*v)
}

// OptInt32Ptr appends *v if non-nil, else an absent field.
func (m *Message) OptInt32Ptr(v *int32) *Message {
	if v == nil {
		return m.Empty()
	}
	return m.Int32(*v)
}

// OptFloat appends *v if non-nil, else an absent field.
func (m *Message) OptFloat(v *float64) *Message {
	if v == nil {
		return m.Empty()
	}
	return m.Float(*v)
}

// OptDecimal appends *v if non-nil, else an absent field.
func (m *Message) OptDecimal(v *decimal.Decimal) *Message {
	if v == nil {
		return m.Empty()
	}
	return m.Decimal(*v)
}

// TagValueList appends a Vec<(String,String)>-shaped field: "k=v;k=v;"
// followed by the field separator. Used by algo-params and smart-combo
// routing-params sub-blocks.
func (m *Message) TagValueList(pairs [][2]string) *Message {
	s := ""
	for _, kv := range pairs {
		s += kv[0] + "=" + kv[1] + ";"
	}
	return m.push(s)
}

// Bytes returns the accumulated payload, ready for framing.
func (m *Message) Bytes() []byte {
	return m.buf
}

// String returns the accumulated payload as a string.
func (m *Message) String() string {
	return string(m.buf)
}
