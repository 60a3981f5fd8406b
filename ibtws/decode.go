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
	"bytes"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rolandgg/ibtws/constants"
)

// fieldCursor walks a NUL-delimited frame payload one token at a time.
// It is the fallible counterpart to original_source's decode<T>, which
// panics on a malformed required field; every method here instead
// returns an error, per spec.md §9's resolution of the
// panic-vs-fallible ambiguity: a parse failure must drop the frame, not
// the connection.
type fieldCursor struct {
	fields [][]byte
	pos    int
}

func newFieldCursor(payload []byte) *fieldCursor {
	// Payloads are NUL-terminated per field, so a trailing split
	// produces one empty trailing element; Split handles that
	// naturally since callers only ever consume as many fields as the
	// message kind defines.
	return &fieldCursor{fields: bytes.Split(payload, []byte{0})}
}

func (c *fieldCursor) next() (string, bool) {
	if c.pos >= len(c.fields) {
		return "", false
	}
	s := string(c.fields[c.pos])
	c.pos++
	return s, true
}

// isAbsent reports whether a raw token denotes "None": empty, or the
// broker's max-double sentinel.
func isAbsent(s string) bool {
	return s == "" || s == constants.MaxDoubleSentinel
}

func (c *fieldCursor) str() (string, error) {
	s, ok := c.next()
	if !ok {
		return "", fmt.Errorf("ibtws: field cursor exhausted")
	}
	return s, nil
}

func (c *fieldCursor) optStr() (*string, error) {
	s, err := c.str()
	if err != nil {
		return nil, err
	}
	if isAbsent(s) {
		return nil, nil
	}
	return &s, nil
}

func (c *fieldCursor) int32() (int32, error) {
	s, err := c.str()
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("ibtws: decoding int32 field %q: %w", s, err)
	}
	return int32(v), nil
}

func (c *fieldCursor) optInt32() (*int32, error) {
	s, err := c.str()
	if err != nil {
		return nil, err
	}
	if isAbsent(s) {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("ibtws: decoding optional int32 field %q: %w", s, err)
	}
	vv := int32(v)
	return &vv, nil
}

func (c *fieldCursor) int64() (int64, error) {
	s, err := c.str()
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ibtws: decoding int64 field %q: %w", s, err)
	}
	return v, nil
}

func (c *fieldCursor) float64() (float64, error) {
	s, err := c.str()
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("ibtws: decoding float64 field %q: %w", s, err)
	}
	return v, nil
}

func (c *fieldCursor) optFloat64() (*float64, error) {
	s, err := c.str()
	if err != nil {
		return nil, err
	}
	if isAbsent(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("ibtws: decoding optional float64 field %q: %w", s, err)
	}
	return &v, nil
}

func (c *fieldCursor) optDecimal() (*decimal.Decimal, error) {
	s, err := c.str()
	if err != nil {
		return nil, err
	}
	if isAbsent(s) {
		return nil, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("ibtws: decoding optional decimal field %q: %w", s, err)
	}
	return &v, nil
}

func (c *fieldCursor) boolean() (bool, error) {
	s, err := c.str()
	if err != nil {
		return false, err
	}
	switch s {
	case "", "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("ibtws: decoding bool field %q", s)
	}
}
