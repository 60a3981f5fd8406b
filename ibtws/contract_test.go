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

import "testing"

func TestShortAvailabilityBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		want  ShortAvailability
	}{
		{3.0, ShortAvailable},
		{2.51, ShortAvailable},
		{2.5, ShortHardToBorrow}, // boundary value does not count as the higher category
		{2.0, ShortHardToBorrow},
		{1.51, ShortHardToBorrow},
		{1.5, ShortUnavailable}, // boundary value does not count as the higher category
		{0.0, ShortUnavailable},
		{-1.0, ShortUnavailable},
	}
	for _, c := range cases {
		got := shortAvailabilityFromFloat(c.value)
		if got != c.want {
			t.Errorf("shortAvailabilityFromFloat(%v) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestShortAvailabilityString(t *testing.T) {
	if ShortAvailable.String() != "Available" {
		t.Errorf("got %q", ShortAvailable.String())
	}
	if ShortHardToBorrow.String() != "HardToBorrow" {
		t.Errorf("got %q", ShortHardToBorrow.String())
	}
	if ShortUnavailable.String() != "Unavailable" {
		t.Errorf("got %q", ShortUnavailable.String())
	}
}
