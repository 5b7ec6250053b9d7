/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package prng provides the seeded generator behind every "random but
// reproducible" layout. It is mulberry32: tiny state, no allocation per call
// and good enough spread for the double-digit item counts layouts deal with.
// It is not suitable for anything security related.
package prng

// Stream multipliers used to derive independent streams from one base seed.
const (
	ShuffleStream int32 = 999
	ScatterStream int32 = 1337
)

// Source is a mulberry32 generator. The zero value is seeded with 0.
// A Source is not safe for concurrent use.
type Source struct {
	state uint32
}

// New returns a Source seeded with seed.
func New(seed int32) *Source { return &Source{state: uint32(seed)} }

// Func returns Next bound to a fresh Source, for callers that only want
// the float stream.
func Func(seed int32) func() float64 { return New(seed).Next }

// Derive decorrelates a stream from base by multiplying it with mul,
// wrapping in 32 bits.
func Derive(base, mul int32) int32 { return int32(uint32(base) * uint32(mul)) }

// Next returns the next float in [0,1).
func (s *Source) Next() float64 {
	s.state += 0x6D2B79F5
	t := s.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}

// Range returns a float in [lo, hi).
func (s *Source) Range(lo, hi float64) float64 { return lo + s.Next()*(hi-lo) }

// Intn returns an int in [0, n). It returns 0 for n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Next() * float64(n))
}

// Shuffle permutes n elements with Fisher-Yates, calling swap like
// math/rand.Shuffle does.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}
