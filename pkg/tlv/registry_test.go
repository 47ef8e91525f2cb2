// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tlv

import (
	"errors"
	"strings"
	"testing"
)

func TestDomainOfPartition(t *testing.T) {
	cases := []struct {
		typ  uint8
		want Domain
	}{
		{1, DomainMarketData},
		{16, DomainMarketData},
		{20, DomainSignal},
		{32, DomainSignal},
		{40, DomainExecution},
		{49, DomainExecution},
		{60, DomainSignal},
		{72, DomainSignal},
		{80, DomainSystem},
		{90, DomainSystem},
		{100, DomainSystem},
		{112, DomainSystem},
	}
	for _, c := range cases {
		got, err := DomainOf(c.typ)
		if err != nil {
			t.Fatalf("DomainOf(%d): %v", c.typ, err)
		}
		if got != c.want {
			t.Errorf("DomainOf(%d) = %v, want %v", c.typ, got, c.want)
		}
	}
}

func TestReservedRangesRejected(t *testing.T) {
	reserved := []uint8{17, 18, 19, 33, 39, 50, 59, 73, 79, 91, 99, 109, 113, 119, 120, 199}
	for _, typ := range reserved {
		_, err := DomainOf(typ)
		var rerr *ReservedTypeError
		if !errors.As(err, &rerr) {
			t.Errorf("DomainOf(%d) = %v, want ReservedTypeError", typ, err)
		}
		if !IsReserved(typ) {
			t.Errorf("IsReserved(%d) = false", typ)
		}
	}
}

func TestExtendedTypeInheritsEmbeddedDomain(t *testing.T) {
	d, err := DomainOf(TypeExtended, TypePoolSwap)
	if err != nil {
		t.Fatalf("DomainOf: %v", err)
	}
	if d != DomainMarketData {
		t.Fatalf("got %v, want MarketData", d)
	}
}

func TestFixedConstraintViolation(t *testing.T) {
	err := Fixed(40).Validate(TypeTrade, 39)
	var sizeErr *SizeConstraintViolationError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected SizeConstraintViolationError, got %v", err)
	}
	if sizeErr.Actual != 39 {
		t.Fatalf("Actual = %d", sizeErr.Actual)
	}
}

func TestBoundedConstraint(t *testing.T) {
	c := Bounded(2, 10)
	if err := c.Validate(1, 1); !errors.Is(err, ErrSizeConstraint) {
		t.Fatalf("expected violation below min")
	}
	if err := c.Validate(1, 11); !errors.Is(err, ErrSizeConstraint) {
		t.Fatalf("expected violation above max")
	}
	if err := c.Validate(1, 5); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestGenerateMarkdownGroupsByDomain(t *testing.T) {
	md := GenerateMarkdown()
	if !strings.Contains(md, "## MarketData") || !strings.Contains(md, "## Execution") {
		t.Fatalf("expected domain headers in markdown output:\n%s", md)
	}
	if !strings.Contains(md, "Trade") || !strings.Contains(md, "Fixed(40)") {
		t.Fatalf("expected Trade entry with its constraint:\n%s", md)
	}
}

func TestTypesInDomainSortedAndScoped(t *testing.T) {
	types := TypesInDomain(DomainExecution)
	if len(types) == 0 {
		t.Fatalf("expected execution types")
	}
	for i, m := range types {
		if m.Domain != DomainExecution {
			t.Fatalf("type %d has domain %v", m.Type, m.Domain)
		}
		if i > 0 && types[i-1].Type >= m.Type {
			t.Fatalf("types not sorted: %d before %d", types[i-1].Type, m.Type)
		}
	}
}

func TestTypeInfoUnregisteredNonReserved(t *testing.T) {
	meta, err := TypeInfo(9) // MarketData band, not registered, not reserved
	if err != nil {
		t.Fatalf("TypeInfo(9): %v", err)
	}
	if meta.Domain != DomainMarketData {
		t.Fatalf("domain = %v", meta.Domain)
	}
	if meta.Constraint.Kind != KindVariable {
		t.Fatalf("expected Variable constraint for unregistered type")
	}
}
