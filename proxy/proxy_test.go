// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package proxy

import (
	"errors"
	"testing"

	"github.com/danielhkuo/agora/models"
)

func edge(delegator, delegate string) models.Proxy {
	return models.Proxy{DelegatorID: delegator, DelegateID: delegate, Status: models.ProxyActive}
}

func TestValidateNewEdge(t *testing.T) {
	tests := []struct {
		name      string
		edges     []models.Proxy
		delegator string
		delegate  string
		wantErr   error
	}{
		{"first edge", nil, "a", "b", nil},
		{"self delegation", nil, "a", "a", ErrSelfDelegation},
		{"duplicate outgoing", []models.Proxy{edge("a", "b")}, "a", "c", ErrAlreadyDelegated},
		{"direct cycle", []models.Proxy{edge("a", "b")}, "b", "a", ErrCycleDetected},
		{"transitive cycle", []models.Proxy{edge("a", "b"), edge("b", "c")}, "c", "a", ErrCycleDetected},
		{"chain extension ok", []models.Proxy{edge("a", "b")}, "c", "a", nil},
		{"delegate already delegates elsewhere", []models.Proxy{edge("b", "c")}, "a", "b", nil},
		{"revoked edge ignored", []models.Proxy{
			{DelegatorID: "b", DelegateID: "a", Status: models.ProxyRevoked},
		}, "a", "b", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewEdge(tt.edges, tt.delegator, tt.delegate)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateNewEdge() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDelegator(t *testing.T) {
	edges := []models.Proxy{
		edge("a", "b"),
		{DelegatorID: "c", DelegateID: "d", Status: models.ProxyRevoked},
	}

	if !IsDelegator(edges, "a") {
		t.Error("IsDelegator() = false for user with active outgoing edge")
	}
	if IsDelegator(edges, "b") {
		t.Error("IsDelegator() = true for a delegate with no outgoing edge")
	}
	if IsDelegator(edges, "c") {
		t.Error("IsDelegator() = true for user whose only edge is revoked")
	}
}

func TestDelegateOf(t *testing.T) {
	edges := []models.Proxy{edge("a", "b")}

	delegate, ok := DelegateOf(edges, "a")
	if !ok || delegate != "b" {
		t.Errorf("DelegateOf() = %q, %v; want \"b\", true", delegate, ok)
	}
	if _, ok := DelegateOf(edges, "b"); ok {
		t.Error("DelegateOf() reported a delegate for a non-delegator")
	}
}

func TestAttributedCoefficient(t *testing.T) {
	coefficients := map[string]float64{"a": 2, "b": 3, "c": 5}
	coefficientOf := func(id string) (float64, bool) {
		c, ok := coefficients[id]
		return c, ok
	}

	tests := []struct {
		name  string
		edges []models.Proxy
		voter string
		want  float64
	}{
		{"no delegations", nil, "b", 3},
		{"one delegator", []models.Proxy{edge("a", "b")}, "b", 5},
		{"two delegators", []models.Proxy{edge("a", "c"), edge("b", "c")}, "c", 10},
		// One hop only: a -> b -> c carries b's weight to c, not a's.
		{"chain does not cascade", []models.Proxy{edge("a", "b"), edge("b", "c")}, "c", 8},
		{"revoked edge ignored", []models.Proxy{
			{DelegatorID: "a", DelegateID: "b", Status: models.ProxyRevoked},
		}, "b", 3},
		{"unknown delegator skipped", []models.Proxy{edge("ghost", "b")}, "b", 3},
		{"unknown voter", nil, "ghost", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttributedCoefficient(tt.edges, coefficientOf, tt.voter)
			if got != tt.want {
				t.Errorf("AttributedCoefficient() = %v, want %v", got, tt.want)
			}
		})
	}
}
