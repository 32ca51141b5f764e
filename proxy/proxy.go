// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package proxy

import (
	"errors"

	"github.com/danielhkuo/agora/models"
)

var (
	ErrSelfDelegation   = errors.New("user cannot delegate to themselves")
	ErrCycleDetected    = errors.New("circular proxy delegation detected")
	ErrAlreadyDelegated = errors.New("delegator already has an active proxy")
)

// outgoing returns the active outgoing edge for a user, if any.
// A delegator has at most one; the first active match wins.
func outgoing(edges []models.Proxy, userID string) (models.Proxy, bool) {
	for _, e := range edges {
		if e.Status == models.ProxyActive && e.DelegatorID == userID {
			return e, true
		}
	}
	return models.Proxy{}, false
}

// ValidateNewEdge checks whether adding delegator -> delegate to the given
// edge set is legal. It rejects self-delegation, a second active outgoing
// edge from the same delegator, and any edge that would close a cycle.
// The cycle walk follows each node's existing outgoing edge starting at
// the delegate, with the delegator pre-marked as visited.
func ValidateNewEdge(edges []models.Proxy, delegatorID, delegateID string) error {
	if delegatorID == delegateID {
		return ErrSelfDelegation
	}
	if _, ok := outgoing(edges, delegatorID); ok {
		return ErrAlreadyDelegated
	}

	visited := map[string]bool{delegatorID: true}
	current := delegateID
	for current != "" {
		if visited[current] {
			return ErrCycleDetected
		}
		visited[current] = true
		next, ok := outgoing(edges, current)
		if !ok {
			break
		}
		current = next.DelegateID
	}
	return nil
}

// IsDelegator reports whether the user has an active outgoing edge. Such a
// user may not cast a ballot directly and is not counted present in their
// own right; their weight manifests through their delegate.
func IsDelegator(edges []models.Proxy, userID string) bool {
	_, ok := outgoing(edges, userID)
	return ok
}

// DelegateOf returns the delegate the user's vote flows to, if delegated.
func DelegateOf(edges []models.Proxy, userID string) (string, bool) {
	e, ok := outgoing(edges, userID)
	if !ok {
		return "", false
	}
	return e.DelegateID, true
}

// AttributedCoefficient returns the voter's own coefficient plus the
// coefficient of every user whose immediate outgoing edge points at the
// voter. Attribution is one hop only: a chain A -> B -> C does not carry
// A's coefficient to C, even though cycle validation walks the full chain.
// coefficientOf reports false for unknown users, whose weight is skipped.
func AttributedCoefficient(edges []models.Proxy, coefficientOf func(string) (float64, bool), voterID string) float64 {
	total, ok := coefficientOf(voterID)
	if !ok {
		total = 0
	}
	for _, e := range edges {
		if e.Status != models.ProxyActive || e.DelegateID != voterID {
			continue
		}
		if c, ok := coefficientOf(e.DelegatorID); ok {
			total += c
		}
	}
	return total
}
