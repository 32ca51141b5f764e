// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package proxy validates and interprets vote delegation edges for one
assembly.

All functions are pure over the edge set supplied by the caller; edge
persistence belongs to the handlers. Only edges with status "active"
participate.

# Validation

ValidateNewEdge rejects, in order: self-delegation, a second active
outgoing edge from the same delegator, and cycles. Cycle detection walks
the full delegation chain from the proposed delegate.

# Attribution

AttributedCoefficient aggregates exactly one hop: a voter receives their
own coefficient plus the coefficients of their immediate delegators.
Longer chains are legal (and cycle-checked end to end) but do not
transfer weight transitively; whoever A delegated to must show up and
vote for A's weight to count.
*/
package proxy
