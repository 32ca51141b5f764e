// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally computes weighted poll results and export rows.

# Live Tally

Tally aggregates per-option vote counts and coefficient totals from the
live-state ballot map. Each voter counts at most once; delegators are
skipped; attribution comes from the current proxy edges via one-hop
resolution. Option order follows the poll definition.

Secret polls are redacted at tally time: the result carries an empty
breakdown and zero totals even though ballots are stored with full
selections. An operator with raw storage access can therefore read
secret ballots; this is a documented trust boundary of the system, not
an access-control mechanism.

# Export

ExportRows produces one CSV row per (ballot, selected option) pair using
the coefficient frozen when the ballot was cast. Live tallies and
exports can legitimately diverge when delegations changed after a ballot
was recorded; the two codepaths are intentionally separate.
*/
package tally
