// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/proxy"
)

// Tally computes the weighted result for one poll from live-state ballots.
//
// Attribution is recomputed from the current edge set, not from the
// coefficient frozen in the persisted Vote record; the frozen value is
// authoritative only at export time. Secret polls return an empty
// breakdown and zero totals: ballots are stored in full and redacted
// here, at read time.
func Tally(poll models.Poll, votes map[string][]string, edges []models.Proxy, coefficientOf func(string) (float64, bool)) models.PollResult {
	result := models.PollResult{
		PollID:   poll.ID,
		Title:    poll.Title,
		Results:  []models.OptionResult{},
		IsSecret: poll.IsSecret,
	}
	if poll.IsSecret {
		return result
	}

	// Accumulators in poll definition order, so the UI need not re-sort.
	index := make(map[string]int, len(poll.Options))
	for i, opt := range poll.Options {
		index[opt.ID] = i
		result.Results = append(result.Results, models.OptionResult{
			OptionID: opt.ID,
			Text:     opt.Text,
		})
	}

	for voterID, selections := range votes {
		if _, ok := coefficientOf(voterID); !ok {
			continue
		}
		// A delegator's ballot should not exist; skip defensively.
		if proxy.IsDelegator(edges, voterID) {
			continue
		}
		coefficient := proxy.AttributedCoefficient(edges, coefficientOf, voterID)
		result.TotalVotes++
		result.TotalCoefficientVoted += coefficient
		for _, sel := range selections {
			i, ok := index[sel]
			if !ok {
				continue
			}
			result.Results[i].VoteCount++
			result.Results[i].CoefficientTotal += coefficient
		}
	}
	return result
}
