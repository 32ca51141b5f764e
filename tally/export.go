// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"strconv"
	"time"

	"github.com/danielhkuo/agora/models"
)

// ExportHeader is the first row of every assembly export.
var ExportHeader = []string{
	"poll_title", "poll_type", "voter_name", "voter_email",
	"option_text", "coefficient_used", "voted_at",
}

// ExportRows flattens persisted votes into CSV rows, one per
// (ballot, selected option) pair. Unlike live tallies, the exported
// coefficient is the value frozen at cast time. Voter identity is
// replaced by ANONYMOUS for secret polls; votes against unknown polls or
// users are skipped.
func ExportRows(polls []models.Poll, votes []models.Vote, usersByID map[string]models.User) [][]string {
	pollsByID := make(map[string]models.Poll, len(polls))
	for _, p := range polls {
		pollsByID[p.ID] = p
	}

	rows := make([][]string, 0, len(votes))
	for _, vote := range votes {
		poll, ok := pollsByID[vote.PollID]
		if !ok {
			continue
		}
		user, ok := usersByID[vote.UserID]
		if !ok {
			continue
		}
		name, email := user.FullName, user.Email
		if poll.IsSecret {
			name, email = models.AnonymousVoter, models.AnonymousVoter
		}
		votedAt := time.UnixMilli(vote.VotedAt).UTC().Format(time.RFC3339)
		for _, sel := range vote.Selections {
			rows = append(rows, []string{
				poll.Title,
				poll.PollType,
				name,
				email,
				optionText(poll, sel),
				strconv.FormatFloat(vote.CoefficientUsed, 'f', -1, 64),
				votedAt,
			})
		}
	}
	return rows
}

func optionText(poll models.Poll, optionID string) string {
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			return opt.Text
		}
	}
	return "N/A"
}
