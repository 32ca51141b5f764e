// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package livestate

import (
	"encoding/json"
	"errors"

	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/proxy"
)

var (
	ErrPollNotActive       = errors.New("this poll is not currently active")
	ErrSelectionCount      = errors.New("selection count outside poll bounds")
	ErrUnknownOption       = errors.New("selection is not an option of this poll")
	ErrDelegatorCannotVote = errors.New("user has delegated their vote and cannot vote directly")
)

// ActivePoll is the tagged "no active poll" / "poll id" value. The zero
// value means no poll is active. It serializes as JSON null or a string,
// matching the wire format consumed by the UI.
type ActivePoll struct {
	id string
	ok bool
}

// PollActive returns an ActivePoll pointing at the given poll.
func PollActive(id string) ActivePoll {
	return ActivePoll{id: id, ok: id != ""}
}

// NoActivePoll returns the "no poll active" value.
func NoActivePoll() ActivePoll {
	return ActivePoll{}
}

// ID returns the active poll id and whether one is active.
func (a ActivePoll) ID() (string, bool) {
	return a.id, a.ok
}

// Is reports whether the given poll is the active one.
func (a ActivePoll) Is(pollID string) bool {
	return a.ok && a.id == pollID
}

func (a ActivePoll) MarshalJSON() ([]byte, error) {
	if !a.ok {
		return []byte("null"), nil
	}
	return json.Marshal(a.id)
}

func (a *ActivePoll) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = ActivePoll{}
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*a = PollActive(id)
	return nil
}

// State is the single mutable per-assembly runtime record: presence,
// the active poll, and recorded ballots. Created when an assembly starts,
// mutated through the Active period, read-only after it ends.
type State struct {
	ID                 string                         `json:"id"`
	ActivePoll         ActivePoll                     `json:"active_poll_id"`
	Participants       []models.Participant           `json:"participants"`
	PresentCoefficient float64                        `json:"present_coefficient"`
	TotalCoefficient   float64                        `json:"total_coefficient"`
	Votes              map[string]map[string][]string `json:"votes"`
}

// NewState snapshots the roster into a fresh live state. Every user
// becomes a participant with is_present false; coefficients are frozen at
// this moment and do not track later profile edits.
func NewState(assemblyID string, roster []models.User) *State {
	participants := make([]models.Participant, 0, len(roster))
	total := 0.0
	for _, u := range roster {
		participants = append(participants, models.Participant{
			ID:          u.ID,
			FullName:    u.FullName,
			Coefficient: u.Coefficient,
			IsPresent:   false,
		})
		total += u.Coefficient
	}
	return &State{
		ID:                 assemblyID,
		ActivePoll:         NoActivePoll(),
		Participants:       participants,
		PresentCoefficient: 0,
		TotalCoefficient:   total,
		Votes:              map[string]map[string][]string{},
	}
}

// ParticipantCoefficient looks up a participant's snapshotted coefficient.
func (s *State) ParticipantCoefficient(userID string) (float64, bool) {
	for i := range s.Participants {
		if s.Participants[i].ID == userID {
			return s.Participants[i].Coefficient, true
		}
	}
	return 0, false
}

// Join marks a participant present. Joining twice is a no-op, as is
// joining as a user not on the roster. A delegator is never marked
// present directly; their weight manifests when their delegate joins.
// For a non-delegator, present_coefficient grows by the attributed
// coefficient, which may include weight from absent delegators.
func (s *State) Join(userID string, edges []models.Proxy) {
	var participant *models.Participant
	for i := range s.Participants {
		if s.Participants[i].ID == userID {
			participant = &s.Participants[i]
			break
		}
	}
	if participant == nil || participant.IsPresent {
		return
	}
	if proxy.IsDelegator(edges, userID) {
		return
	}
	participant.IsPresent = true
	s.PresentCoefficient += proxy.AttributedCoefficient(edges, s.ParticipantCoefficient, userID)
}

// Activate sets the active poll and returns the previously active one.
// Replacing an already-active poll is permitted; close-then-activate
// sequencing is the caller's responsibility, and callers are expected to
// warn when the returned value names a different poll.
func (s *State) Activate(pollID string) (prev ActivePoll) {
	prev = s.ActivePoll
	s.ActivePoll = PollActive(pollID)
	return prev
}

// Close clears the active poll. Best-effort: the given id does not have
// to match the active one, and mismatched reports when it did not.
func (s *State) Close(pollID string) (mismatched bool) {
	mismatched = s.ActivePoll.ok && !s.ActivePoll.Is(pollID)
	s.ActivePoll = NoActivePoll()
	return mismatched
}

// CastBallot records selections for a user on the given poll, replacing
// any prior ballot from the same user. The active-poll check lives here,
// inside the mutation, so that check and write are atomic with respect to
// concurrent mutations of the same record. Delegator rejection is the
// caller's job (it needs the edge set against user identity).
func (s *State) CastBallot(poll models.Poll, userID string, selections []string) error {
	if !s.ActivePoll.Is(poll.ID) {
		return ErrPollNotActive
	}
	if len(selections) < poll.MinSelections || len(selections) > poll.MaxSelections {
		return ErrSelectionCount
	}
	valid := make(map[string]bool, len(poll.Options))
	for _, opt := range poll.Options {
		valid[opt.ID] = true
	}
	for _, sel := range selections {
		if !valid[sel] {
			return ErrUnknownOption
		}
	}
	if s.Votes == nil {
		s.Votes = map[string]map[string][]string{}
	}
	if s.Votes[poll.ID] == nil {
		s.Votes[poll.ID] = map[string][]string{}
	}
	s.Votes[poll.ID][userID] = selections
	return nil
}

// Quorum returns present over total coefficient, 0 when the total is 0.
func (s *State) Quorum() float64 {
	if s.TotalCoefficient == 0 {
		return 0
	}
	return s.PresentCoefficient / s.TotalCoefficient
}
