package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatusValid(t *testing.T) {
	valid := []MatchStatus{
		MatchStatusUpcoming, MatchStatusOngoing, MatchStatusFinished,
		MatchStatusDelayed, MatchStatusCancelled, MatchStatusPostponed,
		MatchStatusOvertime, MatchStatusHalfTime,
	}
	for _, s := range valid {
		assert.True(t, s.Valid(), "status %s", s)
	}

	assert.False(t, MatchStatus("paused").Valid())
	assert.False(t, MatchStatus("").Valid())
}

func TestMatchStatusTransitions(t *testing.T) {
	cases := []struct {
		from    MatchStatus
		to      MatchStatus
		allowed bool
	}{
		{MatchStatusUpcoming, MatchStatusOngoing, true},
		{MatchStatusUpcoming, MatchStatusFinished, false},
		{MatchStatusUpcoming, MatchStatusCancelled, true},
		{MatchStatusOngoing, MatchStatusFinished, true},
		{MatchStatusOngoing, MatchStatusHalfTime, true},
		{MatchStatusOngoing, MatchStatusUpcoming, false},
		{MatchStatusHalfTime, MatchStatusOngoing, true},
		{MatchStatusHalfTime, MatchStatusFinished, false},
		{MatchStatusOvertime, MatchStatusFinished, true},
		{MatchStatusDelayed, MatchStatusOngoing, true},
		{MatchStatusPostponed, MatchStatusUpcoming, true},
		{MatchStatusPostponed, MatchStatusOngoing, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestMatchStatusSameStatusIsNoop(t *testing.T) {
	for from := range matchStatusTransitions {
		assert.True(t, from.CanTransitionTo(from), "status %s", from)
	}
}

func TestMatchStatusTerminalStates(t *testing.T) {
	all := []MatchStatus{
		MatchStatusUpcoming, MatchStatusOngoing, MatchStatusDelayed,
		MatchStatusCancelled, MatchStatusPostponed, MatchStatusOvertime,
		MatchStatusHalfTime, MatchStatusFinished,
	}
	for _, terminal := range []MatchStatus{MatchStatusFinished, MatchStatusCancelled} {
		for _, next := range all {
			if next == terminal {
				continue
			}
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestMatchTeamRoster(t *testing.T) {
	team := MatchTeam{Players: []MatchPlayer{{UserID: 3}, {UserID: 8}}}
	assert.Equal(t, []int{3, 8}, team.Roster())
	assert.Empty(t, (&MatchTeam{}).Roster())
}
