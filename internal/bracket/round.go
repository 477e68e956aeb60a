package bracket

import (
	"fmt"
	"strings"
)

// Round is a stage of the postseason. Rounds only move forward.
type Round int

const (
	RoundWildCard Round = iota
	RoundDivisional
	RoundConferenceChampionship
	RoundSuperBowl
	RoundComplete
)

var roundNames = map[Round]string{
	RoundWildCard:               "WILD_CARD",
	RoundDivisional:             "DIVISIONAL",
	RoundConferenceChampionship: "CONFERENCE_CHAMPIONSHIP",
	RoundSuperBowl:              "SUPER_BOWL",
	RoundComplete:               "COMPLETE",
}

// Rounds returns the playable rounds in order
func Rounds() []Round {
	return []Round{RoundWildCard, RoundDivisional, RoundConferenceChampionship, RoundSuperBowl}
}

func (r Round) String() string {
	if name, ok := roundNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Round(%d)", int(r))
}

// Code is the short form used in game ids
func (r Round) Code() string {
	switch r {
	case RoundWildCard:
		return "WC"
	case RoundDivisional:
		return "DIV"
	case RoundConferenceChampionship:
		return "CC"
	case RoundSuperBowl:
		return "SB"
	}
	return ""
}

// GameCount is the fixed number of games played in the round
func (r Round) GameCount() int {
	switch r {
	case RoundWildCard:
		return 6
	case RoundDivisional:
		return 4
	case RoundConferenceChampionship:
		return 2
	case RoundSuperBowl:
		return 1
	}
	return 0
}

// Next returns the following round. Complete is terminal.
func (r Round) Next() Round {
	switch r {
	case RoundWildCard:
		return RoundDivisional
	case RoundDivisional:
		return RoundConferenceChampionship
	case RoundConferenceChampionship:
		return RoundSuperBowl
	}
	return RoundComplete
}

// Week is the postseason week the round is played in, starting at 1
func (r Round) Week() int {
	if r >= RoundComplete || r < RoundWildCard {
		return 0
	}
	return int(r) + 1
}

// Valid reports whether r is a known round, including RoundComplete
func (r Round) Valid() bool {
	_, ok := roundNames[r]
	return ok
}

func (r Round) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid round %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Round) UnmarshalText(text []byte) error {
	parsed, err := ParseRound(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRound accepts the round name in any case, with spaces or dashes for underscores
func ParseRound(s string) (Round, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for r, name := range roundNames {
		if name == norm {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown round %q", s)
}

// GameStatus tracks a single game's lifecycle
type GameStatus int

const (
	StatusScheduled GameStatus = iota
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

var statusNames = map[GameStatus]string{
	StatusScheduled:  "SCHEDULED",
	StatusInProgress: "IN_PROGRESS",
	StatusCompleted:  "COMPLETED",
	StatusCancelled:  "CANCELLED",
}

func (s GameStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("GameStatus(%d)", int(s))
}

func (s GameStatus) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("invalid game status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(text []byte) error {
	norm := strings.ToUpper(strings.TrimSpace(string(text)))
	for status, name := range statusNames {
		if name == norm {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown game status %q", string(text))
}
