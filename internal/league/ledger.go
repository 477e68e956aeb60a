package league

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const pairSeparator = "|"

// Series is a head-to-head tally between two teams. FirstWins belongs to the
// team that sorts first by id.
type Series struct {
	FirstWins  int `json:"first_wins"`
	SecondWins int `json:"second_wins"`
}

// Games returns the number of decided games in the series
func (s Series) Games() int {
	return s.FirstWins + s.SecondWins
}

func (s Series) String() string {
	return fmt.Sprintf("%d-%d", s.FirstWins, s.SecondWins)
}

// ParseSeries parses a recorded series such as "2-0" or "1-1"
func ParseSeries(value string) (Series, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return Series{}, fmt.Errorf("malformed series %q", value)
	}

	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || first < 0 {
		return Series{}, fmt.Errorf("malformed series %q", value)
	}
	second, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || second < 0 {
		return Series{}, fmt.Errorf("malformed series %q", value)
	}

	return Series{FirstWins: first, SecondWins: second}, nil
}

// PairKey returns the unordered key for two teams
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + pairSeparator + b
}

func splitPairKey(key string) (string, string, error) {
	parts := strings.Split(key, pairSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] == parts[1] {
		return "", "", fmt.Errorf("malformed head-to-head key %q", key)
	}
	return parts[0], parts[1], nil
}

// Ledger holds head-to-head series keyed by unordered team pair
type Ledger struct {
	series map[string]Series
}

// NewLedger parses entries of the form "A|B": "2-0", where the left count
// belongs to the left team as written. Malformed entries and pairs listed in
// both orders are returned as an error.
func NewLedger(entries map[string]string) (Ledger, error) {
	l := Ledger{series: make(map[string]Series, len(entries))}
	for key, value := range entries {
		a, b, err := splitPairKey(key)
		if err != nil {
			return Ledger{}, err
		}
		if _, dup := l.series[PairKey(a, b)]; dup {
			return Ledger{}, fmt.Errorf("head-to-head pair %s listed twice", PairKey(a, b))
		}
		s, err := ParseSeries(value)
		if err != nil {
			return Ledger{}, fmt.Errorf("head-to-head %s: %w", key, err)
		}
		l.Record(a, b, s.FirstWins, s.SecondWins)
	}
	return l, nil
}

// LedgerFromGames tallies head-to-head wins from a game log. Ties count for neither side.
func LedgerFromGames(games []GameResult) Ledger {
	l := Ledger{series: make(map[string]Series)}
	for _, g := range games {
		winner := g.Winner()
		if winner == "" {
			l.Record(g.HomeTeamID, g.AwayTeamID, 0, 0)
			continue
		}
		l.Record(winner, g.Loser(), 1, 0)
	}
	return l
}

// LedgerFromRecords derives series from the per-team opponent tallies on each record
func LedgerFromRecords(records map[string]TeamRecord) Ledger {
	l := Ledger{series: make(map[string]Series)}
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		for opponent, tally := range records[id].HeadToHead {
			key := PairKey(id, opponent)
			if _, seen := l.series[key]; seen {
				continue
			}
			l.Record(id, opponent, tally.Wins, tally.Losses)
		}
	}
	return l
}

// Record adds aWins and bWins to the series between a and b
func (l *Ledger) Record(a, b string, aWins, bWins int) {
	if l.series == nil {
		l.series = make(map[string]Series)
	}
	key := PairKey(a, b)
	s := l.series[key]
	if a < b {
		s.FirstWins += aWins
		s.SecondWins += bWins
	} else {
		s.FirstWins += bWins
		s.SecondWins += aWins
	}
	l.series[key] = s
}

// Wins returns the head-to-head wins of a and b against each other
func (l Ledger) Wins(a, b string) (aWins, bWins int, ok bool) {
	s, ok := l.series[PairKey(a, b)]
	if !ok {
		return 0, 0, false
	}
	if a < b {
		return s.FirstWins, s.SecondWins, true
	}
	return s.SecondWins, s.FirstWins, true
}

// Series returns the series between a and b formatted from a's side ("2-0")
func (l Ledger) Series(a, b string) (string, bool) {
	aWins, bWins, ok := l.Wins(a, b)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d-%d", aWins, bWins), true
}

// Merge copies pairs from other that are missing in l
func (l *Ledger) Merge(other Ledger) {
	if l.series == nil {
		l.series = make(map[string]Series, len(other.series))
	}
	for key, s := range other.series {
		if _, exists := l.series[key]; !exists {
			l.series[key] = s
		}
	}
}

// Len returns the number of recorded pairs
func (l Ledger) Len() int {
	return len(l.series)
}

// Entries renders the ledger back to its "A|B": "W-L" wire form
func (l Ledger) Entries() map[string]string {
	out := make(map[string]string, len(l.series))
	for key, s := range l.series {
		out[key] = s.String()
	}
	return out
}
