package bracket

import "fmt"

// Validate reports integrity problems in the bracket without repairing
// anything. An empty result means the bracket is consistent.
func (t *Tournament) Validate() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return validateState(&t.state)
}

func validateState(s *BracketState) []string {
	problems := []string{}
	report := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	gameIDs := make(map[string]Round)
	var previous *RoundBracket
	for _, rb := range s.Rounds {
		if len(rb.Games) != rb.Round.GameCount() {
			report("%s has %d games, expected %d", rb.Round, len(rb.Games), rb.Round.GameCount())
		}
		if rb.Round != s.CurrentRound && !rb.Complete() {
			report("%s is closed but only %d of %d games are decided", rb.Round, rb.CompletedCount(), len(rb.Games))
		}

		teams := make(map[string]string)
		for _, g := range rb.Games {
			if r, dup := gameIDs[g.ID]; dup {
				report("duplicate game id %s in %s and %s", g.ID, r, rb.Round)
			}
			gameIDs[g.ID] = rb.Round

			if g.HomeTeamID == g.AwayTeamID {
				report("game %s has %s on both sides", g.ID, g.HomeTeamID)
			}
			for _, id := range g.Participants() {
				if other, dup := teams[id]; dup {
					report("team %s appears in %s and %s in %s", id, other, g.ID, rb.Round)
				}
				teams[id] = g.ID

				if _, seeded := s.Seeds[id]; !seeded {
					report("team %s in %s is not in the playoff field", id, g.ID)
				}
			}
			if g.Completed() && !g.Involves(g.WinnerID) {
				report("game %s winner %s is not a participant", g.ID, g.WinnerID)
			}
		}

		if previous != nil {
			advanced := make(map[string]bool)
			for _, id := range previous.Advancing() {
				advanced[id] = true
			}
			for id := range teams {
				// top seeds enter the divisional round from a bye
				if rb.Round == RoundDivisional && s.seed(id) == 1 {
					continue
				}
				if !advanced[id] {
					report("team %s plays in %s without winning in %s", id, rb.Round, previous.Round)
				}
			}
		}
		previous = rb
	}

	if s.Complete {
		sb, ok := s.round(RoundSuperBowl)
		switch {
		case !ok || len(sb.Games) != 1 || !sb.Games[0].Completed():
			report("tournament is marked complete without a decided Super Bowl")
		case sb.Games[0].WinnerID != s.SuperBowlWinner:
			report("champion %s does not match the Super Bowl winner %s", s.SuperBowlWinner, sb.Games[0].WinnerID)
		}
		if s.AFCChampion == "" || s.NFCChampion == "" {
			report("tournament is complete but conference champions are missing")
		}
	} else if s.SuperBowlWinner != "" {
		report("champion %s recorded before the tournament completed", s.SuperBowlWinner)
	}

	return problems
}
