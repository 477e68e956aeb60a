package tiebreaker

import (
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sirupsen/logrus"
)

// Random is the randomness source used by the coin flip rule.
// *rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
}

// Option configures an Engine
type Option func(*Engine)

// WithRandom injects the coin flip randomness source
func WithRandom(r Random) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithLogger sets the logger used for rule decisions
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExtendedRules enables the full multi-team head-to-head, common games
// and combined ranking rules. When disabled those rules never decide a tie.
func WithExtendedRules(enabled bool) Option {
	return func(e *Engine) {
		e.extended = enabled
	}
}

// Engine resolves ties by running an ordered rule cascade, peeling off one
// winner at a time and restarting the cascade on the remaining teams.
type Engine struct {
	logger   *logrus.Logger
	extended bool

	mu  sync.Mutex // guards rng
	rng Random
}

// New creates a tiebreaker engine
func New(opts ...Option) *Engine {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	e := &Engine{
		logger: silent,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extended reports whether the extended rules are enabled
func (e *Engine) Extended() bool {
	return e.extended
}

// BreakDivisionTie fully orders a tied group using the division cascade
func (e *Engine) BreakDivisionTie(tied []league.TeamRecord, st *Standings) Resolution {
	return e.resolve(KindDivision, tied, st, 0)
}

// BreakWildCardTie fully orders a tied group using the wild card cascade
func (e *Engine) BreakWildCardTie(tied []league.TeamRecord, st *Standings) Resolution {
	return e.resolve(KindWildCard, tied, st, 0)
}

// RankWildCards resolves the wild card cascade only until slots teams have
// been placed. The returned order may be shorter than the tied group.
func (e *Engine) RankWildCards(tied []league.TeamRecord, st *Standings, slots int) Resolution {
	if slots <= 0 {
		return Resolution{Kind: KindWildCard}
	}
	return e.resolve(KindWildCard, tied, st, slots)
}

// Break dispatches on kind
func (e *Engine) Break(kind Kind, tied []league.TeamRecord, st *Standings) Resolution {
	if kind == KindWildCard {
		return e.BreakWildCardTie(tied, st)
	}
	return e.BreakDivisionTie(tied, st)
}

func rulesFor(kind Kind) []RuleID {
	if kind == KindWildCard {
		return WildCardRules()
	}
	return DivisionRules()
}

func (e *Engine) resolve(kind Kind, tied []league.TeamRecord, st *Standings, limit int) Resolution {
	if st == nil {
		st = &Standings{}
	}

	// Work on a copy sorted by id so that input order never affects the outcome
	remaining := make([]league.TeamRecord, len(tied))
	copy(remaining, tied)
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].TeamID < remaining[j].TeamID
	})

	res := Resolution{Kind: kind}
	placed := func() bool { return limit > 0 && len(res.Order) >= limit }

	for len(remaining) > 1 && !placed() {
		step := e.decide(kind, remaining, st)
		res.Steps = append(res.Steps, step)

		next := remaining[:0:0]
		for _, t := range remaining {
			if t.TeamID == step.Winner {
				res.Order = append(res.Order, t)
				continue
			}
			next = append(next, t)
		}
		remaining = next
	}

	if len(remaining) == 1 && !placed() {
		res.Order = append(res.Order, remaining[0])
	}

	return res
}

// decide runs the cascade from the first rule until one is decisive. The
// coin flip guarantees termination.
func (e *Engine) decide(kind Kind, tied []league.TeamRecord, st *Standings) Result {
	ids := make([]string, len(tied))
	for i, t := range tied {
		ids[i] = t.TeamID
	}

	var notes []string
	for _, rule := range rulesFor(kind) {
		d, ok := e.apply(rule, kind, tied, st)
		if !ok {
			if note := missingHeadToHead(rule, tied, st); note != "" {
				notes = append(notes, note)
				e.logger.WithFields(logrus.Fields{
					"kind": kind.String(),
					"tied": ids,
				}).Warn(note)
			}
			e.logger.WithFields(logrus.Fields{
				"kind": kind.String(),
				"rule": rule.String(),
				"tied": ids,
			}).Debug("Tiebreaker rule not decisive")
			continue
		}

		eliminated := make([]string, 0, len(ids)-1)
		for _, id := range ids {
			if id != d.winner {
				eliminated = append(eliminated, id)
			}
		}

		e.logger.WithFields(logrus.Fields{
			"kind":   kind.String(),
			"rule":   rule.String(),
			"tied":   ids,
			"winner": d.winner,
		}).Debug("Tiebreaker rule decided")

		return Result{
			Rule:        rule,
			Tied:        ids,
			Winner:      d.winner,
			Eliminated:  eliminated,
			Explanation: d.explanation,
			Notes:       notes,
		}
	}

	// Unreachable while the coin flip ends both cascades
	d := e.coinFlip(tied)
	return Result{Rule: RuleCoinFlip, Tied: ids, Winner: d.winner, Explanation: d.explanation, Notes: notes}
}
