package strength

import (
	"sync"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
)

// Cache memoizes strength reports per season
type Cache struct {
	calc    *Calculator
	mu      sync.RWMutex
	reports map[int]Report
}

// NewCache wraps a calculator with a per-season memo
func NewCache(calc *Calculator) *Cache {
	return &Cache{calc: calc, reports: make(map[int]Report)}
}

// Report returns the cached report for the season, computing it on first use
func (c *Cache) Report(season int, records map[string]league.TeamRecord, games []league.GameResult) Report {
	c.mu.RLock()
	report, ok := c.reports[season]
	c.mu.RUnlock()
	if ok {
		return report
	}

	report = c.calc.Calculate(records, games)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[season] = report
	return report
}

// Invalidate drops the cached report for a season
func (c *Cache) Invalidate(season int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, season)
}
