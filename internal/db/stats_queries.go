package db

import (
	"context"
	"fmt"
	"time"
)

// StatsGroupCount stores per-group business counts.
type StatsGroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// DiscoveryThroughput stores recent-window counters.
type DiscoveryThroughput struct {
	DiscoveredLastDay int64 `json:"discovered_last_day"`
	HighPriorityTotal int64 `json:"high_priority_total"`
	PendingUnalerted  int64 `json:"pending_unalerted"`
	PendingUnexported int64 `json:"pending_unexported"`
}

// DiscoveryStats is the read model returned by the stats command.
type DiscoveryStats struct {
	Day          string              `json:"day"`
	Total        int64               `json:"total"`
	ByPlatform   []StatsGroupCount   `json:"by_platform"`
	ByCategory   []StatsGroupCount   `json:"by_category"`
	ByPriority   []StatsGroupCount   `json:"by_priority"`
	AverageScore float64             `json:"average_score"`
	Throughput   DiscoveryThroughput `json:"throughput"`
}

// QueryDiscoveryStats returns grouped business counts plus daily throughput.
func (p *Pool) QueryDiscoveryStats(ctx context.Context, dayStart, dayEnd time.Time) (*DiscoveryStats, error) {
	startUTC := dayStart.UTC()
	endUTC := dayEnd.UTC()
	if !startUTC.Before(endUTC) {
		return nil, fmt.Errorf("dayStart must be before dayEnd")
	}

	stats := &DiscoveryStats{
		Day:        startUTC.Format("2006-01-02"),
		ByPlatform: make([]StatsGroupCount, 0, 4),
		ByCategory: make([]StatsGroupCount, 0, 16),
		ByPriority: make([]StatsGroupCount, 0, 3),
	}

	const totalsQuery = `
SELECT
	COUNT(*)::BIGINT,
	COALESCE(AVG(confidence_score), 0)::DOUBLE PRECISION
FROM leads.businesses
`
	if err := p.QueryRow(ctx, totalsQuery).Scan(&stats.Total, &stats.AverageScore); err != nil {
		return nil, fmt.Errorf("query stats totals: %w", err)
	}

	groups := []struct {
		column string
		dest   *[]StatsGroupCount
	}{
		{"platform", &stats.ByPlatform},
		{"category", &stats.ByCategory},
		{"priority", &stats.ByPriority},
	}
	for _, group := range groups {
		counts, err := p.queryGroupCounts(ctx, group.column)
		if err != nil {
			return nil, err
		}
		*group.dest = counts
	}

	const throughputQuery = `
SELECT
	(SELECT COUNT(*) FROM leads.businesses b WHERE b.discovered_at >= $1 AND b.discovered_at < $2) AS discovered_last_day,
	(SELECT COUNT(*) FROM leads.businesses b WHERE b.priority = 'high') AS high_priority_total,
	(SELECT COUNT(*) FROM leads.businesses b WHERE b.alerted = false) AS pending_unalerted,
	(SELECT COUNT(*) FROM leads.businesses b WHERE b.exported = false) AS pending_unexported
`
	if err := p.QueryRow(ctx, throughputQuery, startUTC, endUTC).Scan(
		&stats.Throughput.DiscoveredLastDay,
		&stats.Throughput.HighPriorityTotal,
		&stats.Throughput.PendingUnalerted,
		&stats.Throughput.PendingUnexported,
	); err != nil {
		return nil, fmt.Errorf("query stats throughput: %w", err)
	}

	return stats, nil
}

func (p *Pool) queryGroupCounts(ctx context.Context, column string) ([]StatsGroupCount, error) {
	// column is one of the fixed group names above, never user input.
	query := fmt.Sprintf(`
SELECT %s, COUNT(*)::BIGINT
FROM leads.businesses
GROUP BY 1
ORDER BY 2 DESC, 1
`, column)

	rows, err := p.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stats by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make([]StatsGroupCount, 0, 8)
	for rows.Next() {
		var row StatsGroupCount
		if err := rows.Scan(&row.Key, &row.Count); err != nil {
			return nil, fmt.Errorf("scan stats %s row: %w", column, err)
		}
		counts = append(counts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats %s rows: %w", column, err)
	}
	return counts, nil
}
