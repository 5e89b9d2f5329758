package batch

// Stats is the pure reduction of a batch Run's results.
type Stats struct {
	Total          int
	Successful     int
	Failed         int
	TotalDurationS float64
	AudioDurationS float64
}

// ComputeStats reduces results into Stats; it touches no filesystem state.
func ComputeStats(results []Result) Stats {
	stats := Stats{Total: len(results)}
	for _, r := range results {
		stats.TotalDurationS += r.DurationS
		stats.AudioDurationS += r.AudioDurationS
		if r.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
	}
	return stats
}
