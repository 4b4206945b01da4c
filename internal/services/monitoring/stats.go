package monitoring

import "time"

type CycleStats struct {
	StartedAt      time.Time     `json:"startedAt"`
	FinishedAt     time.Time     `json:"finishedAt"`
	Sources        []SourceStats `json:"sources"`
	NewListings    int           `json:"newListings"`
	Saved          bool          `json:"saved"`
	NotifyFailures int           `json:"notifyFailures"`
	Error          string        `json:"error,omitempty"`
}

type SourceStats struct {
	URL      string `json:"url"`
	Listings int    `json:"listings"`
	Queued   bool   `json:"queued"`
	Error    string `json:"error,omitempty"`
}

func newSourceStats(res PollResult) SourceStats {
	st := SourceStats{URL: res.Source, Listings: len(res.Listings), Queued: res.Queued}
	if res.Err != nil {
		st.Error = res.Err.Error()
	}
	return st
}

func (c CycleStats) clone() CycleStats {
	if c.Sources != nil {
		c.Sources = append([]SourceStats(nil), c.Sources...)
	}
	return c
}
