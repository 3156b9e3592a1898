package ecm

import "time"

// Echo is one recorded significant event as reported by the server.
type Echo struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Author    string            `json:"author"`
	Type      string            `json:"type"`
	Weight    float64           `json:"weight"`
	Resonance int               `json:"resonance"`
	CreatedAt time.Time         `json:"created_at"`
	Layer     string            `json:"layer"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Score is the composite significance the server ranks by.
func (e *Echo) Score() float64 {
	return e.Weight * float64(1+e.Resonance)
}

// AddParams carries the fields of a new echo. A nil Weight lets the server
// apply its configured default.
type AddParams struct {
	Content  string            `json:"content"`
	Author   string            `json:"author"`
	Type     string            `json:"type"`
	Weight   *float64          `json:"weight,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchParams narrows a search. Zero values mean "any".
type SearchParams struct {
	Text   string `json:"text,omitempty"`
	Author string `json:"author,omitempty"`
	Type   string `json:"type,omitempty"`
	Layer  string `json:"layer,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Health is the server's content-quality report.
type Health struct {
	Total      int     `json:"total"`
	EmptyCount int     `json:"empty_count"`
	EmptyRatio float64 `json:"empty_ratio"`
	Status     string  `json:"status"`
}

// Snapshot is the aggregate-stats export.
type Snapshot struct {
	Timestamp      time.Time      `json:"timestamp"`
	LayerCounts    map[string]int `json:"tier_counts"`
	Total          int            `json:"total"`
	EmptyCount     int            `json:"empty_count"`
	EmptyRatio     float64        `json:"empty_ratio"`
	Status         string         `json:"status"`
	UniqueAuthors  int            `json:"unique_authors"`
	AverageWeight  float64        `json:"average_weight"`
	TotalResonance int            `json:"total_resonance"`
}
