package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EchoType classifies what kind of event an echo records.
type EchoType string

const (
	TypeInteraction EchoType = "interaction"
	TypeEmotion     EchoType = "emotion"
	TypeWisdom      EchoType = "wisdom"
	TypeMemory      EchoType = "memory"
	TypeDream       EchoType = "dream"
	TypeQuestion    EchoType = "question"
	TypeRevelation  EchoType = "revelation"
)

// EchoTypes lists every valid echo type.
var EchoTypes = []EchoType{
	TypeInteraction, TypeEmotion, TypeWisdom,
	TypeMemory, TypeDream, TypeQuestion, TypeRevelation,
}

// Valid reports whether t is a member of the closed type enumeration.
func (t EchoType) Valid() bool {
	switch t {
	case TypeInteraction, TypeEmotion, TypeWisdom, TypeMemory, TypeDream, TypeQuestion, TypeRevelation:
		return true
	}
	return false
}

// ParseEchoType converts a string into an EchoType.
func ParseEchoType(s string) (EchoType, error) {
	t := EchoType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown echo type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// Layer identifies which age-bounded retention bucket an echo resides in.
type Layer int

const (
	LayerImmediate Layer = iota
	LayerRecent
	LayerDeep
	LayerAncient
	LayerEternal
)

// Layers lists every layer from hottest to coldest.
var Layers = []Layer{LayerImmediate, LayerRecent, LayerDeep, LayerAncient, LayerEternal}

func (l Layer) String() string {
	switch l {
	case LayerImmediate:
		return "immediate"
	case LayerRecent:
		return "recent"
	case LayerDeep:
		return "deep"
	case LayerAncient:
		return "ancient"
	case LayerEternal:
		return "eternal"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the layer by name.
func (l Layer) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts a layer name.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLayer(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLayer converts a string into a Layer.
func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate":
		return LayerImmediate, nil
	case "recent":
		return LayerRecent, nil
	case "deep":
		return LayerDeep, nil
	case "ancient":
		return LayerAncient, nil
	case "eternal":
		return LayerEternal, nil
	}
	return 0, fmt.Errorf("%w: unknown layer %q", ErrInvalidInput, s)
}

// Echo is a single recorded significant event.
type Echo struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Author    string            `json:"author"`
	Type      EchoType          `json:"type"`
	Weight    float64           `json:"weight"`
	Resonance int               `json:"resonance"`
	CreatedAt time.Time         `json:"created_at"`
	Layer     Layer             `json:"layer"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Score is the composite significance used for search ranking,
// crystallization, and eviction: weight * (1 + resonance).
func (e *Echo) Score() float64 {
	return e.Weight * float64(1+e.Resonance)
}

// Empty reports whether the echo carries no meaningful content.
func (e *Echo) Empty() bool {
	return strings.TrimSpace(e.Content) == ""
}

// Clone returns a deep copy so callers never alias store-owned state.
func (e *Echo) Clone() *Echo {
	cp := *e
	if e.Metadata != nil {
		cp.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// Filter narrows a search over the echo table. Zero values mean "any".
type Filter struct {
	Text   string    `json:"text,omitempty"`
	Author string    `json:"author,omitempty"`
	Type   *EchoType `json:"type,omitempty"`
	Layer  *Layer    `json:"layer,omitempty"`
	Limit  int       `json:"limit,omitempty"`
}

// HealthStatus grades the content quality of the store.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

// Health is the content-quality report consumed by the external CI gate.
type Health struct {
	Total      int          `json:"total"`
	EmptyCount int          `json:"empty_count"`
	EmptyRatio float64      `json:"empty_ratio"`
	Status     HealthStatus `json:"status"`
}

// Snapshot is the aggregate-stats export written to persistence sinks.
// It never carries echo content.
type Snapshot struct {
	Timestamp      time.Time      `json:"timestamp"`
	LayerCounts    map[string]int `json:"tier_counts"`
	Total          int            `json:"total"`
	EmptyCount     int            `json:"empty_count"`
	EmptyRatio     float64        `json:"empty_ratio"`
	Status         HealthStatus   `json:"status"`
	UniqueAuthors  int            `json:"unique_authors"`
	AverageWeight  float64        `json:"average_weight"`
	TotalResonance int            `json:"total_resonance"`
}
