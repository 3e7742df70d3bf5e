package graph

import "time"

// Entity is a named node in the knowledge graph: a person, organization,
// place, or any other concept extracted from local coverage. Entities are
// never deleted because relationships depend on them; they only get
// re-scored or enriched.
type Entity struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Description     string         `json:"description"`
	Attributes      map[string]any `json:"attributes"`
	ConfidenceScore float64        `json:"confidence_score"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Relationship is a directed, typed, scored edge between two entities.
// Source and target names are joined in on reads.
type Relationship struct {
	ID               int64          `json:"id"`
	SourceEntityID   int64          `json:"source_entity_id"`
	TargetEntityID   int64          `json:"target_entity_id"`
	RelationshipType string         `json:"relationship_type"`
	Strength         float64        `json:"strength"`
	Context          string         `json:"context"`
	TemporalStart    *time.Time     `json:"temporal_start,omitempty"`
	TemporalEnd      *time.Time     `json:"temporal_end,omitempty"`
	Attributes       map[string]any `json:"attributes"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	SourceName string `json:"source_name,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	TargetName string `json:"target_name,omitempty"`
	TargetType string `json:"target_type,omitempty"`
}

// CreateEntityParams carries the fields accepted when creating an entity.
// Embedding is optional; ConfidenceScore defaults to 0 when nil.
type CreateEntityParams struct {
	Name            string
	Type            string
	Description     string
	Attributes      map[string]any
	Embedding       []float32
	ConfidenceScore *float64
}

// UpdateEntityParams carries the mutable entity fields. Nil fields are left
// untouched.
type UpdateEntityParams struct {
	Description     *string
	Attributes      map[string]any
	Embedding       []float32
	ConfidenceScore *float64
}

// EntityFilter selects entities. When Embedding is set the lookup is a
// vector similarity search bounded by Threshold and Limit and ordered by
// descending similarity; otherwise Type and Search filter a plain listing.
type EntityFilter struct {
	Type      string
	Search    string
	Embedding []float32
	Threshold float64 // minimum similarity, default 0.8
	Limit     int     // default 10 for similarity, 20 for listing
}

// CreateRelationshipParams carries the fields accepted when creating a
// relationship. Strength defaults to 0.5 when nil.
type CreateRelationshipParams struct {
	SourceEntityID   int64
	TargetEntityID   int64
	RelationshipType string
	Strength         *float64
	Context          string
	TemporalStart    *time.Time
	TemporalEnd      *time.Time
	Attributes       map[string]any
}

// RelationshipFilter selects relationships by endpoint or type.
type RelationshipFilter struct {
	SourceEntityID *int64
	TargetEntityID *int64
	Type           string
	Limit          int
}
