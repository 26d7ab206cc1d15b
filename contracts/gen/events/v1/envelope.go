package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope emitted by the tally
// workflow. Consumers outside this repository depend on it, so fields are
// only ever added.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TallyID          string          `json:"tally_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventResultFormStateChanged   = "result_form.state_changed"
	EventResultFormCoverRequest   = "result_form.cover_requested"
	EventResultFormQuarantined    = "result_form.quarantined"
	EventReferenceEntityToggled   = "reference.entity_toggled"
	EventAggregateProjectionBuilt = "aggregate.projection_refreshed"
)
