package commands

import (
	"encoding/json"
	"time"

	"tally/contexts/results-processing/result-form-service/ports"
)

const sourceService = "result-form-service"

func newResultFormEnvelope(
	eventID string,
	eventType string,
	tallyID string,
	resultFormID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	return newEnvelope(eventID, eventType, tallyID, "result_form_id", resultFormID, occurredAt, data)
}

func newEnvelope(
	eventID string,
	eventType string,
	tallyID string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TallyID:          tallyID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}
