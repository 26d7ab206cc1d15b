package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/ports"
)

func (st *state) GetResultForm(_ context.Context, tallyID string, resultFormID string) (entities.ResultForm, error) {
	form, ok := st.forms[strings.TrimSpace(resultFormID)]
	if !ok || form.TallyID != strings.TrimSpace(tallyID) {
		return entities.ResultForm{}, domainerrors.ErrNotFound
	}
	return copyForm(form), nil
}

func (st *state) GetResultFormByBarcode(_ context.Context, tallyID string, barcode string) (entities.ResultForm, error) {
	for _, form := range st.forms {
		if form.TallyID == tallyID && form.Barcode == barcode {
			return copyForm(form), nil
		}
	}
	return entities.ResultForm{}, domainerrors.ErrNotFound
}

func (st *state) ListResultForms(_ context.Context, filter ports.ResultFormFilter) ([]entities.ResultForm, error) {
	states := map[entities.FormState]bool{}
	for _, formState := range filter.States {
		states[formState] = true
	}
	items := make([]entities.ResultForm, 0)
	for _, form := range st.forms {
		if filter.TallyID != "" && form.TallyID != filter.TallyID {
			continue
		}
		if len(states) > 0 && !states[form.FormState] {
			continue
		}
		if filter.BallotID != "" && form.BallotID != filter.BallotID {
			continue
		}
		if filter.CenterID != "" && form.CenterID != filter.CenterID {
			continue
		}
		items = append(items, copyForm(form))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Barcode < items[j].Barcode })
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (st *state) UpdateResultForm(_ context.Context, form entities.ResultForm) error {
	if _, ok := st.forms[form.ResultFormID]; !ok {
		return domainerrors.ErrNotFound
	}
	st.forms[form.ResultFormID] = copyForm(form)
	return nil
}

func (st *state) DeleteResultForm(_ context.Context, tallyID string, resultFormID string) error {
	form, ok := st.forms[resultFormID]
	if !ok || form.TallyID != tallyID {
		return domainerrors.ErrNotFound
	}
	delete(st.forms, resultFormID)
	return nil
}

func (st *state) FindOccupyingForm(
	_ context.Context,
	tallyID string,
	centerID string,
	stationNumber int,
	ballotID string,
	excludeFormID string,
) (entities.ResultForm, bool, error) {
	for _, form := range st.forms {
		if form.ResultFormID == excludeFormID || form.TallyID != tallyID || !form.Occupies() {
			continue
		}
		if form.CenterID == centerID && form.StationNumber == stationNumber && form.BallotID == ballotID {
			return copyForm(form), true, nil
		}
	}
	return entities.ResultForm{}, false, nil
}

// ListResults returns the active rows of one version.
func (st *state) ListResults(_ context.Context, resultFormID string, version entities.EntryVersion) ([]entities.Result, error) {
	items := make([]entities.Result, 0)
	for _, result := range st.results {
		if result.ResultFormID == resultFormID && result.EntryVersion == version && result.Active {
			items = append(items, result)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CandidateID < items[j].CandidateID })
	return items, nil
}

func (st *state) GetReconciliation(_ context.Context, resultFormID string, version entities.EntryVersion) (entities.ReconciliationForm, bool, error) {
	for _, recon := range st.recons {
		if recon.ResultFormID == resultFormID && recon.EntryVersion == version && recon.Active {
			return copyRecon(recon), true, nil
		}
	}
	return entities.ReconciliationForm{}, false, nil
}

func (st *state) InsertEntry(_ context.Context, results []entities.Result, recon *entities.ReconciliationForm) error {
	type slot struct {
		formID  string
		version entities.EntryVersion
	}
	slots := map[slot]bool{}
	for _, result := range results {
		slots[slot{result.ResultFormID, result.EntryVersion}] = true
	}
	if recon != nil {
		slots[slot{recon.ResultFormID, recon.EntryVersion}] = true
	}
	for _, result := range st.results {
		if result.Active && slots[slot{result.ResultFormID, result.EntryVersion}] {
			return domainerrors.ErrConflict
		}
	}
	for _, existing := range st.recons {
		if existing.Active && slots[slot{existing.ResultFormID, existing.EntryVersion}] {
			return domainerrors.ErrConflict
		}
	}
	st.results = append(st.results, results...)
	if recon != nil {
		st.recons = append(st.recons, copyRecon(*recon))
	}
	return nil
}

func (st *state) DeactivateEntries(_ context.Context, resultFormID string, filter entities.EntryFilter) (int, error) {
	count := 0
	if filter.IncludeResults {
		for i, result := range st.results {
			if !result.Active || result.ResultFormID != resultFormID {
				continue
			}
			if !filter.MatchesVersion(result.EntryVersion) || !filter.MatchesCandidate(result.CandidateID) {
				continue
			}
			st.results[i].Active = false
			count++
		}
	}
	if filter.IncludeReconciliation {
		for i, recon := range st.recons {
			if !recon.Active || recon.ResultFormID != resultFormID || !filter.MatchesVersion(recon.EntryVersion) {
				continue
			}
			st.recons[i].Active = false
			count++
		}
	}
	return count, nil
}

func (st *state) CountActiveEntries(_ context.Context, resultFormID string) (int, int, error) {
	results, recons := 0, 0
	for _, result := range st.results {
		if result.Active && result.ResultFormID == resultFormID {
			results++
		}
	}
	for _, recon := range st.recons {
		if recon.Active && recon.ResultFormID == resultFormID {
			recons++
		}
	}
	return results, recons, nil
}

func (st *state) GetActiveClearance(_ context.Context, resultFormID string) (entities.Clearance, error) {
	for _, clearance := range st.clearances {
		if clearance.ResultFormID == resultFormID && clearance.Active {
			return copyClearance(clearance), nil
		}
	}
	return entities.Clearance{}, domainerrors.ErrNotFound
}

func (st *state) SaveClearance(_ context.Context, clearance entities.Clearance) error {
	if clearance.Active {
		for id, existing := range st.clearances {
			if id != clearance.ClearanceID && existing.ResultFormID == clearance.ResultFormID && existing.Active {
				return domainerrors.ErrConflict
			}
		}
	}
	st.clearances[clearance.ClearanceID] = copyClearance(clearance)
	return nil
}

func (st *state) GetActiveAudit(_ context.Context, resultFormID string) (entities.Audit, error) {
	for _, audit := range st.audits {
		if audit.ResultFormID == resultFormID && audit.Active {
			return copyAudit(audit), nil
		}
	}
	return entities.Audit{}, domainerrors.ErrNotFound
}

func (st *state) SaveAudit(_ context.Context, audit entities.Audit) error {
	if audit.Active {
		for id, existing := range st.audits {
			if id != audit.AuditID && existing.ResultFormID == audit.ResultFormID && existing.Active {
				return domainerrors.ErrConflict
			}
		}
	}
	st.audits[audit.AuditID] = copyAudit(audit)
	return nil
}

func (st *state) GetActiveQualityControl(_ context.Context, resultFormID string) (entities.QualityControl, error) {
	for _, review := range st.reviews {
		if review.ResultFormID == resultFormID && review.Active {
			review.FailedSections = append([]entities.Section(nil), review.FailedSections...)
			return review, nil
		}
	}
	return entities.QualityControl{}, domainerrors.ErrNotFound
}

func (st *state) SaveQualityControl(_ context.Context, record entities.QualityControl) error {
	record.FailedSections = append([]entities.Section(nil), record.FailedSections...)
	st.reviews[record.QualityControlID] = record
	return nil
}

func (st *state) AppendStateChange(_ context.Context, change entities.StateChange) error {
	st.stateChanges = append(st.stateChanges, change)
	return nil
}

func (st *state) AppendRevision(_ context.Context, revision entities.Revision) error {
	revision.Snapshot = append([]byte(nil), revision.Snapshot...)
	st.revisions = append(st.revisions, revision)
	return nil
}

func (st *state) ListStateChanges(_ context.Context, tallyID string, resultFormID string) ([]entities.StateChange, error) {
	items := make([]entities.StateChange, 0)
	for _, change := range st.stateChanges {
		if change.TallyID == tallyID && change.ResultFormID == resultFormID {
			items = append(items, change)
		}
	}
	return items, nil
}

func (st *state) ListRevisions(_ context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Revision, error) {
	items := make([]entities.Revision, 0)
	for _, revision := range st.revisions {
		if revision.TallyID == tallyID && revision.EntityKind == kind && revision.EntityID == entityID {
			items = append(items, revision)
		}
	}
	return items, nil
}

func (st *state) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	st.outbox = append(st.outbox, outboxRow{message: ports.OutboxMessage{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}})
	return nil
}

func (st *state) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	items := make([]ports.OutboxMessage, 0)
	for _, row := range st.outbox {
		if row.publishedAt != nil {
			continue
		}
		items = append(items, row.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (st *state) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	for i, row := range st.outbox {
		if row.message.OutboxID == outboxID {
			at := publishedAt
			st.outbox[i].publishedAt = &at
			return nil
		}
	}
	return domainerrors.ErrNotFound
}
