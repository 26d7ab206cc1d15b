package commands

import (
	"context"
	"strings"
	"time"

	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
)

// SetCenterEnabledCommand enables or disables a center. Disabling
// needs a reason.
type SetCenterEnabledCommand struct {
	Actor      entities.Actor
	TallyID    string
	CenterCode int
	Enabled    bool
	Reason     entities.DisableReason
	Comment    string
}

// SetStationEnabledCommand enables or disables one station of a center.
type SetStationEnabledCommand struct {
	Actor         entities.Actor
	TallyID       string
	CenterCode    int
	StationNumber int
	Enabled       bool
	Reason        entities.DisableReason
	Comment       string
}

// SetBallotEnabledCommand enables or disables a ballot.
type SetBallotEnabledCommand struct {
	Actor        entities.Actor
	TallyID      string
	BallotNumber int
	Enabled      bool
	Reason       entities.DisableReason
	Comment      string
}

// RenameCenterCommand changes a center's display name.
type RenameCenterCommand struct {
	Actor      entities.Actor
	TallyID    string
	CenterCode int
	Name       string
	Comment    string
}

// ImportReferenceDataCommand loads centers, stations, ballots, candidates
// and result forms in one batch.
type ImportReferenceDataCommand struct {
	Actor entities.Actor
	Batch entities.ReferenceBatch
}

// ReferenceUseCase administers centers, stations and ballots.
type ReferenceUseCase struct {
	Runtime
}

func (uc ReferenceUseCase) SetCenterEnabled(ctx context.Context, cmd SetCenterEnabledCommand) (entities.Center, error) {
	if err := checkToggle(cmd.Enabled, cmd.Reason); err != nil {
		return entities.Center{}, err
	}
	var center entities.Center
	err := uc.runTx(ctx, "set_center_enabled", cmd.Actor, workflow.ActionReferenceManage,
		func(ctx context.Context, store ports.WorkflowStore, now time.Time) error {
			current, err := store.GetCenterByCode(ctx, cmd.TallyID, cmd.CenterCode)
			if err != nil {
				return err
			}
			current.Active = cmd.Enabled
			current.DisableReason = reasonFor(cmd.Enabled, cmd.Reason)
			current.UpdatedAt = now
			if err := store.SaveCenter(ctx, current); err != nil {
				return err
			}
			ref := referenceChange{kind: entities.EntityKindCenter, entityID: current.CenterID, tallyID: current.TallyID}
			if err := uc.recordReference(ctx, store, now, cmd.Actor, ref, current, cmd.Comment, map[string]any{
				"center_code":    current.Code,
				"active":         current.Active,
				"disable_reason": string(current.DisableReason),
			}); err != nil {
				return err
			}
			center = current
			return nil
		})
	return center, err
}

func (uc ReferenceUseCase) SetStationEnabled(ctx context.Context, cmd SetStationEnabledCommand) (entities.Station, error) {
	if err := checkToggle(cmd.Enabled, cmd.Reason); err != nil {
		return entities.Station{}, err
	}
	var station entities.Station
	err := uc.runTx(ctx, "set_station_enabled", cmd.Actor, workflow.ActionReferenceManage,
		func(ctx context.Context, store ports.WorkflowStore, now time.Time) error {
			center, err := store.GetCenterByCode(ctx, cmd.TallyID, cmd.CenterCode)
			if err != nil {
				return err
			}
			current, err := store.GetStation(ctx, cmd.TallyID, center.CenterID, cmd.StationNumber)
			if err != nil {
				return err
			}
			current.Active = cmd.Enabled
			current.DisableReason = reasonFor(cmd.Enabled, cmd.Reason)
			current.UpdatedAt = now
			if err := store.SaveStation(ctx, current); err != nil {
				return err
			}
			ref := referenceChange{kind: entities.EntityKindStation, entityID: current.StationID, tallyID: current.TallyID}
			if err := uc.recordReference(ctx, store, now, cmd.Actor, ref, current, cmd.Comment, map[string]any{
				"center_code":    center.Code,
				"station_number": current.StationNumber,
				"active":         current.Active,
				"disable_reason": string(current.DisableReason),
			}); err != nil {
				return err
			}
			station = current
			return nil
		})
	return station, err
}

func (uc ReferenceUseCase) SetBallotEnabled(ctx context.Context, cmd SetBallotEnabledCommand) (entities.Ballot, error) {
	if err := checkToggle(cmd.Enabled, cmd.Reason); err != nil {
		return entities.Ballot{}, err
	}
	var ballot entities.Ballot
	err := uc.runTx(ctx, "set_ballot_enabled", cmd.Actor, workflow.ActionReferenceManage,
		func(ctx context.Context, store ports.WorkflowStore, now time.Time) error {
			current, err := store.GetBallotByNumber(ctx, cmd.TallyID, cmd.BallotNumber)
			if err != nil {
				return err
			}
			current.Active = cmd.Enabled
			current.DisableReason = reasonFor(cmd.Enabled, cmd.Reason)
			current.UpdatedAt = now
			if err := store.SaveBallot(ctx, current); err != nil {
				return err
			}
			ref := referenceChange{kind: entities.EntityKindBallot, entityID: current.BallotID, tallyID: current.TallyID}
			if err := uc.recordReference(ctx, store, now, cmd.Actor, ref, current, cmd.Comment, map[string]any{
				"ballot_number":  current.Number,
				"active":         current.Active,
				"disable_reason": string(current.DisableReason),
			}); err != nil {
				return err
			}
			ballot = current
			return nil
		})
	return ballot, err
}

func (uc ReferenceUseCase) RenameCenter(ctx context.Context, cmd RenameCenterCommand) (entities.Center, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Center{}, domainerrors.Invalid("center name is required")
	}
	var center entities.Center
	err := uc.runTx(ctx, "rename_center", cmd.Actor, workflow.ActionReferenceManage,
		func(ctx context.Context, store ports.WorkflowStore, now time.Time) error {
			current, err := store.GetCenterByCode(ctx, cmd.TallyID, cmd.CenterCode)
			if err != nil {
				return err
			}
			current.Name = name
			current.UpdatedAt = now
			if err := store.SaveCenter(ctx, current); err != nil {
				return err
			}
			ref := referenceChange{kind: entities.EntityKindCenter, entityID: current.CenterID, tallyID: current.TallyID}
			if err := uc.recordReference(ctx, store, now, cmd.Actor, ref, current, cmd.Comment, map[string]any{
				"center_code": current.Code,
				"name":        current.Name,
			}); err != nil {
				return err
			}
			center = current
			return nil
		})
	return center, err
}

// Import applies a reference batch all or nothing. Imported entities start
// active and imported forms start UNSUBMITTED.
func (uc ReferenceUseCase) Import(ctx context.Context, cmd ImportReferenceDataCommand) error {
	batch := cmd.Batch
	batch.TallyID = strings.TrimSpace(batch.TallyID)
	if batch.TallyID == "" {
		return domainerrors.Invalid("tally id is required")
	}
	if keys := batch.DuplicateKeys(); len(keys) > 0 {
		return domainerrors.DuplicateReferenceError{Keys: keys}
	}
	err := uc.runTx(ctx, "import_reference_data", cmd.Actor, workflow.ActionReferenceManage,
		func(ctx context.Context, store ports.WorkflowStore, now time.Time) error {
			prepared, err := uc.prepareBatch(ctx, batch, cmd.Actor, now)
			if err != nil {
				return err
			}
			return store.ImportReferenceBatch(ctx, prepared)
		})
	if err != nil {
		return err
	}
	uc.logger().Info("reference data imported",
		"event", "reference_batch_imported",
		"module", application.ModuleName,
		"layer", "application",
		"tally_id", batch.TallyID,
		"centers", len(batch.Centers),
		"stations", len(batch.Stations),
		"ballots", len(batch.Ballots),
		"candidates", len(batch.Candidates),
		"result_forms", len(batch.ResultForms),
	)
	return nil
}

func (uc ReferenceUseCase) prepareBatch(ctx context.Context, batch entities.ReferenceBatch, actor entities.Actor, now time.Time) (entities.ReferenceBatch, error) {
	out := batch
	out.Centers = make([]entities.Center, len(batch.Centers))
	for i, center := range batch.Centers {
		if strings.TrimSpace(center.CenterID) == "" {
			return entities.ReferenceBatch{}, domainerrors.Invalid("center %d has no id", center.Code)
		}
		center.TallyID = batch.TallyID
		center.Active = true
		center.DisableReason = entities.DisableReasonNone
		center.UpdatedAt = now
		out.Centers[i] = center
	}
	out.Stations = make([]entities.Station, len(batch.Stations))
	for i, station := range batch.Stations {
		if !uc.Settings.StationInRange(station.StationNumber) {
			return entities.ReferenceBatch{}, domainerrors.Invalid("station number %d outside [%d, %d]",
				station.StationNumber, uc.Settings.MinStationNumber, uc.Settings.MaxStationNumber)
		}
		if station.Registrants != nil && *station.Registrants < 0 {
			return entities.ReferenceBatch{}, domainerrors.Invalid("station %d has negative registrants", station.StationNumber)
		}
		if station.StationID == "" {
			id, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return entities.ReferenceBatch{}, err
			}
			station.StationID = id
		}
		station.TallyID = batch.TallyID
		station.Active = true
		station.DisableReason = entities.DisableReasonNone
		station.UpdatedAt = now
		out.Stations[i] = station
	}
	out.Ballots = make([]entities.Ballot, len(batch.Ballots))
	for i, ballot := range batch.Ballots {
		if strings.TrimSpace(ballot.BallotID) == "" {
			return entities.ReferenceBatch{}, domainerrors.Invalid("ballot %d has no id", ballot.Number)
		}
		ballot.TallyID = batch.TallyID
		ballot.Active = true
		ballot.DisableReason = entities.DisableReasonNone
		ballot.UpdatedAt = now
		out.Ballots[i] = ballot
	}
	out.Candidates = make([]entities.Candidate, len(batch.Candidates))
	for i, candidate := range batch.Candidates {
		if candidate.CandidateID == "" {
			id, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return entities.ReferenceBatch{}, err
			}
			candidate.CandidateID = id
		}
		candidate.TallyID = batch.TallyID
		candidate.Active = true
		out.Candidates[i] = candidate
	}
	out.ResultForms = make([]entities.ResultForm, len(batch.ResultForms))
	for i, form := range batch.ResultForms {
		if strings.TrimSpace(form.Barcode) == "" {
			return entities.ReferenceBatch{}, domainerrors.Invalid("result form %d has no barcode", i)
		}
		if form.FormState != "" && form.FormState != entities.FormStateUnsubmitted {
			return entities.ReferenceBatch{}, domainerrors.Invalid("result form %s must be imported unsubmitted", form.Barcode)
		}
		if form.ResultFormID == "" {
			id, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return entities.ReferenceBatch{}, err
			}
			form.ResultFormID = id
		}
		form.TallyID = batch.TallyID
		form.FormState = entities.FormStateUnsubmitted
		form.CreatedUserID = actor.UserID
		form.CreatedAt = now
		form.UpdatedAt = now
		out.ResultForms[i] = form
	}
	return out, nil
}

type referenceChange struct {
	kind     entities.EntityKind
	entityID string
	tallyID  string
}

// recordReference appends the revision, the optional comment and the
// toggle event for a reference entity change.
func (uc ReferenceUseCase) recordReference(
	ctx context.Context,
	store ports.WorkflowStore,
	now time.Time,
	actor entities.Actor,
	ref referenceChange,
	snapshot any,
	comment string,
	data map[string]any,
) error {
	if err := appendRevision(ctx, store, uc.IDGen, ref.tallyID, ref.kind, ref.entityID,
		workflow.ActionReferenceManage, actor.UserID, snapshot, now); err != nil {
		return err
	}
	if text := strings.TrimSpace(comment); text != "" {
		commentID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		if err := store.AppendComment(ctx, entities.Comment{
			CommentID:  commentID,
			TallyID:    ref.tallyID,
			EntityKind: ref.kind,
			EntityID:   ref.entityID,
			Text:       text,
			ActorID:    actor.UserID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"entity_kind": string(ref.kind),
		"entity_id":   ref.entityID,
		"actor_id":    actor.UserID,
	}
	for key, value := range data {
		payload[key] = value
	}
	envelope, err := newEnvelope(eventID, ports.EventReferenceEntityToggled, ref.tallyID, "entity_id", ref.entityID, now, payload)
	if err != nil {
		return err
	}
	return store.AppendOutbox(ctx, envelope)
}

func checkToggle(enabled bool, reason entities.DisableReason) error {
	if enabled {
		return nil
	}
	if !reason.Valid() {
		return domainerrors.Invalid("disabling needs a disable reason, got %q", reason)
	}
	return nil
}

func reasonFor(enabled bool, reason entities.DisableReason) entities.DisableReason {
	if enabled {
		return entities.DisableReasonNone
	}
	return reason
}
