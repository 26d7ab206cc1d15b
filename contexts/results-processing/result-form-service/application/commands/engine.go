package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/quarantine"
	"tally/contexts/results-processing/result-form-service/domain/reconciliation"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
)

// maxConflictRetries is how many times an operation is re-run after the
// store reports a concurrent modification.
const maxConflictRetries = 3

// Runtime carries the collaborators every workflow use case shares.
type Runtime struct {
	UnitOfWork ports.UnitOfWork
	Authorizer ports.Authorizer
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Metrics    ports.Metrics
	Checks     *quarantine.Registry
	Settings   application.Settings
	Logger     *slog.Logger
}

func (r Runtime) logger() *slog.Logger {
	return application.ResolveLogger(r.Logger)
}

func (r Runtime) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}

func (r Runtime) checks() *quarantine.Registry {
	if r.Checks == nil {
		return quarantine.DefaultRegistry()
	}
	return r.Checks
}

func (r Runtime) authorize(actor entities.Actor, action workflow.Action) error {
	if strings.TrimSpace(actor.UserID) == "" || r.Authorizer == nil || !r.Authorizer.Allowed(actor, action) {
		r.logger().Warn("result form action denied",
			"event", "result_form_action_denied",
			"module", application.ModuleName,
			"layer", "application",
			"user_id", actor.UserID,
			"roles", actor.RoleNames(),
			"action", string(action),
		)
		return domainerrors.ErrAuthorizationFailed
	}
	return nil
}

// retry re-runs attempt while it fails with ErrConflict, at most
// maxConflictRetries extra times.
func (r Runtime) retry(ctx context.Context, operation string, attempt func() error) error {
	var err error
	for try := 0; try <= maxConflictRetries; try++ {
		err = attempt()
		if !errors.Is(err, domainerrors.ErrConflict) || ctx.Err() != nil {
			return err
		}
		if try == maxConflictRetries {
			break
		}
		if r.Metrics != nil {
			r.Metrics.ConflictRetried(ctx, operation)
		}
		r.logger().Debug("result form operation retried after conflict",
			"event", "result_form_conflict_retried",
			"module", application.ModuleName,
			"layer", "application",
			"operation", operation,
			"attempt", try+1,
		)
	}
	r.logger().Warn("result form operation conflict retries exhausted",
		"event", "result_form_conflict_exhausted",
		"module", application.ModuleName,
		"layer", "application",
		"operation", operation,
	)
	return err
}

// failed records integrity violations. They are never swallowed: the error
// still goes back to the caller.
func (r Runtime) failed(ctx context.Context, operation string, tallyID string, resultFormID string, err error) {
	if !errors.Is(err, domainerrors.ErrIntegrityViolation) {
		return
	}
	if r.Metrics != nil {
		r.Metrics.IntegrityViolation(ctx, operation)
	}
	r.logger().Error("result form integrity violation",
		"event", "result_form_integrity_violation",
		"module", application.ModuleName,
		"layer", "application",
		"operation", operation,
		"tally_id", tallyID,
		"result_form_id", resultFormID,
		"error", err.Error(),
	)
}

// runForm authorises the actor, then runs fn against the locked form inside
// one transaction. The form is re-read on every attempt.
func (r Runtime) runForm(
	ctx context.Context,
	operation string,
	actor entities.Actor,
	action workflow.Action,
	tallyID string,
	resultFormID string,
	fn func(ctx context.Context, tx *formTx) error,
) error {
	if err := r.authorize(actor, action); err != nil {
		return err
	}
	tallyID = strings.TrimSpace(tallyID)
	resultFormID = strings.TrimSpace(resultFormID)

	var committed *formTx
	err := r.retry(ctx, operation, func() error {
		committed = nil
		return r.UnitOfWork.WithinFormTx(ctx, tallyID, resultFormID, func(ctx context.Context, store ports.WorkflowStore) error {
			form, err := store.GetResultForm(ctx, tallyID, resultFormID)
			if err != nil {
				return err
			}
			tx := &formTx{rt: r, store: store, actor: actor, now: r.now(), form: form}
			if err := fn(ctx, tx); err != nil {
				return err
			}
			committed = tx
			return nil
		})
	})
	if err != nil {
		r.failed(ctx, operation, tallyID, resultFormID, err)
		return err
	}
	r.afterCommit(ctx, committed)
	return committed.deferred
}

// runTx is runForm for operations that do not centre on one result form.
func (r Runtime) runTx(
	ctx context.Context,
	operation string,
	actor entities.Actor,
	action workflow.Action,
	fn func(ctx context.Context, store ports.WorkflowStore, now time.Time) error,
) error {
	if err := r.authorize(actor, action); err != nil {
		return err
	}
	err := r.retry(ctx, operation, func() error {
		return r.UnitOfWork.WithinTx(ctx, func(ctx context.Context, store ports.WorkflowStore) error {
			return fn(ctx, store, r.now())
		})
	})
	if err != nil {
		r.failed(ctx, operation, "", "", err)
	}
	return err
}

func (r Runtime) afterCommit(ctx context.Context, tx *formTx) {
	if tx == nil {
		return
	}
	logger := r.logger()
	for _, change := range tx.transitions {
		if r.Metrics != nil {
			r.Metrics.TransitionRecorded(ctx, change.FromState, change.ToState)
		}
		logger.Info("result form state changed",
			"event", "result_form_state_changed",
			"module", application.ModuleName,
			"layer", "application",
			"tally_id", change.TallyID,
			"result_form_id", change.ResultFormID,
			"from_state", string(change.FromState),
			"to_state", string(change.ToState),
			"action", change.Action,
			"actor_id", change.ActorID,
		)
	}
	for _, method := range tx.quarantineFailures {
		if r.Metrics != nil {
			r.Metrics.QuarantineFailed(ctx, method)
		}
	}
}

// formTx is one attempt of a workflow operation against a locked form.
type formTx struct {
	rt    Runtime
	store ports.WorkflowStore
	actor entities.Actor
	now   time.Time
	form  entities.ResultForm

	transitions        []entities.StateChange
	quarantineFailures []string
	// deferred is returned to the caller after a successful commit.
	deferred error
}

func (tx *formTx) newID(ctx context.Context) (string, error) {
	return tx.rt.IDGen.NewID(ctx)
}

// transition moves the form along a graph edge and records the state
// change, the revision and the outbox event in the same transaction.
func (tx *formTx) transition(ctx context.Context, to entities.FormState, action workflow.Action, reason string) error {
	from := tx.form.FormState
	if err := workflow.CheckTransition(from, to, action); err != nil {
		return err
	}
	tx.form.PreviousFormState = from
	tx.form.FormState = to
	tx.form.UserID = tx.actor.UserID
	if err := tx.saveForm(ctx, action); err != nil {
		return err
	}

	changeID, err := tx.newID(ctx)
	if err != nil {
		return err
	}
	change := entities.StateChange{
		StateChangeID: changeID,
		TallyID:       tx.form.TallyID,
		ResultFormID:  tx.form.ResultFormID,
		FromState:     from,
		ToState:       to,
		Action:        string(action),
		ActorID:       tx.actor.UserID,
		Reason:        strings.TrimSpace(reason),
		CreatedAt:     tx.now,
	}
	if err := tx.store.AppendStateChange(ctx, change); err != nil {
		return err
	}
	if err := tx.emit(ctx, ports.EventResultFormStateChanged, map[string]any{
		"result_form_id": tx.form.ResultFormID,
		"barcode":        tx.form.Barcode,
		"from_state":     string(from),
		"to_state":       string(to),
		"action":         string(action),
		"actor_id":       tx.actor.UserID,
	}); err != nil {
		return err
	}
	tx.transitions = append(tx.transitions, change)
	return nil
}

// saveForm persists the form and appends its revision.
func (tx *formTx) saveForm(ctx context.Context, action workflow.Action) error {
	tx.form.UpdatedAt = tx.now
	if err := tx.store.UpdateResultForm(ctx, tx.form); err != nil {
		return err
	}
	return tx.revise(ctx, entities.EntityKindResultForm, tx.form.ResultFormID, action, tx.form)
}

func (tx *formTx) revise(ctx context.Context, kind entities.EntityKind, entityID string, action workflow.Action, snapshot any) error {
	return appendRevision(ctx, tx.store, tx.rt.IDGen, tx.form.TallyID, kind, entityID, action, tx.actor.UserID, snapshot, tx.now)
}

func (tx *formTx) emit(ctx context.Context, eventType string, data map[string]any) error {
	eventID, err := tx.newID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newResultFormEnvelope(eventID, eventType, tx.form.TallyID, tx.form.ResultFormID, tx.now, data)
	if err != nil {
		return err
	}
	return tx.store.AppendOutbox(ctx, envelope)
}

// requestCover emits a cover-page request when the stage has printing on.
func (tx *formTx) requestCover(ctx context.Context, stage string, enabled bool) error {
	if !enabled {
		return nil
	}
	return tx.emit(ctx, ports.EventResultFormCoverRequest, map[string]any{
		"result_form_id": tx.form.ResultFormID,
		"barcode":        tx.form.Barcode,
		"stage":          stage,
		"form_state":     string(tx.form.FormState),
		"requested_by":   tx.actor.UserID,
	})
}

// candidates returns the active candidates of the form's ballot.
func (tx *formTx) candidates(ctx context.Context) ([]entities.Candidate, error) {
	if tx.form.BallotID == "" {
		return nil, domainerrors.Integrity("result form %s has no ballot", tx.form.ResultFormID)
	}
	all, err := tx.store.ListCandidates(ctx, tx.form.TallyID, tx.form.BallotID)
	if err != nil {
		return nil, err
	}
	active := make([]entities.Candidate, 0, len(all))
	for _, candidate := range all {
		if candidate.Active {
			active = append(active, candidate)
		}
	}
	return active, nil
}

// requireActiveLocation enforces that the form's center, station and
// ballot are active at the moment of entry.
func (tx *formTx) requireActiveLocation(ctx context.Context) error {
	if !tx.form.HasAssignment() {
		return domainerrors.Invalid("result form %s has no center and station", tx.form.Barcode)
	}
	center, err := tx.store.GetCenter(ctx, tx.form.TallyID, tx.form.CenterID)
	if err != nil {
		return err
	}
	if !center.Active {
		return domainerrors.ErrDisabled
	}
	station, err := tx.store.GetStation(ctx, tx.form.TallyID, tx.form.CenterID, tx.form.StationNumber)
	if err != nil {
		return err
	}
	if !station.Active {
		return domainerrors.ErrDisabled
	}
	ballot, err := tx.store.GetBallot(ctx, tx.form.TallyID, tx.form.BallotID)
	if err != nil {
		return err
	}
	if !ballot.Active {
		return domainerrors.ErrDisabled
	}
	return nil
}

// sheet folds the active rows of one entry version.
func (tx *formTx) sheet(ctx context.Context, version entities.EntryVersion) (reconciliation.Sheet, error) {
	results, err := tx.store.ListResults(ctx, tx.form.ResultFormID, version)
	if err != nil {
		return reconciliation.Sheet{}, err
	}
	recon, found, err := tx.store.GetReconciliation(ctx, tx.form.ResultFormID, version)
	if err != nil {
		return reconciliation.Sheet{}, err
	}
	if !found {
		return reconciliation.SheetFrom(results, nil), nil
	}
	return reconciliation.SheetFrom(results, &recon), nil
}

// writeEntry inserts one active row per candidate and one reconciliation
// row tagged with version.
func (tx *formTx) writeEntry(ctx context.Context, version entities.EntryVersion, votes map[string]int, values entities.ReconValues) error {
	results := make([]entities.Result, 0, len(votes))
	for candidateID, count := range votes {
		resultID, err := tx.newID(ctx)
		if err != nil {
			return err
		}
		results = append(results, entities.Result{
			ResultID:     resultID,
			ResultFormID: tx.form.ResultFormID,
			CandidateID:  candidateID,
			Votes:        count,
			EntryVersion: version,
			Active:       true,
			UserID:       tx.actor.UserID,
			CreatedAt:    tx.now,
		})
	}
	var recon *entities.ReconciliationForm
	if values != nil {
		reconID, err := tx.newID(ctx)
		if err != nil {
			return err
		}
		recon = &entities.ReconciliationForm{
			ReconciliationFormID: reconID,
			ResultFormID:         tx.form.ResultFormID,
			EntryVersion:         version,
			Active:               true,
			UserID:               tx.actor.UserID,
			Values:               values.Clone(),
			CreatedAt:            tx.now,
		}
	}
	if err := tx.store.InsertEntry(ctx, results, recon); err != nil {
		return err
	}
	tx.form.HasEverHadResults = true
	return nil
}

// reject deactivates every entry row and moves the form to state.
func (tx *formTx) reject(ctx context.Context, to entities.FormState, action workflow.Action, reason string) error {
	if _, err := tx.store.DeactivateEntries(ctx, tx.form.ResultFormID, entities.AllEntries()); err != nil {
		return err
	}
	tx.form.RejectedCount++
	tx.form.DuplicateReviewed = false
	tx.form.RejectReason = strings.TrimSpace(reason)
	tx.form.ReopenedSections = nil
	return tx.transition(ctx, to, action, reason)
}

// activeAudit returns the form's active audit, creating one when none
// exists.
func (tx *formTx) activeAudit(ctx context.Context) (entities.Audit, bool, error) {
	audit, err := tx.store.GetActiveAudit(ctx, tx.form.ResultFormID)
	if err == nil {
		return audit, false, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return entities.Audit{}, false, err
	}
	auditID, err := tx.newID(ctx)
	if err != nil {
		return entities.Audit{}, false, err
	}
	return entities.Audit{
		AuditID:      auditID,
		ResultFormID: tx.form.ResultFormID,
		TallyID:      tx.form.TallyID,
		UserID:       tx.actor.UserID,
		Active:       true,
		CreatedAt:    tx.now,
		UpdatedAt:    tx.now,
	}, true, nil
}

func (tx *formTx) saveAudit(ctx context.Context, audit entities.Audit, action workflow.Action) error {
	audit.UpdatedAt = tx.now
	if err := tx.store.SaveAudit(ctx, audit); err != nil {
		return err
	}
	return tx.revise(ctx, entities.EntityKindAudit, audit.AuditID, action, audit)
}

func (tx *formTx) saveClearance(ctx context.Context, clearance entities.Clearance, action workflow.Action) error {
	clearance.UpdatedAt = tx.now
	if err := tx.store.SaveClearance(ctx, clearance); err != nil {
		return err
	}
	return tx.revise(ctx, entities.EntityKindClearance, clearance.ClearanceID, action, clearance)
}

// checkAttachment enforces the configured upload limit.
func (tx *formTx) checkAttachment(attachment *entities.Attachment) error {
	if attachment == nil {
		return nil
	}
	if strings.TrimSpace(attachment.Name) == "" || attachment.SizeBytes < 0 {
		return domainerrors.Invalid("attachment needs a name and a non-negative size")
	}
	if limit := tx.rt.Settings.MaxFileUploadSize; limit > 0 && attachment.SizeBytes > limit {
		return domainerrors.ErrFileTooLarge
	}
	attachment.StoredAt = tx.now.Format(time.RFC3339)
	return nil
}

func appendRevision(
	ctx context.Context,
	store ports.HistoryRepository,
	ids ports.IDGenerator,
	tallyID string,
	kind entities.EntityKind,
	entityID string,
	action workflow.Action,
	actorID string,
	snapshot any,
	now time.Time,
) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	revisionID, err := ids.NewID(ctx)
	if err != nil {
		return err
	}
	return store.AppendRevision(ctx, entities.Revision{
		RevisionID: revisionID,
		TallyID:    tallyID,
		EntityKind: kind,
		EntityID:   entityID,
		Action:     string(action),
		ActorID:    actorID,
		Snapshot:   payload,
		CreatedAt:  now,
	})
}
