package postgresadapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates every table the repository uses.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return r.logError("tally_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *Repository) withDB(db *gorm.DB) *Repository {
	return &Repository{db: db, logger: r.logger}
}

// WithinTx runs fn in a serializable transaction. Serialization failures
// and deadlocks surface as ErrConflict so callers can retry.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.WorkflowStore) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, r.withDB(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return mapTxError(err)
}

// WithinFormTx locks the form row with SELECT ... FOR UPDATE before fn runs.
func (r *Repository) WithinFormTx(
	ctx context.Context,
	tallyID string,
	resultFormID string,
	fn func(ctx context.Context, store ports.WorkflowStore) error,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row resultFormModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("tally_id = ? AND id = ?", strings.TrimSpace(tallyID), strings.TrimSpace(resultFormID)).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return r.logError("tally_repo_lock_result_form_failed", err,
				"tally_id", tallyID,
				"result_form_id", resultFormID,
			)
		}
		return fn(ctx, r.withDB(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return mapTxError(err)
}

func (r *Repository) GetResultForm(ctx context.Context, tallyID string, resultFormID string) (entities.ResultForm, error) {
	var row resultFormModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND id = ?", strings.TrimSpace(tallyID), strings.TrimSpace(resultFormID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ResultForm{}, domainerrors.ErrNotFound
		}
		return entities.ResultForm{}, r.logError("tally_repo_get_result_form_failed", err,
			"tally_id", tallyID,
			"result_form_id", resultFormID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetResultFormByBarcode(ctx context.Context, tallyID string, barcode string) (entities.ResultForm, error) {
	var row resultFormModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND barcode = ?", strings.TrimSpace(tallyID), strings.TrimSpace(barcode)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ResultForm{}, domainerrors.ErrNotFound
		}
		return entities.ResultForm{}, r.logError("tally_repo_get_result_form_by_barcode_failed", err,
			"tally_id", tallyID,
			"barcode", barcode,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListResultForms(ctx context.Context, filter ports.ResultFormFilter) ([]entities.ResultForm, error) {
	query := r.db.WithContext(ctx).Model(&resultFormModel{})
	if tallyID := strings.TrimSpace(filter.TallyID); tallyID != "" {
		query = query.Where("tally_id = ?", tallyID)
	}
	if len(filter.States) > 0 {
		query = query.Where("form_state IN ?", stateNames(filter.States))
	}
	if ballotID := strings.TrimSpace(filter.BallotID); ballotID != "" {
		query = query.Where("ballot_id = ?", ballotID)
	}
	if centerID := strings.TrimSpace(filter.CenterID); centerID != "" {
		query = query.Where("center_id = ?", centerID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []resultFormModel
	if err := query.Order("barcode ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_result_forms_failed", err, "tally_id", filter.TallyID)
	}
	items := make([]entities.ResultForm, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateResultForm(ctx context.Context, form entities.ResultForm) error {
	row := resultFormModelFromEntity(form)
	result := r.db.WithContext(ctx).
		Model(&resultFormModel{}).
		Where("id = ?", row.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&row)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("tally_repo_update_result_form_failed", result.Error,
			"result_form_id", form.ResultFormID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteResultForm(ctx context.Context, tallyID string, resultFormID string) error {
	result := r.db.WithContext(ctx).
		Where("tally_id = ? AND id = ?", strings.TrimSpace(tallyID), strings.TrimSpace(resultFormID)).
		Delete(&resultFormModel{})
	if result.Error != nil {
		return r.logError("tally_repo_delete_result_form_failed", result.Error,
			"tally_id", tallyID,
			"result_form_id", resultFormID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) FindOccupyingForm(
	ctx context.Context,
	tallyID string,
	centerID string,
	stationNumber int,
	ballotID string,
	excludeFormID string,
) (entities.ResultForm, bool, error) {
	if centerID == "" || stationNumber <= 0 || ballotID == "" {
		return entities.ResultForm{}, false, nil
	}
	var rows []resultFormModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND center_id = ? AND station_number = ? AND ballot_id = ?",
			tallyID, centerID, stationNumber, ballotID).
		Where("id <> ? AND form_state <> ?", excludeFormID, string(entities.FormStateArchived)).
		Limit(1).
		Find(&rows).
		Error
	if err != nil {
		return entities.ResultForm{}, false, r.logError("tally_repo_find_occupying_form_failed", err,
			"tally_id", tallyID,
			"center_id", centerID,
			"station_number", stationNumber,
			"ballot_id", ballotID,
		)
	}
	if len(rows) == 0 {
		return entities.ResultForm{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

func (r *Repository) ListResults(ctx context.Context, resultFormID string, version entities.EntryVersion) ([]entities.Result, error) {
	var rows []resultModel
	if err := r.db.WithContext(ctx).
		Where("result_form_id = ? AND entry_version = ? AND active", resultFormID, string(version)).
		Order("candidate_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_results_failed", err,
			"result_form_id", resultFormID,
			"entry_version", string(version),
		)
	}
	items := make([]entities.Result, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetReconciliation(ctx context.Context, resultFormID string, version entities.EntryVersion) (entities.ReconciliationForm, bool, error) {
	var rows []reconciliationModel
	if err := r.db.WithContext(ctx).
		Where("result_form_id = ? AND entry_version = ? AND active", resultFormID, string(version)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return entities.ReconciliationForm{}, false, r.logError("tally_repo_get_reconciliation_failed", err,
			"result_form_id", resultFormID,
			"entry_version", string(version),
		)
	}
	if len(rows) == 0 {
		return entities.ReconciliationForm{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

// InsertEntry refuses a version slot that already holds active rows. The
// partial unique indexes back the check under concurrent writers.
func (r *Repository) InsertEntry(ctx context.Context, results []entities.Result, recon *entities.ReconciliationForm) error {
	type slot struct {
		formID  string
		version string
	}
	slots := map[slot]bool{}
	for _, result := range results {
		slots[slot{result.ResultFormID, string(result.EntryVersion)}] = true
	}
	if recon != nil {
		slots[slot{recon.ResultFormID, string(recon.EntryVersion)}] = true
	}
	db := r.db.WithContext(ctx)
	for key := range slots {
		var active int64
		if err := db.Model(&resultModel{}).
			Where("result_form_id = ? AND entry_version = ? AND active", key.formID, key.version).
			Count(&active).Error; err != nil {
			return r.logError("tally_repo_count_slot_results_failed", err, "result_form_id", key.formID)
		}
		if active > 0 {
			return domainerrors.ErrConflict
		}
		if err := db.Model(&reconciliationModel{}).
			Where("result_form_id = ? AND entry_version = ? AND active", key.formID, key.version).
			Count(&active).Error; err != nil {
			return r.logError("tally_repo_count_slot_reconciliation_failed", err, "result_form_id", key.formID)
		}
		if active > 0 {
			return domainerrors.ErrConflict
		}
	}

	if len(results) > 0 {
		rows := make([]resultModel, 0, len(results))
		for _, result := range results {
			rows = append(rows, resultModelFromEntity(result))
		}
		if err := db.Create(&rows).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return r.logError("tally_repo_insert_results_failed", err, "count", len(rows))
		}
	}
	if recon != nil {
		row := reconciliationModelFromEntity(*recon)
		if err := db.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return r.logError("tally_repo_insert_reconciliation_failed", err,
				"result_form_id", recon.ResultFormID,
			)
		}
	}
	return nil
}

func (r *Repository) DeactivateEntries(ctx context.Context, resultFormID string, filter entities.EntryFilter) (int, error) {
	versions := make([]string, 0, len(filter.Versions))
	for _, version := range filter.Versions {
		versions = append(versions, string(version))
	}
	count := 0
	if filter.IncludeResults {
		query := r.db.WithContext(ctx).Model(&resultModel{}).
			Where("result_form_id = ? AND active", resultFormID)
		if len(versions) > 0 {
			query = query.Where("entry_version IN ?", versions)
		}
		if len(filter.CandidateIDs) > 0 {
			query = query.Where("candidate_id IN ?", filter.CandidateIDs)
		}
		result := query.Update("active", false)
		if result.Error != nil {
			return 0, r.logError("tally_repo_deactivate_results_failed", result.Error, "result_form_id", resultFormID)
		}
		count += int(result.RowsAffected)
	}
	if filter.IncludeReconciliation {
		query := r.db.WithContext(ctx).Model(&reconciliationModel{}).
			Where("result_form_id = ? AND active", resultFormID)
		if len(versions) > 0 {
			query = query.Where("entry_version IN ?", versions)
		}
		result := query.Update("active", false)
		if result.Error != nil {
			return 0, r.logError("tally_repo_deactivate_reconciliation_failed", result.Error, "result_form_id", resultFormID)
		}
		count += int(result.RowsAffected)
	}
	return count, nil
}

func (r *Repository) CountActiveEntries(ctx context.Context, resultFormID string) (int, int, error) {
	var results, recons int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&resultModel{}).
		Where("result_form_id = ? AND active", resultFormID).
		Count(&results).Error; err != nil {
		return 0, 0, r.logError("tally_repo_count_active_results_failed", err, "result_form_id", resultFormID)
	}
	if err := db.Model(&reconciliationModel{}).
		Where("result_form_id = ? AND active", resultFormID).
		Count(&recons).Error; err != nil {
		return 0, 0, r.logError("tally_repo_count_active_reconciliation_failed", err, "result_form_id", resultFormID)
	}
	return int(results), int(recons), nil
}

func (r *Repository) GetActiveClearance(ctx context.Context, resultFormID string) (entities.Clearance, error) {
	var row clearanceModel
	err := r.db.WithContext(ctx).
		Where("result_form_id = ? AND active", resultFormID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Clearance{}, domainerrors.ErrNotFound
		}
		return entities.Clearance{}, r.logError("tally_repo_get_active_clearance_failed", err, "result_form_id", resultFormID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveClearance(ctx context.Context, clearance entities.Clearance) error {
	if clearance.Active {
		var others int64
		if err := r.db.WithContext(ctx).Model(&clearanceModel{}).
			Where("result_form_id = ? AND active AND id <> ?", clearance.ResultFormID, clearance.ClearanceID).
			Count(&others).Error; err != nil {
			return r.logError("tally_repo_count_active_clearances_failed", err, "result_form_id", clearance.ResultFormID)
		}
		if others > 0 {
			return domainerrors.ErrConflict
		}
	}
	row := clearanceModelFromEntity(clearance)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return r.logError("tally_repo_save_clearance_failed", err,
			"clearance_id", clearance.ClearanceID,
			"result_form_id", clearance.ResultFormID,
		)
	}
	return nil
}

func (r *Repository) GetActiveAudit(ctx context.Context, resultFormID string) (entities.Audit, error) {
	var row auditModel
	err := r.db.WithContext(ctx).
		Where("result_form_id = ? AND active", resultFormID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Audit{}, domainerrors.ErrNotFound
		}
		return entities.Audit{}, r.logError("tally_repo_get_active_audit_failed", err, "result_form_id", resultFormID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveAudit(ctx context.Context, audit entities.Audit) error {
	if audit.Active {
		var others int64
		if err := r.db.WithContext(ctx).Model(&auditModel{}).
			Where("result_form_id = ? AND active AND id <> ?", audit.ResultFormID, audit.AuditID).
			Count(&others).Error; err != nil {
			return r.logError("tally_repo_count_active_audits_failed", err, "result_form_id", audit.ResultFormID)
		}
		if others > 0 {
			return domainerrors.ErrConflict
		}
	}
	row := auditModelFromEntity(audit)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return r.logError("tally_repo_save_audit_failed", err,
			"audit_id", audit.AuditID,
			"result_form_id", audit.ResultFormID,
		)
	}
	return nil
}

func (r *Repository) GetActiveQualityControl(ctx context.Context, resultFormID string) (entities.QualityControl, error) {
	var row qualityControlModel
	err := r.db.WithContext(ctx).
		Where("result_form_id = ? AND active", resultFormID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.QualityControl{}, domainerrors.ErrNotFound
		}
		return entities.QualityControl{}, r.logError("tally_repo_get_quality_control_failed", err, "result_form_id", resultFormID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveQualityControl(ctx context.Context, record entities.QualityControl) error {
	row := qualityControlModelFromEntity(record)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"user_id":               row.UserID,
			"passed_general":        row.PassedGeneral,
			"passed_reconciliation": row.PassedReconciliation,
			"passed_womens":         row.PassedWomens,
			"failed_sections":       row.FailedSections,
			"active":                row.Active,
			"updated_at":            row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("tally_repo_save_quality_control_failed", create.Error,
			"quality_control_id", record.QualityControlID,
			"result_form_id", record.ResultFormID,
		)
	}
	return nil
}

func (r *Repository) AppendStateChange(ctx context.Context, change entities.StateChange) error {
	row := stateChangeModel{
		ID:           change.StateChangeID,
		TallyID:      change.TallyID,
		ResultFormID: change.ResultFormID,
		FromState:    string(change.FromState),
		ToState:      string(change.ToState),
		Action:       change.Action,
		ActorID:      change.ActorID,
		Reason:       change.Reason,
		CreatedAt:    change.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("tally_repo_append_state_change_failed", err, "result_form_id", change.ResultFormID)
	}
	return nil
}

func (r *Repository) AppendRevision(ctx context.Context, revision entities.Revision) error {
	row := revisionModel{
		ID:         revision.RevisionID,
		TallyID:    revision.TallyID,
		EntityKind: string(revision.EntityKind),
		EntityID:   revision.EntityID,
		Action:     revision.Action,
		ActorID:    revision.ActorID,
		Snapshot:   append([]byte(nil), revision.Snapshot...),
		CreatedAt:  revision.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if len(row.Snapshot) == 0 {
		row.Snapshot = nil
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("tally_repo_append_revision_failed", err,
			"entity_kind", string(revision.EntityKind),
			"entity_id", revision.EntityID,
		)
	}
	return nil
}

func (r *Repository) ListStateChanges(ctx context.Context, tallyID string, resultFormID string) ([]entities.StateChange, error) {
	var rows []stateChangeModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ? AND result_form_id = ?", tallyID, resultFormID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_state_changes_failed", err, "result_form_id", resultFormID)
	}
	items := make([]entities.StateChange, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.StateChange{
			StateChangeID: row.ID,
			TallyID:       row.TallyID,
			ResultFormID:  row.ResultFormID,
			FromState:     entities.FormState(row.FromState),
			ToState:       entities.FormState(row.ToState),
			Action:        row.Action,
			ActorID:       row.ActorID,
			Reason:        row.Reason,
			CreatedAt:     row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) ListRevisions(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Revision, error) {
	var rows []revisionModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ? AND entity_kind = ? AND entity_id = ?", tallyID, string(kind), entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_revisions_failed", err,
			"entity_kind", string(kind),
			"entity_id", entityID,
		)
	}
	items := make([]entities.Revision, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Revision{
			RevisionID: row.ID,
			TallyID:    row.TallyID,
			EntityKind: entities.EntityKind(row.EntityKind),
			EntityID:   row.EntityID,
			Action:     row.Action,
			ActorID:    row.ActorID,
			Snapshot:   append([]byte(nil), row.Snapshot...),
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("tally_repo_append_outbox_failed", create.Error,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("tally_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "results-processing/result-form-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("tally repository operation failed", fields...)
	return err
}

func stateNames(states []entities.FormState) []string {
	names := make([]string, 0, len(states))
	for _, formState := range states {
		names = append(names, string(formState))
	}
	return names
}

func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	if isSerializationFailure(err) {
		return domainerrors.ErrConflict
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

// 40001 serialization_failure, 40P01 deadlock_detected.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

var _ ports.UnitOfWork = (*Repository)(nil)
var _ ports.WorkflowStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
