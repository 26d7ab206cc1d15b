package resultformservice

import (
	"context"
	"log/slog"

	httpadapter "tally/contexts/results-processing/result-form-service/adapters/http"
	"tally/contexts/results-processing/result-form-service/adapters/memory"
	"tally/contexts/results-processing/result-form-service/adapters/policy"
	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/application/commands"
	"tally/contexts/results-processing/result-form-service/application/queries"
	"tally/contexts/results-processing/result-form-service/application/workers"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/quarantine"
	"tally/contexts/results-processing/result-form-service/ports"

	"golang.org/x/sync/singleflight"
)

type Module struct {
	Handler   httpadapter.Handler
	Store     *memory.Store
	Outbox    workers.OutboxRelay
	Refresher workers.ProjectionRefresher
}

type Dependencies struct {
	UnitOfWork ports.UnitOfWork
	Forms      ports.FormRepository
	Entries    ports.EntryRepository
	Disputes   ports.DisputeRepository
	Reviews    ports.QualityControlRepository
	Reference  ports.ReferenceReader
	Comments   ports.ReferenceWriter
	Checks     ports.QuarantineCheckRepository
	History    ports.HistoryRepository

	Reports     ports.ReportReader
	Projections ports.ProjectionStore
	Progress    ports.StationProgressStore
	Outbox      ports.OutboxRepository
	OutboxWrite ports.OutboxWriter
	Publisher   ports.EventPublisher

	Authorizer ports.Authorizer
	Metrics    ports.Metrics
	Flights    ports.FlightGroup
	Clock      ports.Clock
	IDGen      ports.IDGenerator

	Settings        application.Settings
	Registry        *quarantine.Registry
	TallyIDs        []string
	OutboxBatchSize int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	runtime := commands.Runtime{
		UnitOfWork: deps.UnitOfWork,
		Authorizer: deps.Authorizer,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Metrics:    deps.Metrics,
		Checks:     deps.Registry,
		Settings:   deps.Settings,
		Logger:     deps.Logger,
	}
	reports := queries.ReportQueries{
		Reports:     deps.Reports,
		Projections: deps.Projections,
	}
	refresher := workers.ProjectionRefresher{
		Reports:     reports,
		Projections: deps.Projections,
		Flights:     deps.Flights,
		Outbox:      deps.OutboxWrite,
		IDGen:       deps.IDGen,
		Metrics:     deps.Metrics,
		Clock:       deps.Clock,
		TallyIDs:    deps.TallyIDs,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Intake:         commands.IntakeUseCase{Runtime: runtime},
			Registry:       commands.RegistryUseCase{Runtime: runtime},
			DataEntry:      commands.DataEntryUseCase{Runtime: runtime},
			Corrections:    commands.CorrectionsUseCase{Runtime: runtime},
			QualityControl: commands.QualityControlUseCase{Runtime: runtime},
			Archive:        commands.ArchiveUseCase{Runtime: runtime},
			Clearance:      commands.ClearanceUseCase{Runtime: runtime},
			Audit:          commands.AuditUseCase{Runtime: runtime},
			ReferenceAdmin: commands.ReferenceUseCase{Runtime: runtime},
			CheckAdmin:     commands.QuarantineCheckUseCase{Runtime: runtime},
			Forms: queries.ResultFormQueries{
				Forms:    deps.Forms,
				Disputes: deps.Disputes,
				Reviews:  deps.Reviews,
				History:  deps.History,
			},
			CorrectionsView: queries.CorrectionsQueries{
				Forms:     deps.Forms,
				Entries:   deps.Entries,
				Reference: deps.Reference,
			},
			Reference: queries.ReferenceQueries{
				Reference:  deps.Reference,
				CommentLog: deps.Comments,
				Progress:   deps.Progress,
				Checks:     deps.Checks,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Reports:   reports,
			Refresher: refresher,
			Logger:    deps.Logger,
		},
		Outbox: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
		Refresher: refresher,
	}
}

// NewInMemoryModule wires the module over a memory store holding seed and
// the default quarantine checks. Events are relayed to publisher when it
// is not nil.
func NewInMemoryModule(seed entities.ReferenceBatch, publisher ports.EventPublisher, logger *slog.Logger) (Module, error) {
	store := memory.NewStore(seed)
	authorizer, err := policy.NewAuthorizer(logger)
	if err != nil {
		return Module{}, err
	}
	var tallyIDs []string
	if seed.TallyID != "" {
		tallyIDs = []string{seed.TallyID}
	}
	module := NewModule(Dependencies{
		UnitOfWork:  store,
		Forms:       store,
		Entries:     store,
		Disputes:    store,
		Reviews:     store,
		Reference:   store,
		Comments:    store,
		Checks:      store,
		History:     store,
		Reports:     store,
		Projections: store,
		Progress:    store,
		Outbox:      store,
		OutboxWrite: store,
		Publisher:   publisher,
		Authorizer:  authorizer,
		Flights:     &singleflight.Group{},
		Clock:       store,
		IDGen:       store,
		Settings:    application.DefaultSettings(),
		Registry:    quarantine.DefaultRegistry(),
		TallyIDs:    tallyIDs,
		Logger:      logger,
	})
	if _, err := module.Handler.CheckAdmin.EnsureChecks(context.Background(), quarantine.DefaultChecks()); err != nil {
		return Module{}, err
	}
	module.Store = store
	return module, nil
}
