package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	resultformservice "tally/contexts/results-processing/result-form-service"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
	"tally/internal/app/bootstrap"
	"tally/internal/platform/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Operator caller used for every command that mutates tally data.
var operator = httptransport.Caller{UserID: "tallyctl", Roles: "super_administrator"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "tallyctl:", err)
		os.Exit(1)
	}
}

type cli struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "tallyctl",
		Short:         "Operate a tally result-form deployment",
		Long:          `Maintenance commands for the tally service: schema migration, reference import, reports and quarantine checks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = bootstrap.NewLogger(cfg, "tallyctl")
			return nil
		},
	}
	root.AddCommand(
		c.migrateCommand(),
		c.importCommand(),
		c.reportCommand(),
		c.refreshCommand(),
		c.checksCommand(),
		configCommand(),
	)
	return root
}

// withModule opens postgres, wires the module and hands it to fn.
func (c *cli) withModule(ctx context.Context, fn func(resultformservice.Module) error) error {
	pg, repo, err := bootstrap.OpenPostgres(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	module, err := bootstrap.BuildModule(ctx, c.cfg, repo, nil, nil, c.logger)
	if err != nil {
		return err
	}
	return fn(module)
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the tally schema and seed quarantine checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withModule(cmd.Context(), func(resultformservice.Module) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func (c *cli) importCommand() *cobra.Command {
	var tallyID string
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import reference data (areas, centers, stations, ballots, candidates, forms)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var req httptransport.ImportReferenceRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			return c.withModule(cmd.Context(), func(module resultformservice.Module) error {
				if err := module.Handler.ImportReferenceHandler(cmd.Context(), operator, tallyID, req); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d centers, %d stations, %d result forms\n",
					len(req.Centers), len(req.Stations), len(req.ResultForms))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tallyID, "tally", "", "tally id")
	_ = cmd.MarkFlagRequired("tally")
	return cmd
}

func (c *cli) reportCommand() *cobra.Command {
	var tallyID, ballotID, kind string
	cmd := &cobra.Command{
		Use:   "report <candidates|turnout|summary|duplicates|discrepancies|export>",
		Short: "Print a report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withModule(cmd.Context(), func(module resultformservice.Module) error {
				ctx := cmd.Context()
				h := module.Handler
				var (
					resp any
					err  error
				)
				switch args[0] {
				case "candidates":
					resp, err = h.CandidateTotalsHandler(ctx, tallyID, ballotID, nil)
				case "turnout":
					resp, err = h.AreaTurnoutHandler(ctx, tallyID, kind, ballotID, nil)
				case "summary":
					resp, err = h.AreaSummaryHandler(ctx, tallyID, kind, ballotID, nil)
				case "duplicates":
					resp, err = h.DuplicatesHandler(ctx, tallyID)
				case "discrepancies":
					resp, err = h.DiscrepanciesHandler(ctx, tallyID)
				case "export":
					resp, err = h.ExportReportHandler(ctx, tallyID, kind)
				default:
					return fmt.Errorf("unknown report %q", args[0])
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVar(&tallyID, "tally", "", "tally id")
	cmd.Flags().StringVar(&ballotID, "ballot", "", "restrict to one ballot")
	cmd.Flags().StringVar(&kind, "kind", "center", "area kind for turnout, summary and export")
	_ = cmd.MarkFlagRequired("tally")
	return cmd
}

func (c *cli) refreshCommand() *cobra.Command {
	var tallyID string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the candidate vote projection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withModule(cmd.Context(), func(module resultformservice.Module) error {
				resp, err := module.Handler.RefreshProjectionHandler(cmd.Context(), tallyID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVar(&tallyID, "tally", "", "tally id")
	_ = cmd.MarkFlagRequired("tally")
	return cmd
}

func (c *cli) checksCommand() *cobra.Command {
	checks := &cobra.Command{
		Use:   "checks",
		Short: "Inspect and tune quarantine checks",
	}
	checks.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List quarantine checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withModule(cmd.Context(), func(module resultformservice.Module) error {
				resp, err := module.Handler.ListQuarantineChecksHandler(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	})

	var (
		value, percentage float64
		active            bool
	)
	set := &cobra.Command{
		Use:   "set <check_id>",
		Short: "Update tolerance, percentage or active flag of one check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req httptransport.UpdateQuarantineCheckRequest
			flags := cmd.Flags()
			if flags.Changed("value") {
				req.Value = &value
			}
			if flags.Changed("percentage") {
				req.Percentage = &percentage
			}
			if flags.Changed("active") {
				req.Active = &active
			}
			return c.withModule(cmd.Context(), func(module resultformservice.Module) error {
				resp, err := module.Handler.UpdateQuarantineCheckHandler(cmd.Context(), operator, args[0], req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	set.Flags().Float64Var(&value, "value", 0, "tolerance value")
	set.Flags().Float64Var(&percentage, "percentage", 0, "tolerance percentage")
	set.Flags().BoolVar(&active, "active", true, "whether the check runs")
	checks.AddCommand(set)
	return checks
}

// configCommand works without a database, so it skips the root pre-run.
func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <workflow.yaml>",
		Short: "Validate a workflow file and print the effective settings",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, err := config.LoadWorkflowFile(args[0])
			if err != nil {
				return err
			}
			if err := workflow.Validate(); err != nil {
				return err
			}
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(workflow); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
	return cmd
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
