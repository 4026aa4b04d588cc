package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/stepflow/pkg/cache"
	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var ErrInvalidWorkflows = errors.New("invalid workflows found")

type validationReport struct {
	Checked  int
	Invalid  int
	Repaired int
}

// validateWorkflows checks every stored workflow. With repair, workflows whose
// only problem is a gapped ordering are re-sequenced to 1..N.
func validateWorkflows(
	ctx context.Context,
	logger *slog.Logger,
	p persistence.Persistence,
	viewCache cache.ViewCache,
	repair bool,
) (validationReport, error) {
	var report validationReport

	workflows, err := p.WorkflowRepository().List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list workflows: %w", err)
	}

	for _, workflow := range workflows {
		report.Checked++

		view, err := services.ComposeView(ctx, p, workflow.ID)
		if err != nil {
			return report, err
		}

		violations := graph.Check(view)
		if violations == nil {
			continue
		}

		logger.WarnContext(ctx, "Workflow is invalid",
			"workflow_id", workflow.ID,
			"name", workflow.Name,
			"violations", violations.Error())

		if !repair || !errors.Is(violations, ordering.ErrNotDense) {
			report.Invalid++

			continue
		}

		changes, err := p.StepRepository().Resequence(ctx, workflow.ID)
		if err != nil {
			return report, fmt.Errorf("failed to resequence workflow %s: %w", workflow.ID, err)
		}

		if err := viewCache.Invalidate(ctx, workflow.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to invalidate cached view", "workflow_id", workflow.ID, "error", err)
		}

		logger.InfoContext(ctx, "Workflow re-sequenced", "workflow_id", workflow.ID, "moved", len(changes))

		view, err = services.ComposeView(ctx, p, workflow.ID)
		if err != nil {
			return report, err
		}

		if graph.Check(view) != nil {
			report.Invalid++

			continue
		}

		report.Repaired++
	}

	return report, nil
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check stored workflows for ordering and connection problems",
		Flags: append([]cli.Flag{
			databaseURLFlag(),
			redisURLFlag(),
			&cli.BoolFlag{
				Name:  "repair",
				Usage: "Re-sequence workflows whose order indices have gaps",
			},
		}, logFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("validate")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			viewCache, err := cmd.NewViewCache(ctx, command.String("redis-url"), 0)
			if err != nil {
				return err
			}

			defer func() {
				_ = viewCache.Close()
			}()

			report, err := validateWorkflows(ctx, logger, persistence, viewCache, command.Bool("repair"))
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Validation finished",
				"checked", report.Checked,
				"invalid", report.Invalid,
				"repaired", report.Repaired)

			if report.Invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidWorkflows, report.Invalid, report.Checked)
			}

			return nil
		},
	}
}
