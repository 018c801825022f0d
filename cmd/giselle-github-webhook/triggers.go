package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/giselles-ai/giselle-sub003/pkg/cmd"
	"github.com/giselles-ai/giselle-sub003/pkg/integration"
	"github.com/giselles-ai/giselle-sub003/pkg/log"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	"github.com/giselles-ai/giselle-sub003/pkg/trigger"
	cli "github.com/urfave/cli/v3"
)

var errMissingArgument = errors.New("missing argument")

func TriggersCommand() *cli.Command {
	return &cli.Command{
		Name:  "triggers",
		Usage: "Inspect flow triggers and maintain repository integrations",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print a stored flow trigger",
				ArgsUsage: "<flow-trigger-id>",
				Flags:     []cli.Flag{storageFlag(), logLevelFlag()},
				Action: withAdmin(func(ctx context.Context, admin *triggerAdmin, args []string) error {
					return admin.show(ctx, args[0])
				}, 1),
			},
			{
				Name:      "validate",
				Usage:     "Validate a flow trigger JSON file, optionally saving it",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					storageFlag(),
					logLevelFlag(),
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Store the trigger and register it for its repository",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withAdmin(func(ctx context.Context, admin *triggerAdmin, args []string) error {
						return admin.validate(ctx, args[0], command.Bool("save"))
					}, 1)(ctx, command)
				},
			},
			{
				Name:      "connect",
				Usage:     "Register a flow trigger for a repository",
				ArgsUsage: "<repository-node-id> <flow-trigger-id>",
				Flags:     []cli.Flag{storageFlag(), logLevelFlag()},
				Action: withAdmin(func(ctx context.Context, admin *triggerAdmin, args []string) error {
					return admin.connect(ctx, args[0], args[1])
				}, 2),
			},
			{
				Name:      "disconnect",
				Usage:     "Remove a flow trigger from a repository",
				ArgsUsage: "<repository-node-id> <flow-trigger-id>",
				Flags:     []cli.Flag{storageFlag(), logLevelFlag()},
				Action: withAdmin(func(ctx context.Context, admin *triggerAdmin, args []string) error {
					return admin.disconnect(ctx, args[0], args[1])
				}, 2),
			},
		},
	}
}

func withAdmin(action func(context.Context, *triggerAdmin, []string) error, nargs int) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		log.Setup(command.String("log-level"))

		args := command.Args().Slice()
		if len(args) < nargs {
			return fmt.Errorf("%w: usage: %s %s", errMissingArgument, command.FullName(), command.ArgsUsage)
		}

		store, err := cmd.NewPersistence(ctx, log.WithModule("triggers"), command.StringSlice("storage"))
		if err != nil {
			return err
		}

		defer func() {
			_ = store.Close(ctx)
		}()

		return action(ctx, newTriggerAdmin(store, command.Root().Writer), args)
	}
}

type triggerAdmin struct {
	triggers *trigger.Repository
	index    *integration.Resolver
	out      io.Writer
}

func newTriggerAdmin(store persistence.Persistence, out io.Writer) *triggerAdmin {
	if out == nil {
		out = os.Stdout
	}

	return &triggerAdmin{
		triggers: trigger.NewRepository(store),
		index:    integration.NewResolver(store),
		out:      out,
	}
}

func (a *triggerAdmin) show(ctx context.Context, flowTriggerID string) error {
	flowTrigger, err := a.triggers.Get(ctx, flowTriggerID)
	if err != nil {
		return err
	}

	return a.print(flowTrigger)
}

func (a *triggerAdmin) validate(ctx context.Context, path string, save bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var flowTrigger models.FlowTrigger
	if err := json.Unmarshal(data, &flowTrigger); err != nil {
		return fmt.Errorf("%w: %w", trigger.ErrInvalidTrigger, err)
	}

	if err := a.triggers.Validate(&flowTrigger); err != nil {
		return err
	}

	if !save {
		_, err := fmt.Fprintf(a.out, "%s is valid\n", flowTrigger.ID)

		return err
	}

	if err := a.triggers.Save(ctx, &flowTrigger); err != nil {
		return err
	}

	if repositoryNodeID := flowTrigger.Configuration.RepositoryNodeID; repositoryNodeID != "" {
		if err := a.index.Add(ctx, repositoryNodeID, flowTrigger.ID); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(a.out, "%s saved\n", flowTrigger.ID)

	return err
}

func (a *triggerAdmin) connect(ctx context.Context, repositoryNodeID, flowTriggerID string) error {
	if _, err := a.triggers.Get(ctx, flowTriggerID); err != nil {
		return err
	}

	if err := a.index.Add(ctx, repositoryNodeID, flowTriggerID); err != nil {
		return err
	}

	return a.printIndex(ctx, repositoryNodeID)
}

func (a *triggerAdmin) disconnect(ctx context.Context, repositoryNodeID, flowTriggerID string) error {
	if err := a.index.Remove(ctx, repositoryNodeID, flowTriggerID); err != nil {
		return err
	}

	return a.printIndex(ctx, repositoryNodeID)
}

func (a *triggerAdmin) printIndex(ctx context.Context, repositoryNodeID string) error {
	flowTriggerIDs, err := a.index.TriggerIDs(ctx, repositoryNodeID)
	if err != nil {
		return err
	}

	return a.print(models.GitHubRepositoryIntegrationIndex{
		RepositoryNodeID: repositoryNodeID,
		FlowTriggerIDs:   flowTriggerIDs,
	})
}

func (a *triggerAdmin) print(value any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
