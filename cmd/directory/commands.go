package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/n8njson/directory/pkg/cmd"
	"github.com/n8njson/directory/pkg/eventbus"
	"github.com/n8njson/directory/pkg/events"
	"github.com/n8njson/directory/pkg/log"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/services"
	"github.com/n8njson/directory/pkg/workflowdoc"
	cli "github.com/urfave/cli/v3"
)

var errMissingID = errors.New("template id argument is required")

// environment holds the collaborators shared by the admin commands.
type environment struct {
	submissions *services.Submissions
	eventBus    eventbus.EventBus
	closers     []func() error
}

func (e *environment) Close(ctx context.Context) {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Failed to release resource", "error", err)
		}
	}
}

func openEnvironment(ctx context.Context, command *cli.Command) (*environment, error) {
	logger := log.FromContext(ctx)
	env := &environment{}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, err
	}

	env.closers = append(env.closers, func() error { return persistence.Close(ctx) })

	cache, err := cmd.NewCache(ctx, logger, command.String("redis-url"))
	if err != nil {
		env.Close(ctx)

		return nil, err
	}

	env.closers = append(env.closers, cache.Close)

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		env.Close(ctx)

		return nil, err
	}

	env.closers = append(env.closers, eventBus.Close)
	env.eventBus = eventBus
	env.submissions = services.NewSubmissions(persistence.TemplateRepository(), eventBus, cache, logger, nil, nil)

	return env, nil
}

func UploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Aliases:   []string{"u"},
		Usage:     "Publish a workflow JSON file as a developer upload",
		ArgsUsage: "<workflow.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "title",
				Usage: "Template title (defaults to the workflow name)",
			},
			&cli.StringFlag{
				Name:     "description",
				Usage:    "Template description",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Provenance label",
				Value: services.SourceDeveloper,
			},
			&cli.StringFlag{
				Name:  "source-url",
				Usage: "Link to the original workflow",
			},
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Category to file the template under (repeatable)",
			},
			&cli.StringFlag{
				Name:  "use-case",
				Usage: "Use case identifier",
				Value: services.DefaultUseCase,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return errors.New("workflow file argument is required")
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read workflow file: %w", err)
			}

			doc, err := workflowdoc.Parse(raw)
			if err != nil {
				return err
			}

			title := command.String("title")
			if title == "" {
				title, _ = doc["name"].(string)
			}

			env, err := openEnvironment(ctx, command)
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			result, err := env.submissions.UploadDeveloper(ctx, services.UploadRequest{
				Title:       title,
				Description: command.String("description"),
				Workflow:    doc,
				Source:      command.String("source"),
				SourceURL:   command.String("source-url"),
				Categories:  command.StringSlice("category"),
				UseCase:     command.String("use-case"),
			})
			if err != nil {
				return err
			}

			w := command.Root().Writer
			_, _ = fmt.Fprintf(w, "published %s %q (%d nodes)\n", result.TemplateID, result.Title, result.NodeCount)

			for _, similar := range result.SimilarTemplates {
				_, _ = fmt.Fprintf(w, "  similar: %s %q %.0f%%\n", similar.ID, similar.Title, similar.Similarity*100)
			}

			return nil
		},
	}
}

func PendingCommand() *cli.Command {
	return &cli.Command{
		Name:    "pending",
		Aliases: []string{"ls"},
		Usage:   "List submissions awaiting review",
		Action: func(ctx context.Context, command *cli.Command) error {
			env, err := openEnvironment(ctx, command)
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			pending, err := env.submissions.Pending(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(command.Root().Writer, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTITLE\tNODES\tCONTRIBUTOR\tSUBMITTED")

			for _, template := range pending {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					template.ID,
					template.Title,
					template.NodeCount,
					contributor(template),
					template.CreatedAt.Format("2006-01-02 15:04"),
				)
			}

			return w.Flush()
		},
	}
}

func contributor(template *models.Template) string {
	switch {
	case template.ContributorName != "" && template.ContributorEmail != "":
		return template.ContributorName + " <" + template.ContributorEmail + ">"
	case template.ContributorName != "":
		return template.ContributorName
	case template.ContributorEmail != "":
		return template.ContributorEmail
	default:
		return "-"
	}
}

func ApproveCommand() *cli.Command {
	return &cli.Command{
		Name:      "approve",
		Usage:     "Publish a pending submission",
		ArgsUsage: "<template-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return errMissingID
			}

			env, err := openEnvironment(ctx, command)
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			template, err := env.submissions.Approve(ctx, id)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(command.Root().Writer, "approved %s %q as /template/%s\n", template.ID, template.Title, template.Slug)

			return nil
		},
	}
}

func RejectCommand() *cli.Command {
	return &cli.Command{
		Name:      "reject",
		Usage:     "Delete a pending submission",
		ArgsUsage: "<template-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return errMissingID
			}

			env, err := openEnvironment(ctx, command)
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			err = env.submissions.Reject(ctx, id)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(command.Root().Writer, "rejected %s\n", id)

			return nil
		},
	}
}

func EventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Print template lifecycle events until interrupted",
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := openEnvironment(ctx, command)
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			logger := log.FromContext(ctx)
			w := command.Root().Writer

			printEvent := func(_ context.Context, event events.Event) error {
				_, err := fmt.Fprintf(w, "%s %+v\n", event.GetType(), event)

				return err
			}

			for _, eventType := range []events.EventType{
				events.TemplateSubmittedEvent,
				events.TemplatePublishedEvent,
				events.TemplateApprovedEvent,
				events.TemplateRejectedEvent,
			} {
				if err := env.eventBus.Handle(eventType, printEvent); err != nil {
					return err
				}
			}

			if err := env.eventBus.Subscribe(ctx); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Listening for template events", "topic", events.Topic)
			<-ctx.Done()

			return nil
		},
	}
}
