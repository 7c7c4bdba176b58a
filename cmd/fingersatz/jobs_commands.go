package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fingersatz/internal/api"
	"fingersatz/internal/apiclient"
	"fingersatz/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the processing journal",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsHealthCommand(ctx))
	jobsCmd.AddCommand(newJobsPruneCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatus string
	var listLimit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(cmd.Context(), func(client *apiclient.Client, journal *jobs.Journal) error {
				var entries []api.JobEntry
				if client != nil {
					resp, err := client.Jobs(cmd.Context(), listStatus, listLimit)
					if err != nil {
						return err
					}
					entries = resp.Jobs
				} else {
					listed, err := journal.List(cmd.Context(), jobs.Status(listStatus), listLimit)
					if err != nil {
						return err
					}
					entries = api.FromJobEntries(listed)
				}

				if ctx.jsonMode() {
					return writeJSON(cmd, api.JobListResponse{Jobs: entries})
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Source", "Input", "Status", "Duration", "Created"},
					buildJobListRows(entries),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&listStatus, "status", "s", "", "Filter by run status (completed or failed)")
	cmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show journal status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(cmd.Context(), func(client *apiclient.Client, journal *jobs.Journal) error {
				stats := make(map[string]int)
				if client != nil {
					health, err := client.Healthz(cmd.Context())
					if err != nil {
						return err
					}
					if health.Jobs.Completed > 0 {
						stats[string(jobs.StatusCompleted)] = health.Jobs.Completed
					}
					if health.Jobs.Failed > 0 {
						stats[string(jobs.StatusFailed)] = health.Jobs.Failed
					}
				} else {
					counted, err := journal.Stats(cmd.Context())
					if err != nil {
						return err
					}
					for status, count := range counted {
						stats[string(status)] = count
					}
				}

				if ctx.jsonMode() {
					return writeJSON(cmd, stats)
				}
				rows := buildJobStatsRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show one journaled run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			return ctx.withJournal(cmd.Context(), func(client *apiclient.Client, journal *jobs.Journal) error {
				var entry *api.JobEntry
				if client != nil {
					resp, err := client.Job(cmd.Context(), id)
					if err != nil {
						if strings.Contains(strings.ToLower(err.Error()), "not found") {
							fmt.Fprintf(cmd.OutOrStdout(), "Job %d not found\n", id)
							return nil
						}
						return err
					}
					entry = &resp.Job
				} else {
					found, err := journal.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if found == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Job %d not found\n", id)
						return nil
					}
					converted := api.FromJobEntry(found)
					entry = &converted
				}

				if ctx.jsonMode() {
					return writeJSON(cmd, api.JobEntryResponse{Job: *entry})
				}
				for _, line := range buildJobDetailLines(*entry) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
}

func newJobsHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show journal health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(cmd.Context(), func(client *apiclient.Client, journal *jobs.Journal) error {
				var health api.JobsHealth
				if client != nil {
					resp, err := client.Healthz(cmd.Context())
					if err != nil {
						return err
					}
					health = resp.Jobs
				} else {
					summary, err := journal.Health(cmd.Context())
					if err != nil {
						return err
					}
					health = api.FromHealthSummary(summary)
				}

				if ctx.jsonMode() {
					return writeJSON(cmd, health)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nCompleted: %d\nFailed: %d\n",
					health.Total,
					health.Completed,
					health.Failed,
				)
				return nil
			})
		},
	}
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			journal, err := jobs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job journal: %w", err)
			}
			defer journal.Close()

			removed, err := journal.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d journal entries\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove entries older than this duration")
	return cmd
}
