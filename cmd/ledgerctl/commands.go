package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fdg312/activelife/internal/activity"
	"github.com/fdg312/activelife/internal/progress"
	"github.com/fdg312/activelife/internal/reports"
	"github.com/fdg312/activelife/internal/storage"
)

func newTodayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's record (created by carry-forward if missing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				rec, err := a.ledger.GetOrCreateToday(ctx, userID)
				if err != nil {
					return err
				}
				printRecord(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
}

func newLogWaterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log-water <ml>",
		Short: "Add water to today's record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			ml, err := parsePositiveInt("amount", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				rec, err := a.ledger.ApplyWaterDelta(ctx, userID, ml)
				if err != nil {
					return err
				}
				printRecord(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
}

func newLogActivityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log-activity <type> <minutes>",
		Short: "Log an activity and add its burned calories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			minutes, err := parsePositiveInt("duration", args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.activity.LogActivity(ctx, userID, args[0], minutes)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s, %d min: %d kcal burned\n", res.ActivityType, res.DurationMinutes, res.CaloriesBurned)
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Activity statistics for the trailing days",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				stats, err := a.activity.Statistics(ctx, userID, days)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", activity.DefaultStatsDays, "Window size in days, today included")
	return cmd
}

func newRecalcNetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc-net",
		Short: "Recompute net calories of today's record",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				rec, err := a.ledger.RecalculateNet(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s net_calories=%s\n", rec.RecordDate, formatFloat(rec.NetCalories))
				return nil
			})
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		days   int
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the daily report as csv or pdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				data, _, _, err := a.reports.Render(ctx, userID, format, days)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", len(data), out)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", reports.DefaultDays, "Window size in days, today included")
	cmd.Flags().StringVar(&format, "format", reports.FormatCSV, "csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newClearAllCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Delete every user, record and event",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear the ledger without --yes")
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.ledger.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Ledger cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func printRecord(w io.Writer, rec *storage.DailyRecord) {
	sum := progress.Summarize(*rec)
	fmt.Fprintf(w, "DATE\t%s\n", rec.RecordDate)
	fmt.Fprintf(w, "WATER\t%d/%s ml\t%s %d%%\n", rec.LoggedWater, formatFloat(sum.Water.Goal), sum.Water.Bar, sum.Water.Percent)
	fmt.Fprintf(w, "CALORIES\t%s/%s kcal\t%s %d%%\n", formatFloat(rec.LoggedCalories), formatFloat(sum.Calories.Goal), sum.Calories.Bar, sum.Calories.Percent)
	fmt.Fprintf(w, "BURNED\t%s kcal\n", formatFloat(rec.BurnedCalories))
	fmt.Fprintf(w, "NET\t%s %s kcal\n", sum.Net.Label(), formatFloat(sum.Net.Amount))
}

func printStats(w io.Writer, stats *activity.StatsResponse) {
	fmt.Fprintf(w, "%s..%s: %d activities, %d min, %d kcal\n",
		stats.From, stats.To, stats.TotalActivities, stats.TotalMinutes, stats.TotalCaloriesBurned)
	if len(stats.ByType) == 0 {
		return
	}
	fmt.Fprintln(w, "TYPE\tCOUNT\tMINUTES\tKCAL")
	for _, t := range stats.ByType {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", t.ActivityType, t.Count, t.TotalMinutes, t.TotalCalories)
	}
}

func parsePositiveInt(name, value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
