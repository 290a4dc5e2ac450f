package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ministry_hub/internal/schedule"
)

var (
	previewFrequency string
	previewDay       string
	previewStart     string
	previewTime      string
	previewEnd       string
	previewLocation  string
	previewToday     string
)

func init() {
	previewCmd.Flags().StringVar(&previewFrequency, "frequency", "SEMANAL", "DIARIO, SEMANAL, QUINZENAL or MENSAL; empty for a single meeting")
	previewCmd.Flags().StringVar(&previewDay, "day", "", "Meeting weekday (DOMINGO..SABADO)")
	previewCmd.Flags().StringVar(&previewStart, "start", "", "First date, YYYY-MM-DD (default: today)")
	previewCmd.Flags().StringVar(&previewTime, "time", "19:30", "Start time, HH:MM")
	previewCmd.Flags().StringVar(&previewEnd, "end", "", "End time, HH:MM")
	previewCmd.Flags().StringVar(&previewLocation, "location", "", "Meeting place")
	previewCmd.Flags().StringVar(&previewToday, "today", "", "Day the horizon is counted from, YYYY-MM-DD (default: today)")

	scheduleCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect small group meeting generation",
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "List the meetings a small group would get",
	Long: `List the meetings a small group with these settings would get, without
touching the database.

Examples:
  hubctl schedule preview --frequency SEMANAL --day QUARTA --start 2026-10-19
  hubctl schedule preview --frequency "" --start 2027-03-05 --time 18:00`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		today := time.Now().UTC()
		if previewToday != "" {
			d, err := time.Parse(time.DateOnly, previewToday)
			if err != nil {
				return fmt.Errorf("invalid --today: %w", err)
			}
			today = d
		}
		start := today
		if previewStart != "" {
			d, err := time.Parse(time.DateOnly, previewStart)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			start = d
		}
		if !schedule.ValidClock(previewTime) {
			return fmt.Errorf("invalid --time %q, want HH:MM", previewTime)
		}
		if previewEnd != "" && !schedule.ValidClock(previewEnd) {
			return fmt.Errorf("invalid --end %q, want HH:MM", previewEnd)
		}

		rec := schedule.Recurrence{
			Frequency: schedule.Frequency(strings.ToUpper(previewFrequency)),
			DayOfWeek: schedule.Weekday(strings.ToUpper(previewDay)),
			StartTime: previewTime,
			EndTime:   previewEnd,
			StartDate: start,
			Location:  previewLocation,
		}
		printOccurrences(cmd.OutOrStdout(), schedule.Generate(rec, today))
		return nil
	},
}

func printOccurrences(out io.Writer, occ []schedule.Occurrence) {
	if len(occ) == 0 {
		fmt.Fprintln(out, warnFmt("no meetings: settings are incomplete or start after the horizon"))
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDATE\tWEEKDAY\tSTART\tEND\tLOCATION")
	for i, o := range occ {
		end := o.EndTime
		if end == "" {
			end = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, o.Date.Format(time.DateOnly), o.Date.Weekday(), o.StartTime, end, o.Location)
	}
	w.Flush()
	fmt.Fprintln(out, dimFmt(fmt.Sprintf("%d meeting(s)", len(occ))))
}
