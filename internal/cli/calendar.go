package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/calendar"
	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/pfrederiksen/meetup-events/internal/storage"
	"github.com/spf13/cobra"
)

const defaultCalendarName = "Meetups"

func newCalendarCmd() *cobra.Command {
	var (
		ff       filterFlags
		output   string
		name     string
		meetupID string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Export meetups from the last import as iCalendar",
		Long: `Writes the saved meetups as one .ics calendar, to stdout or to --output.
Accepts the same filters as list. With --id only that meetup is exported
and the filters are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			var (
				ics   string
				count int
			)
			if meetupID != "" {
				m, err := store.GetMeetupByID(meetupID)
				if err != nil {
					return err
				}
				ics, count = calendar.GenerateICS(*m), 1
			} else {
				now := time.Now().UTC()
				f, err := ff.build(now)
				if err != nil {
					return err
				}

				imports, err := store.LoadImports()
				if err != nil {
					return fmt.Errorf("loading import: %w", err)
				}

				meetups := ff.selectMeetups(imports.Meetups, f, now)
				if len(meetups) == 0 {
					return errors.New("no meetups to export")
				}
				sortMeetups(meetups, SortByDate)

				ics, count = calendar.GenerateBulkICS(meetups, name), len(meetups)
			}

			if output == "" || output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), ics)
				return err
			}

			if err := os.WriteFile(output, []byte(ics), 0644); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			logger.Info("Calendar written", logger.Fields{"path": output, "meetups": count})

			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the calendar to this file instead of stdout")
	cmd.Flags().StringVar(&name, "name", defaultCalendarName, "Calendar name shown by calendar apps")
	cmd.Flags().StringVar(&meetupID, "id", "", "Export only the meetup with this ID")

	return cmd
}
