package cli

import (
	"fmt"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/storage"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		ff       filterFlags
		sortFlag string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetups from the last import",
		Long: `Lists the meetups saved by the last import. The filters combine: a meetup
is shown only when it matches every given criterion.

Examples:
  meetup-events list --country Austria
  meetup-events list --range "Mar 1-15" --weekends
  meetup-events list --city vienna --city berlin --sort country`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(flagFormat)
			if err != nil {
				return err
			}
			order, err := ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			f, err := ff.build(now)
			if err != nil {
				return err
			}

			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			imports, err := store.LoadImports()
			if err != nil {
				return fmt.Errorf("loading import: %w", err)
			}

			meetups := ff.selectMeetups(imports.Meetups, f, now)
			sortMeetups(meetups, order)

			result := &ListResult{
				ImportedAt:  imports.ImportedAt,
				MeetupCount: len(meetups),
				Meetups:     meetups,
			}
			if !f.IsEmpty() {
				result.Filter = f.String()
			}

			return WriteListOutput(cmd.OutOrStdout(), result, format, flagVerbose)
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVar(&sortFlag, "sort", string(SortByDate), "Sort order: date, country or title")

	return cmd
}
