package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

var archiveDays int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive sold comparables older than the retention window",
	Long:  "Marks sold comparables whose sale date is older than the window as archived. Archived rows stop feeding classifications but remain queryable.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		days := archiveDays
		if days <= 0 {
			days = cfg.Import.ArchiveAfterDays
		}
		cutoff := time.Now().AddDate(0, 0, -days)

		archived, err := st.ArchiveSoldBefore(ctx, cutoff)
		if err != nil {
			return err
		}

		remaining, err := st.CountComparables(ctx, store.ComparableFilter{
			Statuses: []model.PropertyStatus{model.StatusSold},
		})
		if err != nil {
			return err
		}

		cmd.Printf("Archived %d sold comparables older than %s (%d sold remain active)\n",
			archived, cutoff.Format("2006-01-02"), remaining)
		return nil
	},
}

func init() {
	archiveCmd.Flags().IntVar(&archiveDays, "days", 0, "retention window in days (default from config)")
	rootCmd.AddCommand(archiveCmd)
}
