package main

import (
	"encoding/json"
	"fmt"
	"github.com/arya-analytics/swimcheck/internal/journal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
)

func newJournalCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "list the runs of a journal, or print the events of one run as json lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := journal.Open(v.GetString("dir"), nil)
			if err != nil {
				return err
			}
			defer j.Close()
			return printJournal(cmd.OutOrStdout(), j, v.GetString("run"))
		},
	}
	cmd.Flags().String("dir", "swimcheck-journal", "journal directory")
	cmd.Flags().String("run", "", "run to print")
	_ = v.BindPFlag("dir", cmd.Flags().Lookup("dir"))
	_ = v.BindPFlag("run", cmd.Flags().Lookup("run"))
	return cmd
}

func printJournal(w io.Writer, j journal.Journal, run string) error {
	if run == "" {
		runs, err := j.Runs()
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintln(w, r)
		}
		return nil
	}
	events, err := j.Events(run)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
