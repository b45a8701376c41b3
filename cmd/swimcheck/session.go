package main

import (
	"fmt"
	"github.com/arya-analytics/swimcheck/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSessionCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "manage the virtual network of a cluster test",
	}
	cmd.PersistentFlags().String("session", "session.yaml", "session description")
	_ = v.BindPFlag("session", cmd.PersistentFlags().Lookup("session"))

	hosts := &cobra.Command{
		Use:   "hosts",
		Short: "print the address of every started virtual host",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := session.Load(v.GetString("session"))
			if err != nil {
				return err
			}
			for _, h := range s.StartedHosts() {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}

	apply := &cobra.Command{
		Use:   "apply",
		Short: "start or stop virtual hosts and apply the session with cs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			s, err := session.Load(v.GetString("session"))
			if err != nil {
				return err
			}
			retarget(s, v.GetInt("start"), v.GetInt("stop"))
			return s.Apply(cmd.Context(), session.ExecRunner{Path: v.GetString("cs"), Logger: logger})
		},
	}
	apply.Flags().Int("start", 0, "number of virtual hosts to start, -1 for all")
	apply.Flags().Int("stop", 0, "number of virtual hosts to stop, -1 for all")
	apply.Flags().String("cs", "cs", "path of the cs binary")
	_ = v.BindPFlag("start", apply.Flags().Lookup("start"))
	_ = v.BindPFlag("stop", apply.Flags().Lookup("stop"))
	_ = v.BindPFlag("cs", apply.Flags().Lookup("cs"))

	cmd.AddCommand(hosts, apply)
	return cmd
}

func retarget(s session.Session, start, stop int) {
	switch {
	case stop < 0:
		s.StopAll()
	case stop > 0:
		s.Stop(stop)
	}
	switch {
	case start < 0:
		s.StartAll()
	case start > 0:
		s.Start(start)
	}
}
