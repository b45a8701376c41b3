package main

import (
	"encoding/json"
	"fmt"
	"github.com/arya-analytics/swimcheck/internal/checksum"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"io"
	"os"
	"strconv"
)

func newChecksumCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum",
		Short: "canonicalize and checksum the membership of an admin stats response",
		Long: "Reads an admin stats response from --file, or stdin when it is -, and prints the\n" +
			"canonical membership string and its checksum under every variant. With --detect\n" +
			"it prints the variant that produced the reported checksum instead.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd.InOrStdin(), v.GetString("file"))
			if err != nil {
				return err
			}
			logger.Debug("read admin stats", zap.Int("bytes", len(payload)))
			return runChecksum(cmd.OutOrStdout(), payload, v.GetBool("detect"), v.GetString("variant"))
		},
	}
	cmd.Flags().StringP("file", "f", "-", "admin stats response")
	cmd.Flags().Bool("detect", false, "detect the variant of the reported checksum")
	cmd.Flags().String("variant", "", "only print the checksum of this variant")
	_ = v.BindPFlag("file", cmd.Flags().Lookup("file"))
	_ = v.BindPFlag("detect", cmd.Flags().Lookup("detect"))
	_ = v.BindPFlag("variant", cmd.Flags().Lookup("variant"))
	return cmd
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" || path == "" {
		b, err := io.ReadAll(stdin)
		return b, errors.Wrap(err, "failed to read stdin")
	}
	b, err := os.ReadFile(path)
	return b, errors.Wrapf(err, "failed to read %s", path)
}

func runChecksum(w io.Writer, payload []byte, detect bool, variant string) error {
	var stats member.Stats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return errors.Wrap(err, "malformed admin stats response")
	}
	members := stats.Membership.Members
	if detect {
		v, err := checksum.Detect(members, stats.Membership.Checksum)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, v)
		return err
	}
	variants := checksum.Variants
	if variant != "" {
		v, err := checksum.Parse(variant)
		if err != nil {
			return err
		}
		variants = []checksum.Variant{v}
	}
	canonical := checksum.Canonicalize(members)
	if _, err := fmt.Fprintf(w, "canonical\t%s\n", canonical); err != nil {
		return err
	}
	for _, v := range variants {
		sum := "-"
		if v.Reproducible(canonical) {
			sum = strconv.FormatUint(uint64(v.Sum(canonical)), 10)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", v, sum); err != nil {
			return err
		}
	}
	return nil
}
