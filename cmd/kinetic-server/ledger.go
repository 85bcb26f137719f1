package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

func newLedgerCmd(cfgFile *string) *cobra.Command {
	var (
		kinds         []string
		transfersOnly bool
		limit         int
		fromSQL       bool
	)

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print audit entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openForCommand(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if fromSQL {
				if a.sqliteStore == nil {
					return errors.New("--sql needs the sqlite snapshot driver")
				}
				entries, err := a.sqliteStore.LedgerEntries(cmd.Context(), a.cfg.Snapshot.ID, limit)
				if err != nil {
					return err
				}
				for _, e := range entries {
					printEntry(cmd.OutOrStdout(), e.Type, time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339), e.Message)
				}
				return nil
			}

			if !a.syncer.Load(cmd.Context()) {
				fmt.Fprintln(cmd.ErrOrStderr(), "no stored snapshot; showing seed state")
			}
			f := service.LedgerFilter{TransfersOnly: transfersOnly, Limit: limit}
			for _, k := range kinds {
				f.Types = append(f.Types, types.EventType(strings.ToUpper(k)))
			}
			resp, err := a.svc.Ledger(cmd.Context(), f)
			if err != nil {
				return err
			}
			for _, e := range resp.Entries {
				printEntry(cmd.OutOrStdout(), e.Type, e.Timestamp, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "type", nil, "entry types to include (LOGIN, OPT, SHARE, VIEW, TRANSFER, BLOCKED)")
	cmd.Flags().BoolVar(&transfersOnly, "transfers-only", false, "only TRANSFER entries")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to print (0 = all)")
	cmd.Flags().BoolVar(&fromSQL, "sql", false, "read the sqlite ledger_entries mirror instead of the snapshot")
	return cmd
}

func printEntry(w io.Writer, kind types.EventType, ts, msg string) {
	fmt.Fprintf(w, "%s  %-8s  %s\n", ts, kind, msg)
}
