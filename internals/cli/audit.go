package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"taportal_backend/internals/configs"
	database "taportal_backend/internals/databases"
	"taportal_backend/internals/features/recruitment/audit"
)

func NewAuditCommand(opts *RootOptions) *cobra.Command {
	var failOnDrift bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute every module ledger and report drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.LoadEnv()
			if err != nil {
				return err
			}
			db, err := database.ConnectDB(cfg)
			if err != nil {
				return err
			}
			ok, err := RunAudit(cmd.Context(), db, opts.Format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !ok && failOnDrift {
				return fmt.Errorf("ledger drift detected")
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&failOnDrift, "fail", false, "exit non-zero when any ledger is inconsistent")
	return cmd
}

// RunAudit runs one reconciliation pass and writes the report to w.
func RunAudit(ctx context.Context, db *gorm.DB, format string, w io.Writer) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	rep, err := audit.Reconcile(ctx, db)
	if err != nil {
		return false, err
	}

	if format == "json" {
		b, err := sonic.ConfigDefault.MarshalIndent(rep, "", "  ")
		if err != nil {
			return false, err
		}
		_, err = fmt.Fprintln(w, string(b))
		return rep.OK(), err
	}

	fmt.Fprintf(w, "checked %d modules\n", rep.Checked)
	for _, b := range rep.Broken {
		fmt.Fprintf(w, "%s (%s) status=%s\n", b.ModuleCode, b.ModuleID, b.Status)
		for _, d := range b.Drifts {
			fmt.Fprintf(w, "  drift %s\n", d)
		}
		for _, v := range b.Violations {
			fmt.Fprintf(w, "  violation %s\n", v)
		}
	}
	if rep.OK() {
		fmt.Fprintln(w, "all ledgers consistent")
	}
	return rep.OK(), nil
}
