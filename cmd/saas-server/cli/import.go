package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yangtinglin69/saas/internal/server/importer"
)

var importTarget string

func init() {
	importCmd.Flags().StringVarP(&importTarget, "target", "t", importer.TargetProducts,
		"what the rows become: "+strings.Join(importer.Targets(), ", "))
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <host> <file>",
	Short: "Bulk import a CSV or XLSX file into a tenant site",
	Long: `Import spreadsheet rows into a tenant site. Products are inserted in a
single transaction; module targets append items to the module content.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		return newApplication(cfg, database).importFile(cmd.Context(), cmd.OutOrStdout(), args[0], importTarget, args[1])
	},
}

func (a *application) importFile(ctx context.Context, out io.Writer, host, target, path string) error {
	site, err := a.services.Tenants.ResolveHost(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := a.services.Importer.Import(ctx, site.ID, target, filepath.Base(path), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "imported %d %s into %s\n", result.Imported, result.Target, site.FullDomain)
	return nil
}
