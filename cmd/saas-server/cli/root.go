package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yangtinglin69/saas/internal/version"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "saas-server",
	Short: "Multi-tenant microsite server",
	Long: `saas-server hosts affiliate microsites. One admin host serves the
dashboard API; every other host is a tenant site composed from its modules,
products and posts.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/server.yaml", "path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion().String())
		},
	})
}
