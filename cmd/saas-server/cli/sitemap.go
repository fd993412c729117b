package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yangtinglin69/saas/internal/server/sitemap"
)

var sitemapXML bool

func init() {
	sitemapCmd.Flags().BoolVar(&sitemapXML, "xml", false, "print the sitemap.xml document instead of the URL groups")
	rootCmd.AddCommand(sitemapCmd)
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap <host>",
	Short: "Print the sitemap of a tenant site",
	Long: `Print the URLs of a tenant site in sitemap groups, or the sitemap.xml
document with --xml. The site is resolved by hostname the same way
requests are.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		return newApplication(cfg, database).printSitemap(cmd.Context(), cmd.OutOrStdout(), args[0], sitemapXML)
	},
}

func (a *application) printSitemap(ctx context.Context, out io.Writer, host string, asXML bool) error {
	site, err := a.services.Tenants.ResolveHost(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}

	entries, err := a.services.Sitemap.Entries(ctx, site)
	if err != nil {
		return err
	}

	if asXML {
		return sitemap.WriteXML(out, entries)
	}

	for i, group := range sitemap.Groups(entries, a.services.Sitemap.GroupSize()) {
		fmt.Fprintf(out, "# group %d (%d urls)\n", i+1, len(group))
		for _, e := range group {
			fmt.Fprintf(out, "%s\t%s\t%.1f\n", e.URL, e.ChangeFreq, e.Priority)
		}
	}
	return nil
}
