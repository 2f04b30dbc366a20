// Command storefront serves the storefront HTTP API and carries the
// operator tooling around it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Headless storefront API",
		Long: `storefront fronts a hosted commerce platform and a WordPress CMS.

Configuration is read from an optional YAML file and then overlaid with
environment variables (SHOPIFY_*, WP_*, JWT_SECRET, EMAIL_*, REDIS_ADDR).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newCheckConfigCmd(&configPath),
		newHashPasswordCmd(&configPath),
		newLoadtestCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
