// Command storefront-cart manages a local cart file and turns it into a
// hosted checkout.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/commerce"
	"github.com/MrEthical07/storefront/internal/logging"
	"github.com/spf13/cobra"
)

type cliNotifier struct {
	out io.Writer
}

func (n cliNotifier) Success(msg string) { fmt.Fprintln(n.out, msg) }
func (n cliNotifier) Error(msg string)   { fmt.Fprintln(n.out, "error: "+msg) }
func (n cliNotifier) OpenCart()          {}

type app struct {
	cartPath   string
	configPath string
}

func defaultCartPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "cart.json"
	}
	return filepath.Join(dir, "storefront", "cart.json")
}

func (a *app) store(cmd *cobra.Command, opts ...cart.Option) *cart.Store {
	opts = append([]cart.Option{cart.WithNotifier(cliNotifier{out: cmd.ErrOrStderr()})}, opts...)
	return cart.NewStore(cart.NewFileStorage(a.cartPath), opts...)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "storefront-cart",
		Short:        "Manage a local cart and check it out",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.cartPath, "cart", defaultCartPath(), "cart file")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "storefront YAML config, used by checkout")

	root.AddCommand(
		newAddCmd(a),
		&cobra.Command{
			Use:   "remove <variant-id>",
			Short: "Remove a line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.store(cmd).Remove(args[0])
			},
		},
		&cobra.Command{
			Use:   "set <variant-id> <quantity>",
			Short: "Overwrite a line's quantity; zero removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity %q: %w", args[1], err)
				}
				return a.store(cmd).SetQuantity(args[0], qty)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printCart(cmd.OutOrStdout(), a.store(cmd))
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.store(cmd).Clear()
			},
		},
		newCheckoutCmd(a),
	)
	return root
}

func newAddCmd(a *app) *cobra.Command {
	var (
		item cart.Item
		qty  int
	)
	cmd := &cobra.Command{
		Use:   "add <variant-id>",
		Short: "Add units of a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item.VariantID = args[0]
			if item.ProductID == "" {
				item.ProductID = item.VariantID
			}
			if item.Title == "" {
				item.Title = item.VariantID
			}
			return a.store(cmd).Add(item, qty)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&qty, "quantity", "q", 1, "units to add")
	f.StringVar(&item.Title, "title", "", "product title")
	f.StringVar(&item.VariantTitle, "variant-title", "", "variant title")
	f.StringVar(&item.ProductID, "product", "", "product id (defaults to the variant id)")
	f.StringVar(&item.Price, "price", "0", "unit price")
	f.StringVar(&item.CurrencyCode, "currency", "USD", "currency code")
	f.StringVar(&item.Handle, "handle", "", "product handle")
	f.StringVar(&item.Image, "image", "", "image url")
	return cmd
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Create a hosted checkout and print its URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := storefront.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			client, err := commerce.New(cfg.Commerce, logger)
			if err != nil {
				return err
			}
			url, err := a.store(cmd, cart.WithCartCreator(client), cart.WithLogger(logger)).Checkout(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func printCart(w io.Writer, s *cart.Store) error {
	lines := s.Lines()
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tTITLE\tQTY\tPRICE")
	for _, l := range lines {
		title := l.Title
		if l.VariantTitle != "" {
			title += " (" + l.VariantTitle + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s %s\n", l.VariantID, title, l.Quantity, l.Price, l.CurrencyCode)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "items: %d  total: %s %s\n", s.Count(), s.Total().StringFixed(2), lines[0].CurrencyCode)
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
