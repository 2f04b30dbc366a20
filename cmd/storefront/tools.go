package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/password"
	"github.com/spf13/cobra"
)

func newCheckConfigCmd(configPath *string) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print lint warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := storefront.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			warnings := cfg.Lint()
			for _, w := range warnings {
				fmt.Fprintf(out, "warning %s: %s\n", w.Code, w.Message)
			}
			if len(warnings) == 0 {
				fmt.Fprintln(out, "config ok")
			}
			if strict && len(warnings) > 0 {
				return fmt.Errorf("%d lint warning(s)", len(warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any lint warning is reported")
	return cmd
}

// newHashPasswordCmd prints the PHC string for a credentials entry. The
// password is read from the first line of stdin so it stays out of shell
// history.
func newHashPasswordCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin for the credentials list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := storefront.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			plain, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			h, err := password.NewHasher(cfg.Password)
			if err != nil {
				return err
			}
			hash, err := h.Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
