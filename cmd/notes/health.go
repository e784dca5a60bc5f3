package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// healthURL is the server's /healthz, which lives next to the API base.
func healthURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("API base %q is not an absolute URL", base)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/healthz"}).String(), nil
}

func newHealthCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its database are up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := healthURL(c.cfg.APIBaseURL)
			if err != nil {
				return err
			}
			h, err := c.client.Health(cmd.Context(), target)
			if err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			c.printf("%s %s, database %s\n", ok.Sprint("✔"), h.Status, h.Database)
			return nil
		},
	}
}
