package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newGetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one company and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			a := newApp(cfg, newLogger(cmd.ErrOrStderr(), cfg.Log))
			defer a.Close()

			env := a.service.Handle(cmd.Context(), args[0])
			fmt.Fprintln(cmd.OutOrStdout(), string(env.Body))
			if env.StatusCode != http.StatusOK {
				return fmt.Errorf("company %q: status %d", args[0], env.StatusCode)
			}
			return nil
		},
	}
}
