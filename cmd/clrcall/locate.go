package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostbridge/clr-host/locator"
)

func newLocateCmd() *cobra.Command {
	var roots []string

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the resolved host library path",
		Long: `Probe the environment override, configured roots and platform
install locations for the newest host library and print its path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			probe := append(roots, toolConf.roots()...)

			var path string
			var err error
			if len(probe) > 0 {
				path, err = locator.LocateIn(probe...)
			} else {
				path, err = locator.Locate()
			}
			if err != nil {
				return err
			}

			s := styles()
			fmt.Println(s.Label.Render("host library: ") + s.Value.Render(path))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&roots, "root", nil, "Installation root to probe (repeatable)")
	return cmd
}
