package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostbridge/clr-host/wasmhost"
)

func newTypesCmd() *cobra.Command {
	var (
		configPath string
		modulePath string
	)

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the callable exports of a guest module",
		Long: `Load a wasm guest module and list its exported functions,
marking the object boundary entry points. Native bridge assemblies keep
their type registry inside the hosting process and cannot be listed
from outside.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wr, err := wasmhost.New(context.Background())
			if err != nil {
				return err
			}
			defer wr.Close()

			rt, err := wr.InitRuntime(configPath)
			if err != nil {
				return err
			}
			m, err := wr.LoadModule(rt, modulePath)
			if err != nil {
				return err
			}

			s := styles()
			fmt.Println(s.Header.Render(modulePath))
			for _, name := range m.Exports() {
				switch name {
				case "create_instance", "invoke_method", "release_instance":
					fmt.Println("  " + s.Success.Render(name) + s.Label.Render("  (boundary)"))
				default:
					if strings.HasPrefix(name, "cabi_") || name == "malloc" || name == "free" || name == "alloc" {
						fmt.Println("  " + s.Label.Render(name+"  (allocator)"))
					} else {
						fmt.Println("  " + name)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Runtime configuration file (required)")
	cmd.Flags().StringVar(&modulePath, "module", "", "Guest wasm module to inspect (required)")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("module")
	return cmd
}
