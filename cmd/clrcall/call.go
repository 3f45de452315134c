package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/codec"
	"github.com/hostbridge/clr-host/locator"
	"github.com/hostbridge/clr-host/runtime"
	"github.com/hostbridge/clr-host/wasmhost"
)

func newCallCmd() *cobra.Command {
	var (
		configPath string
		libPath    string
		assembly   string
		typeName   string
		method     string
		ctorArgs   []string
		bridgeType string
		useWasm    bool
	)

	cmd := &cobra.Command{
		Use:   "call [args...]",
		Short: "Create a bridged object and invoke one method",
		Long: `Start a runtime from a configuration file, create an instance of
the given type, invoke one method on it and print the outcome.

Arguments are typed literals of the form kind:value:

  i32:42  i64:7  f64:3.14  bool:true  str:hello  handle:3  null

A bare value is parsed as i32 when numeric, bool when true/false, and
string otherwise.`,
		Example: `  clrcall call --config app.runtimeconfig.json \
      --assembly Bridge.dll --type MathLib.Accumulator \
      --method Add i32:10 i32:32`,
		RunE: func(cmd *cobra.Command, args []string) error {
			methodArgs, err := parseValues(args)
			if err != nil {
				return err
			}
			cargs, err := parseValues(ctorArgs)
			if err != nil {
				return err
			}

			client, cleanup, err := connect(configPath, libPath, assembly, bridgeType, useWasm)
			if err != nil {
				return err
			}
			defer cleanup()

			return runCall(client, assembly, typeName, method, cargs, methodArgs)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Runtime configuration file (required)")
	cmd.Flags().StringVar(&libPath, "hostlib", "", "Host library path (default: locate)")
	cmd.Flags().StringVar(&assembly, "assembly", "", "Bridge assembly path (required)")
	cmd.Flags().StringVar(&typeName, "type", "", "Type to instantiate (required)")
	cmd.Flags().StringVar(&method, "method", "", "Method to invoke (required)")
	cmd.Flags().StringArrayVar(&ctorArgs, "ctor-arg", nil, "Constructor argument (repeatable)")
	cmd.Flags().StringVar(&bridgeType, "bridge-type", "HostBridge.Dispatcher", "Type exporting the boundary entry points")
	cmd.Flags().BoolVar(&useWasm, "wasm", false, "Treat the assembly as a wasm guest module")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("assembly")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("method")
	return cmd
}

// connect builds a client over the selected backend and returns it with
// a cleanup closure that tears the backend down.
func connect(configPath, libPath, assembly, bridgeType string, useWasm bool) (*runtime.Client, func(), error) {
	if useWasm {
		wr, err := wasmhost.New(context.Background())
		if err != nil {
			return nil, nil, err
		}
		rt, err := wr.InitRuntime(configPath)
		if err != nil {
			wr.Close()
			return nil, nil, err
		}
		t, err := wr.BindTransport(rt, assembly)
		if err != nil {
			wr.Close()
			return nil, nil, err
		}
		return runtime.NewClient(t), func() { wr.Close() }, nil
	}

	if libPath == "" {
		var err error
		if roots := toolConf.roots(); len(roots) > 0 {
			libPath, err = locator.LocateIn(roots...)
		} else {
			libPath, err = locator.Locate()
		}
		if err != nil {
			return nil, nil, err
		}
	}

	h, err := runtime.Open(libPath)
	if err != nil {
		return nil, nil, err
	}
	ctx, err := h.Initialize(configPath)
	if err != nil {
		h.Close()
		return nil, nil, err
	}
	client, err := runtime.BindClient(ctx, assembly, bridgeType)
	if err != nil {
		h.Close()
		return nil, nil, err
	}
	return client, func() { h.Close() }, nil
}

func runCall(client *runtime.Client, assembly, typeName, method string, ctorArgs, methodArgs []codec.Value) error {
	s := styles()

	h, err := client.CreateInstance(assembly, typeName, ctorArgs...)
	if err != nil {
		return err
	}
	fmt.Println(s.Label.Render("instance: ") + s.Value.Render(strconv.Itoa(int(h))))

	result, hasResult, err := client.Invoke(h, method, methodArgs...)
	if err != nil {
		if rerr := client.Release(h); rerr != nil {
			fmt.Println(s.Warning.Render("warning: ") + rerr.Error())
		}
		return err
	}
	if hasResult {
		fmt.Println(s.Success.Render("ok") + s.Label.Render(" result handle ") + s.Value.Render(strconv.Itoa(int(result))))
		if rerr := client.Release(result); rerr != nil {
			fmt.Println(s.Warning.Render("warning: ") + rerr.Error())
		}
	} else {
		fmt.Println(s.Success.Render("ok"))
	}
	return client.Release(h)
}

// parseValues turns CLI literals into boundary values.
func parseValues(raw []string) ([]codec.Value, error) {
	vals := make([]codec.Value, 0, len(raw))
	for _, r := range raw {
		v, err := parseValue(r)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func parseValue(raw string) (codec.Value, error) {
	if raw == "null" {
		return nil, nil
	}

	kind, rest, ok := strings.Cut(raw, ":")
	if !ok {
		// Bare literal: numeric, boolean, else string.
		if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
			return int32(n), nil
		}
		if b, err := strconv.ParseBool(raw); err == nil {
			return b, nil
		}
		return raw, nil
	}

	switch kind {
	case "i32":
		n, err := strconv.ParseInt(rest, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad i32 literal %q: %w", rest, err)
		}
		return int32(n), nil
	case "i64":
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad i64 literal %q: %w", rest, err)
		}
		return n, nil
	case "f64":
		f, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return nil, fmt.Errorf("bad f64 literal %q: %w", rest, err)
		}
		return f, nil
	case "bool":
		b, err := strconv.ParseBool(rest)
		if err != nil {
			return nil, fmt.Errorf("bad bool literal %q: %w", rest, err)
		}
		return b, nil
	case "str":
		return rest, nil
	case "handle":
		n, err := strconv.ParseInt(rest, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad handle literal %q: %w", rest, err)
		}
		return clrhost.Handle(n), nil
	default:
		// Unprefixed strings may legitimately contain a colon.
		return raw, nil
	}
}
