package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lumenforge/lumen/builtins"
	"github.com/lumenforge/lumen/config"
	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/toolhost"
	"github.com/lumenforge/lumen/values"
	"github.com/lumenforge/lumen/vm"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Load a compiled module and execute one of its cells",
	ArgsUsage: "<module.json> [cell]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a lumen.yaml host configuration file",
		},
		&cli.StringFlag{
			Name:  "args",
			Usage: "JSON array of arguments passed to the cell",
			Value: "[]",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("run: a module path is required")
		}
		cellName := cmd.Args().Get(1)
		if cellName == "" {
			cellName = "main"
		}

		m, err := loadModuleFile(path)
		if err != nil {
			return err
		}

		v, err := newConfiguredVM(cmd.String("config"))
		if err != nil {
			return err
		}
		if err := v.Load(m); err != nil {
			return fmt.Errorf("run: loading module: %w", err)
		}

		args, err := decodeArgsJSON(cmd.String("args"))
		if err != nil {
			return fmt.Errorf("run: decoding --args: %w", err)
		}

		result, err := v.Execute(cellName, args)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if !result.IsNull() {
			fmt.Println(values.Display(result, v.Strings))
		}
		return nil
	},
}

// newConfiguredVM builds a VM with the builtin catalogue and an empty
// tool dispatcher wired in, then applies a host configuration file if
// one was given -- the CLI-level equivalent of the teacher's
// runtime2.Bootstrap()+vm.NewVirtualMachine() pairing.
func newConfiguredVM(configPath string) (*vm.VM, error) {
	v := vm.New()
	v.SetBuiltins(builtins.NewRegistry(v, v.Strings))
	v.ToolDispatcher = toolhost.NewProviderRegistry()

	if configPath == "" {
		return v, nil
	}
	host, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := host.ApplyTo(v); err != nil {
		return nil, err
	}
	return v, nil
}

func loadModuleFile(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("run: opening %s: %w", path, err)
	}
	defer f.Close()

	m, err := ir.DecodeModule(f)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return m, nil
}

// decodeArgsJSON decodes a JSON array into VM argument values using
// the same scalar/container mapping vm/process.go's jsonToValue uses
// for process.config addon payloads: null/bool/number/string/array/
// object, numbers that round-trip through int64 become Int.
func decodeArgsJSON(raw string) ([]values.Value, error) {
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	out := make([]values.Value, len(items))
	for i, item := range items {
		out[i] = jsonToValue(item)
	}
	return out, nil
}

func jsonToValue(raw interface{}) values.Value {
	switch t := raw.(type) {
	case nil:
		return values.Null()
	case bool:
		return values.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return values.Int(int64(t))
		}
		return values.Float(t)
	case string:
		return values.Str(t)
	case []interface{}:
		items := make([]values.Value, len(t))
		for i, e := range t {
			items[i] = jsonToValue(e)
		}
		return values.NewList(items)
	case map[string]interface{}:
		v := values.NewMapValue()
		mb := v.Data.(*values.MapBox)
		for k, e := range t {
			mb.Set(k, jsonToValue(e))
		}
		return v
	default:
		return values.Null()
	}
}
