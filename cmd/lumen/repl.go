package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lumenforge/lumen/values"
	"github.com/lumenforge/lumen/vm"
)

// runREPL is the interactive shell the teacher's "-a" flag enters
// (cmd/hey/main.go's runInteractiveShell), generalized from "read a
// line of PHP, compile it, run it" to "read a cell name plus a JSON
// argument array, call it against the loaded module" -- the parser
// that would let the shell accept arbitrary source is out of scope
// (spec section 1), so the shell's unit of interaction is a cell call
// against an already-compiled module, same as `run`.
func runREPL(modulePath, configPath string) error {
	v, err := newConfiguredVM(configPath)
	if err != nil {
		return err
	}

	if modulePath != "" {
		if err := loadModuleInto(v, modulePath); err != nil {
			fmt.Println(err)
		}
	}

	rl, err := readline.New("lumen> ")
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close()

	fmt.Println("lumen interactive shell. Type :load <module.json> to load a module,")
	fmt.Println("<cell> [json-args] to call a cell, :quit to exit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":exit" || line == "exit" || line == "quit" {
			break
		}
		if rest, ok := strings.CutPrefix(line, ":load "); ok {
			if err := loadModuleInto(v, strings.TrimSpace(rest)); err != nil {
				fmt.Println(err)
			}
			continue
		}

		replCall(v, line)
	}
	return nil
}

func loadModuleInto(v *vm.VM, path string) error {
	m, err := loadModuleFile(path)
	if err != nil {
		return err
	}
	return v.Load(m)
}

// replCall parses "<cell> [jsonArgs]" and executes it, printing the
// result or error the same way `run` does.
func replCall(v *vm.VM, line string) {
	cellName := line
	argsJSON := "[]"
	if i := strings.IndexByte(line, ' '); i >= 0 {
		cellName = line[:i]
		argsJSON = strings.TrimSpace(line[i+1:])
	}

	args, err := decodeArgsJSON(argsJSON)
	if err != nil {
		fmt.Printf("argument error: %v\n", err)
		return
	}

	result, err := v.Execute(cellName, args)
	if err != nil {
		fmt.Printf("runtime error: %v\n", err)
		return
	}
	if !result.IsNull() {
		fmt.Println(values.Display(result, v.Strings))
	}
}
