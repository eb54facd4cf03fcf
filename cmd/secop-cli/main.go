// secop-cli is an interactive client for exploring a SEC node.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/SampleEnvironment/frappy/client"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/secop"
)

const usage = `Commands:
  describe                 show the node structure
  read <mod>[:<param>]     read a value
  change <mod>[:<param>] <json-value>
                           change a parameter
  do <mod>:<cmd> [<json-arg>]
                           execute a command
  activate [<mod>[:<param>]]
                           enable async updates
  deactivate [<mod>[:<param>]]
                           disable async updates
  ping                     check the connection
  help                     show this help
  quit                     exit
`

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: secop-cli <host:port>")
		os.Exit(2)
	}
	addr := flag.Arg(0)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          addr + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "secop-cli: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	c, err := client.Connect(addr, client.Options{
		Logger: logger.NewSlog(logger.WarnLevel, false),
		OnUpdate: func(msg *secop.Message) {
			// updates print through readline so the prompt stays intact
			data, _ := json.Marshal(msg.Data)
			fmt.Fprintf(rl.Stdout(), "%s %s %s\n", msg.Action, msg.Specifier, data)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "secop-cli: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	if ident, err := c.Ident(); err == nil {
		fmt.Fprintln(rl.Stdout(), ident)
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		runCommand(rl, c, line)
	}
}

func runCommand(rl *readline.Instance, c *client.Client, line string) {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	out := rl.Stdout()
	var (
		result any
		err    error
	)
	switch cmd {
	case "help", "?":
		fmt.Fprint(out, usage)
		return
	case "describe":
		var desc map[string]any
		if desc, err = c.Describe(); err == nil {
			printDescription(out, desc)
			return
		}
	case "read":
		if len(args) != 1 {
			err = fmt.Errorf("usage: read <mod>[:<param>]")
			break
		}
		result, err = c.Read(args[0])
	case "change":
		if len(args) != 2 {
			err = fmt.Errorf("usage: change <mod>[:<param>] <json-value>")
			break
		}
		var value any
		if err = json.Unmarshal([]byte(args[1]), &value); err != nil {
			err = fmt.Errorf("invalid value %q: %w", args[1], err)
			break
		}
		result, err = c.Change(args[0], value)
	case "do":
		if len(args) < 1 {
			err = fmt.Errorf("usage: do <mod>:<cmd> [<json-arg>]")
			break
		}
		var arg any
		if len(args) > 1 {
			if err = json.Unmarshal([]byte(args[1]), &arg); err != nil {
				err = fmt.Errorf("invalid argument %q: %w", args[1], err)
				break
			}
		}
		result, err = c.Do(args[0], arg)
	case "activate":
		err = c.Activate(strings.Join(args, ""))
	case "deactivate":
		err = c.Deactivate(strings.Join(args, ""))
	case "ping":
		err = c.Ping()
	default:
		err = fmt.Errorf("unknown command %q, try help", cmd)
	}

	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	if result != nil {
		data, _ := json.Marshal(result)
		fmt.Fprintf(out, "%s\n", data)
	} else {
		fmt.Fprintln(out, "ok")
	}
}

// printDescription renders the structure report as a compact module and
// accessible listing.
func printDescription(out io.Writer, desc map[string]any) {
	fmt.Fprintf(out, "equipment_id: %v\n", desc["equipment_id"])
	if d, ok := desc["description"].(string); ok && d != "" {
		fmt.Fprintf(out, "description:  %s\n", d)
	}

	modules, ok := desc["modules"].(map[string]any)
	if !ok {
		return
	}
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(out, "module %s\n", name)
		mod, ok := modules[name].(map[string]any)
		if !ok {
			continue
		}
		if d, ok := mod["description"].(string); ok && d != "" {
			fmt.Fprintf(out, "  %s\n", d)
		}
		accessibles, ok := mod["accessibles"].(map[string]any)
		if !ok {
			continue
		}
		anames := make([]string, 0, len(accessibles))
		for a := range accessibles {
			anames = append(anames, a)
		}
		sort.Strings(anames)
		for _, a := range anames {
			info, _ := accessibles[a].(map[string]any)
			kind := "param"
			if dt, ok := info["datainfo"].(map[string]any); ok {
				if dt["type"] == "command" {
					kind = "cmd"
				}
			}
			fmt.Fprintf(out, "  %-6s %s\n", kind, a)
		}
	}
}
