package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("SPACE_RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8547/rpc"
}

type globals struct {
	endpoint string
	token    string
}

func applyGlobalFlags(args []string) (globals, []string, error) {
	g := globals{endpoint: defaultRPCEndpoint(), token: strings.TrimSpace(os.Getenv("SPACE_RPC_TOKEN"))}
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc" || arg == "--token":
			if i+1 >= len(args) {
				return g, nil, fmt.Errorf("missing value for %s", arg)
			}
			if arg == "--rpc" {
				g.endpoint = args[i+1]
			} else {
				g.token = args[i+1]
			}
			i++
		case strings.HasPrefix(arg, "--rpc="):
			g.endpoint = strings.TrimPrefix(arg, "--rpc=")
		case strings.HasPrefix(arg, "--token="):
			g.token = strings.TrimPrefix(arg, "--token=")
		default:
			out = append(out, arg)
		}
	}
	return g, out, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	g, args, err := applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) < 1 {
		printUsage(stdout)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", args[0])
		printUsage(stderr)
		return 1
	}
	method, params, err := cmd.build(args[1:])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Usage: space-cli %s %s\n", args[0], cmd.usage)
		return 1
	}
	client := newClient(g.endpoint, g.token)
	result, err := client.call(method, params)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(result))
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: space-cli [--rpc URL] [--token JWT] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandNames() {
		fmt.Fprintf(w, "  %-22s %s\n", name, commands[name].usage)
	}
}
