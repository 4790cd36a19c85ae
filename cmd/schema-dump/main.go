// Package main prints the case-record form schema as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"anakcore/internal/form"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	indent := true
	for _, arg := range args[1:] {
		switch arg {
		case "-compact":
			indent = false
		case "-h", "-help", "--help":
			fmt.Fprintln(stderr, "usage: schema-dump [-compact]")
			return 0
		default:
			fmt.Fprintf(stderr, "schema-dump: unknown flag %s\n", arg)
			return 2
		}
	}
	enc := json.NewEncoder(stdout)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(form.CaseRecordSchema()); err != nil {
		fmt.Fprintf(stderr, "schema-dump: %v\n", err)
		return 1
	}
	return 0
}
