// Command filtersql compiles filter trees into parameterized SQL and serves
// them as a search tool.
//
// Usage:
//
//	filtersql serve --migrate
//	filtersql compile query.json
//	filtersql repl
package main

import (
	"context"
	"os"

	"github.com/bawdo/filtersql/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
