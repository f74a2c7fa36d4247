// runloop-info prints the execution backend selection for this host as
// indented JSON. Advisory notices go to stderr.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/seantiz/runloop/internal/loop"
	"github.com/seantiz/runloop/internal/selector"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sel := selector.New(loop.NewRuntime(), logger)

	out, err := json.MarshalIndent(sel.Describe(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode selection: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
