// Command opscore runs the operations server.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/opscorehq/opscore/cmd/opscore/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "opscore: %v\n", err)

		var exitErr *app.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
