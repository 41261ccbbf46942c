package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"funbatch/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		if services.Fatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
