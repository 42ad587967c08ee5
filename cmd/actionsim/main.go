// Command actionsim serves simulated action servers over HTTP so task
// scenarios can run without a robot.
package main

import (
	"context"
	"os"
)

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
