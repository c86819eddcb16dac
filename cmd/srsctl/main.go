// Command srsctl is the operator CLI for wordwise-srs: it runs migrations,
// issues tokens, exports learner data, triggers reminders and prints
// scheduling traces.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
