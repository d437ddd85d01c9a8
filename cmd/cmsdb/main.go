// Command cmsdb manages the CMS database: it creates and drops the schema,
// checks its version, and dumps contest data as JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cmsdb:", err)
		os.Exit(1)
	}
}
