// The main package for the tickertape executable.
package main

import (
	"github.com/tamaghna-docket/tickertape/cmd"
)

func main() {
	cmd.Execute()
}
