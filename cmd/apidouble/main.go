// apidouble records, replays, and transforms HTTP traffic against a mock
// upstream.
package main

import "github.com/egehanasal/apidouble/pkg/cli"

func main() {
	cli.Execute()
}
