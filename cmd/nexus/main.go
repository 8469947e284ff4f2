// Command nexus serves and inspects the back-office data store.
package main

import "github.com/mesh-intelligence/nexus/internal/cli"

func main() {
	cli.Execute()
}
