package main

import (
	"context"

	"github.com/stwalsh4118/publicrecords/cmd/ledger/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
