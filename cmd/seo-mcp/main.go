package main

import (
	"seo-analytics-mcp/internal/cli"
)

// executeCmd is replaced in tests
var executeCmd = cli.Execute

func main() {
	executeCmd()
}
