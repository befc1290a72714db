package main

import (
	"fmt"
	"os"

	"github.com/workfree/search-briefing/cmd/cli/root"
	"github.com/workfree/search-briefing/cmd/cli/schedules"
	"github.com/workfree/search-briefing/cmd/cli/search"
)

func main() {
	rootCmd := root.GetRoot()
	schedules.InitSchedules(rootCmd)
	search.InitSearch(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
