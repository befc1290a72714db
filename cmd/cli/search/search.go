package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/workfree/search-briefing/cmd/cli/config"
	"github.com/workfree/search-briefing/cmd/cli/output"
)

// ==========================
// Init Search
// ==========================
func InitSearch(rootCmd *cobra.Command) {

	var engines []string
	var maxResults int

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Run a one-shot search across engines",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			payload := map[string]any{"keyword": args[0]}
			if len(engines) > 0 {
				payload["engines"] = engines
			}
			if maxResults > 0 {
				payload["max_results"] = maxResults
			}
			body, _ := json.Marshal(payload)

			req, err := http.NewRequest("POST", config.APIURL()+"/api/search", bytes.NewBuffer(body))
			if err != nil {
				fmt.Println(err)
				return
			}
			req.Header.Set("X-API-Token", config.APIToken())
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var out any
				json.NewDecoder(resp.Body).Decode(&out)
				b, _ := json.MarshalIndent(out, "", "  ")
				fmt.Println(string(b))
				return
			}

			var result struct {
				Keyword      string `json:"keyword"`
				TotalResults int    `json:"total_results"`
				Results      []struct {
					Rank     int    `json:"rank"`
					Provider string `json:"provider"`
					Title    string `json:"title"`
					URL      string `json:"url"`
				} `json:"results"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				fmt.Println(err)
				return
			}

			rows := make([][]interface{}, 0, len(result.Results))
			for _, r := range result.Results {
				rows = append(rows, []interface{}{r.Rank, r.Provider, r.Title, r.URL})
			}
			output.RenderTable([]string{"Rank", "Provider", "Title", "URL"}, rows)
			fmt.Printf("Total: %d\n", result.TotalResults)
		},
	}

	cmd.Flags().StringSliceVar(&engines, "engine", nil, "search engine (repeatable)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "results per engine")

	rootCmd.AddCommand(cmd)
}
