package schedules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workfree/search-briefing/cmd/cli/config"
	"github.com/workfree/search-briefing/cmd/cli/output"
)

// ==========================
// Init Schedules
// ==========================
func InitSchedules(rootCmd *cobra.Command) {

	schedulesCmd := &cobra.Command{
		Use:   "schedules",
		Short: "Manage briefing schedules",
	}

	schedulesCmd.AddCommand(
		registerScheduleCmd(),
		getScheduleCmd(),
		removeScheduleCmd(),
		pauseScheduleCmd(),
		resumeScheduleCmd(),
		listSchedulesCmd(),
	)

	rootCmd.AddCommand(schedulesCmd)
}

func newRequest(method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Token", config.APIToken())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func printJSON(resp *http.Response) {
	var out any
	json.NewDecoder(resp.Body).Decode(&out)
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

// ==========================
// REGISTER
// ==========================
func registerScheduleCmd() *cobra.Command {

	var userID string
	var email string
	var keywords []string
	var timeOfDay string
	var weekdays []int
	var maxResults int
	var providers []string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register or replace a briefing schedule",
		Run: func(cmd *cobra.Command, args []string) {

			payload := map[string]any{
				"user_id":  userID,
				"email":    email,
				"keywords": keywords,
				"time":     timeOfDay,
				"weekdays": weekdays,
			}
			if maxResults > 0 {
				payload["max_results"] = maxResults
			}
			if len(providers) > 0 {
				payload["providers"] = providers
			}

			body, _ := json.Marshal(payload)

			req, err := newRequest("POST", "/schedule", body)
			if err != nil {
				fmt.Println(err)
				return
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&email, "email", "", "recipient email (required)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "search keyword (repeatable)")
	cmd.Flags().StringVar(&timeOfDay, "time", "09:00", "fire time, HH:MM")
	cmd.Flags().IntSliceVar(&weekdays, "weekday", nil, "weekday, 0=Mon..6=Sun (repeatable)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "results per keyword per engine")
	cmd.Flags().StringSliceVar(&providers, "provider", nil, "search provider (repeatable)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("email")

	return cmd
}

// ==========================
// GET
// ==========================
func getScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show one user's schedule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			req, err := newRequest("GET", "/schedule/"+args[0], nil)
			if err != nil {
				fmt.Println(err)
				return
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				printJSON(resp)
				return
			}

			var s struct {
				JobID    string   `json:"job_id"`
				UserID   string   `json:"user_id"`
				Email    string   `json:"email"`
				Keywords []string `json:"keywords"`
				Trigger  string   `json:"trigger"`
				Paused   bool     `json:"paused"`
				NextRun  string   `json:"next_run"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
				fmt.Println(err)
				return
			}

			output.RenderKeyValues([][2]interface{}{
				{"Job", s.JobID},
				{"User", s.UserID},
				{"Email", s.Email},
				{"Keywords", strings.Join(s.Keywords, ", ")},
				{"Trigger", s.Trigger},
				{"Paused", s.Paused},
				{"Next run", s.NextRun},
			})
		},
	}
}

// ==========================
// REMOVE
// ==========================
func removeScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id>",
		Short: "Remove a schedule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			req, err := newRequest("DELETE", "/schedule/"+args[0], nil)
			if err != nil {
				fmt.Println(err)
				return
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			printJSON(resp)
		},
	}
}

// ==========================
// PAUSE / RESUME
// ==========================
func pauseScheduleCmd() *cobra.Command {
	return setPausedCmd("pause", "Pause a schedule without removing it")
}

func resumeScheduleCmd() *cobra.Command {
	return setPausedCmd("resume", "Resume a paused schedule")
}

func setPausedCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			req, err := newRequest("POST", "/schedule/"+args[0]+"/"+action, nil)
			if err != nil {
				fmt.Println(err)
				return
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			printJSON(resp)
		},
	}
}

// ==========================
// LIST (admin)
// ==========================
func listSchedulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all schedules (requires BRIEFING_ADMIN_TOKEN)",
		Run: func(cmd *cobra.Command, args []string) {

			req, err := newRequest("GET", "/schedules", nil)
			if err != nil {
				fmt.Println(err)
				return
			}
			req.Header.Set("X-Admin-Token", config.AdminToken())

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				printJSON(resp)
				return
			}

			var out struct {
				Items []struct {
					JobID   string `json:"job_id"`
					UserID  string `json:"user_id"`
					Email   string `json:"email"`
					Trigger string `json:"trigger"`
					Paused  bool   `json:"paused"`
					NextRun string `json:"next_run"`
				} `json:"items"`
				Total int `json:"total"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				fmt.Println(err)
				return
			}

			rows := make([][]interface{}, 0, len(out.Items))
			for _, it := range out.Items {
				rows = append(rows, []interface{}{
					it.JobID, it.UserID, it.Email, it.Trigger, it.Paused, it.NextRun,
				})
			}
			output.RenderTable(
				[]string{"Job", "User", "Email", "Trigger", "Paused", "Next run"},
				rows,
			)
			fmt.Printf("Total: %d\n", out.Total)
		},
	}
}
