package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/server"
	"github.com/aisavvy/aisavvy/internal/types"
)

var askServerURL string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question against a running aisavvy server",
	Long: `Send a single question to a running aisavvy server and print the answer.

Examples:
  aisavvy ask "How many employees are there?"
  aisavvy ask --server http://db-assistant:8000 "Who manages Engineering?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askServerURL, "server", "http://localhost:8000", "Base URL of the aisavvy server")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	payload, err := json.Marshal(server.QueryRequest{
		History: []types.Turn{{Role: types.RoleUser, Text: question}},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to encode request")
	}

	wait := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	wait.Suffix = " thinking..."
	wait.Start()

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		askServerURL+"/query", bytes.NewReader(payload))
	if err != nil {
		wait.Stop()
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)

	wait.Stop()

	if err != nil {
		return errors.Wrap(err, errors.ErrTypeNetwork, "could not reach the aisavvy server").
			WithSuggestion("Start the server with: aisavvy serve")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to read response")
	}

	return printAnswer(cmd, resp.StatusCode, body)
}

// printAnswer renders each response variant for the terminal
func printAnswer(cmd *cobra.Command, status int, body []byte) error {
	var response types.Response
	if err := json.Unmarshal(body, &response); err != nil || response.Kind == "" {
		var apiErr server.ErrorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error != "" {
			return errors.Newf(errors.ErrTypeInternal, "API error (%d): %s", status, apiErr.Error)
		}

		return errors.Newf(errors.ErrTypeInternal, "unexpected API response (%d)", status)
	}

	out := cmd.OutOrStdout()

	switch response.Kind {
	case types.KindOffTopic, types.KindClarification:
		fmt.Fprintln(out, response.Message)
	case types.KindNoResults:
		fmt.Fprintln(out, response.Message)
		fmt.Fprintf(out, "\nSQL:\n%s\n", response.SQLQuery)
	case types.KindError:
		fmt.Fprintf(out, "Query failed: %s\n", response.Error)

		if response.SuggestedFix != "" {
			fmt.Fprintf(out, "\nSuggested fix:\n%s\n", response.SuggestedFix)
		}
	case types.KindSuccess:
		fmt.Fprintln(out, response.Summary)

		rows, err := json.MarshalIndent(response.Rows, "", "  ")
		if err == nil {
			fmt.Fprintf(out, "\n%s\n", rows)
		}

		fmt.Fprintf(out, "\nSQL:\n%s\n", response.SQLQuery)

		if response.Chart != nil && response.Chart.ChartNeeded {
			fmt.Fprintf(out, "\nSuggested chart: %s of %s by %s\n",
				response.Chart.ChartType, response.Chart.YColumn, response.Chart.XColumn)
		}
	}

	return nil
}
