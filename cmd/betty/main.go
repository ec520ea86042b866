// Package main implements the betty CLI for manual operations against the
// bettyd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the bettyd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "betty",
	Short: "CLI for the bettyd knowledge base server",
	Long: `betty is a command-line interface for the bettyd HTTP server.
It provides commands for asking questions, searching the knowledge base,
ingesting documents, and checking server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8484", "bettyd server URL")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(healthCmd)
}

// askCmd sends a chat question
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask betty a question",
	Long: `Ask betty a question. The answer is grounded in the knowledge base
and cites its sources.

Examples:
  # Focused question
  betty ask "Who owns the change control process?"

  # Comprehensive question (triggers multi-pass retrieval)
  betty ask "Compare projects across all capabilities"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// searchCmd searches the knowledge base directly
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long: `Search the knowledge base without calling the language model.

Examples:
  # Search with the configured defaults
  betty search "requirements traceability"

  # Limit the number of results
  betty search --limit 5 "BOM migration"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// ingestCmd uploads a document
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document into the knowledge base",
	Long: `Ingest a text document into the knowledge base. The file is chunked
and embedded server-side.

Examples:
  # Ingest a markdown file
  betty ingest docs/portfolio.md

  # Ingest from stdin under an explicit name
  cat notes.txt | betty ingest --name notes.txt -`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check bettyd server health",
	RunE:  runHealth,
}

var (
	searchLimit int
	ingestName  string
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum number of results (0 uses the server default)")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "source filename recorded for the document (required with stdin)")
}

// ChatRequest matches internal/server ChatRequest
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse matches internal/server ChatResponse
type ChatResponse struct {
	Response  string   `json:"response"`
	Sources   []string `json:"sources,omitempty"`
	MultiPass bool     `json:"multi_pass"`
	Model     string   `json:"model"`
}

// SearchRequest matches internal/server SearchRequest
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse matches internal/server SearchResponse
type SearchResponse struct {
	Results []struct {
		Content  string  `json:"content"`
		Filename string  `json:"filename,omitempty"`
		Score    float32 `json:"score"`
	} `json:"results"`
	Sources   []string `json:"sources,omitempty"`
	MultiPass bool     `json:"multi_pass"`
}

// DocumentRequest matches internal/server DocumentRequest
type DocumentRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// DocumentResponse matches internal/server DocumentResponse
type DocumentResponse struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// HealthResponse matches internal/server HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

func postJSON(path string, reqBody, respBody interface{}, timeout time.Duration) error {
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := serverURL + path
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// runAsk handles the ask command
func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	var resp ChatResponse
	// Multi-pass turns issue several searches plus an LLM call; allow time.
	if err := postJSON("/api/v1/chat", ChatRequest{Message: question}, &resp, 120*time.Second); err != nil {
		return err
	}

	fmt.Println(resp.Response)
	if resp.MultiPass {
		fmt.Fprintf(os.Stderr, "\n[betty] comprehensive multi-pass retrieval, model %s\n", resp.Model)
	}
	return nil
}

// runSearch handles the search command
func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	var resp SearchResponse
	if err := postJSON("/api/v1/search", SearchRequest{Query: query, Limit: searchLimit}, &resp, 30*time.Second); err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range resp.Results {
		name := r.Filename
		if name == "" {
			name = "unknown"
		}
		fmt.Printf("%d. %s (score %.3f)\n%s\n\n", i+1, name, r.Score, r.Content)
	}
	if resp.MultiPass {
		fmt.Fprintf(os.Stderr, "[betty] comprehensive multi-pass retrieval\n")
	}
	return nil
}

// runIngest handles the ingest command
func runIngest(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error
	filename := ingestName

	if args[0] == "-" {
		if filename == "" {
			return fmt.Errorf("--name is required when reading from stdin")
		}
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		if filename == "" {
			filename = filepath.Base(args[0])
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no content to ingest")
	}

	var resp DocumentResponse
	req := DocumentRequest{Filename: filename, Content: string(content)}
	if err := postJSON("/api/v1/documents", req, &resp, 120*time.Second); err != nil {
		return err
	}

	fmt.Printf("Ingested %s (%d chunks)\n", resp.Filename, resp.Chunks)
	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := serverURL + "/health"

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("bettyd is %s (%s)\n", healthResp.Status, serverURL)
	return nil
}
