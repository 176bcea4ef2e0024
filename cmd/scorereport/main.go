// Command scorereport scores a single trading report from a file or stdin and prints
// the result as JSON. It runs the same pipeline as the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"scholar-score/config"
	"scholar-score/internal/app"
	"scholar-score/observability"

	"github.com/joho/godotenv"
)

func main() {
	format := flag.String("format", "auto", "input format: auto, json, text or base64")
	repair := flag.Bool("repair", false, "attempt to repair malformed JSON input")
	pretty := flag.Bool("pretty", true, "indent the JSON output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: scorereport [flags] [file|-]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()
	observability.InitLogger(false)

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("failed to load configuration", "error", err)
	}
	observability.InitLoggerWithLevel(false, observability.ParseLevel(cfg.Log.Level))

	data, err := readInput(flag.Arg(0))
	if err != nil {
		observability.Fatal("failed to read report", "error", err)
	}

	req, err := buildRequest(data, *format, *repair)
	if err != nil {
		observability.Fatal("invalid input", "error", err)
	}

	ctx := context.Background()
	application := app.New(cfg, app.NewTextChain(ctx, cfg))

	result, err := application.Score(ctx, req)
	if err != nil {
		observability.Fatal("scoring failed", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		observability.Fatal("failed to write result", "error", err)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// buildRequest turns raw input into a score request. In auto mode input that starts
// like a JSON document is scored as a broker export and anything else as report text.
func buildRequest(data []byte, format string, repair bool) (app.ScoreRequest, error) {
	trimmed := strings.TrimSpace(string(data))

	switch format {
	case "json":
		return jsonRequest(trimmed, repair)
	case "text":
		return app.ScoreRequest{PDFText: trimmed}, nil
	case "base64":
		return app.ScoreRequest{PDFBase64: trimmed}, nil
	case "auto":
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return jsonRequest(trimmed, repair)
		}
		return app.ScoreRequest{PDFText: trimmed}, nil
	default:
		return app.ScoreRequest{}, fmt.Errorf("unknown format %q", format)
	}
}

// jsonRequest passes the document as a JSON string so malformed input still reaches
// the repair step.
func jsonRequest(doc string, repair bool) (app.ScoreRequest, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return app.ScoreRequest{}, err
	}
	return app.ScoreRequest{JSONData: encoded, Repair: repair}, nil
}
