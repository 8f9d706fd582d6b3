package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendscan/internal/app"
	"github.com/dvloznov/spendscan/internal/config"
	"github.com/dvloznov/spendscan/internal/extraction"
	infraBQ "github.com/dvloznov/spendscan/internal/infra/bigquery"
	"github.com/dvloznov/spendscan/internal/logger"
	"github.com/dvloznov/spendscan/internal/notionsync"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze()
	case "extract":
		runExtract()
	case "upload":
		runUpload()
	case "export-notion":
		runExportNotion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("spendscan CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze        Analyze transactions from JSON, a statement PDF, GCS or BigQuery")
	fmt.Println("  extract        Extract transactions from a statement PDF without analyzing them")
	fmt.Println("  upload         Upload a PDF file to GCS")
	fmt.Println("  export-notion  Export a saved analysis to Notion")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup loads configuration and returns a context carrying the configured logger.
func setup(envFile string) (context.Context, *config.Config, zerolog.Logger) {
	cfg, err := config.Load(envFile)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)
	return logger.WithContext(context.Background(), log), cfg, log
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	envFile := fs.String("env", ".env", "Path to an optional .env file")
	input := fs.String("input", "", "JSON file with transactions (array or {\"transactions\": [...]})")
	pdfPath := fs.String("pdf", "", "Path to a local statement PDF")
	gcsURI := fs.String("gcs-uri", "", "GCS URI of a statement PDF")
	bqStart := fs.String("bq-start", "", "Analyze BigQuery transactions from this date (YYYY-MM-DD)")
	bqEnd := fs.String("bq-end", "", "Analyze BigQuery transactions up to this date (YYYY-MM-DD)")
	out := fs.String("out", "", "Write the result to this file instead of stdout")
	offline := fs.Bool("offline", false, "Do not call Gemini")
	toNotion := fs.Bool("notion", false, "Export the result to the configured Notion databases")
	fs.Parse(os.Args[2:])

	sources := 0
	for _, s := range []string{*input, *pdfPath, *gcsURI, *bqStart} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		fmt.Fprintln(os.Stderr, "Exactly one of -input, -pdf, -gcs-uri or -bq-start is required")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cfg, log := setup(*envFile)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	svc, err := app.NewServices(ctx, cfg, app.Options{Offline: *offline})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create services")
	}

	var result *pipeline.AnalysisResult
	switch {
	case *input != "":
		data, err := os.ReadFile(*input)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read input")
		}
		txs, err := decodeTransactions(data)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to decode transactions")
		}
		result, err = svc.Analyzer.Analyze(ctx, txs)
		if err != nil {
			log.Fatal().Err(err).Msg("Analysis failed")
		}

	case *pdfPath != "":
		data, err := os.ReadFile(*pdfPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read PDF")
		}
		result, err = svc.Analyzer.AnalyzePDF(ctx, data)
		if err != nil {
			log.Fatal().Err(err).Msg("Analysis failed")
		}

	case *gcsURI != "":
		var resultURI string
		result, resultURI, err = svc.Analyzer.AnalyzeGCS(ctx, *gcsURI)
		if err != nil {
			log.Fatal().Err(err).Msg("Analysis failed")
		}
		if resultURI != "" {
			log.Info().Str("result_uri", resultURI).Msg("Result stored")
		}

	default:
		start, end, err := parseDateRange(*bqStart, *bqEnd, time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid date range")
		}
		src, err := infraBQ.NewTransactionSource(ctx, cfg.GCPProject, cfg.BQDataset, cfg.BQTable)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery source")
		}
		defer src.Close()

		txs, err := src.RawTransactions(ctx, start, end)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load transactions")
		}
		result, err = svc.Analyzer.Analyze(ctx, txs)
		if err != nil {
			log.Fatal().Err(err).Msg("Analysis failed")
		}
	}

	if err := writeJSON(*out, result); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}

	if *toNotion {
		exportToNotion(ctx, cfg, result, false)
	}
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	envFile := fs.String("env", ".env", "Path to an optional .env file")
	pdfPath := fs.String("pdf", "", "Path to a local statement PDF")
	gcsURI := fs.String("gcs-uri", "", "GCS URI of a statement PDF")
	out := fs.String("out", "", "Write the result to this file instead of stdout")
	offline := fs.Bool("offline", false, "Use the local text parser only")
	fs.Parse(os.Args[2:])

	if (*pdfPath == "") == (*gcsURI == "") {
		fmt.Fprintln(os.Stderr, "Exactly one of -pdf or -gcs-uri is required")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cfg, log := setup(*envFile)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	svc, err := app.NewServices(ctx, cfg, app.Options{Offline: *offline})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create services")
	}

	var data []byte
	if *pdfPath != "" {
		data, err = os.ReadFile(*pdfPath)
	} else {
		data, err = svc.Storage.FetchFromGCS(ctx, *gcsURI)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statement")
	}

	stmt, err := svc.Extractor.Extract(ctx, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	validation := extraction.ValidateStatement(stmt)
	if !validation.IsValid {
		log.Warn().Strs("warnings", validation.Warnings).Msg("Statement totals do not reconcile")
	}

	payload := struct {
		Statement  *extraction.ParsedStatement `json:"statement"`
		Validation extraction.ValidationResult `json:"validation"`
	}{stmt, validation}
	if err := writeJSON(*out, payload); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	envFile := fs.String("env", ".env", "Path to an optional .env file")
	bucketName := fs.String("bucket", "", "GCS bucket name (defaults to GCS_BUCKET)")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local PDF file")
	fs.Parse(os.Args[2:])

	ctx, cfg, log := setup(*envFile)

	if *bucketName == "" {
		*bucketName = cfg.GCSBucket
	}
	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}
	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	svc, err := app.NewServices(ctx, cfg, app.Options{Offline: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create services")
	}

	uri, err := svc.Storage.UploadFile(ctx, *bucketName, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runExportNotion() {
	fs := flag.NewFlagSet("export-notion", flag.ExitOnError)
	envFile := fs.String("env", ".env", "Path to an optional .env file")
	resultPath := fs.String("result", "", "Analysis result JSON file written by 'cli analyze'")
	dryRun := fs.Bool("dry-run", false, "Log the changes without writing to Notion")
	fs.Parse(os.Args[2:])

	ctx, cfg, log := setup(*envFile)

	if *resultPath == "" {
		log.Fatal().Msg("Error: --result is required")
	}

	data, err := os.ReadFile(*resultPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read result")
	}
	var result pipeline.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Fatal().Err(err).Msg("Failed to decode result")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	exportToNotion(ctx, cfg, &result, *dryRun)
}

func exportToNotion(ctx context.Context, cfg *config.Config, result *pipeline.AnalysisResult, dryRun bool) {
	log := logger.FromContext(ctx)

	if !cfg.NotionEnabled() {
		log.Fatal().Msg("NOTION_TOKEN and at least one Notion database ID must be set")
	}

	client := notionsync.NewNotionClient(cfg.NotionToken)
	res, err := notionsync.ExportAnalysis(ctx, client, notionsync.ExportConfig{
		SubscriptionsDB: cfg.NotionSubscriptionsDB,
		LeaksDB:         cfg.NotionLeaksDB,
		DryRun:          dryRun,
	}, result)
	if err != nil {
		log.Fatal().Err(err).Msg("Notion export failed")
	}

	fmt.Fprintf(os.Stderr, "Notion export: subscriptions %d created, %d updated, %d archived; leaks %d created, %d updated\n",
		res.Subscriptions.Created, res.Subscriptions.Updated, res.Subscriptions.Archived,
		res.Leaks.Created, res.Leaks.Updated)
}

// parseDateRange parses the BigQuery window. An empty end means today.
func parseDateRange(startStr, endStr string, now time.Time) (civil.Date, civil.Date, error) {
	start, err := civil.ParseDate(startStr)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("parseDateRange: start: %w", err)
	}
	end := civil.DateOf(now)
	if endStr != "" {
		end, err = civil.ParseDate(endStr)
		if err != nil {
			return civil.Date{}, civil.Date{}, fmt.Errorf("parseDateRange: end: %w", err)
		}
	}
	if end.Before(start) {
		return civil.Date{}, civil.Date{}, fmt.Errorf("parseDateRange: end %s is before start %s", end, start)
	}
	return start, end, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("writeJSON: marshal: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
