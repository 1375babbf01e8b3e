package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"picksheet/pkg/config"
	"picksheet/pkg/labels"
	"picksheet/pkg/logger"
	"picksheet/pkg/tasks"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file path (json or yaml)")
		input      = flag.String("input", "", "label document (.pdf or .txt)")
		output     = flag.String("output", "", "report path, defaults to <input>-picksheet.pdf")
		preview    = flag.String("preview", "", "optional PNG preview path")
		asJSON     = flag.Bool("json", false, "print records and counts as JSON")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: picksheet -input labels.pdf [-output report.pdf] [-preview sheet.png] [-json]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := logger.InitLogger(cfg.App.IsDevelopment(), cfg.App.LogFile, cfg.App.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	manager, err := tasks.NewManager(cfg)
	if err != nil {
		log.Fatalf("Failed to create run manager: %v", err)
	}

	if *output == "" {
		*output = strings.TrimSuffix(*input, filepath.Ext(*input)) + "-picksheet.pdf"
	}

	ctx := tasks.WithTrigger(context.Background(), tasks.TriggerCLI)
	run, err := manager.Execute(ctx, &tasks.Request{
		Source:      filepath.Base(*input),
		InputPath:   *input,
		OutputPath:  *output,
		PreviewPath: *preview,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "picksheet: %v\n", err)
		os.Exit(1)
	}

	res := run.Result
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
		return
	}

	fmt.Printf("Segments: %d, records: %d, skipped: %d, parcels: %d\n",
		res.Segments, len(res.Records), len(res.Skipped), labels.TotalCount(res.Counts))
	for _, c := range res.Counts {
		fmt.Printf("  %3d  %s | %s | %s\n", c.Count, c.Product.Name, c.Product.Size, c.Product.SKU)
	}
	fmt.Printf("Report written to %s\n", *output)
	if *preview != "" {
		fmt.Printf("Preview written to %s\n", *preview)
	}
}
