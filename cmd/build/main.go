package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kebapps/pagesmith/internal/bundler"
	"github.com/kebapps/pagesmith/internal/cli"
	"github.com/kebapps/pagesmith/internal/config"
	"github.com/kebapps/pagesmith/internal/pipeline"
	"github.com/kebapps/pagesmith/internal/publish"
	"github.com/kebapps/pagesmith/internal/registry"
)

func main() {
	templateID := flag.String("template", "", "template identifier to build")
	configPath := flag.String("config", "", "path to a JSON template config")
	projectID := flag.String("project", "", "project identifier (generated when empty)")
	zipPath := flag.String("zip", "", "also package the output as a zip archive at this path")
	flag.Parse()

	output := cli.NewOutput()
	output.PrintHeader("Pagesmith Build")

	if *templateID == "" {
		output.PrintError("Missing -template flag")
		fmt.Println()
		output.PrintStep("Usage: pagesmith-build -template <id> [-config config.json] [-project <id>] [-zip site.zip]")
		os.Exit(1)
	}

	if err := run(output, *templateID, *configPath, *projectID, *zipPath); err != nil {
		output.PrintError("%v", err)
		os.Exit(1)
	}
}

func run(output *cli.Output, templateID, configPath, projectID, zipPath string) error {
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	reg, err := registry.Load(cfg.Templates.Dir)
	if err != nil {
		return err
	}
	output.PrintSuccess("%d templates found", reg.Len())

	templateConfig := map[string]any{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &templateConfig); err != nil {
			return fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	engine := bundler.NewEngine(zap.NewNop(), cfg.Build.NodeModules)
	publishers := []pipeline.Publisher{publish.NewLocalPublisher(cfg.Publish.Dir)}
	svc := pipeline.NewService(zap.NewNop(), reg, engine, publishers, cfg.Build.Dir, cfg.Build.Timeout())

	resp, err := svc.Build(context.Background(), pipeline.Request{
		ProjectID:      projectID,
		TemplateID:     templateID,
		TemplateConfig: templateConfig,
	})
	if err != nil {
		return err
	}
	output.PrintSuccess("Project %s built", resp.ProjectID)
	for _, loc := range resp.Locations {
		output.PrintFile(loc.Key)
	}

	outputDir, err := svc.OutputDir(resp.ProjectID)
	if err != nil {
		return err
	}

	if zipPath != "" {
		archive, err := os.Create(zipPath)
		if err != nil {
			return err
		}
		if err := publish.WriteZip(archive, outputDir); err != nil {
			archive.Close()
			return err
		}
		if err := archive.Close(); err != nil {
			return err
		}
		output.PrintSuccess("Archive written to %s", zipPath)
	}

	output.PrintDone(outputDir, time.Since(start))
	return nil
}
