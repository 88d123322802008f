// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/teradata-labs/devflow/pkg/board"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project with its features, tasks, files and activity",
	Example: heredoc.Doc(`
		devflow export "Web App" > web-app.yaml
		devflow export 3f2a... --format json -o web-app.json
	`),
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "output format (yaml, json)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "yaml" && exportFormat != "json" {
		return fmt.Errorf("unknown format %q (want yaml or json)", exportFormat)
	}
	logger, _, err := setupLogger()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	svc := board.NewService(store, board.ServiceConfig{Logger: logger})

	project, err := findProject(ctx, svc, args[0])
	if err != nil {
		return err
	}
	export, err := svc.ExportProject(ctx, project.ID)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput) // #nosec G304 -- output path from CLI flag
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if exportFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(export)
	}
	return export.WriteYAML(w)
}
