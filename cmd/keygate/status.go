// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/store"
)

// ComponentStatus holds the probed state of one service component.
type ComponentStatus struct {
	Component string `json:"component"`
	Healthy   bool   `json:"healthy"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput  bool
	metricsAddr string
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running KeyGate server",
		Long:  `Probe the health endpoints of a running server and report the database schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", "", "metrics/health address of the running server")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	addr := cfg.metricsAddr
	if addr == "" {
		addr = fileConfigString(configFile, "server.metrics_addr")
	}
	if addr == "" {
		addr = "127.0.0.1:9100"
	}

	statuses := []ComponentStatus{
		probeHealth("server", addr, "/healthz/liveness"),
		probeHealth("readiness", addr, "/healthz/readiness"),
		querySchemaStatus(),
	}

	if cfg.jsonOutput {
		output, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(output))
		return nil
	}

	cmd.Println(formatStatusTable(statuses))
	return nil
}

// probeHealth queries one health endpoint on the observability listener.
func probeHealth(component, addr, path string) ComponentStatus {
	status := ComponentStatus{Component: component}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + path)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		status.Error = fmt.Sprintf("failed to read response: %v", err)
		return status
	}

	status.Healthy = resp.StatusCode == http.StatusOK
	status.Detail = strings.TrimSpace(string(body))
	return status
}

// querySchemaStatus reports the current migration version, if a database
// URL is configured.
func querySchemaStatus() ComponentStatus {
	status := ComponentStatus{Component: "schema"}

	databaseURL := databaseURLFromConfig()
	if databaseURL == "" {
		status.Error = "database URL not configured"
		return status
	}

	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = fmt.Sprintf("failed to open migrator: %v", err)
		return status
	}
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	if err != nil {
		status.Error = fmt.Sprintf("failed to read version: %v", err)
		return status
	}

	status.Healthy = !dirty
	status.Detail = fmt.Sprintf("version %d dirty %v", version, dirty)
	return status
}

// formatStatusTable renders component statuses as an aligned table.
func formatStatusTable(statuses []ComponentStatus) string {
	sorted := make([]ComponentStatus, len(statuses))
	copy(sorted, statuses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Component < sorted[j].Component
	})

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "COMPONENT\tHEALTHY\tDETAIL")
	for _, s := range sorted {
		detail := s.Detail
		if s.Error != "" {
			detail = s.Error
		}
		fmt.Fprintf(w, "%s\t%v\t%s\n", s.Component, s.Healthy, detail)
	}

	_ = w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
