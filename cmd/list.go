package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"steward/internal/project"
	"steward/internal/site"
	"steward/internal/status"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listOutputFormat string

// projectRow is one project's listing, shared by all output formats.
type projectRow struct {
	Name     string `json:"name" yaml:"name"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Mode     string `json:"mode" yaml:"mode"`
	Domain   string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	User     string `json:"user" yaml:"user"`
	Degraded string `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// newListCmd creates the command listing all projects with their current
// site mode and degraded status.
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects and their current state",
		Long: `Lists every project descriptor together with the site mode derived
from the live host and any recorded degraded condition (failed certificate
issuance, watchdog restart).`,
		RunE: runList,
	}
	cmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table",
		"output format (table, json, yaml)")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := project.NewStore(cfg)
	sites := site.NewManager(cfg)
	recorder := status.NewRecorder(cfg)

	descs, err := store.List()
	if err != nil {
		return err
	}

	rows := make([]projectRow, 0, len(descs))
	for _, desc := range descs {
		row := projectRow{
			Name:    desc.Name,
			Enabled: desc.Enabled,
			Domain:  desc.Domain,
			Port:    desc.Port,
			User:    desc.User,
			Mode:    sites.DetectMode(desc.Name, desc.Domain).String(),
		}
		if !desc.HasDomain() {
			row.Mode = "-"
		}
		if record, err := recorder.Get(desc.Name); err == nil && record != nil {
			row.Degraded = string(record.Kind)
		}
		rows = append(rows, row)
	}

	switch listOutputFormat {
	case "json":
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(rows)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	case "table":
		renderListTable(rows)
	default:
		return fmt.Errorf("unknown output format %q", listOutputFormat)
	}
	return nil
}

func renderListTable(rows []projectRow) {
	if len(rows) == 0 {
		fmt.Printf("%s\n", text.FgYellow.Sprint("No projects found"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"NAME", "ENABLED", "MODE", "DOMAIN", "PORT", "USER", "DEGRADED"})

	for _, row := range rows {
		domain := row.Domain
		if domain == "" {
			domain = "-"
		}
		port := "-"
		if row.Port > 0 {
			port = fmt.Sprintf("%d", row.Port)
		}
		degraded := row.Degraded
		if degraded == "" {
			degraded = "-"
		} else {
			degraded = text.FgRed.Sprint(degraded)
		}
		t.AppendRow(table.Row{row.Name, row.Enabled, row.Mode, domain, port, row.User, degraded})
	}
	t.Render()
}
