package commands

import (
	"fmt"
	"runtime"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// buildInfo describes the binary and the identity it presents to servers.
type buildInfo struct {
	Version   string `json:"version"    yaml:"version"`
	Commit    string `json:"commit"     yaml:"commit"`
	Built     string `json:"built"      yaml:"built"`
	UserAgent string `json:"user_agent" yaml:"user_agent"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

func newBuildInfo(version, commit, date string) buildInfo {
	return buildInfo{
		Version:   version,
		Commit:    commit,
		Built:     date,
		UserAgent: constants.UserAgentPrefix + version,
		GoVersion: runtime.Version(),
	}
}

func (b buildInfo) rows() [][]string {
	return [][]string{
		{"Version", b.Version},
		{"Commit", b.Commit},
		{"Built", b.Built},
		{"User-Agent", b.UserAgent},
		{"Go", b.GoVersion},
	}
}

func (a *app) newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display the validator build and the User-Agent it sends to OPTIMADE servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeBuildInfo(newBuildInfo(version, commit, date))
		},
	}
}

func (a *app) writeBuildInfo(info buildInfo) error {
	switch a.config.GetString("output") {
	case constants.FormatJSON:
		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(info)
	case constants.FormatYAML:
		return yaml.NewEncoder(a.stdout).Encode(info)
	}

	table := tablewriter.NewWriter(a.stdout)
	table.Header("Property", "Value")

	for _, row := range info.rows() {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to add version row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
