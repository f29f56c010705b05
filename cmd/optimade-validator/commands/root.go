// Package commands implements the optimade-validator command line.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the command line with the process arguments and returns the
// exit code.
func Execute(version, commit, date string) int {
	return Run(os.Args[1:], os.Stdout, os.Stderr, version, commit, date)
}

// Run executes the command line with args and returns the exit code: 0 when
// every test passed, 1 when at least one failed and 2 when the run could not
// complete.
func Run(args []string, stdout, stderr io.Writer, version, commit, date string) int {
	a := &app{
		config:  viper.New(),
		stdout:  stdout,
		stderr:  stderr,
		version: version,
	}

	rootCmd := a.newRootCommand()
	rootCmd.AddCommand(a.newVersionCommand(version, commit, date))
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		var internalErr *optimade.InternalError
		if errors.As(err, &internalErr) {
			_, _ = fmt.Fprintf(stderr, "%v\n%s", internalErr, internalErr.Stack)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
		}

		return optimade.ValidityUnknown.ExitCode()
	}

	return a.exitCode
}

// app holds the state of one command line invocation.
type app struct {
	config   *viper.Viper
	stdout   io.Writer
	stderr   io.Writer
	version  string
	exitCode int
}

func (a *app) newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "optimade-validator [base_url]",
		Short: "Validate an OPTIMADE API implementation",
		Long: `Validate an OPTIMADE API implementation.

The validator fetches the base info endpoint, discovers the entry types the
implementation serves, then tests the info, listing and single-entry endpoints
of every entry type against the response schemas. It exits with 0 when every
test passed, 1 when at least one failed and 2 when validation did not finish.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
		RunE:              a.runValidation,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.optimade-validator/config.yml)")
	flags.IntP("verbosity", "v", 0, "verbosity of the output: 0 silent, 1 info, 2 debug")
	flags.StringP("output", "o", constants.FormatText, "output format (text, table, json, yaml)")
	flags.Bool("no-color", false, "disable colored output")

	runFlags := rootCmd.Flags()
	runFlags.Duration("timeout", constants.DefaultHTTPTimeout, "timeout of each HTTP attempt (0 disables it)")
	runFlags.String("user-agent", "", "User-Agent header sent with every request")
	runFlags.Int("retry-max", constants.DefaultMaxAttempts, "attempts per request while the server answers 429")
	runFlags.Duration("retry-wait", constants.DefaultRetryWait, "pause between rate-limited attempts")
	runFlags.String("report-file", "", "write the report to this .json or .yaml file")
	runFlags.String("nats-url", "", "publish the report to this NATS server")
	runFlags.String("nats-subject", constants.DefaultNATSSubject, "NATS subject reports are published on")
	runFlags.String("metrics-file", "", "write Prometheus metrics in textfile format to this path")

	for _, name := range []string{"config", "verbosity", "output", "no-color"} {
		_ = a.config.BindPFlag(name, flags.Lookup(name))
	}

	for _, name := range []string{
		"timeout", "user-agent", "retry-max", "retry-wait",
		"report-file", "nats-url", "nats-subject", "metrics-file",
	} {
		_ = a.config.BindPFlag(name, runFlags.Lookup(name))
	}

	a.config.SetDefault("base_url", constants.DefaultBaseURL)

	return rootCmd
}

// initConfig reads the config file and the OPTIMADE_VALIDATOR_* environment.
func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	a.config.SetEnvPrefix(constants.EnvPrefix)
	a.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.config.AutomaticEnv()

	cfgFile := a.config.GetString("config")
	if cfgFile != "" {
		a.config.SetConfigFile(cfgFile)

		if err := a.config.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}

		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil //nolint:nilerr // no home directory means no default config file
	}

	a.config.AddConfigPath(filepath.Join(home, ".optimade-validator"))
	a.config.SetConfigType("yml")
	a.config.SetConfigName("config")

	if err := a.config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	return nil
}
