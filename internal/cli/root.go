// Package cli implements the seo-mcp command line: the MCP server itself
// plus local commands to inspect and exercise the tool catalog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"seo-analytics-mcp/internal/server"
	"seo-analytics-mcp/pkg/config"
)

// app carries the state shared by all commands of one root command
type app struct {
	v       *viper.Viper
	cfgFile string
	debug   bool
	cfg     *config.Config
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the seo-mcp command tree
func NewRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "seo-mcp",
		Short: "MCP server exposing SEO analytics tools",
		Long: `seo-mcp serves SEO analytics tools (keyword search volume, domain keywords,
domain locations, audits and rankings) to MCP clients over stdio or HTTP.

Settings come from flags, SEO_MCP_* environment variables, an optional config
file and built-in defaults, in that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging and result dumps")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("upstream-url", config.DefaultBaseURL, "base URL of the SEO data platform")
	flags.String("api-key", "", "API key sent to the SEO data platform")
	flags.Bool("mock-locations", false, "serve get_domain_locations from generated data")

	// Flags override environment and file values only when set
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyUpstreamBaseURL, flags.Lookup("upstream-url"))
	_ = a.v.BindPFlag(config.KeyUpstreamAPIKey, flags.Lookup("api-key"))
	_ = a.v.BindPFlag(config.KeyToolsMockLocations, flags.Lookup("mock-locations"))

	root.AddCommand(
		newServeCommand(a),
		newToolsCommand(a),
		newVersionCommand(a),
	)
	return root
}

// loadConfig materializes the merged configuration
func (a *app) loadConfig() error {
	if a.debug {
		a.v.Set(config.KeyLogLevel, "debug")
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// newServer builds an MCP server logging to cmd's error stream
func (a *app) newServer(cmd *cobra.Command, opts ...server.Option) (*server.MCPServer, error) {
	if a.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	opts = append([]server.Option{server.WithLogOutput(cmd.ErrOrStderr())}, opts...)
	return server.NewMCPServer(a.cfg, opts...)
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server name and version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (MCP %s)\n",
				a.cfg.Server.Name, a.cfg.Server.Version, server.ProtocolVersion)
		},
	}
}
