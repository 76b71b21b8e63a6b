package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"seo-analytics-mcp/internal/server"
	"seo-analytics-mcp/pkg/tools"
)

func newToolsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and call tools without an MCP client",
	}
	cmd.AddCommand(newToolsListCommand(a), newToolsCallCommand(a))
	return cmd
}

func newToolsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered tools and their arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := a.newServer(cmd, server.WithoutConfigMonitor())
			if err != nil {
				return err
			}
			printTools(cmd.OutOrStdout(), srv.ToolManager().ListTools())
			return nil
		},
	}
}

func newToolsCallCommand(a *app) *cobra.Command {
	var rawArgs string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call one tool and print its text result",
		Example: `  seo-mcp tools call get_domain_keywords --args '{"domain":"example.com"}'
  seo-mcp tools call get_keywords_search_volume --args '{"keywords":["plumber"],"location_name":"Chicago"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments := map[string]interface{}{}
			if strings.TrimSpace(rawArgs) != "" {
				if err := json.Unmarshal([]byte(rawArgs), &arguments); err != nil {
					return fmt.Errorf("--args must be a JSON object: %w", err)
				}
			}

			srv, err := a.newServer(cmd, server.WithoutConfigMonitor())
			if err != nil {
				return err
			}

			result := srv.ToolManager().CallTool(context.Background(), args[0], arguments)
			out := cmd.OutOrStdout()
			if a.debug {
				pp.Fprintln(cmd.ErrOrStderr(), result)
			}

			if result.IsError {
				fmt.Fprintln(out, color.RedString(result.Text))
				return fmt.Errorf("tool %s failed in %s", result.Tool, result.FailedIn)
			}
			fmt.Fprintln(out, result.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawArgs, "args", "a", "", "tool arguments as a JSON object")
	return cmd
}

func printTools(w io.Writer, defs []tools.ToolDefinition) {
	for _, def := range defs {
		fmt.Fprintf(w, "%s\n  %s\n", color.CyanString(def.Name), def.Description)
		for _, field := range def.Schema {
			marker := color.HiBlackString("optional")
			if field.Required {
				marker = color.YellowString("required")
			}
			fmt.Fprintf(w, "    %-14s %-13s %s  %s\n", field.Name, field.Kind, marker, field.Description)
		}
	}
}
