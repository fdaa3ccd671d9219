// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cliff/internal/config"
)

type configAddOptions struct {
	model      config.ModelConfig
	replace    bool
	setDefault bool
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage model definitions",
		Long: `Manages the LLM backends cliff can talk to. Each model names an HTTP
endpoint, a JSON request template containing {{prompt}} (and optionally
{{model}}), and the path of the answer in the JSON response.

The model used by a command is --model, then $CLIFF_MODEL, then the current
model, then the default model.`,
	}

	cmd.AddCommand(newConfigAddCmd(a))
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigList()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-default <name>",
		Short: "Set the default model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editConfig(func(c *config.Config) (string, error) {
				return fmt.Sprintf("Default model set to '%s'.", args[0]), c.SetDefault(args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-current <name>",
		Short: "Use a model instead of the default until clear-current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editConfig(func(c *config.Config) (string, error) {
				return fmt.Sprintf("Current model set to '%s'.", args[0]), c.SetCurrent(args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear-current",
		Short: "Clear the current model, falling back to the default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editConfig(func(c *config.Config) (string, error) {
				c.ClearCurrent()
				return "Current model selection cleared. Using the default model.", nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a model definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editConfig(func(c *config.Config) (string, error) {
				return fmt.Sprintf("Model '%s' deleted.", args[0]), c.DeleteModel(args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, a.cfgPath)
			return nil
		},
	})

	return cmd
}

func newConfigAddCmd(a *app) *cobra.Command {
	opts := &configAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a model definition",
		Example: `  cliff config add --name gemini \
    --api-url https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent \
    --api-key "$GEMINI_API_KEY" --api-key-header 'x-goog-api-key: {{api_key}}' \
    --request-format '{"contents":[{"parts":[{"text":"{{prompt}}"}]}]}' \
    --response-json-path '$.candidates[0].content.parts[0].text'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editConfig(func(c *config.Config) (string, error) {
				if err := c.AddModel(opts.model, opts.replace); err != nil {
					return "", err
				}
				if opts.setDefault {
					if err := c.SetDefault(opts.model.Name); err != nil {
						return "", err
					}
				}
				return fmt.Sprintf("Model '%s' added.", opts.model.Name), nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.model.Name, "name", "n", "", "Name to refer to the model by")
	f.StringVar(&opts.model.APIURL, "api-url", "", "Endpoint the request is POSTed to")
	f.StringVar(&opts.model.APIKey, "api-key", "", "API key, substituted for {{api_key}} in --api-key-header")
	f.StringVar(&opts.model.APIKeyHeader, "api-key-header", "", `Header template, e.g. "Authorization: Bearer {{api_key}}"`)
	f.StringVar(&opts.model.ModelIdentifier, "model-identifier", "", "Value substituted for {{model}} in the request format")
	f.StringVar(&opts.model.RequestFormat, "request-format", "", "JSON request body template containing {{prompt}}")
	f.StringVar(&opts.model.ResponsePath, "response-json-path", "", "Path of the answer text in the JSON response")
	f.IntVar(&opts.model.TimeoutSecs, "timeout", 0, "Request timeout in seconds (0 uses the default)")
	f.BoolVar(&opts.replace, "replace", false, "Replace an existing model with the same name")
	f.BoolVar(&opts.setDefault, "default", false, "Also make this the default model")
	for _, name := range []string{"name", "api-url", "request-format", "response-json-path"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// editConfig applies change to the loaded configuration and saves it. The
// change returns the message printed on success.
func (a *app) editConfig(change func(*config.Config) (string, error)) error {
	msg, err := change(a.cfg)
	if err != nil {
		return err
	}
	if err := config.Save(a.cfg, a.cfgPath); err != nil {
		return err
	}
	a.component("config").WithField("path", a.cfgPath).Debug("configuration saved")
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) runConfigList() error {
	if a.cfgErr != nil {
		fmt.Fprintf(a.errOut, "Warning: %v\n", a.cfgErr)
	}

	names := a.cfg.ModelNames()
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No models configured. Add one with 'cliff config add'.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tKEY\tIDENTIFIER")
	for _, name := range names {
		m := a.cfg.Models[name]
		label := name
		if name == a.cfg.DefaultModel {
			label += " (default)"
		}
		if name == a.cfg.CurrentModel {
			label += " (current)"
		}
		key := "not set"
		if m.APIKey != "" {
			key = "set"
		}
		identifier := m.ModelIdentifier
		if identifier == "" {
			identifier = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", label, m.APIURL, key, identifier)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// The file was loaded without environment overrides
	override := a.opts.model
	if override == "" {
		override = os.Getenv(config.EnvModel)
	}
	active := "none"
	if m, err := a.cfg.Resolve(override); err == nil {
		active = fmt.Sprintf("%s (%s)", m.Name, m.Source)
	}
	fmt.Fprintf(a.out, "\nActive model for the next command: %s\n", active)
	return nil
}
