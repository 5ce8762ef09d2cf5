package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tillkruss/ruddarr/internal/domain"
	"github.com/tillkruss/ruddarr/internal/instance"
	"golang.org/x/term"
)

func newInstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Manage Radarr and Sonarr instances",
	}

	cmd.AddCommand(newInstanceAddCmd())
	cmd.AddCommand(newInstanceListCmd())
	cmd.AddCommand(newInstanceRemoveCmd())
	cmd.AddCommand(newInstanceUseCmd())
	return cmd
}

func newInstanceAddCmd() *cobra.Command {
	var (
		typeName string
		label    string
		rawURL   string
		apiKey   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Validate and save a new instance",
		Long: `Validate and save a new instance.

The URL is checked against the instance's system status, so it must be
reachable and serve the given application type. Without --api-key the key
is read from the terminal without echo.

Examples:
  ruddarr instance add --type radarr --label Synology --url http://10.0.1.5:7878
  ruddarr instance add --type sonarr --label Seedbox --url https://tv.example.com --api-key $KEY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			instType, ok := domain.ParseInstanceType(typeName)
			if !ok {
				return fmt.Errorf("unknown instance type %q (radarr, sonarr)", typeName)
			}

			if apiKey == "" {
				key, err := readSecret(cmd.OutOrStdout(), "API key: ")
				if err != nil {
					return fmt.Errorf("failed to read api key: %w", err)
				}
				apiKey = key
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			inst := domain.NewInstance(instType, strings.TrimSpace(label), rawURL, strings.TrimSpace(apiKey))
			inst, err = instance.Validate(cmd.Context(), a.client, inst)
			if err != nil {
				var validationErr *instance.ValidationError
				if errors.As(err, &validationErr) {
					return fmt.Errorf("%s: %s", validationErr.Title(), validationErr.RecoverySuggestion())
				}
				return err
			}

			if err := a.registry.Save(inst); err != nil {
				return fmt.Errorf("failed to save instance: %w", err)
			}
			a.logger.Info("Instance added", "type", inst.Type, "instance", inst.Label)

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s instance %s (%s)\n", inst.Type.DisplayName(), inst.Label, inst.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "instance type: radarr or sonarr")
	cmd.Flags().StringVarP(&label, "label", "l", "", "display name")
	cmd.Flags().StringVarP(&rawURL, "url", "u", "", "instance URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (prompted when omitted)")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("label")
	cmd.MarkFlagRequired("url")

	return cmd
}

func newInstanceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			return printInstances(cmd.OutOrStdout(), a.registry)
		},
	}
}

func newInstanceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|label>",
		Short: "Remove an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			inst, err := resolveInstance(a.registry, args[0])
			if err != nil {
				return err
			}
			if err := a.registry.Delete(inst.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s instance %s\n", inst.Type.DisplayName(), inst.Label)
			return nil
		},
	}
}

func newInstanceUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id|label>",
		Short: "Select the instance opened for its type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			inst, err := resolveInstance(a.registry, args[0])
			if err != nil {
				return err
			}
			if err := a.registry.Select(inst.Type, inst.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Using %s instance %s\n", inst.Type.DisplayName(), inst.Label)
			return nil
		},
	}
}

// resolveInstance finds an instance by id or case-insensitive label
func resolveInstance(store domain.InstanceStore, ref string) (domain.Instance, error) {
	if inst, err := store.Get(ref); err == nil {
		return inst, nil
	}

	instances, err := store.List()
	if err != nil {
		return domain.Instance{}, err
	}

	var matches []domain.Instance
	for _, inst := range instances {
		if strings.EqualFold(inst.Label, ref) {
			matches = append(matches, inst)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Instance{}, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Instance{}, fmt.Errorf("label %q matches %d instances, use the id", ref, len(matches))
	}
}

func printInstances(w io.Writer, store domain.InstanceStore) error {
	instances, err := store.List()
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		fmt.Fprintln(w, "No instances configured")
		return nil
	}

	selected := make(map[string]bool)
	for _, t := range domain.InstanceTypes {
		if inst, err := store.Selected(t); err == nil {
			selected[inst.ID] = true
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tTYPE\tLABEL\tURL\tID")
	for _, inst := range instances {
		marker := ""
		if selected[inst.ID] {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, inst.Type.DisplayName(), inst.Label, inst.URL, inst.ID)
	}
	return tw.Flush()
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
