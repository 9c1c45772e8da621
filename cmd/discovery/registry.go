package main

import (
	"fmt"

	"provider-discovery/pkg/registry"

	"github.com/spf13/cobra"
)

const defaultRegistryPath = "configs/activities.json"

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the worker activity registry",
	}
	cmd.AddCommand(newRegistryWriteCmd(), newRegistryValidateCmd(), newRegistryUpdateCmd())
	return cmd
}

func newRegistryWriteCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the built-in activity registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry.Default()
			if err := reg.Save(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d activities to %s\n", len(reg.Activities), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", defaultRegistryPath, "registry file")
	return cmd
}

func newRegistryValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(file)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry %s is valid (%d activities)\n", file, len(reg.Activities))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", defaultRegistryPath, "registry file")
	return cmd
}

func newRegistryUpdateCmd() *cobra.Command {
	var file, id, field, value string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update one field of an activity",
		Long:  "Sets status, version, displayName, description, category, taskType, timeout or retries of an activity. A missing registry file starts from the built-in activities.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadOrDefault(file)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(id, field, value); err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			if err := reg.Save(file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.%s = %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", defaultRegistryPath, "registry file")
	cmd.Flags().StringVar(&id, "id", "", "activity id (required)")
	cmd.Flags().StringVar(&field, "field", "", "field to update (required)")
	cmd.Flags().StringVar(&value, "value", "", "new value (required)")
	for _, name := range []string{"id", "field", "value"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}
