package main

import (
	"fmt"

	"provider-discovery/internal/discovery/filter"
	"provider-discovery/internal/discovery/pagination"
	"provider-discovery/internal/models"

	"github.com/spf13/cobra"
)

type filterOptions struct {
	providers string
	criteria  string
	allPages  bool
	out       string
}

func newFilterCmd(root *rootOptions) *cobra.Command {
	opts := &filterOptions{}
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter, sort and page a provider list",
		Long:  "Applies filter criteria to a JSON array of providers. Without --all-pages only the requested page is printed; with it every page is loaded in turn and accumulated.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.providers, "providers", "p", "", "path to a JSON array of providers (required)")
	cmd.Flags().StringVarP(&opts.criteria, "criteria", "c", "", "path to filter criteria JSON; defaults match every provider")
	cmd.Flags().BoolVar(&opts.allPages, "all-pages", false, "load every page and print the accumulated list")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file; stdout when empty")
	if err := cmd.MarkFlagRequired("providers"); err != nil {
		panic(fmt.Sprintf("failed to mark providers flag as required: %v", err))
	}
	return cmd
}

func runFilter(cmd *cobra.Command, root *rootOptions, opts *filterOptions) error {
	var providers []models.ProviderRecord
	if err := readJSON(opts.providers, &providers); err != nil {
		return err
	}

	criteria := models.DefaultCriteria()
	if opts.criteria != "" {
		if err := readJSON(opts.criteria, &criteria); err != nil {
			return err
		}
	}

	engine := filter.NewEngine()
	if err := engine.Validate(criteria); err != nil {
		return fmt.Errorf("invalid criteria: %w", err)
	}
	filtered, err := engine.Filter(providers, criteria)
	if err != nil {
		return err
	}

	root.logger().Debug("providers filtered", map[string]interface{}{
		"input":   len(providers),
		"matched": len(filtered),
	})

	if !opts.allPages {
		return writeJSON(cmd.OutOrStdout(), opts.out, pagination.Slice(filtered, criteria.Page, criteria.PageSize))
	}

	ctrl := pagination.NewController(criteria.PageSize)
	ctrl.LoadPage(filtered, false)
	for ctrl.NextPage() {
		ctrl.LoadPage(filtered, true)
	}
	return writeJSON(cmd.OutOrStdout(), opts.out, pagination.Page{
		Providers:  ctrl.Accumulated(),
		Page:       ctrl.Page(),
		PageSize:   ctrl.PageSize(),
		TotalCount: ctrl.TotalCount(),
		HasMore:    ctrl.HasMore(),
	})
}
