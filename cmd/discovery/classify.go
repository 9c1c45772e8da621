package main

import (
	"fmt"
	"os"
	"time"

	commonhttp "provider-discovery/internal/common/http"
	"provider-discovery/internal/discovery/classifier"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type classifyOptions struct {
	description string
	images      []string
	context     map[string]string
	offline     bool
	timeout     time.Duration
	out         string
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	opts := &classifyOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a project description",
		Long:  "Sends the description to the AI classification service and prints the analysis. When the service is not configured or fails, the offline keyword classifier answers instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, root, opts, v)
		},
	}
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "project description")
	cmd.Flags().StringSliceVar(&opts.images, "image", nil, "path to a project photo; repeatable")
	cmd.Flags().StringToStringVar(&opts.context, "context", nil, "context hints as key=value pairs")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "skip the remote service")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", classifier.DefaultTimeout, "remote call budget, clamped to 8s..15s")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file; stdout when empty")
	cmd.Flags().String("classifier-url", "", "AI service base URL (env CLASSIFIER_BASE_URL)")
	cmd.Flags().String("api-key", "", "AI service API key (env CLASSIFIER_API_KEY)")

	_ = v.BindEnv("url", "CLASSIFIER_BASE_URL")
	_ = v.BindEnv("key", "CLASSIFIER_API_KEY")
	_ = v.BindPFlag("url", cmd.Flags().Lookup("classifier-url"))
	_ = v.BindPFlag("key", cmd.Flags().Lookup("api-key"))
	return cmd
}

func runClassify(cmd *cobra.Command, root *rootOptions, opts *classifyOptions, v *viper.Viper) error {
	if opts.description == "" && len(opts.images) == 0 {
		return fmt.Errorf("a description or at least one --image is required")
	}

	req := classifier.Request{Description: opts.description}
	for _, path := range opts.images {
		img, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", path, err)
		}
		req.Images = append(req.Images, img)
	}
	if len(opts.context) > 0 {
		req.Context = make(map[string]interface{}, len(opts.context))
		for k, val := range opts.context {
			req.Context[k] = val
		}
	}

	baseURL := v.GetString("url")
	if opts.offline {
		baseURL = ""
	}

	timeout := classifier.ClampTimeout(opts.timeout)
	transport := commonhttp.NewClient(timeout)
	if key := v.GetString("key"); key != "" {
		transport = transport.WithHeader("Authorization", "Bearer "+key)
	}

	c := classifier.New(classifier.Options{
		BaseURL: baseURL,
		Timeout: timeout,
	}, transport, nil, root.logger())

	return writeJSON(cmd.OutOrStdout(), opts.out, c.Classify(cmd.Context(), req))
}
