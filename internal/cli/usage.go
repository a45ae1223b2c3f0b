package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) usageCommand() *cobra.Command {
	var formID string
	var lcmTypes []string
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show where the form is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(a, cmd, a.api.FormUsageRequest(formID, lcmTypes))
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "form ID")
	cmd.Flags().StringSliceVar(&lcmTypes, "lcm-type", []string{"user"}, "LCM types to check")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}
