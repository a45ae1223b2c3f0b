package cli

import (
	"github.com/spf13/cobra"

	"github.com/forgerock/iga-go-client/pkg/governance"
)

type assignmentFlags struct {
	formID   string
	objectID string
}

func (f *assignmentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.formID, "form", "", "form ID")
	cmd.Flags().StringVar(&f.objectID, "object", "", `object ID, e.g. "workflow/{workflow}/node/{node}" or "lcm/user/create"`)
	_ = cmd.MarkFlagRequired("form")
	_ = cmd.MarkFlagRequired("object")
}

func (f *assignmentFlags) assignment() *governance.FormAssignment {
	return &governance.FormAssignment{FormID: f.formID, ObjectID: f.objectID}
}

func (a *app) assignCommand() *cobra.Command {
	flags := &assignmentFlags{}
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a form to an object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(a, cmd, a.api.CreateFormAssignmentRequest(flags.assignment()))
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) unassignCommand() *cobra.Command {
	flags := &assignmentFlags{}
	cmd := &cobra.Command{
		Use:   "unassign",
		Short: "Remove assignment of a form to an object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(a, cmd, a.api.DeleteFormAssignmentRequest(flags.assignment()))
		},
	}
	flags.register(cmd)
	return cmd
}
