package cli

import (
	"github.com/spf13/cobra"

	"github.com/forgerock/iga-go-client/pkg/governance"
	"github.com/forgerock/iga-go-client/pkg/request"
)

func (a *app) getCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Query form assignments",
	}

	type query struct {
		use   string
		short string
		args  int
		req   func(args []string) request.APIRequest[*governance.FormAssignmentList]
	}

	queries := []query{
		{
			use:   "workflow-node WORKFLOW_ID NODE_ID",
			short: "Form assigned to the workflow node",
			args:  2,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetFormAssignmentByWorkflowNodeRequest(args[0], args[1])
			},
		},
		{
			use:   "form FORM_ID",
			short: "All assignments of the form",
			args:  1,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetFormAssignmentByFormIDRequest(args[0])
			},
		},
		{
			use:   "request-type REQUEST_TYPE_ID",
			short: "Form assigned to the request type",
			args:  1,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetFormAssignmentByRequestTypeRequest(args[0])
			},
		},
		{
			use:   "lcm LCM_TYPE OPERATION",
			short: "Form assigned to the LCM operation, e.g. \"user create\"",
			args:  2,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetFormAssignmentByLcmTypeAndOperationRequest(args[0], args[1])
			},
		},
		{
			use:   "form-request-types FORM_ID",
			short: "Request types using the form",
			args:  1,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetFormRequestTypesRequest(args[0])
			},
		},
		{
			use:   "form-lcm FORM_ID LCM_TYPE",
			short: "Operations of the LCM type using the form",
			args:  2,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetFormLcmTypeRequest(args[0], args[1])
			},
		},
		{
			use:   "form-applications FORM_ID",
			short: "Applications using the form",
			args:  1,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetFormApplicationsRequest(args[0])
			},
		},
		{
			use:   "application-request APPLICATION_ID OBJECT_TYPE",
			short: "Form used to create objects of the type in the application",
			args:  2,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.GetApplicationRequestFormAssignmentRequest(args[0], args[1])
			},
		},
		{
			use:   "query FILTER",
			short: `Assignments matching the query filter, e.g. 'objectId co "workflow/"'`,
			args:  1,
			req: func(args []string) request.APIRequest[*governance.FormAssignmentList] {
				return a.api.QueryFormAssignmentsRequest(governance.Filter(args[0]))
			},
		},
	}

	for _, q := range queries {
		q := q
		cmd.AddCommand(&cobra.Command{
			Use:   q.use,
			Short: q.short,
			Args:  cobra.ExactArgs(q.args),
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(a, cmd, q.req(args))
			},
		})
	}
	return cmd
}
