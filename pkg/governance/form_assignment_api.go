package governance

// The file contains request definitions for the request form assignments of the IGA API.
// All queries are GET requests to the same endpoint, they differ only in the "_queryFilter".

import (
	"context"
	"net/http"

	"github.com/forgerock/iga-go-client/pkg/request"
)

// CreateFormAssignmentRequest assigns the form to the object.
// The assignment is sent as it is, it can be a *FormAssignment or any other JSON value, e.g. *orderedmap.OrderedMap with additional fields.
func (a *API) CreateFormAssignmentRequest(assignment any, opts ...RequestOption) request.APIRequest[*FormAssignment] {
	return a.formAssignmentActionRequest(actionAssign, assignment, opts)
}

// DeleteFormAssignmentRequest removes the assignment of the form to the object.
func (a *API) DeleteFormAssignmentRequest(assignment any, opts ...RequestOption) request.APIRequest[*FormAssignment] {
	return a.formAssignmentActionRequest(actionUnassign, assignment, opts)
}

func (a *API) formAssignmentActionRequest(action string, assignment any, opts []RequestOption) request.APIRequest[*FormAssignment] {
	result := &FormAssignment{}
	req := a.newRequest(IGAAPI, opts).
		WithResult(result).
		WithMethod(http.MethodPost).
		WithURL(IGAFormAssignments).
		AndQueryParam("_action", action).
		WithJSONBody(assignment)
	return request.NewAPIRequest(result, req)
}

// QueryFormAssignmentsRequest lists form assignments matching the filter.
func (a *API) QueryFormAssignmentsRequest(filter Filter, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	result := &FormAssignmentList{}
	return request.NewAPIRequest(result, a.queryFormAssignments(filter, result, opts))
}

func (a *API) queryFormAssignments(filter Filter, result *FormAssignmentList, opts []RequestOption) request.HTTPRequest {
	return a.newRequest(IGAAPI, opts).
		WithResult(result).
		WithMethod(http.MethodGet).
		WithURL(IGAFormAssignments).
		AndQueryParam("_queryFilter", filter.String())
}

func (a *API) GetFormAssignmentByWorkflowNodeRequest(workflowID, nodeID string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(WorkflowNodeFilter(workflowID, nodeID), opts...)
}

func (a *API) GetFormAssignmentByFormIDRequest(formID string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(FormIDFilter(formID), opts...)
}

func (a *API) GetFormAssignmentByRequestTypeRequest(requestTypeID string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(RequestTypeFilter(requestTypeID), opts...)
}

// GetFormAssignmentByLcmOperationRequest finds the form assigned to the operation of the LCM type, e.g. "user" and "create".
func (a *API) GetFormAssignmentByLcmOperationRequest(lcmType, operation string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(LcmOperationFilter(lcmType, operation), opts...)
}

// GetFormAssignmentByLcmTypeAndOperationRequest is the same request as GetFormAssignmentByLcmOperationRequest.
func (a *API) GetFormAssignmentByLcmTypeAndOperationRequest(lcmType, operation string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(LcmOperationFilter(lcmType, operation), opts...)
}

func (a *API) GetFormRequestTypesRequest(formID string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(FormRequestTypesFilter(formID), opts...)
}

func (a *API) GetFormLcmTypeRequest(formID, lcmType string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(FormLcmTypeFilter(formID, lcmType), opts...)
}

func (a *API) GetFormApplicationsRequest(formID string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(FormApplicationsFilter(formID), opts...)
}

// GetApplicationRequestFormAssignmentRequest finds the form used to create objects of the type in the application.
func (a *API) GetApplicationRequestFormAssignmentRequest(applicationID, objectType string, opts ...RequestOption) request.APIRequest[*FormAssignmentList] {
	return a.QueryFormAssignmentsRequest(ApplicationRequestFilter(applicationID, objectType), opts...)
}

// FormUsageRequest loads request type, application and LCM assignments of the form concurrently.
// One query is sent for each LCM type.
func (a *API) FormUsageRequest(formID string, lcmTypes []string, opts ...RequestOption) request.APIRequest[*FormUsage] {
	result := &FormUsage{FormID: formID, Lcm: make(map[string][]*FormAssignment)}

	requestTypes := &FormAssignmentList{}
	applications := &FormAssignmentList{}
	lcm := make([]*FormAssignmentList, len(lcmTypes))

	requests := []request.Sendable{
		a.queryFormAssignments(FormRequestTypesFilter(formID), requestTypes, opts),
		a.queryFormAssignments(FormApplicationsFilter(formID), applications, opts),
	}
	for i, lcmType := range lcmTypes {
		lcm[i] = &FormAssignmentList{}
		requests = append(requests, a.queryFormAssignments(FormLcmTypeFilter(formID, lcmType), lcm[i], opts))
	}

	return request.
		NewAPIRequest(result, request.Parallel(requests...)).
		WithOnSuccess(func(_ context.Context, result *FormUsage) error {
			result.RequestTypes = requestTypes.Result
			result.Applications = applications.Result
			for i, lcmType := range lcmTypes {
				result.Lcm[lcmType] = lcm[i].Result
			}
			return nil
		})
}
