package governance

import (
	"fmt"
	"strings"
)

// Filter is a "_queryFilter" expression.
// Values are inserted between double quotes as they are, without escaping.
type Filter string

func (f Filter) String() string {
	return string(f)
}

// Eq creates `field eq "value"` expression.
func Eq(field, value string) Filter {
	return Filter(fmt.Sprintf(`%s eq "%s"`, field, value))
}

// Co creates `field co "value"` expression.
func Co(field, value string) Filter {
	return Filter(fmt.Sprintf(`%s co "%s"`, field, value))
}

// And joins expressions by the "and" operator.
func And(filters ...Filter) Filter {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, f.String())
	}
	return Filter(strings.Join(parts, " and "))
}

const (
	fieldFormID   = "formId"
	fieldObjectID = "objectId"
)

func WorkflowNodeObjectID(workflowID, nodeID string) string {
	return fmt.Sprintf("workflow/%s/node/%s", workflowID, nodeID)
}

func RequestTypeObjectID(requestTypeID string) string {
	return "requestType/" + requestTypeID
}

func LcmObjectID(lcmType, operation string) string {
	return fmt.Sprintf("lcm/%s/%s", lcmType, operation)
}

// ApplicationObjectID returns object ID of the create request form of the application object type.
func ApplicationObjectID(applicationID, objectType string) string {
	return fmt.Sprintf("application/%s/%s/create", applicationID, objectType)
}

func WorkflowNodeFilter(workflowID, nodeID string) Filter {
	return Eq(fieldObjectID, WorkflowNodeObjectID(workflowID, nodeID))
}

func FormIDFilter(formID string) Filter {
	return Eq(fieldFormID, formID)
}

func RequestTypeFilter(requestTypeID string) Filter {
	return Eq(fieldObjectID, RequestTypeObjectID(requestTypeID))
}

func LcmOperationFilter(lcmType, operation string) Filter {
	return Eq(fieldObjectID, LcmObjectID(lcmType, operation))
}

// FormRequestTypesFilter matches all request type assignments of the form.
func FormRequestTypesFilter(formID string) Filter {
	return And(Co(fieldObjectID, "requestType/"), FormIDFilter(formID))
}

// FormLcmTypeFilter matches all assignments of the form to operations of the LCM type.
func FormLcmTypeFilter(formID, lcmType string) Filter {
	return And(Co(fieldObjectID, "lcm/"+lcmType+"/"), FormIDFilter(formID))
}

// FormApplicationsFilter matches all application assignments of the form.
func FormApplicationsFilter(formID string) Filter {
	return And(Co(fieldObjectID, "application/"), FormIDFilter(formID))
}

func ApplicationRequestFilter(applicationID, objectType string) Filter {
	return Eq(fieldObjectID, ApplicationObjectID(applicationID, objectType))
}
