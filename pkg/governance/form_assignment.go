package governance

// FormAssignment links a request form to an object, for example a workflow node or an LCM operation.
type FormAssignment struct {
	ID       string `json:"id,omitempty"`
	FormID   string `json:"formId"`
	ObjectID string `json:"objectId"`
}

// FormAssignmentList is the result of a form assignments query.
type FormAssignmentList struct {
	Result                  []*FormAssignment `json:"result"`
	ResultCount             int               `json:"resultCount"`
	PagedResultsCookie      *string           `json:"pagedResultsCookie"`
	TotalPagedResultsPolicy string            `json:"totalPagedResultsPolicy,omitempty"`
	TotalPagedResults       int               `json:"totalPagedResults"`
	RemainingPagedResults   int               `json:"remainingPagedResults"`
}

// FormUsage aggregates assignments of one form.
type FormUsage struct {
	FormID       string                       `json:"formId"`
	RequestTypes []*FormAssignment            `json:"requestTypes"`
	Applications []*FormAssignment            `json:"applications"`
	Lcm          map[string][]*FormAssignment `json:"lcm"`
}

// ObjectIDs returns object IDs of all assignments in the list.
func (v *FormAssignmentList) ObjectIDs() []string {
	out := make([]string, 0, len(v.Result))
	for _, item := range v.Result {
		out = append(out, item.ObjectID)
	}
	return out
}
