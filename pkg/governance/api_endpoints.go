package governance

const (
	IGAFormAssignments = "governance/requestFormAssignments"
	IDMUILocaleConfig  = "config/uilocale/{locale}"
)

const (
	actionAssign   = "assign"
	actionUnassign = "unassign"
)

const (
	HeaderAcceptAPIVersion = "Accept-API-Version"
	HeaderTransactionID    = "X-ForgeRock-TransactionId"
	AcceptAPIVersion       = "resource=1.0"
)
