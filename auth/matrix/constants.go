package matrix

const (
	ErrorBadJson          = "M_BAD_JSON"
	ErrorForbidden        = "M_FORBIDDEN"
	ErrorUnknown          = "M_UNKNOWN"
	ErrorUnknownToken     = "M_UNKNOWN_TOKEN"
	ErrorMissingToken     = "M_MISSING_TOKEN"
	ErrorInvalidUsername  = "M_INVALID_USERNAME"
	ErrorLimitExceeded    = "M_LIMIT_EXCEEDED"
	ErrorNotFound         = "M_NOT_FOUND"
	ErrorUnrecognized     = "M_UNRECOGNIZED"
	ErrorMissingParameter = "M_MISSING_PARAM"
)

const (
	// SynapseAdminApiUsersPrefix is the prefix of Synapse's user admin API (v2).
	// See https://element-hq.github.io/synapse/latest/admin_api/user_admin_api.html#query-user-account
	SynapseAdminApiUsersPrefix = "_synapse/admin/v2/users"
)
