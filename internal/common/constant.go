package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// service access token on inter-service calls.
const AccessTokenHeaderName = "access_token"

// Job names shared by the scheduler, metrics and the operator CLI.
const (
	JobCascadeDelete = "cascade-delete"
	JobAlarmDispatch = "alarm-dispatch"
)
