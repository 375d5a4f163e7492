package deploy

import "fmt"

// DeploymentFailedError is returned when a deploy decision's policy
// (OnSchemaBreakFail / OnUpdateFail) refuses to proceed, or when a deploy
// precondition (creator mismatch, missing confirmation data) is unmet.
type DeploymentFailedError struct {
	Message string
}

func (e *DeploymentFailedError) Error() string { return "deployment failed: " + e.Message }

// DeploymentLookupFailedError is returned when a creator's deployed-app
// history cannot be reconstructed (no indexer client and no cached
// lookup, or an indexer call fails). A note that does not parse as a
// deploy note is skipped, not reported.
type DeploymentLookupFailedError struct {
	Message string
}

func (e *DeploymentLookupFailedError) Error() string {
	return "deployment lookup failed: " + e.Message
}

func deploymentFailedf(format string, args ...interface{}) error {
	return &DeploymentFailedError{Message: fmt.Sprintf(format, args...)}
}

func deploymentLookupFailedf(format string, args ...interface{}) error {
	return &DeploymentLookupFailedError{Message: fmt.Sprintf(format, args...)}
}
