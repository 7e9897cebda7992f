package telemetry

import (
	"context"

	"github.com/google/uuid"
)

// Span names for deployment CLI events.
const (
	SpanDeploySignupError    = "Deploy Signup Error"
	SpanStartDeployment      = "Start Deployment"
	SpanCreateCrewDeployment = "Create Crew Deployment"
	SpanGetCrewLogs          = "Get Crew Logs"
	SpanRemoveCrew           = "Remove Crew"
)

// DefaultLogType is the log_type reported by GetCrewLogs when none is given.
const DefaultLogType = "deployment"

type deployData struct {
	id      uuid.UUID
	logType string
}

// deploymentID omits the attribute for uuid.Nil.
func deploymentID(d deployData) any {
	if d.id == uuid.Nil {
		return nil
	}
	return d.id.String()
}

var (
	deploySignupErrorEvent    = Descriptor[deployData]{Name: SpanDeploySignupError}
	createCrewDeploymentEvent = Descriptor[deployData]{Name: SpanCreateCrewDeployment}

	startDeploymentEvent = Descriptor[deployData]{
		Name:   SpanStartDeployment,
		Schema: []Field[deployData]{always("uuid", deploymentID)},
	}
	getCrewLogsEvent = Descriptor[deployData]{
		Name: SpanGetCrewLogs,
		Schema: []Field[deployData]{
			always("log_type", func(d deployData) any { return d.logType }),
			always("uuid", deploymentID),
		},
	}
	removeCrewEvent = Descriptor[deployData]{
		Name:   SpanRemoveCrew,
		Schema: []Field[deployData]{always("uuid", deploymentID)},
	}
)

// DeploySignupError records a failed signup during deployment.
func (t *Telemetry) DeploySignupError(ctx context.Context) {
	emit(ctx, t, deploySignupErrorEvent, false, deployData{})
}

// StartDeployment records the start of a deployment. Pass uuid.Nil when the
// deployment has no ID yet.
func (t *Telemetry) StartDeployment(ctx context.Context, id uuid.UUID) {
	emit(ctx, t, startDeploymentEvent, false, deployData{id: id})
}

// CreateCrewDeployment records the creation of a crew deployment.
func (t *Telemetry) CreateCrewDeployment(ctx context.Context) {
	emit(ctx, t, createCrewDeploymentEvent, false, deployData{})
}

// GetCrewLogs records a log retrieval. An empty logType reports
// DefaultLogType.
func (t *Telemetry) GetCrewLogs(ctx context.Context, id uuid.UUID, logType string) {
	if logType == "" {
		logType = DefaultLogType
	}
	emit(ctx, t, getCrewLogsEvent, false, deployData{id: id, logType: logType})
}

// RemoveCrew records the removal of a deployed crew.
func (t *Telemetry) RemoveCrew(ctx context.Context, id uuid.UUID) {
	emit(ctx, t, removeCrewEvent, false, deployData{id: id})
}
