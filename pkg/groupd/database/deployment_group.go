package database

import (
	"context"
	"fmt"
	"time"

	"github.com/craigwongva/pz-access/pkg/logging"
	log "github.com/sirupsen/logrus"
)

// Lifecycle tracks whether the GeoServer layer group backing a deployment group exists.
type Lifecycle string

const (
	// The layer group has never been created.
	LifecycleUnmaterialized Lifecycle = "unmaterialized"
	// The layer group has been created at least once.
	LifecycleMaterialized Lifecycle = "materialized"
	// The last attempt to create the layer group failed. The layer group does not exist.
	LifecycleMaterializationFailed Lifecycle = "materialization_failed"
)

func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleUnmaterialized, LifecycleMaterialized, LifecycleMaterializationFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether a deployment group may move from this lifecycle to the next.
// A materialized group stays materialized until it is deleted.
func (l Lifecycle) CanTransitionTo(next Lifecycle) bool {
	if !next.Valid() {
		return false
	}
	return l != LifecycleMaterialized || next == LifecycleMaterialized
}

type DeploymentGroup struct {
	ID        string    `json:"deploymentGroupId"`
	CreatedBy string    `json:"createdBy"`
	Created   time.Time `json:"created"`
	Lifecycle Lifecycle `json:"lifecycle"`
}

func (g *DeploymentGroup) HasRemoteResource() bool {
	return g.Lifecycle == LifecycleMaterialized
}

func (g *DeploymentGroup) LogFields() log.Fields {
	return log.Fields{
		logging.LogFieldDeploymentGroup: g.ID,
		logging.LogFieldCreatedBy:       g.CreatedBy,
		logging.LogFieldLifecycle:       g.Lifecycle,
	}
}

type DeploymentGroupStore interface {
	DeploymentGroup(ctx context.Context, id string) (*DeploymentGroup, error)
	InsertDeploymentGroup(ctx context.Context, group DeploymentGroup) error
	SetLifecycle(ctx context.Context, id string, lifecycle Lifecycle) error
	DeleteDeploymentGroup(ctx context.Context, id string) error
}

var _ DeploymentGroupStore = &Database{}

func (db *Database) DeploymentGroup(ctx context.Context, id string) (*DeploymentGroup, error) {
	query := `SELECT id, created_by, created, lifecycle FROM deployment_group WHERE id = $1;`
	row := db.timedQueryRow(ctx, query, id)

	var lifecycle string
	group := &DeploymentGroup{}
	err := row.Scan(
		&group.ID,
		&group.CreatedBy,
		&group.Created,
		&lifecycle,
	)
	if err != nil {
		return nil, err
	}
	group.Lifecycle = Lifecycle(lifecycle)

	return group, nil
}

func (db *Database) InsertDeploymentGroup(ctx context.Context, group DeploymentGroup) error {
	if !group.Lifecycle.Valid() {
		return fmt.Errorf("invalid lifecycle '%s'", group.Lifecycle)
	}

	query := `
INSERT INTO deployment_group (id, created_by, created, lifecycle)
VALUES ($1, $2, $3, $4);
`
	_, err := db.timedExec(ctx, query,
		group.ID,
		group.CreatedBy,
		group.Created,
		string(group.Lifecycle),
	)

	if isUniqueViolation(err) {
		return fmt.Errorf("deployment group %s: %w", group.ID, ErrAlreadyExists)
	}

	return err
}

func (db *Database) SetLifecycle(ctx context.Context, id string, lifecycle Lifecycle) error {
	if !lifecycle.Valid() {
		return fmt.Errorf("invalid lifecycle '%s'", lifecycle)
	}

	query := `UPDATE deployment_group SET lifecycle = $1 WHERE id = $2;`
	tag, err := db.timedExec(ctx, query, string(lifecycle), id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Deleting a deployment group that does not exist is not an error.
func (db *Database) DeleteDeploymentGroup(ctx context.Context, id string) error {
	query := `DELETE FROM deployment_group WHERE id = $1;`
	_, err := db.timedExec(ctx, query, id)
	return err
}
