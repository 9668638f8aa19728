// Package synchronizer keeps deployment groups and their GeoServer layer groups in step.
//
// Operations on the same deployment group must be serialized by the caller, for instance
// with a KeyedLocker. Two concurrent merges on one group can lose an update, since GeoServer
// offers no way to make the fetch-merge-write cycle atomic.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/craigwongva/pz-access/pkg/geoserver"
	"github.com/craigwongva/pz-access/pkg/groupd/database"
	"github.com/craigwongva/pz-access/pkg/groupd/metrics"
	"github.com/craigwongva/pz-access/pkg/layergroup"
	"github.com/craigwongva/pz-access/pkg/logging"
	"github.com/craigwongva/pz-access/pkg/telemetry"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Registry database.DeploymentGroupStore
	Client   geoserver.Client
	// Generates deployment group identifiers. Defaults to random UUIDs.
	NewID func() string
	// Defaults to time.Now.
	Now func() time.Time
}

type Synchronizer struct {
	registry database.DeploymentGroupStore
	client   geoserver.Client
	newID    func() string
	now      func() time.Time
}

func New(cfg Config) *Synchronizer {
	s := &Synchronizer{
		registry: cfg.Registry,
		client:   cfg.Client,
		newID:    cfg.NewID,
		now:      cfg.Now,
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateEmpty registers a deployment group without creating anything in GeoServer.
// The layer group is created by the first Merge.
func (s *Synchronizer) CreateEmpty(ctx context.Context, createdBy string) (group *database.DeploymentGroup, err error) {
	defer func() { metrics.SyncOperation(metrics.OperationCreate, err) }()

	group = s.newGroup(createdBy, database.LifecycleUnmaterialized)

	ctx, end := telemetry.Start(ctx, "synchronizer.CreateEmpty",
		telemetry.AttributeDeploymentGroup.String(group.ID),
	)
	defer func() { end(err) }()

	err = s.registry.InsertDeploymentGroup(ctx, *group)
	if err != nil {
		return nil, fmt.Errorf("persist deployment group: %w", err)
	}

	log.WithFields(group.LogFields()).WithField(logging.LogFieldOperation, metrics.OperationCreate).Infof("Created empty deployment group")

	return group, nil
}

// CreateWithLayers creates the layer group in GeoServer, and registers the deployment group
// only if that succeeds. An empty layer list creates an empty deployment group instead.
func (s *Synchronizer) CreateWithLayers(ctx context.Context, layers []string, createdBy string) (group *database.DeploymentGroup, err error) {
	if len(layers) == 0 {
		return s.CreateEmpty(ctx, createdBy)
	}

	defer func() { metrics.SyncOperation(metrics.OperationCreate, err) }()

	group = s.newGroup(createdBy, database.LifecycleMaterialized)

	ctx, end := telemetry.Start(ctx, "synchronizer.CreateWithLayers",
		telemetry.AttributeDeploymentGroup.String(group.ID),
		telemetry.AttributeLayerCount.Int(len(layers)),
	)
	defer func() { end(err) }()

	logger := log.WithFields(group.LogFields()).WithFields(log.Fields{
		logging.LogFieldOperation: metrics.OperationCreate,
		logging.LogFieldLayers:    layers,
	})

	state, err := layergroup.Build(group.ID, layers)
	if err != nil {
		return nil, err
	}
	balanced := layergroup.Balance(*state)

	err = s.client.Create(ctx, &balanced)
	if err != nil {
		logger.Errorf("Create layer group in GeoServer: %s", err)
		return nil, err
	}

	err = s.registry.InsertDeploymentGroup(context.WithoutCancel(ctx), *group)
	if err != nil {
		// The layer group now exists in GeoServer without a deployment group pointing to it.
		logger.Errorf("Layer group created in GeoServer, but deployment group could not be persisted: %s", err)
		return nil, fmt.Errorf("persist deployment group: %w", err)
	}

	logger.Infof("Created deployment group with %d layers", len(balanced.Layers))

	return group, nil
}

// Merge adds layers to the deployment group's layer group. Layers already present are left alone.
// If the layer group has not been created in GeoServer yet, it is created from the given layers.
func (s *Synchronizer) Merge(ctx context.Context, group *database.DeploymentGroup, layers []string) (err error) {
	defer func() { metrics.SyncOperation(metrics.OperationMerge, err) }()

	ctx, end := telemetry.Start(ctx, "synchronizer.Merge",
		telemetry.AttributeDeploymentGroup.String(group.ID),
		telemetry.AttributeLayerCount.Int(len(layers)),
	)
	defer func() { end(err) }()

	logger := log.WithFields(group.LogFields()).WithFields(log.Fields{
		logging.LogFieldOperation: metrics.OperationMerge,
		logging.LogFieldLayers:    layers,
	})

	if !group.HasRemoteResource() {
		return s.materialize(ctx, logger, group, layers)
	}

	state, err := s.client.Fetch(ctx, group.ID)
	if err != nil {
		logger.Errorf("Fetch layer group from GeoServer: %s", err)
		return err
	}
	// Writes go to the layer group this deployment group owns, whatever name the response carried.
	state.Name = group.ID

	err = state.Merge(layers)
	if err != nil {
		return &geoserver.SyncError{
			Group:  group.ID,
			Method: http.MethodPut,
			Err:    err,
		}
	}
	balanced := layergroup.Balance(*state)

	err = s.client.Update(ctx, &balanced)
	if err != nil {
		logger.Errorf("Update layer group in GeoServer: %s", err)
		return err
	}

	logger.Infof("Layer group updated, now has %d layers", len(balanced.Layers))

	return nil
}

// The lifecycle only becomes materialized after GeoServer has confirmed the create.
// From then on the registry is written even if ctx is cancelled, since the layer group exists.
func (s *Synchronizer) materialize(ctx context.Context, logger log.FieldLogger, group *database.DeploymentGroup, layers []string) error {
	state, err := layergroup.Build(group.ID, layers)
	if err != nil {
		return &geoserver.SyncError{
			Group:  group.ID,
			Method: http.MethodPost,
			Err:    err,
		}
	}
	balanced := layergroup.Balance(*state)

	err = s.client.Create(ctx, &balanced)
	if err != nil {
		logger.Errorf("Create layer group in GeoServer: %s", err)
		// Errors that stop the request from being sent leave nothing to record.
		syncError := &geoserver.SyncError{}
		if errors.As(err, &syncError) {
			s.setLifecycle(ctx, logger, group, database.LifecycleMaterializationFailed)
		}
		return err
	}

	err = s.registry.SetLifecycle(context.WithoutCancel(ctx), group.ID, database.LifecycleMaterialized)
	if err != nil {
		logger.Errorf("Layer group created in GeoServer, but lifecycle could not be persisted: %s", err)
		return fmt.Errorf("persist lifecycle: %w", err)
	}
	group.Lifecycle = database.LifecycleMaterialized

	logger.Infof("Layer group created in GeoServer with %d layers", len(balanced.Layers))

	return nil
}

// Best effort; the original error is what the caller needs to see.
func (s *Synchronizer) setLifecycle(ctx context.Context, logger log.FieldLogger, group *database.DeploymentGroup, lifecycle database.Lifecycle) {
	if !group.Lifecycle.CanTransitionTo(lifecycle) {
		return
	}
	err := s.registry.SetLifecycle(ctx, group.ID, lifecycle)
	if err != nil {
		logger.Warnf("Unable to set lifecycle to %s: %s", lifecycle, err)
		return
	}
	group.Lifecycle = lifecycle
}

// Delete removes the layer group from GeoServer, then the deployment group.
// A layer group that is already gone is not an error. If GeoServer fails for any
// other reason, the deployment group is kept.
func (s *Synchronizer) Delete(ctx context.Context, group *database.DeploymentGroup) (err error) {
	defer func() { metrics.SyncOperation(metrics.OperationDelete, err) }()

	ctx, end := telemetry.Start(ctx, "synchronizer.Delete",
		telemetry.AttributeDeploymentGroup.String(group.ID),
	)
	defer func() { end(err) }()

	logger := log.WithFields(group.LogFields()).WithField(logging.LogFieldOperation, metrics.OperationDelete)

	err = s.client.Delete(ctx, group.ID)
	switch {
	case geoserver.IsErrNotFound(err):
		logger.Debugf("Layer group does not exist in GeoServer")
	case err != nil:
		logger.Errorf("Delete layer group from GeoServer: %s", err)
		return err
	}

	err = s.registry.DeleteDeploymentGroup(context.WithoutCancel(ctx), group.ID)
	if err != nil {
		return fmt.Errorf("delete deployment group: %w", err)
	}

	logger.Infof("Deleted deployment group")

	return nil
}

func (s *Synchronizer) newGroup(createdBy string, lifecycle database.Lifecycle) *database.DeploymentGroup {
	return &database.DeploymentGroup{
		ID:        s.newID(),
		CreatedBy: createdBy,
		Created:   s.now(),
		Lifecycle: lifecycle,
	}
}
