package api_v1_group

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/craigwongva/pz-access/pkg/geoserver"
	"github.com/craigwongva/pz-access/pkg/groupd/database"
	"github.com/craigwongva/pz-access/pkg/groupd/middleware"
	"github.com/craigwongva/pz-access/pkg/groupd/synchronizer"
	"github.com/craigwongva/pz-access/pkg/layergroup"
	"github.com/craigwongva/pz-access/pkg/logging"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
)

const maxRequestSize = 1024 * 1024

type Synchronizer interface {
	CreateEmpty(ctx context.Context, createdBy string) (*database.DeploymentGroup, error)
	CreateWithLayers(ctx context.Context, layers []string, createdBy string) (*database.DeploymentGroup, error)
	Merge(ctx context.Context, group *database.DeploymentGroup, layers []string) error
	Delete(ctx context.Context, group *database.DeploymentGroup) error
}

var _ Synchronizer = &synchronizer.Synchronizer{}

type Handler struct {
	DeploymentGroupStore database.DeploymentGroupStore
	Synchronizer         Synchronizer
	Locker               *synchronizer.KeyedLocker
}

type CreateRequest struct {
	CreatedBy string   `json:"createdBy"`
	Layers    []string `json:"layers"`
}

type MergeRequest struct {
	Layers []string `json:"layers"`
}

type Response struct {
	Message string `json:"message"`
}

func (r *CreateRequest) validate() error {
	if len(r.CreatedBy) == 0 {
		return fmt.Errorf("no createdBy specified")
	}
	return nil
}

func (r *MergeRequest) validate() error {
	if r.Layers == nil {
		return fmt.Errorf("no layers specified")
	}
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(middleware.RequestLogFields(r))

	request := &CreateRequest{}
	if err := decode(r, request); err != nil {
		h.fail(w, r, logger, http.StatusBadRequest, err)
		return
	}
	if err := request.validate(); err != nil {
		h.fail(w, r, logger, http.StatusBadRequest, err)
		return
	}

	group, err := h.Synchronizer.CreateWithLayers(r.Context(), request.Layers, request.CreatedBy)
	if err != nil {
		h.fail(w, r, logger, statusCode(err), err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, group)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(middleware.RequestLogFields(r))

	group, err := h.DeploymentGroupStore.DeploymentGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, logger, statusCode(err), err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, group)
}

func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(middleware.RequestLogFields(r))

	request := &MergeRequest{}
	if err := decode(r, request); err != nil {
		h.fail(w, r, logger, http.StatusBadRequest, err)
		return
	}
	if err := request.validate(); err != nil {
		h.fail(w, r, logger, http.StatusBadRequest, err)
		return
	}

	id := chi.URLParam(r, "id")
	unlock := h.Locker.Lock(id)
	defer unlock()

	group, err := h.DeploymentGroupStore.DeploymentGroup(r.Context(), id)
	if err != nil {
		h.fail(w, r, logger, statusCode(err), err)
		return
	}

	err = h.Synchronizer.Merge(r.Context(), group, request.Layers)
	if err != nil {
		h.fail(w, r, logger.WithField(logging.LogFieldLayers, request.Layers), statusCode(err), err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, group)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(middleware.RequestLogFields(r))

	id := chi.URLParam(r, "id")
	unlock := h.Locker.Lock(id)
	defer unlock()

	group, err := h.DeploymentGroupStore.DeploymentGroup(r.Context(), id)
	if err != nil {
		h.fail(w, r, logger, statusCode(err), err)
		return
	}

	err = h.Synchronizer.Delete(r.Context(), group)
	if err != nil {
		h.fail(w, r, logger, statusCode(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, logger log.FieldLogger, code int, err error) {
	if code >= http.StatusInternalServerError {
		logger.Errorf("%s: %s", http.StatusText(code), err)
	} else {
		logger.Infof("%s: %s", http.StatusText(code), err)
	}
	render.Status(r, code)
	render.JSON(w, r, &Response{Message: err.Error()})
}

func decode(r *http.Request, target interface{}) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		return fmt.Errorf("unable to read request body: %w", err)
	}
	err = json.Unmarshal(data, target)
	if err != nil {
		return fmt.Errorf("unable to unmarshal request body: %w", err)
	}
	return nil
}

func statusCode(err error) int {
	var buildError *layergroup.BuildError
	var syncError *geoserver.SyncError
	switch {
	case errors.As(err, &buildError):
		return http.StatusBadRequest
	case database.IsErrNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &syncError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
