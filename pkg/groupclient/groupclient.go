package groupclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Prepare renders the manifests and folds them into the configuration.
// Values given on the command line take precedence over manifest values.
func Prepare(cfg *Config) error {
	templateVariables, err := LoadTemplateVariables(cfg.VariablesFile, cfg.Variables)
	if err != nil {
		return Errorf(ExitInvocationFailure, "load template variables: %s", err)
	}

	documents := make([]json.RawMessage, 0)
	for _, path := range cfg.Resource {
		parsed, err := ReadManifestDocuments(path, templateVariables)
		if err != nil {
			return ErrorWrap(ExitTemplateError, err)
		}
		documents = append(documents, parsed...)
	}

	manifest, err := manifestFromDocuments(documents)
	if err != nil {
		return ErrorWrap(ExitTemplateError, err)
	}

	if len(cfg.GroupID) == 0 {
		cfg.GroupID = manifest.DeploymentGroupID
	}
	if len(cfg.CreatedBy) == 0 {
		cfg.CreatedBy = manifest.CreatedBy
	}
	cfg.Layers = append(manifest.Layers, cfg.Layers...)

	err = cfg.Validate()
	if err != nil {
		return ErrorWrap(ExitInvocationFailure, err)
	}

	return nil
}

// Run performs the configured action and writes the resulting deployment group to out.
func Run(ctx context.Context, cfg *Config, client *Client, out io.Writer) error {
	logger := log.WithField("action", cfg.Action)
	if len(cfg.GroupID) > 0 {
		logger = logger.WithField("deployment_group", cfg.GroupID)
	}

	if cfg.PrintPayload {
		printJSON(out, &Manifest{
			DeploymentGroupID: cfg.GroupID,
			CreatedBy:         cfg.CreatedBy,
			Layers:            cfg.Layers,
		})
	}

	if cfg.DryRun {
		logger.Infof("Dry run; not sending request")
		return nil
	}

	var group *DeploymentGroup
	var err error

	switch cfg.Action {
	case ActionCreate:
		group, err = client.Create(ctx, cfg.CreatedBy, cfg.Layers)
	case ActionGet:
		group, err = client.Get(ctx, cfg.GroupID)
	case ActionMerge:
		group, err = client.Merge(ctx, cfg.GroupID, cfg.Layers)
	case ActionDelete:
		err = client.Delete(ctx, cfg.GroupID)
	default:
		err = ErrorWrap(ExitInvocationFailure, ErrActionRequired)
	}

	if err != nil {
		return err
	}

	if group == nil {
		logger.Infof("Deployment group deleted")
		return nil
	}

	logger.WithField("deployment_group", group.ID).Infof("Deployment group is %s", group.Lifecycle)
	printJSON(out, group)

	return nil
}

func printJSON(out io.Writer, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(out, string(data))
}

func SetupLogging(cfg Config) {
	log.SetOutput(os.Stderr)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:          true,
		TimestampFormat:        time.RFC3339Nano,
		DisableLevelTruncation: true,
	})

	if cfg.Quiet {
		log.SetLevel(log.ErrorLevel)
	}
}
