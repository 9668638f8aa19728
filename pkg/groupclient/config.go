package groupclient

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

const (
	ActionCreate = "create"
	ActionGet    = "get"
	ActionMerge  = "merge"
	ActionDelete = "delete"

	DefaultServer  = "http://127.0.0.1:8080"
	DefaultTimeout = time.Minute
)

var (
	ErrActionRequired   = errors.New("action must be one of create, get, merge or delete")
	ErrGroupRequired    = errors.New("deployment group ID is required for this action")
	ErrCreatorRequired  = errors.New("createdBy is required when creating a deployment group")
	ErrLayersRequired   = errors.New("at least one layer is required when merging")
	ErrServerURLInvalid = errors.New("server URL must start with http:// or https://")
)

type Config struct {
	Action        string
	CreatedBy     string
	DryRun        bool
	GroupID       string
	Layers        []string
	PrintPayload  bool
	Quiet         bool
	Resource      []string
	Server        string
	Timeout       time.Duration
	Variables     []string
	VariablesFile string
}

func InitConfig(cfg *Config) {
	flag.StringVar(&cfg.CreatedBy, "created-by", os.Getenv("CREATED_BY"), "Who is creating the deployment group. (env CREATED_BY)")
	flag.BoolVar(&cfg.DryRun, "dry-run", getEnvBool("DRY_RUN", false), "Run templating, but don't actually make any requests. (env DRY_RUN)")
	flag.StringVar(&cfg.GroupID, "group", os.Getenv("DEPLOYMENT_GROUP"), "Deployment group ID. (env DEPLOYMENT_GROUP)")
	flag.StringSliceVar(&cfg.Layers, "layer", getEnvStringSlice("LAYER"), "Layer name. Can be specified multiple times. (env LAYER)")
	flag.BoolVar(&cfg.PrintPayload, "print-payload", getEnvBool("PRINT_PAYLOAD", false), "Print request payload to standard output. (env PRINT_PAYLOAD)")
	flag.BoolVar(&cfg.Quiet, "quiet", getEnvBool("QUIET", false), "Suppress printing of informational messages except errors. (env QUIET)")
	flag.StringSliceVar(&cfg.Resource, "resource", getEnvStringSlice("RESOURCE"), "Deployment group manifest. Can be specified multiple times. (env RESOURCE)")
	flag.StringVar(&cfg.Server, "server", getEnv("GROUPD_SERVER", DefaultServer), "URL to groupd. (env GROUPD_SERVER)")
	flag.DurationVar(&cfg.Timeout, "timeout", getEnvDuration("TIMEOUT", DefaultTimeout), "Time to wait for the request to complete. (env TIMEOUT)")
	flag.StringSliceVar(&cfg.Variables, "var", getEnvStringSlice("VAR"), "Template variable in the form KEY=VALUE. Can be specified multiple times. (env VAR)")
	flag.StringVar(&cfg.VariablesFile, "vars", os.Getenv("VARS"), "File containing template variables. (env VARS)")

	flag.Usage = func() {
		os.Stderr.WriteString("Usage: groupctl [flags] <create|get|merge|delete>\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg.Action = flag.Arg(0)
}

func NewConfig() *Config {
	return &Config{}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		duration, err := time.ParseDuration(value)
		if err == nil {
			return duration
		}
	}
	return fallback
}

func getEnvStringSlice(key string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}

	return []string{}
}

func getEnvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}

	return b
}

// Validate checks the request after manifests have been applied.
func (cfg *Config) Validate() error {
	if !strings.HasPrefix(cfg.Server, "http://") && !strings.HasPrefix(cfg.Server, "https://") {
		return ErrServerURLInvalid
	}

	switch cfg.Action {
	case ActionCreate:
		if len(cfg.CreatedBy) == 0 {
			return ErrCreatorRequired
		}
	case ActionMerge:
		if len(cfg.GroupID) == 0 {
			return ErrGroupRequired
		}
		if len(cfg.Layers) == 0 {
			return ErrLayersRequired
		}
	case ActionGet, ActionDelete:
		if len(cfg.GroupID) == 0 {
			return ErrGroupRequired
		}
	default:
		return ErrActionRequired
	}

	return nil
}
