package main

import (
	"context"
	"net/http"
	"os"

	"github.com/craigwongva/pz-access/pkg/groupclient"
	"github.com/craigwongva/pz-access/pkg/version"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	err := run()
	if err == nil {
		return
	}
	code := groupclient.ErrorExitCode(err)
	if code == groupclient.ExitInvocationFailure {
		flag.Usage()
	}
	log.Errorf("fatal: %s", err)
	os.Exit(int(code))
}

func run() error {
	// Configuration and context
	cfg := groupclient.NewConfig()
	groupclient.InitConfig(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	// Logging
	groupclient.SetupLogging(*cfg)

	// Welcome
	log.Infof("groupctl %s", version.Version())
	ts, err := version.BuildTime()
	if err == nil {
		log.Infof("This version was built %s", ts.Local())
	}

	err = groupclient.Prepare(cfg)
	if err != nil {
		return err
	}

	client := &groupclient.Client{
		HTTPClient: &http.Client{},
		Server:     cfg.Server,
	}

	return groupclient.Run(ctx, cfg, client, os.Stdout)
}
