/*
Japitest starts an in-process mock JSON:API server and drives every client
operation against it, reporting each check as it runs.

Usage:

	japitest [flags]

The mock server provides a small blog-shaped dataset of articles, comments
and people, including relationship endpoints and an atomic operations
endpoint. The client is then used to find, create, save and batch records
against it. Japitest exits with a non-zero code if any check fails, so it can
back a smoke-test stage.

The flags are:

	-c, --conf PATH
		Use the given file for the client configuration instead of built-in
		defaults. The file must be in JSON or YAML format.
	-q, --quiet
		Suppress per-check output and print only the final result.
*/
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	jsonapi "github.com/bjornharrtell/json-api"
	"github.com/bjornharrtell/json-api/config"
	"github.com/bjornharrtell/json-api/transport"
	"github.com/dekarrin/jellog"
	"github.com/spf13/pflag"
)

const (
	exitSuccess = 0
	exitError   = 1
	exitPanic   = 2
)

var exitCode int

var (
	flagConf  = pflag.StringP("conf", "c", "", "Path to client configuration file")
	flagQuiet = pflag.BoolP("quiet", "q", false, "Only print the final result")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			fmt.Fprintf(os.Stderr, "fatal panic: %v\n", panicErr)
			exitCode = exitPanic
		}
		os.Exit(exitCode)
	}()

	pflag.Parse()

	stdErrOutput := jellog.NewStderrHandler(nil)
	logger := jellog.New(jellog.Defaults[string]().
		WithComponent("japitest"))
	logger.AddHandler(jellog.LvTrace, stdErrOutput)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		exitCode = exitError
		return
	}
	mock := &http.Server{Handler: newMockServer().Routes()}
	go mock.Serve(lis)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mock.Shutdown(shutdownCtx)
	}()

	endpoint := "http://" + lis.Addr().String()
	logger.Infof("Mock JSON:API server listening on %s", endpoint)

	var conf config.Config
	if *flagConf != "" {
		logger.Infof("Loading config file %s...", *flagConf)
		conf, err = config.Load(*flagConf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			exitCode = exitError
			return
		}
	} else {
		conf.ConvertCase = true
	}
	conf.Endpoint = endpoint

	t, err := transport.New(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		exitCode = exitError
		return
	}

	ses, err := jsonapi.New(t, blogModels(), &conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		exitCode = exitError
		return
	}

	passed, failed := runChecks(ses, logger, *flagQuiet)
	logger.Infof("%d passed, %d failed", passed, failed)
	if failed > 0 {
		exitCode = exitError
	}
}

// blogModels is the model set for the mock server's dataset.
func blogModels() []jsonapi.Model {
	return []jsonapi.Model{
		{
			Type: "articles",
			Relationships: map[string]jsonapi.Rel{
				"author":   {Type: "people", Kind: jsonapi.BelongsTo},
				"comments": {Type: "comments", Kind: jsonapi.HasMany},
			},
		},
		{
			Type: "comments",
			Relationships: map[string]jsonapi.Rel{
				"author": {Type: "people", Kind: jsonapi.BelongsTo},
			},
		},
		{Type: "people"},
	}
}
