package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xxxsen/griffin/internal/client"
	"github.com/xxxsen/griffin/internal/localstore"
	"github.com/xxxsen/griffin/internal/model"
)

const (
	stateKeyServer = "griffin.server"
	stateKeyToken  = "griffin.token"
	defaultServer  = "http://localhost:8080"
)

var cliOpts struct {
	statePath string
	server    string
}

var errNotLoggedIn = errors.New("not logged in, run griffin login first")

func openState() (*localstore.Store, error) {
	path := cliOpts.statePath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "griffin", "state.json")
	}
	return localstore.Open(path)
}

// resolveServer prefers --server, then the server used at login, then
// GRIFFIN_SERVER.
func resolveServer(store *localstore.Store) string {
	if cliOpts.server != "" {
		return cliOpts.server
	}
	var server string
	if ok, err := store.Get(stateKeyServer, &server); err == nil && ok && server != "" {
		return server
	}
	if env := os.Getenv("GRIFFIN_SERVER"); env != "" {
		return env
	}
	return defaultServer
}

func newAPIClient(store *localstore.Store, opts ...client.Option) (*client.Client, error) {
	var token string
	if _, err := store.Get(stateKeyToken, &token); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errNotLoggedIn
	}
	opts = append([]client.Option{client.WithToken(token)}, opts...)
	return client.New(resolveServer(store), opts...), nil
}

func printItem(out io.Writer, item model.ConversationItem) {
	switch {
	case item.Status == model.ItemStatusFailed:
		fmt.Fprintf(out, "[%s] failed: %s\n", item.Role, item.Error)
	case item.Role == model.RoleAssistant:
		fmt.Fprintln(out, item.Content)
	}
}
