package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nexus/pkg/nexus"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

// openClient loads the configuration and binds a client to it. The caller
// must Close the client.
func (a *app) openClient(ctx context.Context) (types.Client, types.Config, error) {
	cfg, _, err := a.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	client, err := nexus.New(cfg, nexus.WithLogger(a.log), nexus.WithContext(ctx))
	if err != nil {
		return nil, cfg, fmt.Errorf("open client: %w", err)
	}
	return client, cfg, nil
}

// withClient opens a client, runs fn, and closes the client.
func (a *app) withClient(cmd *cobra.Command, fn func(client types.Client) error) error {
	client, _, err := a.openClient(cmd.Context())
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

// parseRecord decodes a JSON object argument.
func parseRecord(arg string) (types.Record, error) {
	var rec types.Record
	if err := json.Unmarshal([]byte(arg), &rec); err != nil {
		return nil, usagef("invalid JSON object %q: %s", arg, err)
	}
	return rec, nil
}

// parseRows decodes a JSON object or an array of objects.
func parseRows(arg string) ([]types.Record, error) {
	trimmed := strings.TrimSpace(arg)
	if strings.HasPrefix(trimmed, "[") {
		var rows []types.Record
		if err := json.Unmarshal([]byte(trimmed), &rows); err != nil {
			return nil, usagef("invalid JSON array %q: %s", arg, err)
		}
		return rows, nil
	}
	rec, err := parseRecord(trimmed)
	if err != nil {
		return nil, err
	}
	return []types.Record{rec}, nil
}

// eqFilter is one --eq key=value flag. Values are strings except the
// literals true, false, and null.
type eqFilter struct {
	field string
	value any
}

func parseFilters(args []string) ([]eqFilter, error) {
	filters := make([]eqFilter, 0, len(args))
	for _, arg := range args {
		field, raw, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, usagef("invalid filter %q (expected key=value)", arg)
		}
		var value any = raw
		switch raw {
		case "true":
			value = true
		case "false":
			value = false
		case "null":
			value = nil
		}
		filters = append(filters, eqFilter{field: field, value: value})
	}
	return filters, nil
}

func applyFilters(q types.Query, filters []eqFilter) types.Query {
	for _, f := range filters {
		q = q.Eq(f.field, f.value)
	}
	return q
}
