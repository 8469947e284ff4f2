package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

func (a *app) newTablesCmd() *cobra.Command {
	var withCounts bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables the client accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := a.openClient(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			names := make([]string, 0)
			for t := range cfg.Tables() {
				names = append(names, string(t))
			}
			slices.Sort(names)

			counts := map[string]int{}
			if withCounts {
				for _, name := range names {
					res, err := client.From(types.TableName(name)).Execute(cmd.Context())
					if err != nil {
						return fmt.Errorf("count %s: %w", name, err)
					}
					counts[name] = res.Len()
				}
			}

			if a.flags.jsonMode {
				if withCounts {
					return writeJSON(cmd, counts)
				}
				return writeJSON(cmd, names)
			}
			for _, name := range names {
				if withCounts {
					fmt.Fprintf(cmd.OutOrStdout(), "%-28s %d\n", name, counts[name])
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withCounts, "count", false, "include the row count of each table")
	return cmd
}

// singleFlags adds --single and --maybe-single to cmd.
type singleFlags struct {
	single      bool
	maybeSingle bool
}

func (s *singleFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.single, "single", false, "expect exactly one row")
	cmd.Flags().BoolVar(&s.maybeSingle, "maybe-single", false, "expect zero or one row")
	cmd.MarkFlagsMutuallyExclusive("single", "maybe-single")
}

func (s *singleFlags) apply(q types.Query) types.Query {
	switch {
	case s.single:
		return q.Single()
	case s.maybeSingle:
		return q.MaybeSingle()
	default:
		return q
	}
}

func (a *app) newSelectCmd() *cobra.Command {
	var (
		eqArgs  []string
		columns string
		order   string
		desc    bool
		mode    singleFlags
	)
	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Read rows from a table",
		Example: "  nexus select contacts --order company\n" +
			"  nexus select tasks --eq status=pending --order due_date --desc\n" +
			"  nexus select contacts --eq id=3 --single --columns id,company",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(eqArgs)
			if err != nil {
				return err
			}
			return a.withClient(cmd, func(client types.Client) error {
				q := client.From(types.TableName(args[0])).Select(columns)
				q = applyFilters(q, filters)
				if order != "" {
					q = q.Order(order, types.Ascending(!desc))
				}
				res, err := mode.apply(q).Execute(cmd.Context())
				if err != nil {
					return err
				}
				return a.printResult(cmd, res)
			})
		},
	}
	cmd.Flags().StringArrayVar(&eqArgs, "eq", nil, "equality filter key=value (repeatable)")
	cmd.Flags().StringVar(&columns, "columns", "*", "comma-separated columns to return")
	cmd.Flags().StringVar(&order, "order", "", "field to order by")
	cmd.Flags().BoolVar(&desc, "desc", false, "order descending")
	mode.register(cmd)
	return cmd
}

func (a *app) newInsertCmd() *cobra.Command {
	var mode singleFlags
	cmd := &cobra.Command{
		Use:     "insert <table> <json>",
		Short:   "Insert one row or an array of rows",
		Example: `  nexus insert tasks '{"title":"Call back","status":"pending"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := parseRows(args[1])
			if err != nil {
				return err
			}
			return a.withClient(cmd, func(client types.Client) error {
				q := client.From(types.TableName(args[0])).Insert(rows...)
				res, err := mode.apply(q).Execute(cmd.Context())
				if err != nil {
					return err
				}
				return a.printResult(cmd, res)
			})
		},
	}
	mode.register(cmd)
	return cmd
}

func (a *app) newUpdateCmd() *cobra.Command {
	var (
		eqArgs     []string
		returnRows bool
		mode       singleFlags
	)
	cmd := &cobra.Command{
		Use:     "update <table> <json>",
		Short:   "Merge a patch into matching rows",
		Example: `  nexus update tasks '{"status":"done"}' --eq id=task-1 --select`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseRecord(args[1])
			if err != nil {
				return err
			}
			filters, err := parseFilters(eqArgs)
			if err != nil {
				return err
			}
			if len(filters) == 0 {
				return usagef("update requires at least one --eq filter")
			}
			return a.withClient(cmd, func(client types.Client) error {
				q := applyFilters(client.From(types.TableName(args[0])).Update(patch), filters)
				if returnRows {
					q = q.Select()
				}
				res, err := mode.apply(q).Execute(cmd.Context())
				if err != nil {
					return err
				}
				return a.printResult(cmd, res)
			})
		},
	}
	cmd.Flags().StringArrayVar(&eqArgs, "eq", nil, "equality filter key=value (repeatable)")
	cmd.Flags().BoolVar(&returnRows, "select", false, "return the updated rows instead of their ids")
	mode.register(cmd)
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	var eqArgs []string
	cmd := &cobra.Command{
		Use:     "delete <table>",
		Short:   "Delete matching rows",
		Example: "  nexus delete notifications --eq id=notif-1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(eqArgs)
			if err != nil {
				return err
			}
			if len(filters) == 0 {
				return usagef("delete requires at least one --eq filter")
			}
			return a.withClient(cmd, func(client types.Client) error {
				q := applyFilters(client.From(types.TableName(args[0])).Delete(), filters)
				res, err := q.Execute(cmd.Context())
				if err != nil {
					return err
				}
				return a.printResult(cmd, res)
			})
		},
	}
	cmd.Flags().StringArrayVar(&eqArgs, "eq", nil, "equality filter key=value (repeatable)")
	return cmd
}
