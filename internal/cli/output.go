package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

func writeJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printResult writes rows as one JSON object per line, or ids one per
// line, followed by a count. In JSON mode it writes the whole result.
func (a *app) printResult(cmd *cobra.Command, res *types.Result) error {
	if res == nil {
		res = &types.Result{}
	}
	if a.flags.jsonMode {
		return writeJSON(cmd, res)
	}
	w := cmd.OutOrStdout()
	for _, row := range res.Rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal row: %w", err)
		}
		fmt.Fprintln(w, string(line))
	}
	for _, id := range res.IDs {
		fmt.Fprintln(w, id)
	}
	noun := "rows"
	if res.Len() == 1 {
		noun = "row"
	}
	fmt.Fprintf(w, "(%d %s)\n", res.Len(), noun)
	return nil
}

func (a *app) printUser(cmd *cobra.Command, u *types.User) error {
	if a.flags.jsonMode {
		return writeJSON(cmd, u)
	}
	if u == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
		return nil
	}
	meta := u.UserMetadata
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nid:   %s\nrole: %s\n", meta.FullName(), u.Email, u.ID, meta.Role())
	return nil
}
