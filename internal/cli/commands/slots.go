package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

// NewSlotsCommand creates the slots command.
func NewSlotsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List the tables an archive may contain",
		Long: `List the fixed catalog of table names, in the order they are written
to an archive. Members with any other name are reported as unknown.`,
		Example: `  # List table names
  ddf slots

  # As JSON
  ddf slots --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runSlots(cmdCtx)
		},
	}
}

func runSlots(c *CommandContext) error {
	r := c.Renderer
	ext := c.Manager.Extension()

	infos := make([]output.SlotInfo, 0, schema.NumSlots)
	for _, s := range schema.Slots() {
		infos = append(infos, output.SlotInfo{Index: int(s), Name: s.String(), File: s.FileName(ext)})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	r.Header(1, "Tables ("+strconv.Itoa(len(infos))+")")
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{strconv.Itoa(info.Index), info.Name, info.File}
	}
	r.Table([]string{"#", "Name", "File"}, rows)
	return nil
}
