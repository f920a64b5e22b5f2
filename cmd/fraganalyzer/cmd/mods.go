package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

var modsFormat string

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "List the known modification tags and masses",
	Long: `List the modification tags that can be used with --modification, together with
their monoisotopic mass shift. Custom tags are loaded with --mods.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := modEntries(mods)
		if modsFormat == "table" {
			fmt.Println(renderMods(entries))
			return nil
		}
		return encode(os.Stdout, modsFormat, entries)
	},
}

func init() {
	modsCmd.Flags().StringVarP(&modsFormat, "output", "o", "table", "Output format: table, json or yaml")
}

type modEntry struct {
	Name string  `json:"name" yaml:"name"`
	Mass float64 `json:"mass" yaml:"mass"`
}

func modEntries(db *core.ModDatabase) []modEntry {
	names := db.Names()
	entries := make([]modEntry, 0, len(names))
	for _, name := range names {
		mass, _ := db.GetMass(name)
		entries = append(entries, modEntry{Name: name, Mass: mass})
	}
	return entries
}

func renderMods(entries []modEntry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Name, strconv.FormatFloat(e.Mass, 'f', 6, 64)}
	}
	return table([]string{"Tag", "Mass shift"}, rows, nil)
}
