package probe

import (
	"mortality/internal/config"
)

// StarterPipeline builds a pipeline config skeleton from a classified header:
// population from the report, state and county guessed from folded identity
// names, remaining identity columns proposed as drop candidates. The caller
// fills in the source path and reviews the guesses.
func StarterPipeline(rep Report) config.Pipeline {
	p := config.Pipeline{
		Job:    "wide_csv_run",
		Source: config.Source{Kind: "file"},
		Table:  config.Table{PopulationColumn: rep.Population},
	}

	for _, c := range rep.Columns {
		if c.Kind != "identity" {
			continue
		}
		switch foldFieldName(c.Name) {
		case "province_state", "state", "region":
			if p.Table.StateColumn == "" {
				p.Table.StateColumn = c.Name
			}
		case "admin2", "county", "subregion":
			if p.Table.CountyColumn == "" {
				p.Table.CountyColumn = c.Name
			}
		default:
			p.Table.DropColumns = append(p.Table.DropColumns, c.Name)
		}
	}

	// No recognizable state column: promote the first identity column so the
	// skeleton at least validates after a manual rename.
	if p.Table.StateColumn == "" {
		for _, c := range rep.Columns {
			if c.Kind == "identity" {
				p.Table.StateColumn = c.Name
				p.Table.DropColumns = remove(p.Table.DropColumns, c.Name)
				break
			}
		}
	}
	return p
}

func remove(list []string, name string) []string {
	out := list[:0]
	for _, s := range list {
		if s != name {
			out = append(out, s)
		}
	}
	return out
}
