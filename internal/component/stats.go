package component

import "fmt"

// Stat is one labelled figure in the stats fragment.
type Stat struct {
	Label string
	Value int64
}

func Stats() Component {
	return Component{
		Name:         "stats",
		TemplateName: "stats.html",
		Context: func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("want 1 argument, got %d", len(args))
			}
			stats, ok := args[0].([]Stat)
			if !ok {
				return nil, fmt.Errorf("want []Stat, got %T", args[0])
			}
			return map[string]any{"stats": stats}, nil
		},
	}
}
