package types

import (
	"fmt"
	"sort"
)

// QueryMatch is one labeled capture produced by a structural query.
type QueryMatch struct {
	CaptureName string `json:"capture_name"`
	Content     string `json:"content"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	NodeType    string `json:"node_type"`
}

// FilterField selects which QueryMatch field a post-filter inspects.
type FilterField string

const (
	FilterFieldCapture  FilterField = "capture"
	FilterFieldContent  FilterField = "content"
	FilterFieldNodeType FilterField = "node_type"
)

// FilterOperator selects the comparison a post-filter applies.
type FilterOperator string

const (
	FilterOpEq       FilterOperator = "eq"
	FilterOpContains FilterOperator = "contains"
	FilterOpRegex    FilterOperator = "regex"
)

// FilterExpression is a post-hoc predicate over already-matched captures.
// It never influences which tree nodes a query visits.
type FilterExpression struct {
	Field    FilterField    `json:"field"`
	Operator FilterOperator `json:"operator"`
	Pattern  string         `json:"pattern"`
}

// Validate checks field and operator against their closed sets.
func (f FilterExpression) Validate() error {
	switch f.Field {
	case FilterFieldCapture, FilterFieldContent, FilterFieldNodeType:
	default:
		return fmt.Errorf("filter field must be one of capture, content, node_type; got %q", f.Field)
	}
	switch f.Operator {
	case FilterOpEq, FilterOpContains, FilterOpRegex:
	default:
		return fmt.Errorf("filter operator must be one of eq, contains, regex; got %q", f.Operator)
	}
	if f.Pattern == "" {
		return fmt.Errorf("filter pattern must not be empty")
	}
	return nil
}

// SortMatches orders matches by source position: StartLine ascending,
// ties broken by EndLine then NodeType.
func SortMatches(matches []QueryMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.EndLine != b.EndLine {
			return a.EndLine < b.EndLine
		}
		return a.NodeType < b.NodeType
	})
}
