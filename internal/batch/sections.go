package batch

import (
	"fmt"
	"strings"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/types"
)

// Slice resolves one 1-indexed line/column range against decoded file
// content. EndLine 0 reads to the end of the file; an end past the last
// line clamps rather than fails. Columns slice runes, not bytes.
func Slice(content string, req types.SectionRequest) (types.SectionContent, error) {
	lines := strings.Split(content, "\n")
	total := len(lines)
	if total > 1 && lines[total-1] == "" {
		total--
	}

	if req.StartLine < 1 {
		return types.SectionContent{}, tserrors.NewValidationError("start_line",
			fmt.Sprintf("must be at least 1, got %d", req.StartLine))
	}
	if req.StartLine > total {
		return types.SectionContent{}, tserrors.NewValidationError("start_line",
			fmt.Sprintf("%d is past the end of the file (%d lines)", req.StartLine, total))
	}
	end := req.EndLine
	if end == 0 || end > total {
		end = total
	}
	if end < req.StartLine {
		return types.SectionContent{}, tserrors.NewValidationError("end_line",
			fmt.Sprintf("%d is before start_line %d", req.EndLine, req.StartLine))
	}
	if req.StartColumn < 0 || req.EndColumn < 0 {
		return types.SectionContent{}, tserrors.NewValidationError("start_column",
			"columns must not be negative")
	}

	selected := make([]string, end-req.StartLine+1)
	copy(selected, lines[req.StartLine-1:end])

	// Columns are positions in the original lines, so a single-line
	// section applies both bounds to the same rune slice.
	if len(selected) == 1 {
		runes := []rune(selected[0])
		from, to := 0, len(runes)
		if req.StartColumn > 1 {
			from = min(req.StartColumn-1, len(runes))
		}
		if req.EndColumn > 0 && req.EndColumn < to {
			to = req.EndColumn
		}
		if to < from {
			to = from
		}
		selected[0] = string(runes[from:to])
	} else {
		if req.StartColumn > 1 {
			first := []rune(selected[0])
			selected[0] = string(first[min(req.StartColumn-1, len(first)):])
		}
		if req.EndColumn > 0 {
			last := []rune(selected[len(selected)-1])
			if req.EndColumn < len(last) {
				selected[len(selected)-1] = string(last[:req.EndColumn])
			}
		}
	}

	return types.SectionContent{
		StartLine:  req.StartLine,
		EndLine:    end,
		Content:    strings.Join(selected, "\n"),
		TotalLines: total,
	}, nil
}
