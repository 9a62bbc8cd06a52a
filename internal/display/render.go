// Package display renders analysis, query, and batch results for humans
// (text trees) and tools (JSON, TOON).
package display

import (
	"encoding/json"
	"fmt"
	"strings"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/query"
	"github.com/standardbeagle/treescan/internal/types"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTOON = "toon"
)

// Render serializes v in the requested machine format. Text rendering is
// type-specific; use the *Text helpers for it.
func Render(format string, v interface{}) (string, error) {
	switch format {
	case "", FormatJSON:
		return JSON(v)
	case FormatTOON:
		return TOON(v)
	default:
		return "", tserrors.NewValidationError("format",
			fmt.Sprintf("unknown output format %q", format)).
			WithAllowed(FormatJSON, FormatTOON)
	}
}

func JSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AnalysisText renders one analysis result as an indented element tree.
func AnalysisText(result *types.AnalysisResult) string {
	var sb strings.Builder
	if !result.Success {
		fmt.Fprintf(&sb, "%s: FAILED: %s\n", result.FilePath, result.ErrorMessage)
		return sb.String()
	}

	fmt.Fprintf(&sb, "%s (%s): %d elements\n", result.FilePath, result.Language, result.ElementCount)
	for i, el := range result.Elements {
		branch := "├─"
		if i == len(result.Elements)-1 {
			branch = "└─"
		}
		fmt.Fprintf(&sb, "%s %s [%d-%d]\n", branch, describeElement(el), el.Base().StartLine, el.Base().EndLine)
	}
	return sb.String()
}

func describeElement(el types.CodeElement) string {
	base := el.Base()
	switch e := el.(type) {
	case *types.Function:
		label := "function"
		if e.IsMethod {
			label = "method"
		}
		name := base.Name
		if e.Receiver != "" {
			name = fmt.Sprintf("(%s) %s", e.Receiver, name)
		}
		return fmt.Sprintf("%s %s(%s)", label, name, paramList(e.Parameters))
	case *types.Class:
		kind := e.ClassKind
		if kind == "" {
			kind = "class"
		}
		if len(e.Bases) > 0 {
			return fmt.Sprintf("%s %s : %s", kind, base.Name, strings.Join(e.Bases, ", "))
		}
		return fmt.Sprintf("%s %s", kind, base.Name)
	case *types.Variable:
		label := "variable"
		switch {
		case e.IsConstant:
			label = "constant"
		case e.IsField:
			label = "field"
		}
		if e.VarType != "" {
			return fmt.Sprintf("%s %s: %s", label, base.Name, e.VarType)
		}
		return fmt.Sprintf("%s %s", label, base.Name)
	case *types.Import:
		return fmt.Sprintf("import %s", e.Source)
	case *types.Comment:
		if e.IsDoc {
			return fmt.Sprintf("doc comment %s", truncate(firstTextLine(base.RawText), 60))
		}
		return fmt.Sprintf("comment %s", truncate(firstTextLine(base.RawText), 60))
	case *types.MarkupElement:
		return fmt.Sprintf("element <%s>", e.Tag)
	case *types.StyleElement:
		return fmt.Sprintf("rule %s", e.Selector)
	}
	return fmt.Sprintf("%s %s", el.Kind(), base.Name)
}

func paramList(params []types.Parameter) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// QueryText renders a query response as a match listing or summary.
func QueryText(resp *query.Response) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) query %q: %d matches\n", resp.FilePath, resp.Language, resp.Query, resp.Count)
	if resp.Count == 0 {
		sb.WriteString("no results\n")
		return sb.String()
	}

	for _, c := range resp.Captures {
		fmt.Fprintf(&sb, "%s: %d\n", c.CaptureName, c.Count)
		for _, rep := range c.Representatives {
			fmt.Fprintf(&sb, "  %s [%d-%d]\n", truncate(firstTextLine(rep.Content), 70), rep.StartLine, rep.EndLine)
		}
	}
	for _, m := range resp.Results {
		fmt.Fprintf(&sb, "%s (%s) [%d-%d]: %s\n",
			m.CaptureName, m.NodeType, m.StartLine, m.EndLine, truncate(firstTextLine(m.Content), 70))
	}
	if resp.FileSaveError != "" {
		fmt.Fprintf(&sb, "warning: output file not written: %s\n", resp.FileSaveError)
	} else if resp.FileSaved {
		fmt.Fprintf(&sb, "saved to %s\n", resp.OutputFile)
	}
	return sb.String()
}

// BatchText renders a batch result with per-file status lines.
func BatchText(result *types.BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "batch: %d/%d files", result.FilesProcessed, result.FilesRequested)
	if result.Truncated {
		sb.WriteString(" (truncated)")
	}
	sb.WriteString("\n")

	for _, r := range result.Results {
		if r.Error != "" {
			fmt.Fprintf(&sb, "✗ %s: %s\n", r.FilePath, r.Error)
			continue
		}
		fmt.Fprintf(&sb, "✓ %s (%d sections)\n", r.FilePath, len(r.Sections))
		for _, s := range r.Sections {
			fmt.Fprintf(&sb, "  [%d-%d of %d]\n%s\n", s.StartLine, s.EndLine, s.TotalLines, s.Content)
		}
	}
	return sb.String()
}

// LanguagesText renders the supported language table.
func LanguagesText(infos []types.LanguageInfo) string {
	var sb strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&sb, "%-12s %s\n", info.Name, strings.Join(info.Extensions, " "))
	}
	return sb.String()
}

func firstTextLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
