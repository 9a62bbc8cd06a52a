package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// TOON renders a value as Token-Oriented Object Notation: an
// indentation-based encoding that spends far fewer tokens than JSON on
// repetitive structures. Uniform object arrays collapse to one header
// row plus one data row per element.
func TOON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return "", err
	}

	var b strings.Builder
	renderTOON(&b, doc, 0, "")
	return b.String(), nil
}

func renderTOON(b *strings.Builder, v interface{}, depth int, key string) {
	indent := strings.Repeat("  ", depth)
	switch val := v.(type) {
	case map[string]interface{}:
		if key != "" {
			fmt.Fprintf(b, "%s%s:\n", indent, key)
			depth++
			indent = strings.Repeat("  ", depth)
		}
		for _, k := range sortedKeys(val) {
			child := val[k]
			if isScalar(child) {
				fmt.Fprintf(b, "%s%s: %s\n", indent, k, toonScalar(child))
			} else {
				renderTOON(b, child, depth, k)
			}
		}
	case []interface{}:
		renderTOONArray(b, val, depth, key)
	default:
		fmt.Fprintf(b, "%s%s: %s\n", indent, key, toonScalar(v))
	}
}

func renderTOONArray(b *strings.Builder, arr []interface{}, depth int, key string) {
	indent := strings.Repeat("  ", depth)
	if len(arr) == 0 {
		fmt.Fprintf(b, "%s%s[0]:\n", indent, key)
		return
	}

	if allScalars(arr) {
		items := make([]string, len(arr))
		for i, item := range arr {
			items[i] = toonScalar(item)
		}
		fmt.Fprintf(b, "%s%s[%d]: %s\n", indent, key, len(arr), strings.Join(items, ","))
		return
	}

	if fields, ok := tabularFields(arr); ok {
		fmt.Fprintf(b, "%s%s[%d]{%s}:\n", indent, key, len(arr), strings.Join(fields, ","))
		rowIndent := strings.Repeat("  ", depth+1)
		for _, item := range arr {
			obj := item.(map[string]interface{})
			row := make([]string, len(fields))
			for i, f := range fields {
				row[i] = toonScalar(obj[f])
			}
			fmt.Fprintf(b, "%s%s\n", rowIndent, strings.Join(row, ","))
		}
		return
	}

	fmt.Fprintf(b, "%s%s[%d]:\n", indent, key, len(arr))
	for _, item := range arr {
		if isScalar(item) {
			fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth+1), toonScalar(item))
		} else {
			fmt.Fprintf(b, "%s-\n", strings.Repeat("  ", depth+1))
			renderTOON(b, item, depth+2, "")
		}
	}
}

// tabularFields reports the shared key set when every element is an
// object with identical scalar-only fields.
func tabularFields(arr []interface{}) ([]string, bool) {
	var fields []string
	for i, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		keys := sortedKeys(obj)
		for _, k := range keys {
			if !isScalar(obj[k]) {
				return nil, false
			}
		}
		if i == 0 {
			fields = keys
			continue
		}
		if len(keys) != len(fields) {
			return nil, false
		}
		for j := range keys {
			if keys[j] != fields[j] {
				return nil, false
			}
		}
	}
	return fields, true
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil, bool, string, json.Number:
		return true
	}
	return false
}

func allScalars(arr []interface{}) bool {
	for _, item := range arr {
		if !isScalar(item) {
			return false
		}
	}
	return true
}

// toonScalar formats a scalar, quoting strings that would collide with
// the syntax.
func toonScalar(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprintf("%t", val)
	case json.Number:
		return val.String()
	case string:
		if val == "" || strings.ContainsAny(val, ",:\n\"") ||
			val != strings.TrimSpace(val) {
			return fmt.Sprintf("%q", val)
		}
		return val
	}
	return fmt.Sprintf("%v", v)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
