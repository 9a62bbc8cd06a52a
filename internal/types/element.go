package types

import (
	"encoding/json"
	"sort"
)

// ElementKind discriminates the CodeElement union. The set of kinds is
// closed; adding a variant means adding a constant here, a struct below,
// and a case in KindName.
type ElementKind uint8

const (
	KindFunction ElementKind = iota + 1
	KindClass
	KindVariable
	KindImport
	KindComment
	KindMarkup
	KindStyle
)

func (k ElementKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindVariable:
		return "variable"
	case KindImport:
		return "import"
	case KindComment:
		return "comment"
	case KindMarkup:
		return "markup_element"
	case KindStyle:
		return "style_element"
	}
	return "unknown"
}

// ElementBase carries the fields every element variant shares.
//
// StartLine and EndLine are 1-indexed and EndLine >= StartLine always
// holds for constructed elements. RawText is the verbatim source slice
// covering exactly that line span in the originating file.
type ElementBase struct {
	Name      string   `json:"name"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	RawText   string   `json:"raw_text"`
	Language  Language `json:"language"`
	Docstring string   `json:"docstring,omitempty"`
}

// CodeElement is the closed union of extracted element variants. The
// unexported marker method seals it: only the variants in this package
// implement it, so a switch over concrete types is exhaustive.
type CodeElement interface {
	Kind() ElementKind
	Base() *ElementBase
	element()
}

// Parameter is one formal parameter of a Function.
type Parameter struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// Function covers free functions, methods, constructors, and lambdas
// bound to a name.
type Function struct {
	ElementBase
	Parameters []Parameter `json:"parameters,omitempty"`
	ReturnType string      `json:"return_type,omitempty"`
	Modifiers  []string    `json:"modifiers,omitempty"`
	Receiver   string      `json:"receiver,omitempty"`
	IsMethod   bool        `json:"is_method,omitempty"`
	IsAsync    bool        `json:"is_async,omitempty"`
}

func (f *Function) Kind() ElementKind  { return KindFunction }
func (f *Function) Base() *ElementBase { return &f.ElementBase }
func (*Function) element()             {}

// Class covers class-like declarations. ClassKind refines the flavor:
// "class", "struct", "interface", "enum", "trait", "record", "module".
type Class struct {
	ElementBase
	ClassKind string   `json:"class_kind,omitempty"`
	Bases     []string `json:"bases,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func (c *Class) Kind() ElementKind  { return KindClass }
func (c *Class) Base() *ElementBase { return &c.ElementBase }
func (*Class) element()             {}

// Variable covers variable, constant, and field declarations.
type Variable struct {
	ElementBase
	VarType    string `json:"var_type,omitempty"`
	Value      string `json:"value,omitempty"`
	IsConstant bool   `json:"is_constant,omitempty"`
	IsField    bool   `json:"is_field,omitempty"`
}

func (v *Variable) Kind() ElementKind  { return KindVariable }
func (v *Variable) Base() *ElementBase { return &v.ElementBase }
func (*Variable) element()             {}

// Import covers import/use/include/require statements. Source is the
// imported module or path; Names lists imported symbols when the
// language distinguishes them.
type Import struct {
	ElementBase
	Source string   `json:"source,omitempty"`
	Names  []string `json:"names,omitempty"`
	Alias  string   `json:"alias,omitempty"`
}

func (i *Import) Kind() ElementKind  { return KindImport }
func (i *Import) Base() *ElementBase { return &i.ElementBase }
func (*Import) element()             {}

// Comment covers line and block comments. IsDoc marks comments the
// grammar or position identifies as documentation.
type Comment struct {
	ElementBase
	IsDoc bool `json:"is_doc,omitempty"`
}

func (c *Comment) Kind() ElementKind  { return KindComment }
func (c *Comment) Base() *ElementBase { return &c.ElementBase }
func (*Comment) element()             {}

// MarkupElement covers HTML elements.
type MarkupElement struct {
	ElementBase
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (m *MarkupElement) Kind() ElementKind  { return KindMarkup }
func (m *MarkupElement) Base() *ElementBase { return &m.ElementBase }
func (*MarkupElement) element()             {}

// StyleElement covers CSS rule sets and at-rules.
type StyleElement struct {
	ElementBase
	Selector   string            `json:"selector"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (s *StyleElement) Kind() ElementKind  { return KindStyle }
func (s *StyleElement) Base() *ElementBase { return &s.ElementBase }
func (*StyleElement) element()             {}

// MarshalJSON implementations inject the "kind" discriminator beside the
// variant's own fields. The alias type breaks marshal recursion.

func (f *Function) MarshalJSON() ([]byte, error) {
	type alias Function
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindFunction.String(), alias: (*alias)(f)})
}

func (c *Class) MarshalJSON() ([]byte, error) {
	type alias Class
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindClass.String(), alias: (*alias)(c)})
}

func (v *Variable) MarshalJSON() ([]byte, error) {
	type alias Variable
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindVariable.String(), alias: (*alias)(v)})
}

func (i *Import) MarshalJSON() ([]byte, error) {
	type alias Import
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindImport.String(), alias: (*alias)(i)})
}

func (c *Comment) MarshalJSON() ([]byte, error) {
	type alias Comment
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindComment.String(), alias: (*alias)(c)})
}

func (m *MarkupElement) MarshalJSON() ([]byte, error) {
	type alias MarkupElement
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindMarkup.String(), alias: (*alias)(m)})
}

func (s *StyleElement) MarshalJSON() ([]byte, error) {
	type alias StyleElement
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindStyle.String(), alias: (*alias)(s)})
}

// SortElements orders elements by source position: StartLine ascending,
// ties broken by EndLine, then by kind for a stable result.
func SortElements(elems []CodeElement) {
	sort.SliceStable(elems, func(i, j int) bool {
		a, b := elems[i].Base(), elems[j].Base()
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.EndLine != b.EndLine {
			return a.EndLine < b.EndLine
		}
		return elems[i].Kind() < elems[j].Kind()
	})
}
