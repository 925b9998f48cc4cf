package output

import (
	"fmt"
	"io"

	"github.com/Variations9/srcfacts/pkg/facts"
)

// FileFacts is one rendered report row: every facet cell for one file.
type FileFacts struct {
	Path         string `json:"path" yaml:"path"`
	Functions    string `json:"functions" yaml:"functions"`
	CallOrder    string `json:"call_order" yaml:"call_order"`
	Dependencies string `json:"dependencies" yaml:"dependencies"`
	DataFlow     string `json:"data_flow" yaml:"data_flow"`
	IO           string `json:"io" yaml:"io"`
	SideEffects  string `json:"side_effects" yaml:"side_effects"`
	Diagnostic   string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

// NewFileFacts renders every facet of one analysis result.
func NewFileFacts(path string, r *facts.Result, diag string) FileFacts {
	if r == nil {
		r = facts.NewResult()
	}
	return FileFacts{
		Path:         path,
		Functions:    r.FunctionsCell(),
		CallOrder:    r.CallOrderCell(),
		Dependencies: r.DependenciesCell(),
		DataFlow:     r.DataFlowCell(),
		IO:           r.IOCell(),
		SideEffects:  r.SideEffectsCell(),
		Diagnostic:   diag,
	}
}

// FactsReport is the batch report: one row per analyzed file.
type FactsReport struct {
	Files []FileFacts `json:"files" yaml:"files"`
}

var reportHeaders = []string{
	"File", "Functions", "Call Order", "Dependencies",
	"Data Flow", "IO", "Side Effects",
}

func (r *FactsReport) table() *Table {
	rows := make([][]string, 0, len(r.Files))
	for _, f := range r.Files {
		rows = append(rows, []string{
			f.Path, f.Functions, f.CallOrder, f.Dependencies,
			f.DataFlow, f.IO, f.SideEffects,
		})
	}
	return NewTable("", reportHeaders, rows, r)
}

func (r *FactsReport) RenderData() any {
	return r
}

func (r *FactsReport) RenderText(w io.Writer, colored bool) error {
	if err := r.table().RenderText(w, colored); err != nil {
		return err
	}
	for _, f := range r.Files {
		if f.Diagnostic != "" {
			fmt.Fprintf(w, "note: %s\n", f.Diagnostic)
		}
	}
	return nil
}

func (r *FactsReport) RenderMarkdown(w io.Writer) error {
	if err := r.table().RenderMarkdown(w); err != nil {
		return err
	}
	for _, f := range r.Files {
		if f.Diagnostic != "" {
			fmt.Fprintf(w, "- note: %s\n", f.Diagnostic)
		}
	}
	return nil
}

// FileDetail renders one file's facets as a titled section, used by the
// single-file command.
func FileDetail(f FileFacts) *Section {
	values := []string{
		f.Functions, f.CallOrder, f.Dependencies,
		f.DataFlow, f.IO, f.SideEffects,
	}
	subs := make([]Section, 0, len(values)+1)
	for i, h := range reportHeaders[1:] {
		subs = append(subs, Section{Title: h, Content: values[i]})
	}
	if f.Diagnostic != "" {
		subs = append(subs, Section{Title: "Diagnostic", Content: f.Diagnostic})
	}
	return &Section{
		Title:    f.Path,
		Sections: subs,
		Data:     f,
	}
}
