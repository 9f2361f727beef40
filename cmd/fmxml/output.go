package main

import (
	"encoding/json"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type tableOutput struct {
	Name    string        `json:"name" yaml:"name"`
	Columns []string      `json:"columns" yaml:"columns"`
	Rows    []dataset.Row `json:"rows" yaml:"rows"`
}

type dataSetOutput struct {
	TotalCount int           `json:"totalCount" yaml:"totalCount"`
	FetchSize  int           `json:"fetchSize" yaml:"fetchSize"`
	Tables     []tableOutput `json:"tables" yaml:"tables"`
	Relations  []string      `json:"relations,omitempty" yaml:"relations,omitempty"`
}

func newDataSetOutput(ds *dataset.DataSet) *dataSetOutput {
	out := &dataSetOutput{TotalCount: ds.TotalCount, FetchSize: ds.FetchSize}
	for _, t := range ds.Tables() {
		rows := t.Rows
		if rows == nil {
			rows = []dataset.Row{}
		}
		out.Tables = append(out.Tables, tableOutput{Name: t.Name(), Columns: t.Schema.ColumnNames(), Rows: rows})
	}
	for _, r := range ds.Relations {
		out.Relations = append(out.Relations, r.String())
	}
	return out
}

func (a *app) print(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	if a.format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
