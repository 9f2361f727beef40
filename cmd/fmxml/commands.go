package main

import (
	"context"
	"strings"

	"github.com/hatlonely/fmxml/esexport"
	"github.com/hatlonely/fmxml/query"
	"github.com/hatlonely/fmxml/session"
	"github.com/hatlonely/fmxml/sqlexport"
	"github.com/spf13/cobra"
)

// findFlags find 与 export 共用的参数
type findFlags struct {
	all      bool
	random   bool
	or       bool
	recordID string
	sorts    []string
	skip     int
	max      int
}

func (f *findFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.all, "all", false, "Return all records (-findall)")
	cmd.Flags().BoolVar(&f.random, "any", false, "Return one random record (-findany)")
	cmd.Flags().BoolVar(&f.or, "or", false, "Match any criterion instead of all")
	cmd.Flags().StringVar(&f.recordID, "recid", "", "Find the record with this record ID")
	cmd.Flags().StringSliceVar(&f.sorts, "sort", nil, "Sort field, optionally field:descend (repeatable)")
	cmd.Flags().IntVar(&f.skip, "skip", 0, "Skip this many records")
	cmd.Flags().IntVar(&f.max, "max", 0, "Return at most this many records")
}

func (f *findFlags) build(args []string) (*query.Find, error) {
	searchType := query.Subset
	switch {
	case f.all:
		searchType = query.AllRecords
	case f.random:
		searchType = query.RandomRecord
	case len(args) == 0 && f.recordID == "":
		// 没有任何条件时返回全部记录
		searchType = query.AllRecords
	}

	find := query.NewFind(searchType)
	for _, arg := range args {
		field, op, value, err := parseFieldArg(arg)
		if err != nil {
			return nil, err
		}
		find.AddFieldOp(field, value, op)
	}
	if f.or {
		find.SetOr()
	}
	if f.recordID != "" {
		find.SetRecordID(f.recordID)
	}
	for _, s := range f.sorts {
		field, order := parseSort(s)
		find.AddSort(field, order)
	}
	if f.skip > 0 {
		find.SetSkip(f.skip)
	}
	if f.max > 0 {
		find.SetMax(f.max)
	}
	return find, nil
}

func (a *app) newFindCmd() *cobra.Command {
	var flags findFlags
	cmd := &cobra.Command{
		Use:   "find [field[.op]=value ...]",
		Short: "Find records with a simple find",
		Long: `Find records on the layout. Each argument is a field criterion; append .eq, .cn, .bw,
.ew, .gt, .gte, .lt, .lte or .neq to the field name to choose the match operator.
Without criteria all records are returned.`,
		Example: `  fmxml find Name=Widget Price.gt=10 --sort Name:descend --max 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			find, err := flags.build(args)
			if err != nil {
				return err
			}
			ds, err := a.session.Find(cmd.Context(), find)
			if err != nil {
				return err
			}
			return a.print(cmd, newDataSetOutput(ds))
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) newCompoundCmd() *cobra.Command {
	var sorts []string
	var skip, maxRecords int
	cmd := &cobra.Command{
		Use:   "compound criterion [criterion ...]",
		Short: "Find records with a compound find",
		Long: `Each criterion is field=value, or:field=value or omit:field=value. Plain criteria
are combined with AND, or: starts a new request and omit: excludes the matches.`,
		Example: `  fmxml compound Name=Widget or:Name=Gadget omit:Status=Discontinued`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			find := query.NewCompoundFind()
			for _, arg := range args {
				c, err := parseCriterion(arg)
				if err != nil {
					return err
				}
				find.AddCriterion(c.Field, c.Value, c.Or, c.Omit)
			}
			for _, s := range sorts {
				field, order := parseSort(s)
				find.AddSort(field, order)
			}
			if skip > 0 {
				find.SetSkip(skip)
			}
			if maxRecords > 0 {
				find.SetMax(maxRecords)
			}
			ds, err := a.session.CompoundFind(cmd.Context(), find)
			if err != nil {
				return err
			}
			return a.print(cmd, newDataSetOutput(ds))
		},
	}
	cmd.Flags().StringSliceVar(&sorts, "sort", nil, "Sort field, optionally field:descend (repeatable)")
	cmd.Flags().IntVar(&skip, "skip", 0, "Skip this many records")
	cmd.Flags().IntVar(&maxRecords, "max", 0, "Return at most this many records")
	return cmd
}

func (a *app) newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "Show the field definitions of the layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := a.session.Fields(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, fields)
		},
	}
}

func (a *app) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of records in the layout's table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.session.RecordCount(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]int{"count": n})
		},
	}
}

func (a *app) newNamesCmd(use, short string, list func(*session.Session, context.Context) ([]string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := list(a.session, cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, names)
		},
	}
}

func (a *app) newValueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "valuelist [name]",
		Short: "Show a value list of the layout, or the value list names without a name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				names, err := a.session.ValueLists(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(cmd, names)
			}
			items, err := a.session.ValueList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, items)
		},
	}
}

func (a *app) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the server product name and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			product, err := a.session.ServerInfo(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, product)
		},
	}
}

func (a *app) newContainerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "container field recordID",
		Short: "Print the URL of a container field's data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.session.ContainerURL(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"url": u})
		},
	}
}

func (a *app) newNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new field=value [field=value ...]",
		Short: "Create a record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := query.NewNewRecord()
			for _, arg := range args {
				field, value, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				req.AddField(field, value)
			}
			id, err := a.session.NewRecord(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"recordID": id})
		},
	}
}

func (a *app) newEditCmd() *cobra.Command {
	var modID string
	cmd := &cobra.Command{
		Use:   "edit recordID field=value [field=value ...]",
		Short: "Edit a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := query.NewEdit(args[0])
			if modID != "" {
				req.SetModID(modID)
			}
			for _, arg := range args[1:] {
				field, value, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				req.AddField(field, value)
			}
			newModID, err := a.session.Edit(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"recordID": args[0], "modID": newModID})
		},
	}
	cmd.Flags().StringVar(&modID, "modid", "", "Fail unless the record still has this modification ID")
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete recordID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Delete(cmd.Context(), query.NewDelete(args[0])); err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"deleted": args[0]})
		},
	}
}

func (a *app) newDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate recordID",
		Short: "Duplicate a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.session.Duplicate(cmd.Context(), query.NewDuplicate(args[0]))
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"recordID": id})
		},
	}
}

func (a *app) newExportCmd() *cobra.Command {
	var flags findFlags
	var driver, dsn, sqlitePath, prefix string
	var drop bool
	cmd := &cobra.Command{
		Use:   "export [field[.op]=value ...]",
		Short: "Find records and write the tables into a SQL database",
		Long: `Run a find like the find command and write the main table and every portal table
into sqlite3 or mysql. Portal tables reference main.recordID through parentRecordID.`,
		Example: `  fmxml export --sqlite products.db --drop Status=Active`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options := a.options.Export
			if cmd.Flags().Changed("driver") {
				options.Driver = driver
			}
			if dsn != "" {
				options.DSN = dsn
			}
			if sqlitePath != "" {
				options.Driver = "sqlite3"
				options.DSN = sqlitePath
			}
			if cmd.Flags().Changed("table-prefix") {
				options.TablePrefix = prefix
			}
			if drop {
				options.DropExisting = true
			}

			find, err := flags.build(args)
			if err != nil {
				return err
			}
			ds, err := a.session.Find(cmd.Context(), find)
			if err != nil {
				return err
			}

			exporter, err := sqlexport.NewExporterWithOptions(&options)
			if err != nil {
				return err
			}
			defer exporter.Close()
			if err := exporter.Export(cmd.Context(), ds); err != nil {
				return err
			}

			rows := map[string]int{}
			for _, table := range ds.Tables() {
				rows[exporter.TableName(table.Name())] = table.Len()
			}
			return a.print(cmd, map[string]any{"driver": options.Driver, "rows": rows})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&driver, "driver", "sqlite3", "sqlite3 or mysql")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database connection string")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path (implies --driver sqlite3)")
	cmd.Flags().StringVar(&prefix, "table-prefix", "", "Prefix added to every table name")
	cmd.Flags().BoolVar(&drop, "drop", false, "Drop existing tables before writing")
	return cmd
}

func (a *app) newIndexCmd() *cobra.Command {
	var flags findFlags
	var addresses []string
	var index string
	cmd := &cobra.Command{
		Use:   "index [field[.op]=value ...]",
		Short: "Find records and index them into Elasticsearch",
		Long: `Run a find like the find command and bulk index one document per record. Portal
rows are nested in the document under the portal table name. The index defaults to
the layout name.`,
		Example: `  fmxml index --es http://localhost:9200 --index products Status=Active`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options := a.options.Index
			if len(addresses) > 0 {
				options.Addresses = addresses
			}
			if index != "" {
				options.Index = index
			}
			if options.Index == "" {
				options.Index = strings.ToLower(a.session.Target().Layout)
			}

			find, err := flags.build(args)
			if err != nil {
				return err
			}
			ds, err := a.session.Find(cmd.Context(), find)
			if err != nil {
				return err
			}

			exporter, err := esexport.NewExporterWithOptions(&options)
			if err != nil {
				return err
			}
			n, err := exporter.Export(cmd.Context(), options.Index, ds)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]any{"index": options.Index, "documents": n})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&addresses, "es", nil, "Elasticsearch address (repeatable)")
	cmd.Flags().StringVar(&index, "index", "", "Target index (default: lower-cased layout name)")
	return cmd
}
