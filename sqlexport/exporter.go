package sqlexport

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type ExporterOptions struct {
	Driver   string `cfg:"driver" def:"sqlite3" validate:"oneof=sqlite3 mysql"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`

	// TablePrefix 加在每个表名之前，主表为 <prefix>main
	TablePrefix string `cfg:"tablePrefix"`

	// DropExisting 导出前删除同名表
	DropExisting bool `cfg:"dropExisting"`

	Logger *log.Options `cfg:"logger"`
}

// Exporter 将 DataSet 写入关系数据库，每个 TableSchema 对应一张表
type Exporter struct {
	db           *sql.DB
	driver       string
	tablePrefix  string
	dropExisting bool
	logger       log.Logger
}

func NewExporterWithOptions(options *ExporterOptions) (*Exporter, error) {
	if options == nil {
		return nil, errors.New("options is required")
	}
	driver := options.Driver
	if driver == "" {
		driver = "sqlite3"
	}

	dsn := options.DSN
	if dsn == "" {
		switch driver {
		case "mysql":
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
				options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset)
		case "sqlite3":
			dsn = options.Database
		default:
			return nil, errors.Errorf("unsupported driver: %s", driver)
		}
	}
	if dsn == "" {
		return nil, errors.New("database is required")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", driver)
	}
	maxConns, maxIdle := options.MaxConns, options.MaxIdle
	// 内存数据库每个连接各自独立，唯一的连接必须常驻
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		maxConns, maxIdle = 1, 1
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}
	db.SetMaxOpenConns(maxConns)
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect %s", driver)
	}

	logger := log.Default()
	if options.Logger != nil {
		if logger, err = log.NewLoggerWithOptions(options.Logger); err != nil {
			_ = db.Close()
			return nil, errors.WithMessage(err, "failed to create logger")
		}
	}

	e := NewExporter(db, driver, logger)
	e.tablePrefix = options.TablePrefix
	e.dropExisting = options.DropExisting
	return e, nil
}

// NewExporter 使用已打开的连接，driver 决定列类型与 DDL 写法
func NewExporter(db *sql.DB, driver string, logger log.Logger) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{
		db:     db,
		driver: driver,
		logger: logger.WithGroup("sqlexport"),
	}
}

func (e *Exporter) DB() *sql.DB {
	return e.db
}

func (e *Exporter) Close() error {
	return e.db.Close()
}

// TableName 返回表在数据库中的名称
func (e *Exporter) TableName(table string) string {
	return e.tablePrefix + table
}

// Export 建表并在同一个事务中写入全部行，主表先于子表
func (e *Exporter) Export(ctx context.Context, ds *dataset.DataSet) error {
	if ds == nil || ds.Main == nil {
		return errors.New("dataset has no main table")
	}
	tables := ds.Tables()

	if e.dropExisting {
		// 先删子表，mysql 的外键约束要求如此
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+e.quote(e.TableName(tables[i].Name()))); err != nil {
				return errors.Wrapf(err, "failed to drop table %s", tables[i].Name())
			}
		}
	}
	for _, table := range tables {
		if _, err := e.db.ExecContext(ctx, e.buildCreateTableSQL(table.Schema)); err != nil {
			return errors.Wrapf(err, "failed to create table %s", table.Name())
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	for _, table := range tables {
		if err := e.insert(ctx, tx, table); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}

	e.logger.InfoContext(ctx, "dataset exported", "driver", e.driver, "tables", len(tables), "rows", ds.Main.Len())
	return nil
}

func (e *Exporter) insert(ctx context.Context, tx *sql.Tx, table *dataset.Table) error {
	if table.Len() == 0 {
		return nil
	}
	columns := table.Schema.Columns
	names := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		names[i] = e.quote(c.Name)
		placeholders[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.quote(e.TableName(table.Name())), strings.Join(names, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return errors.Wrapf(err, "failed to prepare insert into %s", table.Name())
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range table.Rows {
		for i, c := range columns {
			args[i] = e.value(c, row[c.Name])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "failed to insert into %s, recordID %s", table.Name(), row.String(dataset.RecordIDColumn))
		}
	}
	return nil
}

func (e *Exporter) value(c dataset.Column, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	switch c.Result {
	case dataset.Time:
		return t.Format("15:04:05")
	case dataset.Date:
		if e.driver == "sqlite3" {
			return t.Format("2006-01-02")
		}
	}
	if e.driver == "sqlite3" {
		return t.Format("2006-01-02 15:04:05")
	}
	return t
}

func (e *Exporter) buildCreateTableSQL(schema *dataset.TableSchema) string {
	var defs []string
	for _, c := range schema.Columns {
		def := e.quote(c.Name) + " " + e.columnType(c)
		if c.Kind == dataset.KeyColumn && c.Name != dataset.ModIDColumn {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	if schema.Name == dataset.MainTable {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", e.quote(dataset.RecordIDColumn)))
	} else {
		relation := dataset.NewRelation(schema.Name)
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			e.quote(relation.ChildColumn), e.quote(e.TableName(relation.ParentTable)), e.quote(relation.ParentColumn)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		e.quote(e.TableName(schema.Name)), strings.Join(defs, ",\n  "))
}

// columnType 将字段结果类型映射为列类型
func (e *Exporter) columnType(c dataset.Column) string {
	if e.driver == "sqlite3" {
		switch c.Result {
		case dataset.Number:
			return "REAL"
		}
		return "TEXT"
	}

	if c.Kind == dataset.KeyColumn {
		return "VARCHAR(64)"
	}
	switch c.Result {
	case dataset.Number:
		return "DOUBLE"
	case dataset.Date:
		return "DATE"
	case dataset.Time:
		return "TIME"
	case dataset.Timestamp:
		return "DATETIME"
	}
	return "TEXT"
}

// quote 字段名可能包含 :: 与空格，统一用反引号包裹
func (e *Exporter) quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
