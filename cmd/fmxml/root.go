package main

import (
	"strings"

	"github.com/hatlonely/fmxml/cfg"
	"github.com/hatlonely/fmxml/cfg/provider"
	"github.com/hatlonely/fmxml/cfg/storage"
	"github.com/hatlonely/fmxml/esexport"
	"github.com/hatlonely/fmxml/log"
	"github.com/hatlonely/fmxml/session"
	"github.com/hatlonely/fmxml/sqlexport"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Options 配置文件的结构
type Options struct {
	Session session.Options           `cfg:"session"`
	Export  sqlexport.ExporterOptions `cfg:"export"`
	Index   esexport.ExporterOptions  `cfg:"elasticsearch"`
	Logger  *log.Options              `cfg:"logger"`
}

type app struct {
	configPath string
	format     string
	verbose    bool

	// 覆盖配置文件中的值
	database       string
	layout         string
	responseLayout string
	host           string
	port           int
	scheme         string
	account        string
	password       string

	options Options
	session *session.Session
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "fmxml",
		Short: "Query a FileMaker server over its XML interface",
		Long: `fmxml sends finds, compound finds and metadata requests to a FileMaker server's XML
interface and prints the decoded tables as JSON or YAML. Settings come from --config
(yaml, json, toml or ini), FMXML_* environment variables and the flags below.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.session != nil {
				return a.session.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (yaml, json, toml or ini)")
	flags.StringVarP(&a.format, "format", "f", "json", "Output format: json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log requests at debug level")
	flags.StringVarP(&a.database, "database", "d", "", "Database name")
	flags.StringVarP(&a.layout, "layout", "l", "", "Layout name")
	flags.StringVar(&a.responseLayout, "response-layout", "", "Layout used to return records")
	flags.StringVar(&a.host, "host", "", "FileMaker server host")
	flags.IntVar(&a.port, "port", 0, "FileMaker server port (default: 80 for http, 443 for https)")
	flags.StringVar(&a.scheme, "scheme", "", "http or https")
	flags.StringVar(&a.account, "account", "", "Account name")
	flags.StringVar(&a.password, "password", "", "Account password")

	cmd.AddCommand(
		a.newFindCmd(),
		a.newCompoundCmd(),
		a.newFieldsCmd(),
		a.newCountCmd(),
		a.newNamesCmd("databases", "List hosted databases", (*session.Session).Databases),
		a.newNamesCmd("layouts", "List layouts of the database", (*session.Session).Layouts),
		a.newNamesCmd("scripts", "List scripts of the database", (*session.Session).Scripts),
		a.newValueListCmd(),
		a.newInfoCmd(),
		a.newContainerCmd(),
		a.newNewCmd(),
		a.newEditCmd(),
		a.newDeleteCmd(),
		a.newDuplicateCmd(),
		a.newExportCmd(),
		a.newIndexCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.format != "json" && a.format != "yaml" {
		return errors.Errorf("invalid format %q (must be json or yaml)", a.format)
	}

	data, err := a.load()
	if err != nil {
		return err
	}
	a.overlay(cmd, data)
	if err := storage.NewMapStorage(data).ConvertTo(&a.options); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}

	logOptions := a.options.Logger
	if logOptions == nil {
		logOptions = &log.Options{Level: "warn", Format: "text"}
	}
	if a.verbose {
		logOptions.Level = "debug"
	}
	logger, err := log.NewLoggerWithOptions(logOptions)
	if err != nil {
		return err
	}
	log.SetDefault(logger)

	a.session, err = session.NewSessionWithOptions(&a.options.Session)
	return err
}

// load 读取配置文件，未指定时只使用环境变量
func (a *app) load() (map[string]any, error) {
	if a.configPath == "" {
		return provider.NewEnvProviderWithOptions(nil).Apply(nil), nil
	}
	c, err := cfg.NewConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	data, ok := c.Data().(map[string]any)
	if !ok {
		return nil, errors.Errorf("config %s is not a mapping", a.configPath)
	}
	return data, nil
}

// overlay 将显式设置的命令行参数写入配置
func (a *app) overlay(cmd *cobra.Command, data map[string]any) {
	flags := cmd.Flags()
	set := func(flag, key string, value any) {
		if flags.Changed(flag) {
			setPath(data, key, value)
		}
	}
	set("database", "session.database", a.database)
	set("layout", "session.layout", a.layout)
	set("response-layout", "session.responseLayout", a.responseLayout)
	set("host", "session.transport.options.host", a.host)
	set("port", "session.transport.options.port", a.port)
	set("scheme", "session.transport.options.scheme", a.scheme)
	set("account", "session.transport.options.account", a.account)
	set("password", "session.transport.options.password", a.password)

	if flags.Changed("host") {
		transport := data["session"].(map[string]any)["transport"].(map[string]any)
		if _, ok := transport["type"]; !ok {
			transport["type"] = "http"
		}
	}
}

// setPath key 按点号分层，中间层不存在或不是 map 时新建
func setPath(data map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	target := data
	for _, part := range parts[:len(parts)-1] {
		child, ok := target[part].(map[string]any)
		if !ok {
			child = map[string]any{}
			target[part] = child
		}
		target = child
	}
	target[parts[len(parts)-1]] = value
}
