package esexport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/log"
	"github.com/pkg/errors"
)

type ExporterOptions struct {
	Addresses  []string      `cfg:"addresses" def:"http://localhost:9200"`
	Username   string        `cfg:"username"`
	Password   string        `cfg:"password"`
	APIKey     string        `cfg:"apiKey"`
	Timeout    time.Duration `cfg:"timeout" def:"30s"`
	MaxRetries int           `cfg:"maxRetries" def:"3"`

	// Index 目标索引，为空时使用布局名
	Index string `cfg:"index"`

	// Refresh 写入后立即刷新，使文档可以被搜索到
	Refresh bool `cfg:"refresh"`
}

// Exporter 将主表的每一行写成一个文档，portal 子表的行按表名嵌套在文档中
type Exporter struct {
	client  *elasticsearch.Client
	index   string
	refresh bool
	logger  log.Logger
}

func NewExporterWithOptions(options *ExporterOptions) (*Exporter, error) {
	if options == nil {
		return nil, errors.New("options is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: options.Addresses,
		Username:  options.Username,
		Password:  options.Password,
		APIKey:    options.APIKey,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: options.Timeout,
		},
		MaxRetries: options.MaxRetries,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elasticsearch client")
	}

	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elasticsearch connection error: %s", res.String())
	}

	return &Exporter{
		client:  client,
		index:   options.Index,
		refresh: options.Refresh,
		logger:  log.Default().WithGroup("esexport"),
	}, nil
}

// Documents 以 recordID 为键组装文档
func Documents(ds *dataset.DataSet) map[string]map[string]any {
	docs := map[string]map[string]any{}
	if ds == nil || ds.Main == nil {
		return docs
	}
	for _, row := range ds.Main.Rows {
		doc := make(map[string]any, len(row)+len(ds.Related))
		for k, v := range row {
			doc[k] = v
		}
		docs[row.String(dataset.RecordIDColumn)] = doc
	}
	for _, table := range ds.Related {
		for _, row := range table.Rows {
			doc, ok := docs[row.String(dataset.ParentRecordIDColumn)]
			if !ok {
				continue
			}
			child := make(map[string]any, len(row))
			for k, v := range row {
				if k != dataset.ParentRecordIDColumn {
					child[k] = v
				}
			}
			children, _ := doc[table.Name()].([]map[string]any)
			doc[table.Name()] = append(children, child)
		}
	}
	return docs
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Export 用一次 bulk 请求写入全部文档，返回写入的文档数
func (e *Exporter) Export(ctx context.Context, index string, ds *dataset.DataSet) (int, error) {
	if index == "" {
		index = e.index
	}
	if index == "" {
		return 0, errors.New("index is required")
	}
	if ds == nil || ds.Main == nil {
		return 0, errors.New("dataset has no main table")
	}

	docs := Documents(ds)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	n := 0
	for _, row := range ds.Main.Rows {
		id := row.String(dataset.RecordIDColumn)
		doc := docs[id]
		if err := enc.Encode(map[string]any{"index": map[string]any{"_index": index, "_id": id}}); err != nil {
			return 0, errors.Wrap(err, "failed to encode bulk action")
		}
		if err := enc.Encode(doc); err != nil {
			return 0, errors.Wrapf(err, "failed to encode record %s", id)
		}
		n++
	}
	if n == 0 {
		return 0, nil
	}

	req := esapi.BulkRequest{Body: &buf}
	if e.refresh {
		req.Refresh = "true"
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return 0, errors.Wrap(err, "bulk request failed")
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read bulk response")
	}
	if res.IsError() {
		return 0, errors.Errorf("bulk request failed: %s %s", res.Status(), body)
	}

	var result bulkResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, errors.Wrap(err, "failed to decode bulk response")
	}
	if result.Errors {
		for _, item := range result.Items {
			for _, op := range item {
				if op.Error != nil {
					return 0, errors.Errorf("failed to index record %s: %s: %s", op.ID, op.Error.Type, op.Error.Reason)
				}
			}
		}
		return 0, errors.New("bulk request reported errors")
	}

	e.logger.InfoContext(ctx, "dataset indexed", "index", index, "documents", n)
	return n, nil
}
