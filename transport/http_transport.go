package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/fmxml/fmerr"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// HTTPTransportOptions 服务端地址与认证
type HTTPTransportOptions struct {
	Scheme string `cfg:"scheme" def:"http" validate:"omitempty,oneof=http https"`
	Host   string `cfg:"host" validate:"required"`

	// Port 为 0 时 http 使用 80，https 使用 443
	Port int `cfg:"port" validate:"gte=0,lte=65535"`

	Account  string `cfg:"account"`
	Password string `cfg:"password"`

	Timeout time.Duration `cfg:"timeout" def:"100s"`

	// DTDValidation 要求响应声明 DOCTYPE 且与根节点一致
	DTDValidation bool `cfg:"dtdValidation"`

	UserAgent          string `cfg:"userAgent" def:"fmxml"`
	InsecureSkipVerify bool   `cfg:"insecureSkipVerify"`
}

type HTTPTransport struct {
	client        *http.Client
	baseURL       string
	account       string
	password      string
	userAgent     string
	dtdValidation bool
}

func NewHTTPTransportWithOptions(options *HTTPTransportOptions) (*HTTPTransport, error) {
	if options.Host == "" {
		return nil, errors.New("host is required")
	}

	scheme := strings.ToLower(options.Scheme)
	port := options.Port
	switch scheme {
	case "", "http":
		scheme = "http"
		if port == 0 {
			port = 80
		}
	case "https":
		if port == 0 {
			port = 443
		}
	default:
		return nil, errors.Errorf("unsupported scheme %q", options.Scheme)
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 100 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	if options.InsecureSkipVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &HTTPTransport{
		client:        client,
		baseURL:       scheme + "://" + options.Host + ":" + strconv.Itoa(port),
		account:       options.Account,
		password:      options.Password,
		userAgent:     options.UserAgent,
		dtdValidation: options.DTDValidation,
	}, nil
}

func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

func (t *HTTPTransport) Post(ctx context.Context, path string, body string, out any) error {
	url := t.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return &fmerr.TransportError{Op: "POST " + url, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.account != "" {
		req.SetBasicAuth(t.account, t.password)
	}

	res, err := t.client.Do(req)
	if err != nil {
		return &fmerr.TransportError{Op: "POST " + url, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &fmerr.TransportError{Op: "read " + url, Err: err}
	}
	if res.StatusCode != http.StatusOK {
		return &fmerr.TransportError{Op: "POST " + url, Err: fmt.Errorf("unexpected status %s", res.Status)}
	}

	if t.dtdValidation {
		if err := checkDoctype(data); err != nil {
			return errors.Wrap(fmerr.ErrDecode, err.Error())
		}
	}
	if err := newDecoder(data).Decode(out); err != nil {
		return errors.Wrap(fmerr.ErrDecode, err.Error())
	}
	return nil
}

func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// checkDoctype encoding/xml 不加载外部 DTD，这里只校验 DOCTYPE 声明的根节点名称
func checkDoctype(data []byte) error {
	d := newDecoder(data)
	doctype := ""
	for {
		tok, err := d.Token()
		if err != nil {
			return errors.Wrap(err, "read prolog")
		}
		switch t := tok.(type) {
		case xml.Directive:
			fields := strings.Fields(string(t))
			if len(fields) >= 2 && fields[0] == "DOCTYPE" {
				doctype = fields[1]
			}
		case xml.StartElement:
			if doctype == "" {
				return errors.Errorf("response has no DOCTYPE")
			}
			if doctype != t.Name.Local {
				return errors.Errorf("DOCTYPE %q does not match root element %q", doctype, t.Name.Local)
			}
			return nil
		}
	}
}
