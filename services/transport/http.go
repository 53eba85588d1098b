package transport

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"homeclimate-go/errcode"
	"homeclimate-go/types"

	"github.com/go-resty/resty/v2"
)

type HTTPOptions struct {
	Timeout       time.Duration // per request; default 5s
	MaxRequestLen int           // path bytes; default 128
}

// HTTP sends readings to the collector's /reading endpoint. A failed
// request is logged and returned; it is never retried.
type HTTP struct {
	client *resty.Client
	maxLen int
}

func NewHTTP(baseURL string, o HTTPOptions) *HTTP {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.MaxRequestLen <= 0 {
		o.MaxRequestLen = 128
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(o.Timeout).
		SetHeader("Accept", "text/plain")
	return &HTTP{client: c, maxLen: o.MaxRequestLen}
}

func (h *HTTP) Send(ctx context.Context, location string, s types.Sample) error {
	path, err := ReadingPath(location, s.Celsius, s.Humidity, h.maxLen)
	if err != nil {
		log.Warnf("dropping reading: %v", err)
		return err
	}
	resp, err := h.client.R().SetContext(ctx).Get(path)
	if err != nil {
		log.Warnf("GET %s: %v", path, err)
		return errcode.Wrap(errcode.Transport, "get", err)
	}
	body := resp.Body()
	if !utf8.Valid(body) {
		log.Warnf("GET %s: non-UTF-8 response body", path)
		return errcode.New(errcode.Transport, "get", "non-utf8 body")
	}
	if resp.IsError() {
		log.Warnf("GET %s: %s", path, resp.Status())
		return errcode.New(errcode.Transport, "get", fmt.Sprintf("status %d", resp.StatusCode()))
	}
	log.Debugf("GET %s -> %d %s", path, resp.StatusCode(), body)
	return nil
}

// Close releases idle connections.
func (h *HTTP) Close() {
	h.client.GetClient().CloseIdleConnections()
}
