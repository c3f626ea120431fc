// Package sheetclient talks to the sheet service over its single POST endpoint.
package sheetclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/protocol"
	"github.com/yukikurage/printshop-manager/internal/settings"
	"go.uber.org/zap"
)

// SettingsSource supplies the endpoint and secret for each call.
type SettingsSource interface {
	Get() settings.Settings
}

type Client struct {
	settings SettingsSource
	http     *http.Client
	timeout  time.Duration
	log      *zap.Logger
}

func New(src SettingsSource, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		settings: src,
		http:     &http.Client{},
		timeout:  timeout,
		log:      log,
	}
}

// Fetch reads every row of a collection. The result is a JSON array.
func (c *Client) Fetch(ctx context.Context, dataType string) (json.RawMessage, error) {
	resp, err := c.call(ctx, protocol.Request{
		DataType: dataType,
		Action:   protocol.ActionGetData,
	})
	if err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(resp.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, apierrors.WithMessage(apierrors.ErrRemote, "The script returned a failure status.")
	}
	return data, nil
}

// Send performs one write. data is encoded as the request's data field.
func (c *Client) Send(ctx context.Context, dataType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return apierrors.WithMessage(apierrors.ErrInvalidInput, "Failed to encode request: "+err.Error())
	}
	_, err = c.call(ctx, protocol.Request{
		DataType: dataType,
		Data:     raw,
	})
	return err
}

func (c *Client) call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	cfg := c.settings.Get()
	if !cfg.Configured() {
		return protocol.Response{}, apierrors.ErrNotConfigured
	}
	req.AppToken = cfg.Secret

	body, err := json.Marshal(req)
	if err != nil {
		return protocol.Response{}, apierrors.WithMessage(apierrors.ErrInvalidInput, "Failed to encode request: "+err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		c.log.Error("invalid endpoint", zap.String("endpoint", cfg.Endpoint), zap.Error(err))
		return protocol.Response{}, apierrors.ErrNetworkFailure
	}
	httpReq.Header.Set("Content-Type", "text/plain")
	httpReq.Header.Set("Cache-Control", "no-cache")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			c.log.Warn("request timed out", zap.String("data_type", req.DataType), zap.Duration("timeout", c.timeout))
			return protocol.Response{}, apierrors.ErrNetworkTimeout
		}
		c.log.Warn("request failed", zap.String("data_type", req.DataType), zap.Error(err))
		return protocol.Response{}, apierrors.ErrNetworkFailure
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		io.Copy(io.Discard, httpResp.Body)
		return protocol.Response{}, apierrors.WithMessage(apierrors.ErrHTTPStatus,
			fmt.Sprintf("HTTP error! status: %d %s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode)))
	}

	var resp protocol.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		if isTimeout(ctx, err) {
			return protocol.Response{}, apierrors.ErrNetworkTimeout
		}
		c.log.Warn("malformed response", zap.String("data_type", req.DataType), zap.Error(err))
		return protocol.Response{}, apierrors.ErrNetworkFailure
	}

	if !resp.OK() {
		return resp, remoteError(resp)
	}
	return resp, nil
}

// remoteError maps an error result back to the error taxonomy.
func remoteError(resp protocol.Response) error {
	message := resp.Error
	if message == "" {
		message = "Unknown error"
	}

	switch resp.Code {
	case apierrors.ErrCodeAuthRejected:
		return apierrors.WithMessage(apierrors.ErrAuthRejected, message)
	case apierrors.ErrCodeNotFound:
		return apierrors.WithMessage(apierrors.ErrNotFound, message)
	case apierrors.ErrCodeLockTimeout:
		return apierrors.WithMessage(apierrors.ErrLockTimeout, message)
	case apierrors.ErrCodeInvalidInput:
		return apierrors.WithMessage(apierrors.ErrInvalidInput, message)
	default:
		return apierrors.WithMessage(apierrors.ErrRemote, message)
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
