// Package http は外部API呼び出し用のHTTPクライアントとプラットフォームレベルのハンドラーを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout は timeout 未指定時のリクエスト全体のタイムアウトです。
const DefaultTimeout = 10 * time.Second

// NewHTTPClient は外部API（Twelve Data）呼び出し用に設定されたHTTPクライアントを作成します。
// http.DefaultClient にはタイムアウトがないため、常にこちらを使います。
// timeout <= 0 の場合は DefaultTimeout を使います。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10, // 接続先は実質1ホスト
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
