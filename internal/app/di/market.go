// Package di はアプリケーションの構成要素を組み立てるファクトリーを提供します。
package di

import (
	"stock_insight/internal/platform/externalapi/twelvedata"
	infrahttp "stock_insight/internal/platform/http"
)

// NewMarket はHTTPクライアント込みの TwelveDataMarket を生成します。
// ローソク足の取得（ingest）と現在値の取得（valuation）の両方に使います。
func NewMarket(cfg twelvedata.Config) *twelvedata.TwelveDataMarket {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return twelvedata.NewTwelveDataMarket(cfg, httpClient)
}
