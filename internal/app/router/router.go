// Package router はHTTPルーティングを組み立てます。
package router

import (
	"time"

	"github.com/gin-gonic/gin"

	candleshandler "stock_insight/internal/feature/candles/transport/handler"
	indicatorshandler "stock_insight/internal/feature/indicators/transport/handler"
	portfoliohandler "stock_insight/internal/feature/portfolio/transport/handler"
	symbollisthandler "stock_insight/internal/feature/symbollist/transport/handler"
	watchlisthandler "stock_insight/internal/feature/watchlist/transport/handler"
	healthhandler "stock_insight/internal/platform/http/handler"
	jwtmw "stock_insight/internal/platform/jwt"
)

// Handlers はルーターに載せるハンドラー一式です。
type Handlers struct {
	Candles    *candleshandler.CandlesHandler
	Symbols    *symbollisthandler.SymbolHandler
	Indicators *indicatorshandler.IndicatorsHandler
	Portfolio  *portfoliohandler.PortfolioHandler
	Watchlist  *watchlisthandler.WatchlistHandler
	// Readiness は /readyz で実行する疎通確認です。
	Readiness map[string]healthhandler.Check
	// JWTSecret はトークン検証の署名鍵です（config の JWT_SECRET）。
	JWTSecret string
}

const readinessTimeout = 2 * time.Second

func NewRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", healthhandler.Health)
	r.HEAD("/healthz", healthhandler.Health)
	r.GET("/readyz", healthhandler.Readiness(readinessTimeout, h.Readiness))

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(h.JWTSecret))
	{
		auth.GET("/candles/:code", h.Candles.GetCandlesHandler)
		auth.GET("/symbols", h.Symbols.List)

		auth.GET("/indicators/:code", h.Indicators.Get)
		auth.GET("/indicators/:code/levels", h.Indicators.Levels)
		auth.GET("/indicators/:code/analysis", h.Indicators.Analysis)

		p := auth.Group("/portfolio")
		p.GET("", h.Portfolio.Holdings)
		p.GET("/transactions", h.Portfolio.Transactions)
		p.POST("/transactions", h.Portfolio.AddTransaction)
		p.GET("/valuation", h.Portfolio.Valuation)
		p.GET("/performance", h.Portfolio.Performance)
		p.GET("/export", h.Portfolio.Export)
		p.GET("/export.csv", h.Portfolio.ExportCSV)
		p.POST("/import", h.Portfolio.Import)
		p.POST("/rebuild", h.Portfolio.Rebuild)
		p.DELETE("", h.Portfolio.Clear)

		w := auth.Group("/watchlist")
		w.GET("", h.Watchlist.List)
		w.POST("", h.Watchlist.Add)
		w.DELETE("/:symbol", h.Watchlist.Remove)
		w.GET("/alerts", h.Watchlist.Alerts)
		w.POST("/alerts", h.Watchlist.AddAlert)
		w.DELETE("/alerts/:id", h.Watchlist.RemoveAlert)
		w.GET("/check", h.Watchlist.Check)
	}

	return r
}
