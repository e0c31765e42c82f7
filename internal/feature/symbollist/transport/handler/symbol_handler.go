// Package handler はsymbollistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock_insight/internal/feature/symbollist/domain/entity"
	"stock_insight/internal/feature/symbollist/transport/http/dto"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
	Search(ctx context.Context, q string, limit int) ([]entity.Symbol, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は有効な銘柄の一覧を返します。q が指定された場合は検索結果を返します。
//
// エンドポイント例:
// GET /symbols
// GET /symbols?q=toyo&limit=10
func (h *SymbolHandler) List(c *gin.Context) {
	var (
		symbols []entity.Symbol
		err     error
	)
	if q, ok := c.GetQuery("q"); ok {
		limit, _ := strconv.Atoi(c.Query("limit"))
		symbols, err = h.uc.Search(c.Request.Context(), q, limit)
	} else {
		symbols, err = h.uc.ListActiveSymbols(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FromSymbols(symbols))
}
