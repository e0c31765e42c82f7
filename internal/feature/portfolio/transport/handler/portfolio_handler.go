// Package handler はportfolioフィーチャーのHTTPハンドラーを提供します。
// すべてのエンドポイントは JWT 認証済みで、ユーザーIDはトークンから取得します。
package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stock_insight/internal/feature/portfolio/domain"
	"stock_insight/internal/feature/portfolio/domain/entity"
	"stock_insight/internal/feature/portfolio/transport/http/dto"
	"stock_insight/internal/feature/portfolio/usecase"
	jwtmw "stock_insight/internal/platform/jwt"
)

// PortfolioUsecase はポートフォリオ操作のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PortfolioUsecase interface {
	ApplyTransaction(ctx context.Context, userID uint, req usecase.TransactionRequest) (usecase.ApplyResult, error)
	Holdings(ctx context.Context, userID uint) ([]entity.Holding, error)
	Transactions(ctx context.Context, userID uint) ([]entity.Transaction, error)
	Valuation(ctx context.Context, userID uint) (entity.Valuation, error)
	ExportCSV(ctx context.Context, userID uint, w io.Writer) error
	Export(ctx context.Context, userID uint) (usecase.Snapshot, error)
	Import(ctx context.Context, userID uint, txs []entity.Transaction) (int, error)
	ImportCSV(ctx context.Context, userID uint, r io.Reader) (int, error)
	Clear(ctx context.Context, userID uint) error
	Rebuild(ctx context.Context, userID uint) (usecase.RebuildResult, error)
	Performance(ctx context.Context, userID uint, interval string, outputsize int) ([]entity.PerformancePoint, error)
}

// PortfolioHandler はポートフォリオのHTTPリクエストを処理します。
type PortfolioHandler struct {
	uc PortfolioUsecase
}

// NewPortfolioHandler はPortfolioHandlerの新しいインスタンスを生成します。
func NewPortfolioHandler(uc PortfolioUsecase) *PortfolioHandler {
	return &PortfolioHandler{uc: uc}
}

// userID はトークン由来のユーザーIDを取り出します。取れなければ401を返して false。
func userID(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return 0, false
	}
	return id, true
}

// AddTransaction は売買を1件登録します。
//
// エンドポイント例:
// POST /portfolio/transactions {"symbol":"AAPL","action":"buy","shares":"10","price":"180.5"}
func (h *PortfolioHandler) AddTransaction(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req dto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := usecase.TransactionRequest{
		Symbol: req.Symbol,
		Action: req.Action,
		Shares: req.Shares,
		Price:  req.Price,
	}
	if req.ExecutedAt != nil {
		in.ExecutedAt = *req.ExecutedAt
	}

	res, err := h.uc.ApplyTransaction(c.Request.Context(), uid, in)
	if err != nil {
		writeError(c, err)
		return
	}
	out := dto.ApplyResponse{Transaction: dto.FromTransaction(res.Transaction)}
	if res.Holding != nil {
		item := dto.FromHolding(*res.Holding)
		out.Holding = &item
	}
	c.JSON(http.StatusCreated, out)
}

// Holdings は保有一覧を返します。
func (h *PortfolioHandler) Holdings(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	hs, err := h.uc.Holdings(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromHoldings(hs))
}

// Transactions は取引ログを返します。
func (h *PortfolioHandler) Transactions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	txs, err := h.uc.Transactions(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransactions(txs))
}

// Valuation は現在値での評価を返します。
func (h *PortfolioHandler) Valuation(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	v, err := h.uc.Valuation(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromValuation(v))
}

// ExportCSV は取引ログをCSVでダウンロードさせます。
func (h *PortfolioHandler) ExportCSV(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	// 失敗時にエラーを返せるよう、書き出しが終わるまでステータスを確定しない
	var buf bytes.Buffer
	if err := h.uc.ExportCSV(c.Request.Context(), uid, &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Export は保有と取引ログをJSONで返します。
func (h *PortfolioHandler) Export(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	s, err := h.uc.Export(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExportResponse{
		Holdings:     dto.FromHoldings(s.Holdings),
		Transactions: dto.FromTransactions(s.Transactions),
		ExportedAt:   s.ExportedAt,
	})
}

// Import は取引ログを取り込みます。Content-Type が text/csv ならCSV、それ以外はJSONとして扱います。
func (h *PortfolioHandler) Import(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var (
		n   int
		err error
	)
	if strings.HasPrefix(c.ContentType(), "text/csv") {
		n, err = h.uc.ImportCSV(c.Request.Context(), uid, c.Request.Body)
	} else {
		var req dto.ImportRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
			return
		}
		n, err = h.uc.Import(c.Request.Context(), uid, req.ToTransactions())
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ImportResponse{Imported: n})
}

// Clear はポートフォリオを全削除します。
func (h *PortfolioHandler) Clear(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.uc.Clear(c.Request.Context(), uid); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Rebuild は取引ログから保有を再構築します。
func (h *PortfolioHandler) Rebuild(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	res, err := h.uc.Rebuild(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RebuildResponse{
		Diverged: res.Diverged,
		Holdings: dto.FromHoldings(res.Holdings),
		Stored:   dto.FromHoldings(res.Stored),
	})
}

// Performance は現在の保有の過去評価額を返します。
//
// エンドポイント例:
// GET /portfolio/performance?interval=1day&outputsize=30
func (h *PortfolioHandler) Performance(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	interval := c.DefaultQuery("interval", "1day")
	outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", "200"))

	pts, err := h.uc.Performance(c.Request.Context(), uid, interval, outputsize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromPerformance(pts))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientShares), errors.Is(err, domain.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
