// Package handler はwatchlistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stock_insight/internal/feature/watchlist/domain"
	"stock_insight/internal/feature/watchlist/domain/entity"
	"stock_insight/internal/feature/watchlist/transport/http/dto"
	jwtmw "stock_insight/internal/platform/jwt"
)

// WatchlistUsecase はウォッチリスト操作のユースケースインターフェースです。
type WatchlistUsecase interface {
	Add(ctx context.Context, userID uint, symbol string) (entity.Item, error)
	List(ctx context.Context, userID uint) ([]entity.Item, error)
	Remove(ctx context.Context, userID uint, symbol string) error
	AddAlert(ctx context.Context, userID uint, symbol, condition string, target decimal.Decimal) (entity.Alert, error)
	Alerts(ctx context.Context, userID uint) ([]entity.Alert, error)
	RemoveAlert(ctx context.Context, userID uint, id uint) error
	Check(ctx context.Context, userID uint) ([]entity.Status, error)
}

// WatchlistHandler はウォッチリストのHTTPリクエストを処理します。
type WatchlistHandler struct {
	uc WatchlistUsecase
}

// NewWatchlistHandler はWatchlistHandlerの新しいインスタンスを生成します。
func NewWatchlistHandler(uc WatchlistUsecase) *WatchlistHandler {
	return &WatchlistHandler{uc: uc}
}

func userID(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return 0, false
	}
	return id, true
}

// List はウォッチリストを返します。
func (h *WatchlistHandler) List(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	items, err := h.uc.List(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromItems(items))
}

// Add は銘柄を追加します。
//
// エンドポイント例:
// POST /watchlist {"symbol":"AAPL"}
func (h *WatchlistHandler) Add(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.uc.Add(c.Request.Context(), uid, req.Symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromItems([]entity.Item{item})[0])
}

// Remove は銘柄とそのアラートを削除します。
func (h *WatchlistHandler) Remove(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.uc.Remove(c.Request.Context(), uid, c.Param("symbol")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Alerts は価格アラートの一覧を返します。
func (h *WatchlistHandler) Alerts(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	alerts, err := h.uc.Alerts(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAlerts(alerts))
}

// AddAlert は価格アラートを登録します。
//
// エンドポイント例:
// POST /watchlist/alerts {"symbol":"AAPL","condition":"above","target_price":"200"}
func (h *WatchlistHandler) AddAlert(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req dto.AddAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.uc.AddAlert(c.Request.Context(), uid, req.Symbol, req.Condition, req.TargetPrice)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromAlert(a))
}

// RemoveAlert はアラートを削除します。
func (h *WatchlistHandler) RemoveAlert(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}
	if err := h.uc.RemoveAlert(c.Request.Context(), uid, uint(id)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Check は現在値でアラートを評価します。
//
// エンドポイント例:
// GET /watchlist/check
func (h *WatchlistHandler) Check(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	statuses, err := h.uc.Check(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromStatuses(statuses))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotWatched), errors.Is(err, domain.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyWatched):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
