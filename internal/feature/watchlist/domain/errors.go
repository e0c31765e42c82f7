// Package domain はwatchlistフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrInvalidInput は空の銘柄、正でない目標価格、above/below 以外の条件に返されます。
	ErrInvalidInput = errors.New("invalid watchlist input")

	// ErrAlreadyWatched は既にウォッチリストにある銘柄の追加に返されます。
	ErrAlreadyWatched = errors.New("symbol is already on the watchlist")

	// ErrNotWatched はウォッチリストにない銘柄の削除やアラート登録に返されます。
	ErrNotWatched = errors.New("symbol is not on the watchlist")

	// ErrAlertNotFound は存在しない（または他ユーザーの）アラートの削除に返されます。
	ErrAlertNotFound = errors.New("price alert not found")
)
