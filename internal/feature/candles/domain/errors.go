// Package domain はcandlesフィーチャーのドメインエラーを定義します。
package domain

import "errors"

// ErrEmptySymbol は銘柄コードが空のときに返されます。
var ErrEmptySymbol = errors.New("symbol is required")
