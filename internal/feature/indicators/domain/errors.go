// Package domain はindicatorsフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrInvalidWindow は指標のウィンドウ幅が1未満の場合に返されます。
	ErrInvalidWindow = errors.New("window must be a positive integer")
	// ErrNoData は対象銘柄のローソク足が1件も存在しない場合に返されます。
	ErrNoData = errors.New("no candles for symbol")
)
