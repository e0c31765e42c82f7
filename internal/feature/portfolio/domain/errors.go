// Package domain はportfolioフィーチャーのドメインエラーを定義します。
package domain

import "errors"

// 呼び出し側は errors.Is で種類を判別し、表示を切り替えます。
var (
	// ErrInvalidInput は株数・価格が正でない、または銘柄が空の取引に返されます。
	// 台帳は一切変更されません。
	ErrInvalidInput = errors.New("invalid transaction input")

	// ErrInsufficientShares は保有数を超える売却に返されます。
	// 保有も取引ログも変更されません。
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrUnknownAction は buy/sell 以外のアクションに返されます。
	ErrUnknownAction = errors.New("unknown transaction action")

	// ErrConcurrentUpdate は読み込んだログが書き込み時点で別の書き手に更新されていた場合に返されます。
	// 別プロセス（stockctl や別レプリカ）との競合で、再読み込みからやり直せば解消します。
	ErrConcurrentUpdate = errors.New("portfolio was modified concurrently")

	// ErrPriceUnavailable は評価時に現在値が取得できなかった銘柄を示します。
	// 評価全体は失敗させず、該当銘柄にフラグを立てます。
	ErrPriceUnavailable = errors.New("current price unavailable")
)
