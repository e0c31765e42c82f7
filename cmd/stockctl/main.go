// stockctl は運用向けのコマンドラインツールです。
//
//	stockctl token -user 1          JWT を発行
//	stockctl rebuild -user 1        取引ログから保有を再構築し、乖離を報告
//	stockctl export -user 1         取引ログをCSVで標準出力へ
//	stockctl symbols -f list.csv    銘柄マスタを code,name,market のCSVから登録
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"stock_insight/internal/app/di"
	"stock_insight/internal/platform/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// 標準出力はコマンドの結果に使うため、ログは標準エラーへ
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	var container *di.Container
	build := func(ctx context.Context) (*di.Container, error) {
		if container == nil {
			c, err := di.Build(ctx, cfg)
			if err != nil {
				return nil, err
			}
			container = c
		}
		return container, nil
	}
	portfolio := func(ctx context.Context) (ledgerOps, error) {
		c, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return c.Portfolio, nil
	}
	symbols := func(ctx context.Context) (symbolRegistrar, error) {
		c, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return c.Symbols, nil
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&tokenCmd{jwt: cfg.JWT, out: os.Stdout}, "auth")
	commander.Register(&rebuildCmd{ledger: portfolio, out: os.Stdout}, "portfolio")
	commander.Register(&exportCmd{ledger: portfolio, out: os.Stdout}, "portfolio")
	commander.Register(&symbolsCmd{registry: symbols, in: os.Stdin, out: os.Stdout}, "master")

	flag.Parse()
	status := commander.Execute(context.Background())
	if container != nil {
		if err := container.Close(); err != nil {
			slog.Error("failed to close resources", "error", err)
		}
	}
	os.Exit(int(status))
}
