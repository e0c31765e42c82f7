package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	portfoliousecase "stock_insight/internal/feature/portfolio/usecase"
	"stock_insight/internal/feature/symbollist/domain/entity"
	"stock_insight/internal/platform/config"
	jwtmw "stock_insight/internal/platform/jwt"
)

// ledgerOps は運用コマンドが使うポートフォリオ操作です。
type ledgerOps interface {
	Rebuild(ctx context.Context, userID uint) (portfoliousecase.RebuildResult, error)
	ExportCSV(ctx context.Context, userID uint, w io.Writer) error
}

// symbolRegistrar は銘柄マスタへの登録です。
type symbolRegistrar interface {
	Register(ctx context.Context, symbols []entity.Symbol) error
}

type tokenCmd struct {
	jwt   config.JWTConfig
	out   io.Writer
	user  uint
	email string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint a bearer token for a user id" }
func (*tokenCmd) Usage() string {
	return `stockctl token -user <id> [-email <email>]

  Signs an HS256 token with JWT_SECRET. The sub claim is the portfolio owner.
`
}

func (p *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&p.user, "user", 0, "user id (sub claim), must be positive")
	f.StringVar(&p.email, "email", "", "optional email claim")
}

func (p *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.jwt.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		return subcommands.ExitFailure
	}
	token, err := jwtmw.NewGenerator(p.jwt.Secret, p.jwt.Expiry).GenerateToken(p.user, p.email)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	fmt.Fprintln(p.out, token)
	return subcommands.ExitSuccess
}

type rebuildCmd struct {
	ledger func(ctx context.Context) (ledgerOps, error)
	out    io.Writer
	user   uint
}

func (*rebuildCmd) Name() string     { return "rebuild" }
func (*rebuildCmd) Synopsis() string { return "re-derive holdings from the transaction log" }
func (*rebuildCmd) Usage() string {
	return `stockctl rebuild -user <id>

  Replays the user's transaction log, stores the result as the holdings
  projection and reports whether the stored projection had diverged.
  Exits 2 when a divergence was repaired.
`
}

func (p *rebuildCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&p.user, "user", 0, "user id")
}

func (p *rebuildCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.user == 0 {
		fmt.Fprintln(os.Stderr, "-user is required")
		return subcommands.ExitUsageError
	}
	ops, err := p.ledger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	res, err := ops.Rebuild(ctx, p.user)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, h := range res.Holdings {
		fmt.Fprintf(p.out, "%s\t%s\t%s\n", h.Symbol, h.Shares.String(), h.AvgCost.StringFixed(4))
	}
	if res.Diverged {
		fmt.Fprintf(p.out, "diverged: stored %d holdings, rebuilt %d\n", len(res.Stored), len(res.Holdings))
		return subcommands.ExitUsageError
	}
	fmt.Fprintln(p.out, "in sync")
	return subcommands.ExitSuccess
}

type exportCmd struct {
	ledger func(ctx context.Context) (ledgerOps, error)
	out    io.Writer
	user   uint
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a user's transaction log as CSV" }
func (*exportCmd) Usage() string {
	return `stockctl export -user <id> > transactions.csv
`
}

func (p *exportCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&p.user, "user", 0, "user id")
}

func (p *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.user == 0 {
		fmt.Fprintln(os.Stderr, "-user is required")
		return subcommands.ExitUsageError
	}
	ops, err := p.ledger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := ops.ExportCSV(ctx, p.user, p.out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type symbolsCmd struct {
	registry func(ctx context.Context) (symbolRegistrar, error)
	in       io.Reader
	out      io.Writer
	file     string
}

func (*symbolsCmd) Name() string     { return "symbols" }
func (*symbolsCmd) Synopsis() string { return "register symbols from a code,name,market CSV" }
func (*symbolsCmd) Usage() string {
	return `stockctl symbols [-f <file>]

  Reads code,name,market rows (header optional) from the file or stdin and
  upserts them as active symbols.
`
}

func (p *symbolsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.file, "f", "", "CSV file (defaults to stdin)")
}

func (p *symbolsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in := p.in
	if p.file != "" {
		f, err := os.Open(p.file)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		in = f
	}
	symbols, err := readSymbolsCSV(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	reg, err := p.registry(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := reg.Register(ctx, symbols); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(p.out, "registered %d symbols\n", len(symbols))
	return subcommands.ExitSuccess
}

// readSymbolsCSV は code,name,market の行を読みます。name と market は省略可能です。
func readSymbolsCSV(r io.Reader) ([]entity.Symbol, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []entity.Symbol
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}
		s := entity.Symbol{Code: strings.TrimSpace(rec[0])}
		if s.Code == "" {
			return nil, fmt.Errorf("line %d: empty code", line)
		}
		if len(rec) > 1 {
			s.Name = strings.TrimSpace(rec[1])
		}
		if len(rec) > 2 {
			s.Market = strings.TrimSpace(rec[2])
		}
		out = append(out, s)
	}
	return out, nil
}
