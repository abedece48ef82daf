// Command pickledis prints events of Python pickle streams.
//
//	pickledis [opts] [files]
//
// Every event is printed on its own line as `<pos>: <OPCODE> <argument>`.
// With -stats per-type event counts are printed instead. Input compressed
// with zstd is decompressed transparently.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}

func MainCommand() *cli.Command {
	cfg := &Config{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "pickledis").
		WithSynopsis("pickledis [opts] [files]").
		WithDescription("pickledis prints opcodes of Python pickle streams.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return pickledis(cfg, cc, args)
		})
}
