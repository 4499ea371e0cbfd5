package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gridsynth/udfrun"
)

const scanHelp = `udfrun scan [-flags]

Print the ordered list of dataset names a UDF source file references via
its data-access API calls (duplicates preserved, source order).
`

func scan(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("scan", flag.ExitOnError)
	fset.Usage = usage(fset, scanHelp)
	src := fset.String("src", "", "path to the UDF source file")
	fset.Parse(args)

	if *src == "" {
		fset.Usage()
		os.Exit(2)
	}

	names, err := udfrun.Scan(ctx, *src)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}
