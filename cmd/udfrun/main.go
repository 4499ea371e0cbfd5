// Command udfrun packs user-defined functions into embeddable blobs and
// runs them against scientific dataset buffers inside a restricted child
// process. It is a thin front-end over the github.com/gridsynth/udfrun
// library; the interesting work lives there.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gridsynth/udfrun"
)

var debug = flag.Bool("debug", false, "format error messages with additional detail")

// funcmain dispatches to a verb table on flag.Args()[0], wraps every
// verb in an InterruptibleContext, and runs RunAtExit once on a clean
// exit.
func funcmain() error {
	// The hidden re-exec child verb must be recognized before ordinary
	// flag parsing: Run execs os.Args[0] with exactly one argument
	// (udfrun.ChildVerb) and no other flags.
	if len(os.Args) > 1 && os.Args[1] == udfrun.ChildVerb {
		udfrun.RunChild() // never returns
	}

	flag.Parse()

	type cmd struct {
		fn func(ctx context.Context, args []string) error
	}
	verbs := map[string]cmd{
		"pack": {pack},
		"scan": {scan},
		"run":  {run},
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage: udfrun [-flags] <pack|scan|run> [-flags] <args>\n")
		os.Exit(2)
	}
	verb, args := args[0], args[1:]

	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		fmt.Fprintf(os.Stderr, "syntax: udfrun <pack|scan|run> [options]\n")
		os.Exit(2)
	}

	ctx, canc := udfrun.InterruptibleContext()
	defer canc()
	if err := v.fn(ctx, args); err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verb, err)
		}
		return fmt.Errorf("%s: %v", verb, err)
	}
	return udfrun.RunAtExit()
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
