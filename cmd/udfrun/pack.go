package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gridsynth/udfrun"
)

const packHelp = `udfrun pack [-flags]

Assemble a UDF source file with a runtime template, compile it to a
position-independent shared object, and write the compressed,
embeddable blob to -out.
`

func pack(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("pack", flag.ExitOnError)
	fset.Usage = usage(fset, packHelp)
	var (
		src         = fset.String("src", "", "path to the UDF source file")
		template    = fset.String("template", "", "path to the runtime template (default: bundled template)")
		placeholder = fset.String("placeholder", udfrun.DefaultPlaceholder, "placeholder token the template splices UDF source into")
		ext         = fset.String("ext", ".cpp", "extension for the assembled source file")
		out         = fset.String("out", "", "path to write the compressed blob to")
	)
	fset.Parse(args)

	if *src == "" || *out == "" {
		fset.Usage()
		os.Exit(2)
	}

	templatePath := *template
	if templatePath == "" {
		tmpl, err := udfrun.DefaultTemplate()
		if err != nil {
			return err
		}
		f, err := os.CreateTemp("", "udfrun-default-template-*.cpp")
		if err != nil {
			return err
		}
		defer os.Remove(f.Name())
		if _, err := f.Write(tmpl); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		templatePath = f.Name()
	}

	blob, diag, err := udfrun.Pack(ctx, *src, templatePath, *placeholder, *ext)
	if err != nil {
		return err
	}
	if len(blob) == 0 {
		return fmt.Errorf("pack: empty blob (compiler exit status %d, output found: %v)", diag.ExitStatus, diag.OutputFound)
	}
	if err := os.WriteFile(*out, blob, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "packed %s -> %s (%d bytes)\n", *src, *out, len(blob))
	return nil
}
