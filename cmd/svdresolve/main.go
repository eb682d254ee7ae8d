// Command svdresolve is a thin sample wrapper around svdresolve.Resolve.
// It is not part of the core library: building a real CLI means adding
// an XML front end, which is explicitly out of scope (§1). This sample
// instead resolves one hand-built record.Device describing a small
// timer peripheral, so the pipeline can be exercised end to end without
// a tokenizer.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sarchlab/svdmodel/svdresolve"
	"github.com/sarchlab/svdmodel/testfixture"
	"gopkg.in/yaml.v3"
)

func main() {
	opts := svdresolve.Options{}
	if len(os.Args) > 1 {
		raw, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "svdresolve: reading options file:", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &opts); err != nil {
			fmt.Fprintln(os.Stderr, "svdresolve: parsing options file:", err)
			os.Exit(1)
		}
	}

	dev, sink, err := svdresolve.Resolve(context.Background(), testfixture.SampleDevice(), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "svdresolve: resolution failed:", err)
		sink.Report(os.Stderr)
		os.Exit(1)
	}

	fmt.Printf("resolved device %q: %d peripherals\n", dev.Name, len(dev.Peripherals))
	for _, p := range dev.Peripherals {
		fmt.Printf("  %-16s base=0x%08x registers=%d clusters=%d\n",
			p.Name, p.BaseAddress, len(p.Registers), len(p.Clusters))
	}

	if len(sink.Diagnostics()) > 0 {
		fmt.Println()
		sink.Report(os.Stdout)
	}
}
