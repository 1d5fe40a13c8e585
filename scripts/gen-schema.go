//go:build ignore

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

func main() {
	out := flag.String("out", "schemas", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	targets := []struct {
		name string
		gen  func() ([]byte, error)
	}{
		{"solution-v1.json", solution.GenerateJSONSchema},
		{"skill-v1.json", solution.GenerateSkillJSONSchema},
	}
	for _, t := range targets {
		data, err := t.gen()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate %s: %v\n", t.name, err)
			os.Exit(1)
		}
		path := filepath.Join(*out, t.name)
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	}
}
