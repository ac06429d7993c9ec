package main

import (
	"fmt"
	"os"

	"buzz/internal/compiler"
	"buzz/pkg/gc"
	"buzz/pkg/types"
	"buzz/pkg/vm"
)

func disasmScript(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	registry := types.NewRegistry()
	heap := gc.New(registry)
	result, err := compiler.Compile(string(src), heap, registry)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	fmt.Print(vm.Disassemble(path, result.Main.FnChunk))
	return nil
}
