package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"buzz/internal/cache"
	"buzz/internal/compiler"
	"buzz/pkg/fiber"
	"buzz/pkg/gc"
	"buzz/pkg/types"
	"buzz/pkg/value"
	"buzz/pkg/vm"
)

func cachePath() string {
	if p := os.Getenv("BUZZ_CACHE_PATH"); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), "buzz-cache.db")
}

func openCache() *cache.Store {
	store, err := cache.Open(cachePath())
	if err != nil {
		log.Printf("buzz: bytecode cache unavailable: %v", err)
		return nil
	}
	return store
}

func runScript(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	registry := types.NewRegistry()
	heap := gc.New(registry)
	root := value.NewFiber(nil)
	sched := fiber.NewScheduler(root)
	machine := vm.New(heap, registry, sched)
	machine.SetPrintSink(func(s string) { fmt.Println(s) })

	result, err := compiler.Compile(string(src), heap, registry)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	hash := cache.HashSource(string(src))
	if store := openCache(); store != nil {
		defer store.Close()
		if _, hit, _ := store.Get(path, hash); hit {
			log.Printf("buzz: %s matches a previously compiled fingerprint", path)
		}
		if err := store.Put(&cache.CompiledUnit{
			SourcePath: path,
			SourceHash: hash,
			Bytecode:   result.Main.FnChunk.Code,
		}); err != nil {
			log.Printf("buzz: caching compiled unit: %v", err)
		}
	}

	_, err = machine.Call(result.Main, nil)
	if err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}
