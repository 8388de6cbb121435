package main

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/Comcast/casematch/interpreters"
	"github.com/Comcast/casematch/matchers"
	"github.com/Comcast/casematch/store"
	"github.com/Comcast/casematch/store/bolt"
	"github.com/Comcast/casematch/tools"
)

var (
	DefaultTableDir = "../../tables"
	DemoNamespace   = "demo"
)

// makeDemoService makes a Service with the Tables in tableDir loaded
// into the "demo" namespace.  Each Table's id is its file's basename.
//
// With a storeFile, Tables are stored with BoltDB.  Otherwise they
// are only kept in memory.
func makeDemoService(ctx context.Context, tableDir, storeFile string) (*Service, error) {

	if tableDir == "" {
		tableDir = DefaultTableDir
	}

	log.Printf(`tableDir: "%s"`, tableDir)

	var storage store.Storage
	if storeFile != "" {
		bs, err := bolt.NewStorage(storeFile)
		if err != nil {
			return nil, err
		}
		storage = bs
	} else {
		storage = store.NewMemStorage()
	}
	if err := storage.Open(ctx); err != nil {
		return nil, err
	}

	s, err := NewService()
	if err != nil {
		return nil, err
	}

	s.Factories = matchers.Standard()
	s.Interpreters = interpreters.Standard(s.Factories)
	s.Storage = storage

	if err = s.MakeNamespace(ctx, DemoNamespace); err != nil {
		return nil, err
	}

	filenames, err := filepath.Glob(filepath.Join(tableDir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	for _, filename := range filenames {
		t, err := tools.ReadTable(filename)
		if err != nil {
			return nil, err
		}
		t.Id = strings.TrimSuffix(filepath.Base(filename), ".yaml")
		if err = s.PutTable(ctx, DemoNamespace, t); err != nil {
			return nil, err
		}
		log.Printf("loaded %s as %s/%s", filename, DemoNamespace, t.Id)
	}

	return s, nil
}
