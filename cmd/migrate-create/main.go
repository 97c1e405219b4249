package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <migration_name>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	name := os.Args[1]
	if !namePattern.MatchString(name) {
		log.Fatalf("migration name %q must be lowercase letters, digits and underscores", name)
	}

	dir := filepath.Join("db", "migrations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}

	base := time.Now().UTC().Format("20060102150405") + "_" + name
	for _, suffix := range []string{".up.sql", ".down.sql"} {
		path := filepath.Join(dir, base+suffix)
		if _, err := os.Stat(path); err == nil {
			log.Fatalf("file already exists: %s", path)
		}
		if err := os.WriteFile(path, []byte("-- "+name+"\n"), 0o644); err != nil {
			log.Fatalf("create %s: %v", path, err)
		}
		log.Printf("created %s", path)
	}
}
