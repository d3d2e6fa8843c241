package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const downSuffix = ".down.sql"

// Migration pairs an up script with the script that reverts it.
type Migration struct {
	Name string // file name of the up script
	Up   string
	Down string
}

// loadMigrations lists the migrations in dir in name order. Every
// NNN_name.sql needs a matching NNN_name.down.sql.
func loadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	downs := make(map[string]bool)
	var ups []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir() || !strings.HasSuffix(name, ".sql"):
		case strings.HasSuffix(name, downSuffix):
			downs[name] = true
		default:
			ups = append(ups, name)
		}
	}
	sort.Strings(ups)

	migrations := make([]Migration, 0, len(ups))
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".sql") + downSuffix
		if !downs[down] {
			return nil, fmt.Errorf("%s has no %s", up, down)
		}
		delete(downs, down)
		migrations = append(migrations, Migration{
			Name: up,
			Up:   filepath.Join(dir, up),
			Down: filepath.Join(dir, down),
		})
	}
	for down := range downs {
		return nil, fmt.Errorf("%s has no up script", down)
	}
	return migrations, nil
}

// pending returns the migrations not yet applied, oldest first.
func pending(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Name] {
			out = append(out, m)
		}
	}
	return out
}

// rollback returns up to steps applied migrations, newest first.
func rollback(all []Migration, applied map[string]bool, steps int) ([]Migration, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	var out []Migration
	for i := len(all) - 1; i >= 0 && len(out) < steps; i-- {
		if applied[all[i].Name] {
			out = append(out, all[i])
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("nothing to revert")
	}
	return out, nil
}
