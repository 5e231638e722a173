package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/janus-md/janus/internal/janus/cache"
	"github.com/janus-md/janus/internal/janus/config"
	"github.com/janus-md/janus/internal/janus/doc"
	"github.com/janus-md/janus/internal/janus/hooks"
	"github.com/janus-md/janus/internal/janus/locator"
	"github.com/janus-md/janus/internal/janus/plan"
	"github.com/janus-md/janus/internal/janus/store"
	"github.com/janus-md/janus/internal/janus/ticket"
)

// loadConfig resolves the project config from cfgPath, or by searching
// upward from the working directory when cfgPath is unset.
func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadFromDirectory(dir)
}

// loadStore builds an in-memory store from the on-disk root and attaches
// a hook runner bound to cfg's configured timeout. When the persistent
// cache is enabled, tickets and plans are rehydrated from the SQLite
// mirror (synced against disk first) instead of being reparsed file by
// file; docs have no cache table and are always walked directly. The
// returned Cache is nil when the cache is disabled; callers that get a
// non-nil Cache are responsible for closing it once the store is no
// longer needed. Individual parse failures warn rather than failing the
// whole load.
func loadStore(cfg *config.Config) (*store.Store, *cache.Cache, []string, error) {
	root := cfg.ResolveRoot()
	st := store.New(root)
	st.SetHookRunner(hooks.NewRunner(root, time.Duration(cfg.Hooks.TimeoutSeconds)*time.Second))
	var warnings []string

	walk := func(dir string, handle func(path string, data []byte) error) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("reading %s: %v", path, err))
				continue
			}
			if err := handle(path, data); err != nil {
				warnings = append(warnings, fmt.Sprintf("parsing %s: %v", path, err))
			}
		}
		return nil
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		c, err = cache.Open(locator.CachePath(root))
		if err != nil {
			return nil, nil, warnings, fmt.Errorf("opening cache: %w", err)
		}

		if err := syncAndLoadTickets(st, c, root, &warnings); err != nil {
			c.Close()
			return nil, nil, warnings, err
		}
		if err := syncAndLoadPlans(st, c, root, &warnings); err != nil {
			c.Close()
			return nil, nil, warnings, err
		}
	} else {
		if err := walk(locator.ItemsDir(root), func(path string, data []byte) error {
			id := locator.IDFromPath(path)
			t, idMismatch, err := ticket.Parse(data, id)
			if err != nil {
				return err
			}
			if idMismatch {
				warnings = append(warnings, fmt.Sprintf("%s: frontmatter id does not match filename", path))
			}
			t.Path = path
			st.UpsertTicket(t)
			return nil
		}); err != nil {
			return nil, c, warnings, err
		}

		if err := walk(locator.PlansDir(root), func(path string, data []byte) error {
			id := locator.IDFromPath(path)
			p, _, err := plan.Parse(data, id)
			if err != nil {
				return err
			}
			st.UpsertPlan(p)
			return nil
		}); err != nil {
			return nil, c, warnings, err
		}
	}

	if err := walk(locator.DocsDir(root), func(path string, data []byte) error {
		label := locator.IDFromPath(path)
		d, err := doc.Parse(data, label)
		if err != nil {
			return err
		}
		st.UpsertDoc(d)
		return nil
	}); err != nil {
		if c != nil {
			c.Close()
		}
		return nil, nil, warnings, err
	}

	return st, c, warnings, nil
}

// syncAndLoadTickets brings the cache's ticket table up to date with disk,
// then upserts every cached ticket into st from its mirrored payload
// rather than rereading the file.
func syncAndLoadTickets(st *store.Store, c *cache.Cache, root string, warnings *[]string) error {
	_, syncWarnings, err := c.Sync(cache.TicketTable(root))
	if err != nil {
		return fmt.Errorf("syncing ticket cache: %w", err)
	}
	*warnings = append(*warnings, syncWarnings...)

	payloads, err := c.AllPayloads("tickets")
	if err != nil {
		return fmt.Errorf("reading cached tickets: %w", err)
	}
	for id, payload := range payloads {
		t, idMismatch, err := ticket.Parse([]byte(payload), id)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("parsing cached ticket %s: %v", id, err))
			continue
		}
		if idMismatch {
			*warnings = append(*warnings, fmt.Sprintf("%s: frontmatter id does not match filename", id))
		}
		t.Path = locator.TicketPath(root, id)
		st.UpsertTicket(t)
	}
	return nil
}

// syncAndLoadPlans is syncAndLoadTickets's counterpart for plans.
func syncAndLoadPlans(st *store.Store, c *cache.Cache, root string, warnings *[]string) error {
	_, syncWarnings, err := c.Sync(cache.PlanTable(root))
	if err != nil {
		return fmt.Errorf("syncing plan cache: %w", err)
	}
	*warnings = append(*warnings, syncWarnings...)

	payloads, err := c.AllPayloads("plans")
	if err != nil {
		return fmt.Errorf("reading cached plans: %w", err)
	}
	for id, payload := range payloads {
		p, _, err := plan.Parse([]byte(payload), id)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("parsing cached plan %s: %v", id, err))
			continue
		}
		st.UpsertPlan(p)
	}
	return nil
}
