/*
Package stash is a server-side session store with flash data.

Each visitor gets an opaque 40-character session ID (usually carried in a
cookie) that keys a tree of attributes persisted between requests. Values
written with Flash live for exactly one more request; expired sessions are
purged by a scheduled, batched garbage collection sweep.

# Architecture

The module follows a ports and adapters layout:

  - pkg/attr: the dotted-path attribute tree.
  - pkg/session: the per-request Store, flash ledger and ID generation.
  - pkg/ports: the Handler and RecordStore contracts.
  - pkg/handler: the default Handler, storing {payload, last_activity}
    envelopes in any RecordStore.
  - pkg/adapters: record stores (memory, file, redis, buntdb, badger), the
    net/http middleware and the MCP admin server.
  - pkg/gc: the cron scheduled and lottery triggered collector.

# Usage

	m, err := stash.New(stash.Config{Name: "shop", Backend: stash.BackendRedis})
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if err := m.Collector().Start(); err != nil {
		log.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s := stashhttp.FromContext(r.Context())
		s.Increment("visits", 1)
	})
	http.ListenAndServe(":8080", stashhttp.Middleware(m)(mux))

Without the middleware, drive a session by hand:

	s, err := m.Begin(ctx, cookieValue)
	s.Put("user.name", "Ann")
	s.Flash("status", "Profile updated")
	err = m.Commit(ctx, s)

# Configuration

LoadConfig reads a YAML file and applies STASH_* environment overrides
(STASH_LIFETIME=30m, STASH_BACKEND=buntdb, STASH_REDIS_ADDR=...).
*/
package stash
