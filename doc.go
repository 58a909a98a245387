/*
Package techtrends serves a small news blog about the cloud native ecosystem.

Posts live in a single SQLite file. Every data access opens its own
connection to that file and closes it again; there is no pool. Each client
carries a session cookie that records whether the database was reachable on
its last access and how many connections its requests have opened.

Routes:

	GET  /                    list of posts
	GET  /{id}                one post, 404 page when unknown
	GET  /about               static page
	GET  /create              new post form
	POST /create              store a post, redirect to /
	GET  /healthz             {"result":"OK - healthy"} or 500 {"result":"ERROR - unhealthy"}
	GET  /metrics             {"post_count":N,"db_connections":M}
	GET  /metrics/prometheus  Prometheus exposition

Example:

	opts, err := techtrends.LoadOptions()
	if err != nil {
		log.Fatal(err)
	}

	app, err := techtrends.New(opts)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.ListenAndServe(ctx); err != nil {
		log.Fatal(err)
	}

The server never creates the database file. Run the init-db command first:

	techtrends init-db --seed

Configuration comes from the environment (optionally loaded from a .env file)
and command line flags:

	LOGLEVEL=INFO                        DEBUG, INFO, WARNING, ERROR, CRITICAL
	TECHTRENDS_ADDR=0.0.0.0:3111
	TECHTRENDS_DB_PATH=database.db
	TECHTRENDS_DB_DRIVER=sqlite3         sqlite3 (cgo) or sqlite (pure Go)
	TECHTRENDS_SECRET_KEY=change-me
	TECHTRENDS_RATE_LIMIT=20             per client, 0 disables
	TECHTRENDS_BACKUP_DIR=./backups
*/
package techtrends
