package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// schema is the single table the blog reads. Setting it up is the job of
// the init-db command, never of the request path.
const schema = `CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL
)`

// samplePosts seeds a fresh store so the listing is not empty
var samplePosts = []Post{
	{Title: "2020 CNCF Annual Report", Content: "The Cloud Native Computing Foundation (CNCF) annual report for 2020 is now available. The report covers the growth of the community, the projects graduated this year and the state of cloud native adoption."},
	{Title: "KubeCon + CloudNativeCon 2021", Content: "KubeCon and CloudNativeCon bring together adopters and technologists from leading open source and cloud native communities. Join the virtual event to learn about the latest project updates."},
	{Title: "Kubernetes Certification", Content: "The Cloud Native Computing Foundation offers the Certified Kubernetes Administrator and Certified Kubernetes Application Developer programs to demonstrate Kubernetes skills."},
	{Title: "Kubernetes v1.20 Release Notes", Content: "Kubernetes 1.20 is one of the largest releases in a while, with 44 enhancements. The dockershim deprecation is the headline change for cluster operators."},
	{Title: "CNCF Cloud Native Interactive Landscape", Content: "The Cloud Native Interactive Landscape filters and sorts hundreds of projects and products, and shows details including GitHub stars, funding or market cap, first and last commits, contributor counts and headquarters location."},
}

// InitDatabase creates the store file and posts table if needed. With seed
// set, an empty table gets the sample posts. It returns how many posts were
// inserted.
func InitDatabase(ctx context.Context, cfg *Config, seed bool) (int, error) {

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// rwc: this is the one place allowed to create the file
	sqldb, err := sql.Open(cfg.Driver, fileDSN(cfg.DBPath, "rwc"))
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	inserted := 0
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {

		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create posts table: %w", err)
		}

		if !seed {
			return nil
		}

		count, err := tx.NewSelect().Model((*Post)(nil)).Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}
		if count > 0 {
			return nil
		}

		posts := make([]Post, len(samplePosts))
		copy(posts, samplePosts)

		if _, err := tx.NewInsert().Model(&posts).Column("title", "content").Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed posts: %w", err)
		}
		inserted = len(posts)

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
