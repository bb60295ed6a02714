package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"firewall-rule-engine/internal/model"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const profileQuery = "SELECT profile_id, profile_name, rules FROM cfg_network_profile"

// SQLSource reads network profiles from the console database. Each profile
// row holds the full rule text of one document.
type SQLSource struct {
	db       *sql.DB
	provider string
}

// DriverFor maps a provider name to its database/sql driver.
func DriverFor(provider string) (string, error) {
	switch strings.ToLower(provider) {
	case "mariadb", "mysql":
		return "mysql", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unknown rule provider: %s", provider)
	}
}

func NewSQLSource(ctx context.Context, provider, dsn string) (*SQLSource, error) {
	driver, err := DriverFor(provider)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not reachable: %w", err)
	}
	return &SQLSource{db: db, provider: strings.ToLower(provider)}, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

// Load returns the profiles ordered by id. A non-empty profile restricts the
// result to that profile name.
func (s *SQLSource) Load(ctx context.Context, profile string) ([]model.RuleDocument, error) {
	query := profileQuery
	var args []any
	if profile != "" {
		query += " WHERE profile_name = ?"
		args = append(args, profile)
	}
	query += " ORDER BY profile_id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load network profiles: %w", err)
	}
	defer rows.Close()

	var docs []model.RuleDocument
	for rows.Next() {
		var id int64
		var name string
		var rules sql.NullString
		if err := rows.Scan(&id, &name, &rules); err != nil {
			return nil, err
		}
		if name == "" {
			name = fmt.Sprintf("profile-%d", id)
		}
		docs = append(docs, model.RuleDocument{
			Name:   name,
			Source: s.provider,
			Text:   rules.String,
		})
	}
	return docs, rows.Err()
}
