package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// DefaultTable is the table MySQLStore keeps its entries in
const DefaultTable = "test_viewer_store"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// MySQLStore keeps entries in a MySQL table, for sharing one cache between machines
type MySQLStore struct {
	db    *sql.DB
	table string
}

// OpenMySQLStore connects with dsn (go-sql-driver format) and creates the table if needed
func OpenMySQLStore(dsn, table string) (*MySQLStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !isValidTableName(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}

	s := &MySQLStore{db: db, table: table}
	if err := s.ensureTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return s, nil
}

func (s *MySQLStore) ensureTable() error {
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"`k` VARCHAR(255) NOT NULL PRIMARY KEY, "+
		"`v` LONGTEXT NOT NULL"+
		") DEFAULT CHARSET=utf8mb4", s.table)
	_, err := s.db.Exec(query)
	return err
}

func (s *MySQLStore) Get(key string) (string, bool, error) {
	var value string
	query := fmt.Sprintf("SELECT `v` FROM `%s` WHERE `k` = ?", s.table)
	err := s.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *MySQLStore) Set(key, value string) error {
	query := fmt.Sprintf("INSERT INTO `%s` (`k`, `v`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `v` = VALUES(`v`)", s.table)
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *MySQLStore) Remove(key string) error {
	query := fmt.Sprintf("DELETE FROM `%s` WHERE `k` = ?", s.table)
	if _, err := s.db.Exec(query, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *MySQLStore) Keys(prefix string) ([]string, error) {
	query := fmt.Sprintf("SELECT `k` FROM `%s` WHERE `k` LIKE ? ESCAPE '!' ORDER BY `k`", s.table)
	rows, err := s.db.Query(query, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// likePrefix escapes LIKE wildcards in prefix using '!' as the escape character
func likePrefix(prefix string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(prefix) + "%"
}

func isValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
