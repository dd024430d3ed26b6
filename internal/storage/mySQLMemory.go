package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/config"
	"github.com/fatali-fataliyev/banking_portal/internal/contextutil"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/go-sql-driver/mysql"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// --- INIT START --- //

// mysqlDSNs derives the server-level DSN used to create the database, the
// database DSN and the database name.
func mysqlDSNs(settings config.MySQL) (adminDsn string, finalDsn string, dbname string, err error) {
	dbname = settings.Name
	if dbname == "" {
		dbname = config.DefaultDBName
	}

	if settings.FullDSN != "" {
		parsed, err := mysql.ParseDSN(settings.FullDSN)
		if err != nil {
			return "", "", "", fmt.Errorf("invalid FULL_DSN: %w", err)
		}
		parsed.ParseTime = true
		if parsed.DBName != "" {
			dbname = parsed.DBName
		}
		parsed.DBName = dbname
		finalDsn = parsed.FormatDSN()
		parsed.DBName = ""
		adminDsn = parsed.FormatDSN()
		return adminDsn, finalDsn, dbname, nil
	}

	if settings.User == "" || settings.Pass == "" || settings.Host == "" || settings.Port == "" {
		return "", "", "", fmt.Errorf("missing required DB environment variables")
	}
	cfg := mysql.NewConfig()
	cfg.User = settings.User
	cfg.Passwd = settings.Pass
	cfg.Net = "tcp"
	cfg.Addr = settings.Host + ":" + settings.Port
	cfg.ParseTime = true
	adminDsn = cfg.FormatDSN()
	cfg.DBName = dbname
	finalDsn = cfg.FormatDSN()
	return adminDsn, finalDsn, dbname, nil
}

// Init connects to MySQL, creates the database when missing and applies
// pending migrations.
func Init(settings config.MySQL) (*sql.DB, error) {
	adminDsn, finalDsn, dbname, err := mysqlDSNs(settings)
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open("mysql", adminDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin mysql handle: %w", err)
	}
	defer adminDb.Close()

	connected := false
	for i := 0; i < 15; i++ {
		if err := adminDb.Ping(); err == nil {
			connected = true
			break
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/15)", i+1)
		time.Sleep(3 * time.Second)
	}
	if !connected {
		return nil, fmt.Errorf("database unreachable after multiple attempts")
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRow(checkDbnameExistQuery, dbname).Scan(&dbnameExistence)

	if errors.Is(err, sql.ErrNoRows) {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;", dbname)
		if _, err := adminDb.Exec(createDbSql); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	logging.Logger.Info("Connecting to database...")
	db, err := sql.Open("mysql", finalDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	logging.Logger.Info("Connected to database successfully")
	logging.Logger.Info("Running migrations...")

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	migrationFiles, err := getMigrationFiles(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to get migration files: %w", err)
	}

	lastAppliedMigration, err := getLastAppliedMigration(db)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration name: %w", err)
	}

	newMigrations := filterNewMigrations(migrationFiles, lastAppliedMigration)

	if len(newMigrations) == 0 {
		logging.Logger.Info("no new migration")
		return nil
	}

	for _, migrationFile := range newMigrations {
		logging.Logger.Info("applying migration: ", migrationFile)
		migrationContent, err := fs.ReadFile(migrationsFS, "migrations/"+migrationFile)
		if err != nil {
			return fmt.Errorf("failed to read this '%s' migration file, error: %w", migrationFile, err)
		}

		err = applyMigration(db, migrationFile, string(migrationContent))
		if err != nil {
			return fmt.Errorf("failed to apply this '%s' migration file, error: %w", migrationFile, err)
		}
	}

	logging.Logger.Info("all migrations applied successfully")
	return nil
}

func getMigrationFiles(fsys fs.FS, dir string) ([]string, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	return migrationFiles, nil
}

func getLastAppliedMigration(db *sql.DB) (string, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS migration (
        id INT AUTO_INCREMENT PRIMARY KEY,
        migration_name VARCHAR(255) NOT NULL UNIQUE,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );`)

	if err != nil {
		return "", err
	}

	var lastMigration string
	err = db.QueryRow("SELECT migration_name FROM migration ORDER BY migration_name DESC LIMIT 1").Scan(&lastMigration)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return lastMigration, err
}

func filterNewMigrations(all []string, lastApplied string) []string {
	if lastApplied == "" {
		return all
	}

	var result []string
	for _, migration := range all {
		if migration > lastApplied {
			result = append(result, migration)
		}
	}
	return result
}

func applyMigration(db *sql.DB, name, sqlContent string) error {
	txn, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	for _, statement := range splitStatements(sqlContent) {
		if _, err := txn.Exec(statement); err != nil {
			txn.Rollback()
			return fmt.Errorf("migration statement failed: %w\nStatement: %s", err, statement)
		}
	}

	if _, err := txn.Exec("INSERT INTO migration (migration_name) VALUES (?)", name); err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to record migration name: %w", err)
	}

	return txn.Commit()
}

func splitStatements(sqlContent string) []string {
	var statements []string
	for _, statement := range strings.Split(sqlContent, ";") {
		trimmed := strings.TrimSpace(statement)
		if trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	return statements
}

// --- INIT END --- //

type MySQLStorage struct {
	db *sql.DB
}

func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

func (mySql *MySQLStorage) GetStorageType() string {
	return "mysql"
}

func (mySql *MySQLStorage) Get(ctx context.Context, key string) (string, bool, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	var value string
	err := mySql.db.QueryRowContext(ctx, "SELECT state_value FROM portal_state WHERE state_key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to read key '%s' in Storage.Get() function | Error: %v", traceID, key, err)
		return "", false, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to read stored data, try again later.",
		}
	}
	return value, true, nil
}

const upsertStateQuery = `INSERT INTO portal_state (state_key, state_value) VALUES (?, ?)
	ON DUPLICATE KEY UPDATE state_value = VALUES(state_value)`

func (mySql *MySQLStorage) Set(ctx context.Context, key string, value string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	if _, err := mySql.db.ExecContext(ctx, upsertStateQuery, key, value); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save key '%s' in Storage.Set() function | Error: %v", traceID, key, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save data, try again later.",
		}
	}
	return nil
}

// Update locks the row (or its gap) for the duration of fn.
func (mySql *MySQLStorage) Update(ctx context.Context, key string, fn UpdateFunc) error {
	traceID := contextutil.TraceIDFromContext(ctx)
	internalErr := appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: "Failed to update stored data, try again later.",
	}

	txn, err := mySql.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to begin transaction in Storage.Update() function | Error: %v", traceID, err)
		return internalErr
	}
	defer txn.Rollback()

	var current string
	found := true
	err = txn.QueryRowContext(ctx, "SELECT state_value FROM portal_state WHERE state_key = ? FOR UPDATE", key).Scan(&current)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.Logger.Errorf("[TraceID=%s] | failed to lock key '%s' in Storage.Update() function | Error: %v", traceID, key, err)
			return internalErr
		}
		found = false
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if _, err := txn.ExecContext(ctx, upsertStateQuery, key, next); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save key '%s' in Storage.Update() function | Error: %v", traceID, key, err)
		return internalErr
	}

	if err := txn.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit key '%s' in Storage.Update() function | Error: %v", traceID, key, err)
		return internalErr
	}
	return nil
}

func (mySql *MySQLStorage) Close() error {
	return mySql.db.Close()
}
