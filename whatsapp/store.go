package whatsapp

import (
	"database/sql"
	"fmt"
	"log/slog"

	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
)

// OpenDevice upgrades the session schema in `db` (SQLite) and returns the first stored device, or a fresh unpaired one.
func OpenDevice(db *sql.DB, logger *slog.Logger) (*store.Device, error) {
	container := sqlstore.NewWithDB(db, "sqlite3", NewLogger(logger, "Database"))
	if err := container.Upgrade(); err != nil {
		return nil, fmt.Errorf("upgrading session store: %w", err)
	}
	dev, err := container.GetFirstDevice()
	if err != nil {
		return nil, fmt.Errorf("loading device from session store: %w", err)
	}
	return dev, nil
}
