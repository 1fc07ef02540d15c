package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/ewelink-core/internal/device"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/database"
)

// Snapshots persists the last known attribute tree per device.
type Snapshots struct {
	db *database.DB
}

// NewSnapshots creates a snapshot repository on an open database.
func NewSnapshots(db *database.DB) *Snapshots {
	return &Snapshots{db: db}
}

// Save stores a device's attribute tree, replacing any previous snapshot.
func (r *Snapshots) Save(ctx context.Context, dev device.Device) error {
	id := dev.ID()
	if id == "" {
		return fmt.Errorf("device has no id")
	}

	doc, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("encoding device %s: %w", id, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO device_snapshots (device_id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			document   = excluded.document,
			updated_at = excluded.updated_at
	`, id, string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving snapshot for %s: %w", id, err)
	}
	return nil
}

// SaveAll stores every device in one transaction.
func (r *Snapshots) SaveAll(ctx context.Context, devices []device.Device) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for _, dev := range devices {
		id := dev.ID()
		if id == "" {
			continue
		}
		doc, err := json.Marshal(dev)
		if err != nil {
			return fmt.Errorf("encoding device %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO device_snapshots (device_id, document, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(device_id) DO UPDATE SET
				document   = excluded.document,
				updated_at = excluded.updated_at
		`, id, string(doc), now); err != nil {
			return fmt.Errorf("saving snapshot for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshots: %w", err)
	}
	return nil
}

// LoadAll returns every stored device keyed by device id.
func (r *Snapshots) LoadAll(ctx context.Context) (map[string]device.Device, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		"SELECT device_id, document FROM device_snapshots")
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	devices := make(map[string]device.Device)
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var dev device.Device
		if err := json.Unmarshal([]byte(doc), &dev); err != nil {
			return nil, fmt.Errorf("decoding snapshot for %s: %w", id, err)
		}
		devices[id] = dev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return devices, nil
}

// Delete removes a device's snapshot.
func (r *Snapshots) Delete(ctx context.Context, deviceID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM device_snapshots WHERE device_id = ?", deviceID); err != nil {
		return fmt.Errorf("deleting snapshot for %s: %w", deviceID, err)
	}
	return nil
}
