package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/johnwilmes/kgenealogic/kit"
)

// EnsureKits inserts any kitids not already present in the kit table (a
// no-op for ones that already exist) and returns the internal id for every
// kitid given, in the same order.
func EnsureKits(ctx context.Context, tx *sql.Tx, kitids []string) ([]kit.ID, error) {
	ids := make([]kit.ID, len(kitids))
	insert, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO kit (kitid) VALUES (?)`)
	if err != nil {
		return nil, errors.Wrap(err, "store: prepare kit insert")
	}
	defer insert.Close()
	lookup, err := tx.PrepareContext(ctx, `SELECT id FROM kit WHERE kitid = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "store: prepare kit lookup")
	}
	defer lookup.Close()

	for i, kitid := range kitids {
		if _, err := insert.ExecContext(ctx, kitid); err != nil {
			return nil, errors.Wrapf(err, "store: insert kit %q", kitid)
		}
		var id int64
		if err := lookup.QueryRowContext(ctx, kitid).Scan(&id); err != nil {
			return nil, errors.Wrapf(err, "store: lookup kit %q", kitid)
		}
		ids[i] = kit.ID(id)
	}
	return ids, nil
}

// KitData is the optional, first-observation-wins metadata a match or
// triangle row can carry about a non-source kit.
type KitData struct {
	Kit   kit.ID
	Name  *string
	Email *string
	Sex   *string
}

// UpdateKitData applies each row's (name, email, sex) only to kits whose sex
// is still unknown: the first observation wins, later ones are dropped.
func UpdateKitData(ctx context.Context, tx *sql.Tx, rows []KitData) error {
	stmt, err := tx.PrepareContext(ctx,
		`UPDATE kit SET name = ?, email = ?, sex = ? WHERE id = ? AND sex IS NULL`)
	if err != nil {
		return errors.Wrap(err, "store: prepare kit data update")
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Name, row.Email, row.Sex, int64(row.Kit)); err != nil {
			return errors.Wrapf(err, "store: update kit data for %d", row.Kit)
		}
	}
	return nil
}

// GetKit loads a Kit by internal id.
func GetKit(ctx context.Context, q Queryer, id kit.ID) (kit.Kit, error) {
	var k kit.Kit
	var kitid string
	err := q.QueryRowContext(ctx, `SELECT id, kitid, name, email, sex FROM kit WHERE id = ?`, int64(id)).
		Scan(&k.ID, &kitid, &k.Name, &k.Email, &k.Sex)
	k.KitID = kitid
	if err != nil {
		return kit.Kit{}, errors.Wrapf(err, "store: get kit %d", id)
	}
	return k, nil
}

// AllKits returns every kit in the store.
func AllKits(ctx context.Context, q Queryer) ([]kit.Kit, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, kitid, name, email, sex FROM kit`)
	if err != nil {
		return nil, errors.Wrap(err, "store: list kits")
	}
	defer rows.Close()
	var out []kit.Kit
	for rows.Next() {
		var k kit.Kit
		if err := rows.Scan(&k.ID, &k.KitID, &k.Name, &k.Email, &k.Sex); err != nil {
			return nil, errors.Wrap(err, "store: scan kit")
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// EnsureSources inserts sources, a no-op for existing ones.
func EnsureSources(ctx context.Context, tx *sql.Tx, sources []kit.ID) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO source (kit) VALUES (?)`)
	if err != nil {
		return errors.Wrap(err, "store: prepare source insert")
	}
	defer stmt.Close()
	for _, s := range sources {
		if _, err := stmt.ExecContext(ctx, int64(s)); err != nil {
			return errors.Wrapf(err, "store: insert source %d", s)
		}
	}
	return nil
}

// SetMatchWatermark sets source.match = batch for every kit1 that produced a
// match row in that batch.
func SetMatchWatermark(ctx context.Context, tx *sql.Tx, batch int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE source SET match = ? WHERE kit IN (SELECT DISTINCT kit1 FROM match WHERE batch = ?)`,
		batch, batch)
	return errors.Wrap(err, "store: set match watermark")
}

// SetTriangleWatermark sets source.triangle = batch for every kit1 that
// produced a triangle row in that batch.
func SetTriangleWatermark(ctx context.Context, tx *sql.Tx, batch int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE source SET triangle = ? WHERE kit IN (SELECT DISTINCT kit1 FROM triangle WHERE batch = ?)`,
		batch, batch)
	return errors.Wrap(err, "store: set triangle watermark")
}

// SetNegativeWatermark advances source.negative after a successful
// build_negative rebuild.
func SetNegativeWatermark(ctx context.Context, tx *sql.Tx, source kit.ID, batch int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE source SET negative = ? WHERE kit = ?`, batch, int64(source))
	return errors.Wrapf(err, "store: set negative watermark for %d", source)
}

// GetSource loads a source's watermarks. The zero Source (all watermarks
// nil) is returned, with ok=false, if the kit has never been a source.
func GetSource(ctx context.Context, q Queryer, id kit.ID) (src kit.Source, ok bool, err error) {
	row := q.QueryRowContext(ctx, `SELECT kit, match, triangle, negative FROM source WHERE kit = ?`, int64(id))
	var k int64
	if scanErr := row.Scan(&k, &src.Match, &src.Triangle, &src.Negative); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return kit.Source{}, false, nil
		}
		return kit.Source{}, false, errors.Wrapf(scanErr, "store: get source %d", id)
	}
	src.Kit = kit.ID(k)
	return src, true, nil
}

// Queryer is satisfied by both *sql.DB and *sql.Tx, letting read helpers run
// either inside or outside a transaction.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
