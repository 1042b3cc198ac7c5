// ════════════════════════════════════════════════════════════════════════════════════════════════
// Results Persistence
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: SQLite Run Store & JSON Export
//
// Description:
//   Keeps every report of every matrix so runs on different machines and
//   builds can be compared later. Each run row carries a fingerprint of its
//   configuration; histogram buckets and producer timings hang off the run.
//
// Schema:
//   runs      (id, fingerprint, experiment, policy, layout, arch, rounds,
//              elapsed_ns, anomaly_a, anomaly_b, anomalies, created_ns)
//   outcomes  (run_id, a, b, count)
//   producers (run_id, sequence, elapsed_ns, sum, expected)
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package results

import (
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"memlab/outcome"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint TEXT    NOT NULL,
	experiment  TEXT    NOT NULL,
	policy      TEXT    NOT NULL,
	layout      TEXT    NOT NULL,
	arch        TEXT    NOT NULL,
	rounds      INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	anomaly_a   INTEGER,
	anomaly_b   INTEGER,
	anomalies   INTEGER,
	created_ns  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	a      INTEGER NOT NULL,
	b      INTEGER NOT NULL,
	count  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS producers (
	run_id     INTEGER NOT NULL REFERENCES runs(id),
	sequence   TEXT    NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	sum        INTEGER NOT NULL,
	expected   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
`

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// FINGERPRINT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Fingerprint digests the parameters that make two reports comparable:
// experiment, policy, layout, architecture and round count. Timing and
// outcomes are excluded.
func Fingerprint(r outcome.Report) string {
	h := sha3.New256()
	io.WriteString(h, r.Experiment)
	h.Write([]byte{0, byte(r.Policy), byte(r.Layout), 0})
	io.WriteString(h, r.Arch)
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], r.Rounds)
	h.Write(n[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// STORE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Store is a sqlite database of reports.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("results: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Save writes r with its buckets and producer stats in one transaction and
// returns the run id.
func (s *Store) Save(r outcome.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("results: begin: %w", err)
	}
	defer tx.Rollback()

	var a, b, n sql.NullInt64
	if r.Histogram != nil {
		a = sql.NullInt64{Int64: int64(r.Anomaly.A), Valid: true}
		b = sql.NullInt64{Int64: int64(r.Anomaly.B), Valid: true}
		n = sql.NullInt64{Int64: int64(r.Anomalies), Valid: true}
	}
	res, err := tx.Exec(`INSERT INTO runs
		(fingerprint, experiment, policy, layout, arch, rounds, elapsed_ns, anomaly_a, anomaly_b, anomalies, created_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		Fingerprint(r), r.Experiment, r.Policy.String(), r.Layout.String(), r.Arch,
		int64(r.Rounds), int64(r.Elapsed), a, b, n, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("results: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("results: run id: %w", err)
	}

	if r.Histogram != nil {
		stmt, err := tx.Prepare(`INSERT INTO outcomes (run_id, a, b, count) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("results: prepare outcomes: %w", err)
		}
		defer stmt.Close()
		for _, p := range r.Histogram.Keys() {
			if _, err := stmt.Exec(id, int64(p.A), int64(p.B), int64(r.Histogram.Count(p))); err != nil {
				return 0, fmt.Errorf("results: insert outcome %v: %w", p, err)
			}
		}
	}
	for _, p := range r.Producers {
		if _, err := tx.Exec(`INSERT INTO producers (run_id, sequence, elapsed_ns, sum, expected) VALUES (?, ?, ?, ?, ?)`,
			id, p.Sequence, int64(p.Elapsed), int64(p.Sum), int64(p.Expected)); err != nil {
			return 0, fmt.Errorf("results: insert producer %s: %w", p.Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("results: commit: %w", err)
	}
	return id, nil
}

// Run is one stored row of the runs table with its buckets.
type Run struct {
	ID          int64
	Fingerprint string
	Experiment  string
	Policy      string
	Layout      string
	Arch        string
	Rounds      uint64
	Elapsed     time.Duration
	Outcomes    map[outcome.Pair]uint64
}

// Runs returns every stored run with the given fingerprint, oldest first. An
// empty fingerprint returns all runs.
func (s *Store) Runs(fingerprint string) ([]Run, error) {
	q := `SELECT id, fingerprint, experiment, policy, layout, arch, rounds, elapsed_ns FROM runs`
	var args []any
	if fingerprint != "" {
		q += ` WHERE fingerprint = ?`
		args = append(args, fingerprint)
	}
	q += ` ORDER BY id`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("results: query runs: %w", err)
	}
	var runs []Run
	for rows.Next() {
		var r Run
		var rounds, elapsed int64
		if err := rows.Scan(&r.ID, &r.Fingerprint, &r.Experiment, &r.Policy, &r.Layout, &r.Arch, &rounds, &elapsed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("results: scan run: %w", err)
		}
		r.Rounds, r.Elapsed = uint64(rounds), time.Duration(elapsed)
		runs = append(runs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("results: iterate runs: %w", err)
	}

	for i := range runs {
		if runs[i].Outcomes, err = s.outcomes(runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) outcomes(id int64) (map[outcome.Pair]uint64, error) {
	rows, err := s.db.Query(`SELECT a, b, count FROM outcomes WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("results: query outcomes: %w", err)
	}
	defer rows.Close()
	m := make(map[outcome.Pair]uint64)
	for rows.Next() {
		var a, b, n int64
		if err := rows.Scan(&a, &b, &n); err != nil {
			return nil, fmt.Errorf("results: scan outcome: %w", err)
		}
		m[outcome.Pair{A: uint64(a), B: uint64(b)}] = uint64(n)
	}
	return m, rows.Err()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// JSON EXPORT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

type bucketJSON struct {
	A     uint64 `json:"a"`
	B     uint64 `json:"b"`
	Count uint64 `json:"count"`
}

type producerJSON struct {
	Sequence string  `json:"sequence"`
	Seconds  float64 `json:"seconds"`
	Sum      uint64  `json:"sum"`
	Expected uint64  `json:"expected"`
}

type reportJSON struct {
	Fingerprint string         `json:"fingerprint"`
	Experiment  string         `json:"experiment"`
	Policy      string         `json:"policy"`
	Layout      string         `json:"layout"`
	Arch        string         `json:"arch"`
	Rounds      uint64         `json:"rounds"`
	Seconds     float64        `json:"seconds"`
	Anomaly     *bucketJSON    `json:"anomaly,omitempty"`
	Outcomes    []bucketJSON   `json:"outcomes,omitempty"`
	Producers   []producerJSON `json:"producers,omitempty"`
}

func toJSON(r outcome.Report) reportJSON {
	j := reportJSON{
		Fingerprint: Fingerprint(r),
		Experiment:  r.Experiment,
		Policy:      r.Policy.String(),
		Layout:      r.Layout.String(),
		Arch:        r.Arch,
		Rounds:      r.Rounds,
		Seconds:     r.Elapsed.Seconds(),
	}
	if r.Histogram != nil {
		j.Anomaly = &bucketJSON{A: r.Anomaly.A, B: r.Anomaly.B, Count: r.Anomalies}
		for _, p := range r.Histogram.Keys() {
			j.Outcomes = append(j.Outcomes, bucketJSON{A: p.A, B: p.B, Count: r.Histogram.Count(p)})
		}
	}
	for _, p := range r.Producers {
		j.Producers = append(j.Producers, producerJSON{p.Sequence, p.Elapsed.Seconds(), p.Sum, p.Expected})
	}
	return j
}

// WriteJSON writes reports to w as one JSON array.
func WriteJSON(w io.Writer, reports []outcome.Report) error {
	out := make([]reportJSON, 0, len(reports))
	for _, r := range reports {
		out = append(out, toJSON(r))
	}
	raw, err := sonnet.Marshal(out)
	if err != nil {
		return fmt.Errorf("results: encode: %w", err)
	}
	if _, err := w.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("results: write: %w", err)
	}
	return nil
}
