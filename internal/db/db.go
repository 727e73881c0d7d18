// Package db persists controller sessions: discovery snapshots of the card
// topology and an audit log of every command exchanged with the bus.
package db

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/AllenNeuralDynamics/voxel-sub006/internal/tiger"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			port TEXT,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS cards (
			snapshot_id INTEGER,
			addr INTEGER,
			axes TEXT,
			fw TEXT,
			board TEXT,
			build_date TEXT,
			flags TEXT,
			mods TEXT,
			FOREIGN KEY(snapshot_id) REFERENCES snapshots(snapshot_id)
		);
		CREATE TABLE IF NOT EXISTS command_log (
			log_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			command TEXT,
			reply TEXT,
			kind TEXT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// StartSession records a new controller session and returns its id.
func (db *DB) StartSession(port string) (string, error) {
	id := uuid.NewString()
	if _, err := db.Exec("INSERT INTO sessions (session_id, port) VALUES (?, ?)", id, port); err != nil {
		return "", err
	}
	return id, nil
}

// RecordSnapshot stores one discovery pass. Snapshots are append-only: a
// re-discovery inserts a new snapshot rather than updating card rows.
func (db *DB) RecordSnapshot(sessionID string, cards []tiger.CardInfo) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO snapshots (session_id) VALUES (?)", sessionID)
	if err != nil {
		return err
	}
	snapshotID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, card := range cards {
		_, err := tx.Exec(
			"INSERT INTO cards (snapshot_id, addr, axes, fw, board, build_date, flags, mods) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			snapshotID, card.Addr, strings.Join(card.Axes, " "),
			card.FW, card.Board, card.Date, card.Flags, joinMods(card.Mods),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LastSnapshot reads back the most recent discovery snapshot, or nil if none
// has been recorded yet.
func (db *DB) LastSnapshot() ([]tiger.CardInfo, error) {
	var snapshotID int64
	err := db.QueryRow("SELECT snapshot_id FROM snapshots ORDER BY snapshot_id DESC LIMIT 1").Scan(&snapshotID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		"SELECT addr, axes, fw, board, build_date, flags, mods FROM cards WHERE snapshot_id = ? ORDER BY addr",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []tiger.CardInfo
	for rows.Next() {
		var addr int
		var axes, fw, board, date, flags, mods string
		if err := rows.Scan(&addr, &axes, &fw, &board, &date, &flags, &mods); err != nil {
			return nil, err
		}
		cards = append(cards, tiger.CardInfo{
			Addr:  addr,
			Axes:  splitAxes(axes),
			FW:    fw,
			Board: board,
			Date:  date,
			Flags: flags,
			Mods:  splitMods(mods),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// RecordCommand appends one exchange to the audit log.
func (db *DB) RecordCommand(sessionID, command, reply string, kind tiger.ReplyKind) error {
	_, err := db.Exec(
		"INSERT INTO command_log (session_id, command, reply, kind) VALUES (?, ?, ?, ?)",
		sessionID, command, reply, kind.String(),
	)
	return err
}

// CommandCount returns the number of logged exchanges for a session.
func (db *DB) CommandCount(sessionID string) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM command_log WHERE session_id = ?", sessionID).Scan(&n)
	return n, err
}

func joinMods(mods map[tiger.Module]bool) string {
	names := make([]string, 0, len(mods))
	for m := range mods {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func splitMods(s string) map[tiger.Module]bool {
	mods := make(map[tiger.Module]bool)
	if s == "" {
		return mods
	}
	for _, name := range strings.Split(s, ",") {
		mods[tiger.Module(name)] = true
	}
	return mods
}

func splitAxes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
