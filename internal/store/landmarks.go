package store

import (
	"database/sql"
	"fmt"
)

// Detector names stored with each landmark row.
const (
	DetectorHand = "hand"
	DetectorPose = "pose"
	DetectorFace = "face"
)

// FramePoint is one pixel-space landmark of a recorded frame.
type FramePoint struct {
	Detector string `json:"detector"`
	Instance int    `json:"instance"`
	Index    int    `json:"index"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
}

// LandmarkRepository stores per-frame landmarks of a session.
type LandmarkRepository struct {
	db *sql.DB
}

// Landmarks returns the landmark repository for this store.
func (s *Store) Landmarks() *LandmarkRepository {
	return &LandmarkRepository{db: s.db}
}

// InsertFrame stores all points of one frame in a single transaction.
func (r *LandmarkRepository) InsertFrame(sessionID string, frameIndex int, points []FramePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO frame_landmarks (session_id, frame_index, detector, instance, landmark_index, x, y, z)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(sessionID, frameIndex, p.Detector, p.Instance, p.Index, p.X, p.Y, p.Z); err != nil {
			return fmt.Errorf("insert %s landmark %d: %w", p.Detector, p.Index, err)
		}
	}

	return tx.Commit()
}

// ListFrame returns the points of one frame ordered by detector, instance and index.
func (r *LandmarkRepository) ListFrame(sessionID string, frameIndex int) ([]FramePoint, error) {
	rows, err := r.db.Query(
		`SELECT detector, instance, landmark_index, x, y, z
		 FROM frame_landmarks WHERE session_id = ? AND frame_index = ?
		 ORDER BY detector, instance, landmark_index`,
		sessionID, frameIndex,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []FramePoint{}
	for rows.Next() {
		var p FramePoint
		if err := rows.Scan(&p.Detector, &p.Instance, &p.Index, &p.X, &p.Y, &p.Z); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return points, nil
}

// CountBySession returns how many distinct frames have landmarks stored.
func (r *LandmarkRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(DISTINCT frame_index) FROM frame_landmarks WHERE session_id = ?`,
		sessionID,
	).Scan(&n)
	return n, err
}
