// Package history records finished play sessions in a local SQLite database.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"
)

// Session is one play session.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	StartedAt time.Time `gorm:"index"`
	EndedAt   time.Time
	Score     int
	Frames    int
	Dominant  string  `gorm:"index"` // most frequent label, neutral when no frames were seen
	Tallies   []Tally `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;"`
}

// Tally is how many frames of a session carried one label.
type Tally struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index;size:36;not null"`
	Label     string `gorm:"not null"`
	Frames    int
}

// Duration is the wall time of the session.
func (s Session) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// Store wraps the history database.
type Store struct {
	db *gorm.DB
}

// migrate brings the schema up to date. Tests replace it to force failures.
var migrate = func(db *gorm.DB) error {
	return db.AutoMigrate(&Session{}, &Tally{})
}

// Open creates (if needed) and migrates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	gormLogger := gormlog.New(
		log.StandardLogger(),
		gormlog.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  gormlog.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	log.WithField("file", path).Debug("History database ready")
	return &Store{db: db}, nil
}

// Save stores a session and its tallies.
func (s *Store) Save(sess *Session) error {
	if sess.ID == "" {
		return errors.New("session id is empty")
	}
	return s.db.Create(sess).Error
}

// Finish closes the recorder's session with the final score and saves it.
func (s *Store) Finish(r *Recorder, score int) (Session, error) {
	sess := r.Session(score)
	if err := s.Save(&sess); err != nil {
		return sess, fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	log.WithFields(log.Fields{
		"session":  sess.ID,
		"score":    sess.Score,
		"frames":   sess.Frames,
		"dominant": sess.Dominant,
	}).Info("Session saved")
	return sess, nil
}

// Recent returns up to n sessions, newest first, with tallies.
func (s *Store) Recent(n int) ([]Session, error) {
	var out []Session
	err := s.db.Preload("Tallies", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Order("started_at desc").Limit(n).Find(&out).Error
	return out, err
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
