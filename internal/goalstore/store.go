package goalstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/config"
	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/textutil"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

// Record is one stored goal.
type Record struct {
	ID                string           `json:"id"`
	School            string           `json:"school_name"`
	Level             string           `json:"school_level"`
	Index             int              `json:"goal_index"`
	Area              string           `json:"area"`
	FocusGrades       string           `json:"focus_grades"`
	FocusStudentGroup string           `json:"focus_student_group"`
	FocusArea         string           `json:"focus_area"`
	Outcome           string           `json:"outcome"`
	Summary           string           `json:"strategies_summarized"`
	Strategies        []goals.Strategy `json:"strategies"`
	Block             string           `json:"text"`
}

// Filter narrows goals. Empty fields match everything. Area and Level match
// case-insensitively; Level also accepts a bucket name such as "middle".
// FocusGrades and StudentGroup match as case-insensitive substrings.
type Filter struct {
	Area         string
	Level        string
	FocusGrades  string
	StudentGroup string
	School       string
}

// Hit is a search result.
type Hit struct {
	Record
	Score float64 `json:"score"`
}

// Store reads an exported goal database.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to an existing database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("goal store %s does not exist (run sipdash extract first): %w", path, err)
		}
		return nil, fmt.Errorf("stat goal store: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	if err := checkSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Count returns the number of stored goals.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM goals").Scan(&n); err != nil {
		return 0, fmt.Errorf("count goals: %w", err)
	}
	return n, nil
}

// Goals lists goals matching filter in school then goal order.
func (s *Store) Goals(ctx context.Context, filter Filter) ([]Record, error) {
	where, args := filter.clause()
	rows, err := s.db.QueryContext(ctx, `SELECT id, school_name, school_level, goal_index, area,
        focus_grades, focus_student_group, focus_area, outcome, strategies_summarized, block
        FROM goals`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.School, &r.Level, &r.Index, &r.Area,
			&r.FocusGrades, &r.FocusStudentGroup, &r.FocusArea, &r.Outcome, &r.Summary, &r.Block); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	if err := s.attachStrategies(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Search ranks goals matching filter against query. Term weights come from
// every stored goal, not only the filtered ones. Goals sharing no weighted
// terms with the query are omitted. A non-positive limit returns every match.
func (s *Store) Search(ctx context.Context, query string, filter Filter, limit int) ([]Hit, error) {
	index, err := s.searchIndex(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := index.Rank(query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	candidates, err := s.Goals(ctx, filter)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Record, len(candidates))
	for _, r := range candidates {
		byID[r.ID] = r
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		r, ok := byID[m.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Record: r, Score: m.Score})
		if limit > 0 && len(hits) == limit {
			break
		}
	}
	return hits, nil
}

func (s *Store) searchIndex(ctx context.Context) (*textutil.Index, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, block FROM goals ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()
	index := textutil.NewIndex()
	for rows.Next() {
		var id, block string
		if err := rows.Scan(&id, &block); err != nil {
			return nil, fmt.Errorf("scan corpus: %w", err)
		}
		index.Add(id, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus: %w", err)
	}
	return index, nil
}

func (s *Store) attachStrategies(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	byID := make(map[string]*Record, len(records))
	for i := range records {
		records[i].Strategies = []goals.Strategy{}
		byID[records[i].ID] = &records[i]
	}
	rows, err := s.db.QueryContext(ctx, "SELECT goal_id, action, measures FROM strategies ORDER BY goal_id, position")
	if err != nil {
		return fmt.Errorf("query strategies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var st goals.Strategy
		if err := rows.Scan(&id, &st.Action, &st.Measures); err != nil {
			return fmt.Errorf("scan strategy: %w", err)
		}
		if r, ok := byID[id]; ok {
			r.Strategies = append(r.Strategies, st)
		}
	}
	return rows.Err()
}

func (f Filter) clause() (string, []any) {
	var conds []string
	var args []any
	if area := strings.TrimSpace(f.Area); area != "" {
		conds = append(conds, "area = ? COLLATE NOCASE")
		args = append(args, area)
	}
	if level := strings.TrimSpace(f.Level); level != "" {
		if slices.Contains(config.Buckets, strings.ToLower(level)) {
			level = unitindex.LevelLabel(level)
		}
		conds = append(conds, "school_level = ? COLLATE NOCASE")
		args = append(args, level)
	}
	if grades := strings.TrimSpace(f.FocusGrades); grades != "" {
		conds = append(conds, "focus_grades LIKE ?")
		args = append(args, "%"+grades+"%")
	}
	if group := strings.TrimSpace(f.StudentGroup); group != "" {
		conds = append(conds, "focus_student_group LIKE ?")
		args = append(args, "%"+group+"%")
	}
	if school := strings.TrimSpace(f.School); school != "" {
		conds = append(conds, "school_name LIKE ?")
		args = append(args, "%"+school+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
