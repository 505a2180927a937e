package goalstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/output"
)

// FileName is the goal database written beside the other artifacts.
const FileName = "goals.db"

// Export writes schools to a fresh database at path and returns the number
// of goals stored. The previous database stays in place until the new one
// is complete.
func Export(ctx context.Context, path string, schools []goals.School) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp database: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	count, err := writeDatabase(ctx, tmpPath, schools)
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("rename database: %w", err)
	}
	committed = true
	return count, nil
}

func writeDatabase(ctx context.Context, path string, schools []goals.School) (int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return 0, fmt.Errorf("apply pragma: %w", err)
	}
	if err := createSchema(ctx, db); err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin export tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	goalStmt, err := tx.PrepareContext(ctx, `INSERT INTO goals (
        id, school_name, school_level, bucket, goal_index, area,
        focus_grades, focus_student_group, focus_area, focus_group,
        outcome, current_data, strategies_summarized, engagement_strategies,
        raw_strategies, block
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare goal insert: %w", err)
	}
	defer goalStmt.Close()
	strategyStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO strategies (goal_id, position, action, measures) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare strategy insert: %w", err)
	}
	defer strategyStmt.Close()

	count := 0
	seen := make(map[string]int)
	for _, school := range schools {
		for i, g := range school.Goals {
			n := i + 1
			id := goals.GoalID(school, n, g)
			// Two index entries can share a school name; keep ids unique.
			if dup := seen[id]; dup > 0 {
				seen[id] = dup + 1
				id = fmt.Sprintf("%s-%d", id, dup+1)
			} else {
				seen[id] = 1
			}
			if _, err := goalStmt.ExecContext(ctx,
				id, school.Name, school.Level, school.Bucket, n, string(g.Area),
				g.FocusGrades, g.FocusStudentGroup, g.FocusArea, g.FocusGroup,
				g.Outcome, g.CurrentData, g.StrategiesSummarized, g.EngagementStrategies,
				g.RawStrategies, output.Block(school, n, g),
			); err != nil {
				return 0, fmt.Errorf("insert goal %s: %w", id, err)
			}
			for pos, s := range g.Strategies {
				if _, err := strategyStmt.ExecContext(ctx, id, pos+1, s.Action, s.Measures); err != nil {
					return 0, fmt.Errorf("insert strategy %s/%d: %w", id, pos+1, err)
				}
			}
			count++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit export: %w", err)
	}
	return count, nil
}
