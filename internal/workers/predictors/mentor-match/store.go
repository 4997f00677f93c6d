// internal/workers/predictors/mentor-match/store.go
package mentormatch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// MentorStore loads mentor profiles for matching.
type MentorStore interface {
	// LoadMentors returns the active mentors in ids, or the top-rated active
	// mentors up to limit when ids is empty.
	LoadMentors(ctx context.Context, ids []string, limit int) ([]Mentor, error)
}

type PostgresMentorStore struct {
	db *sql.DB
}

func NewPostgresMentorStore(db *sql.DB) *PostgresMentorStore {
	return &PostgresMentorStore{db: db}
}

const mentorColumns = `user_id, industry, role, experience_years, expertise_areas,
		       mentoring_style, availability_hours, timezone, languages,
		       rating, total_mentees, success_stories, hourly_rate, is_pro_bono`

func (s *PostgresMentorStore) LoadMentors(ctx context.Context, ids []string, limit int) ([]Mentor, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(ids) > 0 {
		rows, err = s.db.QueryContext(ctx, `
		SELECT `+mentorColumns+`
		FROM mentors
		WHERE is_active = TRUE AND user_id = ANY($1)
		ORDER BY rating DESC, user_id
		LIMIT $2`, pq.Array(ids), limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
		SELECT `+mentorColumns+`
		FROM mentors
		WHERE is_active = TRUE
		ORDER BY rating DESC, success_stories DESC, user_id
		LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query mentors: %w", err)
	}
	defer rows.Close()

	var mentors []Mentor
	for rows.Next() {
		var (
			m      Mentor
			style  string
			hourly sql.NullFloat64
		)
		err := rows.Scan(
			&m.UserID, &m.Industry, &m.Role, &m.ExperienceYears,
			pq.Array(&m.ExpertiseAreas), &style, &m.AvailabilityHours,
			&m.Timezone, pq.Array(&m.Languages), &m.Rating,
			&m.TotalMentees, &m.SuccessStories, &hourly, &m.IsProBono,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mentor: %w", err)
		}
		m.Style = Style(style)
		if hourly.Valid {
			rate := hourly.Float64
			m.HourlyRate = &rate
		}
		mentors = append(mentors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentors: %w", err)
	}
	return mentors, nil
}
