package store

import (
	"fmt"
	"time"

	"prodplan/internal/model"
)

// 生成状态
const (
	GenerationSucceeded = "succeeded"
	GenerationFailed    = "failed"
)

// GenerationRecord 一次生成的记录
type GenerationRecord struct {
	ID               int64     `json:"id"`
	ProjectID        string    `json:"projectId,omitempty"`
	ProjectName      string    `json:"projectName"`
	FileName         string    `json:"fileName"`
	Rows             int       `json:"rows"`
	Days             int       `json:"days"`
	Resources        int       `json:"resources"`
	Weeks            int       `json:"weeks"`
	IncludeDashboard bool      `json:"includeDashboard"`
	Status           string    `json:"status"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SucceededGeneration 由生成概要构造成功记录
func SucceededGeneration(projectID string, s model.GenerationSummary) *GenerationRecord {
	return &GenerationRecord{
		ProjectID:        projectID,
		ProjectName:      s.ProjectName,
		FileName:         s.FileName,
		Rows:             s.Rows,
		Days:             s.Days,
		Resources:        s.Resources,
		Weeks:            s.Weeks,
		IncludeDashboard: s.IncludeDashboard,
		Status:           GenerationSucceeded,
	}
}

// FailedGeneration 构造失败记录
func FailedGeneration(projectID, projectName string, cause error) *GenerationRecord {
	return &GenerationRecord{
		ProjectID:    projectID,
		ProjectName:  projectName,
		Status:       GenerationFailed,
		ErrorMessage: cause.Error(),
	}
}

// CreateGeneration 写入生成记录，回填 ID 与时间
func (s *Store) CreateGeneration(rec *GenerationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO generations (
			project_id, project_name, file_name, row_count, days, resources, weeks,
			include_dashboard, status, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ProjectID, rec.ProjectName, rec.FileName, rec.Rows, rec.Days, rec.Resources, rec.Weeks,
		rec.IncludeDashboard, rec.Status, rec.ErrorMessage, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get generation id: %w", err)
	}
	rec.ID = id
	return nil
}

// GenerationQuery 生成记录查询条件
type GenerationQuery struct {
	ProjectID string
	Limit     int
}

// ListGenerations 按时间倒序列出生成记录
func (s *Store) ListGenerations(q GenerationQuery) ([]GenerationRecord, error) {
	query := `
		SELECT id, project_id, project_name, file_name, row_count, days, resources, weeks,
			include_dashboard, status, error_message, created_at
		FROM generations`
	var args []any
	if q.ProjectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, q.ProjectID)
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	out := []GenerationRecord{}
	for rows.Next() {
		var g GenerationRecord
		if err := rows.Scan(
			&g.ID, &g.ProjectID, &g.ProjectName, &g.FileName, &g.Rows, &g.Days, &g.Resources, &g.Weeks,
			&g.IncludeDashboard, &g.Status, &g.ErrorMessage, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
