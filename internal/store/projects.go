package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"prodplan/internal/model"
)

// ProjectRecord 已保存的项目定义
type ProjectRecord struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Definition *model.ProjectData `json:"definition"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// ProjectSummary 项目列表项（不含定义）
type ProjectSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaveProject 新建或覆盖项目；ID 为空时分配 uuid
func (s *Store) SaveProject(def *model.ProjectData, id string) (*ProjectRecord, error) {
	if def == nil {
		return nil, errors.New("project definition is nil")
	}
	payload, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err = s.db.Exec(`
		INSERT INTO projects (id, name, definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			definition = excluded.definition,
			updated_at = excluded.updated_at
	`, id, def.Name, string(payload), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	return s.GetProject(id)
}

// GetProject 按 ID 读取项目
func (s *Store) GetProject(id string) (*ProjectRecord, error) {
	var (
		rec     ProjectRecord
		payload string
	)
	err := s.db.QueryRow(`
		SELECT id, name, definition, created_at, updated_at
		FROM projects WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Name, &payload, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var def model.ProjectData
	if err := json.Unmarshal([]byte(payload), &def); err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", id, err)
	}
	rec.Definition = &def
	return &rec, nil
}

// ListProjects 按最近更新排序
func (s *Store) ListProjects() ([]ProjectSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, name, created_at, updated_at
		FROM projects ORDER BY updated_at DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := []ProjectSummary{}
	for rows.Next() {
		var p ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject 删除项目（生成记录保留）
func (s *Store) DeleteProject(id string) error {
	res, err := s.db.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}
