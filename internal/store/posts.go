package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fentz26/ordertasks/internal/models"
)

// --- Post Operations ---

// InsertPost stores a post, assigning its id and creation time.
func (s *Store) InsertPost(ctx context.Context, post *models.Post) error {
	post.ID = uuid.New().String()
	post.CreatedAt = time.Now().UTC()
	if post.Categories == nil {
		post.Categories = []int{}
	}
	categories, err := json.Marshal(post.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, status, author_id, categories, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Content, post.Status, post.AuthorID, string(categories), post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// ListPosts returns the most recent posts.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, status, author_id, categories, created_at FROM posts ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var (
			p          models.Post
			categories string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.Status, &p.AuthorID, &categories, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// --- Category and User Operations ---

// AddCategory creates a post category.
func (s *Store) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("category id: %w", err)
	}
	return &models.Category{ID: id, Name: name}, nil
}

// ListCategories returns all post categories by id.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddUser creates a user that can author posts.
func (s *Store) AddUser(ctx context.Context, displayName, email string) (*models.User, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users (display_name, email) VALUES (?, ?)`, displayName, email)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &models.User{ID: id, DisplayName: displayName, Email: email}, nil
}

// ListUsers returns all users by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name, COALESCE(email, '') FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
