package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bloggy/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postWithAuthorColumns = `
	p.id, p.title, p.content, p.category, p.author_id, p.status, p.published_at, p.created_at,
	u.first_name, u.last_name, u.email, u.about`

func scanPostWithAuthor(scanner interface{ Scan(...any) error }) (*model.PostWithAuthor, error) {
	post := &model.PostWithAuthor{}
	err := scanner.Scan(
		&post.ID, &post.Title, &post.Content, &post.Category, &post.AuthorID,
		&post.Status, &post.PublishedAt, &post.CreatedAt,
		&post.AuthorFirstName, &post.AuthorLastName, &post.AuthorEmail, &post.AuthorAbout,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// FindByID は指定IDの投稿を著者情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.PostWithAuthor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+postWithAuthorColumns+`
		 FROM posts p LEFT JOIN users u ON p.author_id = u.id
		 WHERE p.id = $1`,
		id,
	)

	post, err := scanPostWithAuthor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}

	return post, nil
}

// Create は投稿を作成し、採番されたIDをpost.IDに書き戻す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (title, content, category, author_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		post.Title, post.Content, post.Category, post.AuthorID, post.Status, post.CreatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update はタイトル・本文・カテゴリを更新する。
func (r *PostgresPostRepo) Update(ctx context.Context, id int64, title, content, category string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $1, content = $2, category = $3 WHERE id = $4`,
		title, content, category, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %d", id)
	}
	return nil
}

// UpdateStatus は投稿の公開状態を更新する。承認時は公開日時を現在時刻にする。
func (r *PostgresPostRepo) UpdateStatus(ctx context.Context, id int64, status model.PostStatus) error {
	var result sql.Result
	var err error
	if status == model.PostStatusApproved {
		result, err = r.db.ExecContext(ctx,
			`UPDATE posts SET status = $1, published_at = now() WHERE id = $2`,
			status, id,
		)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE posts SET status = $1 WHERE id = $2`,
			status, id,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %d", id)
	}
	return nil
}

// DeleteByID は指定IDの投稿を削除する。
func (r *PostgresPostRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %d", id)
	}
	return nil
}

// SearchApproved は承認済み投稿を検索条件付きで取得し、総件数と併せて返す。
// 検索語はタイトルと本文へのILIKE部分一致、並び順はタイトルの昇順または降順。
func (r *PostgresPostRepo) SearchApproved(ctx context.Context, q model.PostSearchQuery) ([]*model.PostWithAuthor, int, error) {
	where := `WHERE p.status = 'approved'`
	args := []any{}
	paramIndex := 1

	if q.Search != "" {
		where += fmt.Sprintf(` AND (p.title ILIKE $%d OR p.content ILIKE $%d)`, paramIndex, paramIndex)
		args = append(args, "%"+q.Search+"%")
		paramIndex++
	}
	if q.Category != "" {
		where += fmt.Sprintf(` AND p.category = $%d`, paramIndex)
		args = append(args, q.Category)
		paramIndex++
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM posts p `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count approved posts: %w", err)
	}

	order := "DESC"
	if q.OrderAsc {
		order = "ASC"
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * perPage

	query := `SELECT` + postWithAuthorColumns + `
		 FROM posts p LEFT JOIN users u ON p.author_id = u.id ` + where +
		fmt.Sprintf(` ORDER BY p.title %s LIMIT $%d OFFSET $%d`, order, paramIndex, paramIndex+1)
	args = append(args, perPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search approved posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.PostWithAuthor
	for rows.Next() {
		post, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, total, nil
}

// ListByStatus は指定状態の投稿一覧を著者情報付きで返す。管理画面用。
func (r *PostgresPostRepo) ListByStatus(ctx context.Context, status model.PostStatus) ([]*model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+postWithAuthorColumns+`
		 FROM posts p LEFT JOIN users u ON p.author_id = u.id
		 WHERE p.status = $1
		 ORDER BY p.created_at DESC`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by status: %w", err)
	}
	defer rows.Close()

	var posts []*model.PostWithAuthor
	for rows.Next() {
		post, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// ListByAuthor は指定著者の投稿一覧を返す。
func (r *PostgresPostRepo) ListByAuthor(ctx context.Context, authorID int64) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, category, author_id, status, published_at, created_at
		 FROM posts WHERE author_id = $1
		 ORDER BY created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post := &model.Post{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.Category,
			&post.AuthorID, &post.Status, &post.PublishedAt, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// ReassignAuthor は指定著者の全投稿を別の著者に付け替え、付け替え件数を返す。
func (r *PostgresPostRepo) ReassignAuthor(ctx context.Context, fromAuthorID, toAuthorID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET author_id = $1 WHERE author_id = $2`,
		toAuthorID, fromAuthorID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign posts: %w", err)
	}
	reassigned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return reassigned, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
