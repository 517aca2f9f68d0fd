package model

import "time"

// PostStatus は投稿の公開状態を表す。
type PostStatus string

const (
	// PostStatusPending は管理者の承認待ち。投稿者と管理者のみ閲覧できる。
	PostStatusPending PostStatus = "pending"
	// PostStatusApproved は承認済み。未認証の訪問者にも公開される。
	PostStatusApproved PostStatus = "approved"
)

// WithdrawnAuthorID は退会済みユーザーの投稿に付け替えられるプレースホルダー著者ID。
const WithdrawnAuthorID int64 = -1

// Post はユーザーが投稿するブログ記事を表す。
type Post struct {
	ID          int64
	Title       string
	Content     string
	Category    string
	AuthorID    int64
	Status      PostStatus
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// IsPublic は未認証の訪問者に公開されている状態かどうかを返す。
func (p *Post) IsPublic() bool {
	return p.Status == PostStatusApproved
}

// PostWithAuthor は投稿と著者プロフィールを結合した読み取り用の構造体。
type PostWithAuthor struct {
	Post
	AuthorFirstName string
	AuthorLastName  string
	AuthorEmail     string
	AuthorAbout     string
}

// PostSearchQuery は公開済み投稿の一覧取得条件を表す。
type PostSearchQuery struct {
	Search   string // タイトルと本文への部分一致（大文字小文字を区別しない）
	Category string
	OrderAsc bool
	Page     int // 1始まり
	PerPage  int
}
