package data

import (
	"html/template"
	"time"
)

// Roles stored on users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BlogPost represents a single post. AuthorName is joined from users on reads.
type BlogPost struct {
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	Title         string        `db:"title" json:"title"`
	Content       string        `db:"content" json:"content"`
	Category      string        `db:"category" json:"category"`
	FeaturedImage *string       `db:"featured_image" json:"featured_image"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
	AuthorName    string        `db:"author_name" json:"author_name"`
	HTMLContent   template.HTML `db:"-" json:"-"`
	Preview       string        `db:"-" json:"-"`
}

// ImagePath returns the stored featured image path, or "" when the post has none.
func (p *BlogPost) ImagePath() string {
	if p.FeaturedImage == nil {
		return ""
	}
	return *p.FeaturedImage
}

// Comment is a reader comment on a post. Username is joined from users on reads.
type Comment struct {
	ID         int64     `db:"id" json:"id"`
	BlogPostID int64     `db:"blog_post_id" json:"blog_post_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Username   string    `db:"username" json:"username"`
}

// RatingTotals holds the raw sums and counts of both rating pools for one post.
type RatingTotals struct {
	UserSum     int64 `db:"user_sum"`
	UserCount   int64 `db:"user_count"`
	PublicSum   int64 `db:"public_sum"`
	PublicCount int64 `db:"public_count"`
}

// ContactMessage is a submission of the contact form.
type ContactMessage struct {
	ID        int64     `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Subject   string    `db:"subject"`
	Message   string    `db:"message"`
	IPAddress string    `db:"ip_address"`
	CreatedAt time.Time `db:"created_at"`
}
