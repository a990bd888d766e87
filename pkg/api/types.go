package api

// Roles a backend user record can carry.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Badges gate the post quota.
const (
	BadgeBronze = "bronze"
	BadgeGold   = "gold"
)

// BronzePostLimit is the number of posts a bronze account may create.
const BronzePostLimit = 5

// Vote directions accepted by PATCH /posts/vote/:id.
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Post is a forum post.
type Post struct {
	ID           string `json:"_id,omitempty"`
	AuthorName   string `json:"authorName"`
	AuthorEmail  string `json:"authorEmail"`
	AuthorImage  string `json:"authorImage"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Tag          string `json:"tag"`
	UpVote       int    `json:"upVote"`
	DownVote     int    `json:"downVote"`
	CommentCount int    `json:"commentCount,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// PostPage is one page of the home feed plus the unfiltered total.
type PostPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

// Comment is a comment on a post, including its moderation state.
type Comment struct {
	ID        string `json:"_id,omitempty"`
	PostID    string `json:"postId"`
	PostTitle string `json:"postTitle,omitempty"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Photo     string `json:"photo,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Feedback  string `json:"feedback,omitempty"`
	Reported  bool   `json:"reported,omitempty"`
	Reviewed  bool   `json:"reviewed,omitempty"`
}

// User is the backend's record for an account.
type User struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	Photo     string `json:"photo,omitempty"`
	Role      string `json:"role,omitempty"`
	Badge     string `json:"badge,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	AboutMe   string `json:"aboutMe,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	LastLogIn string `json:"last_log_in,omitempty"`
}

// BadgeOrDefault treats a missing badge as bronze.
func (u *User) BadgeOrDefault() string {
	if u == nil || u.Badge == "" {
		return BadgeBronze
	}
	return u.Badge
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// ProfileUpdate is the partial user record sent by PATCH /users/:email.
type ProfileUpdate struct {
	Name    string `json:"name,omitempty"`
	Photo   string `json:"photo,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	AboutMe string `json:"aboutMe,omitempty"`
}

// Tag is a topic label.
type Tag struct {
	ID        string `json:"_id,omitempty"`
	Tag       string `json:"tag"`
	AddedBy   string `json:"addedBy"`
	CreatedAt string `json:"createdAt"`
}

// Announcement is an admin broadcast shown on the home page.
type Announcement struct {
	ID          string `json:"_id,omitempty"`
	AuthorName  string `json:"authorName"`
	AuthorImage string `json:"authorImage"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// SiteStats are the aggregate counts on the admin profile.
type SiteStats struct {
	PostsCount    int `json:"postsCount"`
	CommentsCount int `json:"commentsCount"`
	UsersCount    int `json:"usersCount"`
}

// Payment records a completed membership purchase.
type Payment struct {
	UserName      string   `json:"userName"`
	UserEmail     string   `json:"userEmail"`
	Amount        int      `json:"amount"`
	TransactionID string   `json:"transactionId"`
	Method        []string `json:"method"`
	PaidAt        string   `json:"paidAt"`
}
