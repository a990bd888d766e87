package query

import (
	"fmt"
	"strings"
	"time"
)

// Key is a cache coordinate: a resource name plus the parameters of one
// read. Invalidation matches on the resource name only.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a key from a resource and its parameters.
func NewKey(resource string, params ...interface{}) Key {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return Key{Resource: resource, Params: strings.Join(parts, "|")}
}

func (k Key) String() string {
	return k.Resource + "(" + k.Params + ")"
}

// Resources read by the views. Names are chosen so that prefix matching
// groups them: every post list starts with "posts:".
const (
	ResHomePosts     = "posts:home"
	ResAllPosts      = "posts:all"
	ResPopularPosts  = "posts:popular"
	ResSearchPosts   = "posts:search"
	ResMyPosts       = "posts:mine"
	ResPostDetails   = "post-details"
	ResQuota         = "quota"
	ResComments      = "comments"
	ResRecent        = "comments-recent"
	ResReported      = "reported-comments"
	ResUserProfile   = "users:profile"
	ResUserList      = "users:list"
	ResUserRole      = "userRole"
	ResTags          = "tags"
	ResAnnouncements = "announcements"
	ResSiteStats     = "site-stats"
)

// DefaultStaleTimes holds the resources that stay fresh for a while.
// Everything else is stale as soon as it is stored.
var DefaultStaleTimes = map[string]time.Duration{
	ResHomePosts: 5 * time.Minute,
	ResAllPosts:  5 * time.Minute,
}

// MutationKind names a write the views perform.
type MutationKind string

const (
	MutCreatePost         MutationKind = "create-post"
	MutDeletePost         MutationKind = "delete-post"
	MutVote               MutationKind = "vote"
	MutCreateComment      MutationKind = "create-comment"
	MutReportComment      MutationKind = "report-comment"
	MutDismissReport      MutationKind = "dismiss-report"
	MutDeleteReported     MutationKind = "delete-reported-comment"
	MutCreateUser         MutationKind = "create-user"
	MutUpdateProfile      MutationKind = "update-profile"
	MutToggleAdmin        MutationKind = "toggle-admin"
	MutCreateTag          MutationKind = "create-tag"
	MutCreateAnnouncement MutationKind = "create-announcement"
	MutRecordPayment      MutationKind = "record-payment"
)

// Invalidations maps each mutation to the resource prefixes it makes
// stale. Every mutation the views run must appear here.
var Invalidations = map[MutationKind][]string{
	MutCreatePost:         {"posts:", ResQuota, ResSiteStats},
	MutDeletePost:         {"posts:", ResPostDetails, ResQuota, ResSiteStats},
	MutVote:               {ResPostDetails, "posts:"},
	MutCreateComment:      {ResComments, ResPostDetails, "posts:", ResSiteStats},
	MutReportComment:      {ResComments, ResReported},
	MutDismissReport:      {ResReported, ResComments},
	MutDeleteReported:     {ResReported, ResComments, ResPostDetails, ResSiteStats},
	MutCreateUser:         {"users:", ResSiteStats},
	MutUpdateProfile:      {ResUserProfile},
	MutToggleAdmin:        {"users:", ResUserRole},
	MutCreateTag:          {ResTags},
	MutCreateAnnouncement: {ResAnnouncements},
	MutRecordPayment:      {ResUserProfile, ResQuota},
}
