package service

import (
	"context"
	"fmt"

	"github.com/codestack/cli/pkg/api"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/formatter"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/query"
)

func (v *Views) post(ctx context.Context, id string) (*api.Post, error) {
	return fetch(ctx, v.Cache, query.NewKey(query.ResPostDetails, id), func(ctx context.Context) (*api.Post, error) {
		return v.Backend.GetPost(ctx, id)
	})
}

func (v *Views) comments(ctx context.Context, postID string) ([]api.Comment, error) {
	return fetch(ctx, v.Cache, query.NewKey(query.ResComments, postID), func(ctx context.Context) ([]api.Comment, error) {
		return v.Backend.Comments(ctx, postID)
	})
}

// PostDetails shows one post. Signed-in visitors also see its comments
// and can vote or comment when interactive.
func (v *Views) PostDetails(ctx context.Context, req Request) error {
	id := req.Param("id")
	logger.Debug("Viewing post", "post_id", id)

	post, err := v.post(ctx, id)
	if err != nil {
		return v.report(err, "", "")
	}
	if err := v.renderPost(post); err != nil {
		return err
	}

	signedIn := v.Session.Current() != nil
	if signedIn {
		comments, err := v.comments(ctx, id)
		if err != nil {
			logger.Warn("Comments unavailable", "post_id", id, "error", err)
		} else {
			v.renderComments(comments)
		}
	}

	if !req.Interactive {
		return nil
	}
	return v.postActions(ctx, id)
}

func (v *Views) renderPost(p *api.Post) error {
	return v.Out.PrintRecord(p.Title, []output.Field{
		{Key: "ID", Value: p.ID},
		{Key: "Author", Value: p.AuthorName},
		{Key: "Posted", Value: formatter.FormatTime(p.CreatedAt)},
		{Key: "Tag", Value: p.Tag},
		{Key: "Votes", Value: formatter.Votes(p.UpVote, p.DownVote)},
		{Key: "Description", Value: p.Description},
	})
}

func (v *Views) renderComments(comments []api.Comment) {
	v.Out.Heading(fmt.Sprintf("Comments (%d)", len(comments)))
	for _, c := range comments {
		v.Out.Line("%s  %s", formatter.Bold.Sprint(c.Name), formatter.FormatTime(c.CreatedAt))
		v.Out.Line("  %s", c.Text)
	}
}

func (v *Views) postActions(ctx context.Context, id string) error {
	for {
		choice, err := v.Prompt.Select("What next?", []string{"Upvote", "Downvote", "Comment", "Back"})
		if err != nil {
			return nil
		}
		switch choice {
		case 0:
			_ = v.Vote(ctx, id, api.VoteUp)
		case 1:
			_ = v.Vote(ctx, id, api.VoteDown)
		case 2:
			text, err := v.Prompt.Multiline("Comment", 20)
			if err != nil {
				return nil
			}
			_ = v.AddComment(ctx, id, text)
		default:
			return nil
		}

		if post, err := v.post(ctx, id); err == nil {
			_ = v.renderPost(post)
		}
	}
}

// Vote records an up or down vote. Anonymous visitors are told to log
// in and nothing is sent.
func (v *Views) Vote(ctx context.Context, postID, voteType string) error {
	id := v.Session.Current()
	if id == nil {
		return v.invalid(clierrors.AuthError("Login required to :" + voteType))
	}
	if voteType != api.VoteUp && voteType != api.VoteDown {
		return v.invalid(clierrors.ValidationError("vote", "must be upvote or downvote"))
	}

	return v.mutate(ctx, mutation{kind: query.MutVote}, func(ctx context.Context) error {
		return v.Backend.Vote(ctx, postID, voteType, id.Email)
	})
}

// AddComment comments on a post. A second comment by the same author is
// rejected by the backend and its message is shown as is.
func (v *Views) AddComment(ctx context.Context, postID, text string) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}
	if err := ValidateComment(text); err != nil {
		return v.invalid(err)
	}

	title := ""
	if post, err := v.post(ctx, postID); err == nil {
		title = post.Title
	}

	return v.mutate(ctx, mutation{kind: query.MutCreateComment, success: "Comment added"}, func(ctx context.Context) error {
		return v.Backend.CreateComment(ctx, api.Comment{
			PostID:    postID,
			PostTitle: title,
			Email:     id.Email,
			Name:      id.DisplayName,
			Photo:     id.PhotoURL,
			Text:      text,
		})
	})
}
