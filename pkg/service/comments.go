package service

import (
	"context"
	"fmt"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/formatter"
	"github.com/codestack/cli/pkg/query"
)

// PostCommented lists the comments on one of the user's posts and lets
// the author report them.
func (v *Views) PostCommented(ctx context.Context, req Request) error {
	if _, err := v.signedIn(); err != nil {
		return v.invalid(err)
	}
	postID := req.Param("postId")

	comments, err := v.comments(ctx, postID)
	if err != nil {
		return v.report(err, "", "")
	}

	v.Out.Heading(fmt.Sprintf("Comments on %s (%d)", postID, len(comments)))
	if len(comments) == 0 {
		v.Out.Line("No comments yet.")
		return nil
	}
	if err := v.Out.PrintTable(formatter.CommentHeaders, commentRows(comments), comments); err != nil {
		return err
	}

	if !req.Interactive {
		return nil
	}
	for {
		commentID, err := v.Prompt.String("Comment ID to report (empty to go back): ")
		if err != nil || commentID == "" {
			return nil
		}
		i, err := v.Prompt.Select("Feedback:", api.ReportFeedback)
		if err != nil {
			_ = v.invalid(ValidateFeedback(""))
			continue
		}
		_ = v.ReportComment(ctx, commentID, api.ReportFeedback[i])
	}
}

func commentRows(comments []api.Comment) [][]string {
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, formatter.CommentRow(c))
	}
	return rows
}

// ReportComment flags a comment for moderation. feedback must be one of
// api.ReportFeedback.
func (v *Views) ReportComment(ctx context.Context, commentID, feedback string) error {
	if _, err := v.signedIn(); err != nil {
		return v.invalid(err)
	}
	if err := ValidateFeedback(feedback); err != nil {
		return v.invalid(err)
	}
	return v.mutate(ctx, mutation{kind: query.MutReportComment, success: "Reported Successful"}, func(ctx context.Context) error {
		return v.Backend.ReportComment(ctx, commentID, feedback)
	})
}
