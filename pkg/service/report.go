package service

import (
	"context"
	"fmt"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/formatter"
	"github.com/codestack/cli/pkg/query"
)

// ReportedComments is the moderation queue.
func (v *Views) ReportedComments(ctx context.Context, req Request) error {
	for {
		reports, err := fetch(ctx, v.Cache, query.NewKey(query.ResReported), v.Backend.ReportedComments)
		if err != nil {
			return v.report(err, "", "")
		}

		v.Out.Heading(fmt.Sprintf("Reported comments (%d)", len(reports)))
		if len(reports) == 0 {
			v.Out.Line("Nothing to review.")
			return nil
		}
		if err := v.Out.PrintTable(reportHeaders, reportRows(reports), reports); err != nil {
			return err
		}
		if !req.Interactive {
			return nil
		}

		id, err := v.Prompt.String("Comment ID to moderate (empty to go back): ")
		if err != nil || id == "" {
			return nil
		}
		choice, err := v.Prompt.Select("Action:", []string{"Delete comment", "Dismiss report", "Cancel"})
		if err != nil {
			continue
		}
		switch choice {
		case 0:
			_ = v.DeleteReported(ctx, id)
		case 1:
			_ = v.DismissReport(ctx, id)
		}
	}
}

var reportHeaders = []string{"ID", "Post", "Author", "Comment", "Feedback"}

func reportRows(reports []api.Comment) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, c := range reports {
		rows = append(rows, []string{
			c.ID,
			formatter.Truncate(c.PostTitle, 30),
			c.Email,
			formatter.Truncate(c.Text, 20),
			c.Feedback,
		})
	}
	return rows
}

// DeleteReported removes a reported comment.
func (v *Views) DeleteReported(ctx context.Context, commentID string) error {
	return v.mutate(ctx, mutation{
		kind:    query.MutDeleteReported,
		success: "Successfully deleted",
		failure: "Deletion failed",
	}, func(ctx context.Context) error {
		return v.Backend.DeleteReportedComment(ctx, commentID)
	})
}

// DismissReport keeps the comment and clears its report.
func (v *Views) DismissReport(ctx context.Context, commentID string) error {
	return v.mutate(ctx, mutation{
		kind:    query.MutDismissReport,
		success: "Report Dismissed",
		failure: "Failed to report dismiss",
	}, func(ctx context.Context) error {
		return v.Backend.DismissReport(ctx, commentID)
	})
}
