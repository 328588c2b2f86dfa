package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/pkg/models"
)

// completionTimeout bounds repository lookups made while completing.
// Latency simulation can make reads slow.
const completionTimeout = 2 * time.Second

// completeFirstArg wraps an id lister so that it only completes the
// first positional argument.
func completeFirstArg(list func(ctx context.Context, toComplete string) []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 || Repo == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
		defer cancel()
		return list(ctx, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeLeadIDs lists lead ids, described by company name.
var completeLeadIDs = completeFirstArg(func(ctx context.Context, toComplete string) []string {
	leads, err := Repo.GetLeads(ctx)
	if err != nil {
		return nil
	}
	var ids []string
	for _, l := range leads {
		if strings.HasPrefix(l.ID, toComplete) {
			ids = append(ids, l.ID+"\t"+l.CompanyName)
		}
	}
	return ids
})

// completeClientIDs lists client ids, described by company name.
var completeClientIDs = completeFirstArg(func(ctx context.Context, toComplete string) []string {
	clients, err := Repo.GetClients(ctx)
	if err != nil {
		return nil
	}
	var ids []string
	for _, c := range clients {
		if strings.HasPrefix(c.ID, toComplete) {
			ids = append(ids, c.ID+"\t"+c.CompanyName)
		}
	}
	return ids
})

// completeDocumentIDs lists documents that can still move through review.
var completeDocumentIDs = completeFirstArg(func(ctx context.Context, toComplete string) []string {
	docs, err := Repo.GetDocuments(ctx)
	if err != nil {
		return nil
	}
	var ids []string
	for _, d := range docs {
		if len(d.Status.NextStatuses()) == 0 {
			continue
		}
		if strings.HasPrefix(d.ID, toComplete) {
			ids = append(ids, d.ID+"\t"+d.Name+" ("+string(d.Status)+")")
		}
	}
	return ids
})

// completeConversationIDs lists conversation ids, described by subject.
var completeConversationIDs = completeFirstArg(func(ctx context.Context, toComplete string) []string {
	convs, err := Repo.GetConversations(ctx, "")
	if err != nil {
		return nil
	}
	var ids []string
	for _, c := range convs {
		if strings.HasPrefix(c.ID, toComplete) {
			ids = append(ids, c.ID+"\t"+c.Subject)
		}
	}
	return ids
})

// completePipelineStages completes lead pipeline stage values.
func completePipelineStages(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	stages := make([]string, len(models.PipelineStages))
	for i, s := range models.PipelineStages {
		stages[i] = string(s)
	}
	return stages, cobra.ShellCompDirectiveNoFileComp
}

// completeLifecycleStages completes the second argument of clients stage.
func completeLifecycleStages(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{
		"onboarding\tCollecting documents",
		"active\tOnboarded and trading",
		"under_review\tPeriodic or triggered review",
		"suspended\tTemporarily blocked",
		"offboarded\tRelationship ended (final)",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeReviewStatuses completes the second argument of docs review.
func completeReviewStatuses(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{
		"under_review\tStart reviewing",
		"approved\tAccept the document",
		"rejected\tReject the document",
		"expired\tMark an approved document expired",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeDocumentTypes completes --type on docs upload.
func completeDocumentTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(models.DocIncorporationCertificate),
		string(models.DocProofOfAddress),
		string(models.DocIdentification),
		string(models.DocFinancialStatement),
		string(models.DocTaxForm),
		string(models.DocBankStatement),
		string(models.DocOther),
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeClientStage completes "clients stage <client-id> <stage>".
func completeClientStage(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeClientIDs(cmd, args, toComplete)
	}
	return completeLifecycleStages(cmd, args, toComplete)
}

// completeDocumentReview completes "docs review <document-id> <status>".
func completeDocumentReview(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeDocumentIDs(cmd, args, toComplete)
	}
	return completeReviewStatuses(cmd, args, toComplete)
}
