package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/pkg/models"
)

var (
	docsJSON bool

	docClient       string
	docStatus       string
	docType         string
	docName         string
	docFile         string
	docSize         int64
	docUploadedBy   string
	docUploaderName string
	docRequired     bool
	docReviewer     string
	docReviewerName string
	docComments     []string
)

var docsCmd = &cobra.Command{
	Use:     "docs",
	Aliases: []string{"documents"},
	Short:   "Manage compliance documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		var (
			docs []models.Document
			err  error
		)
		switch {
		case docClient != "":
			docs, err = Repo.GetDocumentsByClientID(cmd.Context(), docClient)
		case docStatus != "":
			docs, err = Repo.GetDocumentsByStatus(cmd.Context(), models.DocumentStatus(docStatus))
		default:
			docs, err = Repo.GetDocuments(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
		if docClient != "" && docStatus != "" {
			kept := docs[:0]
			for _, d := range docs {
				if d.Status == models.DocumentStatus(docStatus) {
					kept = append(kept, d)
				}
			}
			docs = kept
		}

		out := cmd.OutOrStdout()
		if docsJSON {
			return printJSON(out, docs)
		}
		if len(docs) == 0 {
			fmt.Fprintln(out, "No documents found.")
			return nil
		}
		fmt.Fprintf(out, "%-12s %-12s %-26s %-28s %s\n", "ID", "CLIENT", "TYPE", "NAME", "STATUS")
		for _, d := range docs {
			fmt.Fprintf(out, "%-12s %-12s %-26s %-28s %s\n",
				truncate(d.ID, 12), truncate(d.ClientID, 12), d.Type, truncate(d.Name, 28), d.Status)
		}
		return nil
	},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Record a document upload for a client",
	Long: `Record an uploaded document. The client's compliance officer is notified.

  onb docs upload --client client-1 --type tax_form --file W-9.pdf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		if docClient == "" {
			return fmt.Errorf("--client is required")
		}
		name := docName
		if name == "" && docFile != "" {
			name = filepath.Base(docFile)
		}

		doc, err := Repo.UploadDocument(cmd.Context(), models.DocumentInput{
			ClientID:       docClient,
			Type:           models.DocumentType(docType),
			Name:           name,
			FileName:       filepath.Base(docFile),
			FileSize:       docSize,
			UploadedBy:     docUploadedBy,
			UploadedByName: docUploaderName,
			IsRequired:     docRequired,
		})
		if err != nil {
			return fmt.Errorf("uploading document: %w", err)
		}
		if docsJSON {
			return printJSON(cmd.OutOrStdout(), doc)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s) for %s\n", doc.ID, doc.Type, doc.ClientID)
		return nil
	},
}

var docsReviewCmd = &cobra.Command{
	Use:               "review <document-id> <status>",
	Short:             "Move a document through review",
	ValidArgsFunction: completeDocumentReview,
	Long: `Change a document's review status. Allowed moves:

  uploaded      -> under_review
  under_review  -> approved | rejected
  approved      -> expired`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		doc, err := Repo.UpdateDocumentStatus(cmd.Context(), args[0], models.DocumentStatus(args[1]), models.ReviewInput{
			ReviewerID:   docReviewer,
			ReviewerName: docReviewerName,
			Comments:     docComments,
		})
		if err != nil {
			return fmt.Errorf("reviewing document %s: %w", args[0], err)
		}
		if docsJSON {
			return printJSON(cmd.OutOrStdout(), doc)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Document %s is now %s\n", doc.ID, doc.Status)
		return nil
	},
}

var docsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document review statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		stats, err := Repo.GetDocumentStatistics(cmd.Context())
		if err != nil {
			return fmt.Errorf("computing document statistics: %w", err)
		}
		out := cmd.OutOrStdout()
		if docsJSON {
			return printJSON(out, stats)
		}
		fmt.Fprintln(out, "Documents")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-16s %d\n", "Total:", stats.TotalDocuments)
		fmt.Fprintf(out, "  %-16s %d\n", "Pending:", stats.Pending)
		fmt.Fprintf(out, "  %-16s %d\n", "Uploaded:", stats.Uploaded)
		fmt.Fprintf(out, "  %-16s %d\n", "Under review:", stats.UnderReview)
		fmt.Fprintf(out, "  %-16s %d\n", "Approved:", stats.Approved)
		fmt.Fprintf(out, "  %-16s %d\n", "Rejected:", stats.Rejected)
		fmt.Fprintf(out, "  %-16s %d\n", "Expired:", stats.Expired)
		fmt.Fprintf(out, "  %-16s %.1f%%\n", "Approval rate:", stats.ApprovalRate)
		return nil
	},
}

func init() {
	docsCmd.PersistentFlags().BoolVar(&docsJSON, "json", false, "Output as JSON")

	docsListCmd.Flags().StringVar(&docClient, "client", "", "Filter by client id")
	docsListCmd.Flags().StringVar(&docStatus, "status", "", "Filter by review status")

	docsUploadCmd.Flags().StringVar(&docClient, "client", "", "Owning client id (required)")
	docsUploadCmd.Flags().StringVar(&docType, "type", "", "Document type (default other)")
	docsUploadCmd.Flags().StringVar(&docName, "name", "", "Display name (default file name)")
	docsUploadCmd.Flags().StringVar(&docFile, "file", "", "File name")
	docsUploadCmd.Flags().Int64Var(&docSize, "size", 0, "File size in bytes")
	docsUploadCmd.Flags().StringVar(&docUploadedBy, "by", "", "Uploader id")
	docsUploadCmd.Flags().StringVar(&docUploaderName, "by-name", "", "Uploader display name")
	docsUploadCmd.Flags().BoolVar(&docRequired, "required", false, "Mark as a required document")

	docsReviewCmd.Flags().StringVar(&docReviewer, "reviewer", "", "Reviewer employee id")
	docsReviewCmd.Flags().StringVar(&docReviewerName, "reviewer-name", "", "Reviewer display name")
	docsReviewCmd.Flags().StringArrayVar(&docComments, "comment", nil, "Review comment (repeatable)")

	_ = docsListCmd.RegisterFlagCompletionFunc("client", completeClientIDs)
	_ = docsUploadCmd.RegisterFlagCompletionFunc("client", completeClientIDs)
	_ = docsUploadCmd.RegisterFlagCompletionFunc("type", completeDocumentTypes)

	docsCmd.AddCommand(docsListCmd, docsUploadCmd, docsReviewCmd, docsStatsCmd)
	rootCmd.AddCommand(docsCmd)
}
