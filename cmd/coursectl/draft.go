package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/pkg/apiclient"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Walk the course authoring wizard",
}

var draftFromCourse uint

var draftStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Open a new course draft, or one prefilled from --course",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		var (
			draft *apiclient.DraftView
			err   error
		)
		if draftFromCourse != 0 {
			draft, err = client.EditCourse(cmd.Context(), draftFromCourse)
		} else {
			draft, err = client.StartDraft(cmd.Context())
		}
		if err != nil {
			return err
		}
		printDraftSummary(draft)
		return nil
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print the whole draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := newClient().GetDraft(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(draft)
	},
}

var draftNextCmd = &cobra.Command{
	Use:   "next <draft-id>",
	Short: "Validate the current step and move forward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := newClient().DraftNext(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printDraftSummary(draft)
		return nil
	},
}

var draftBackCmd = &cobra.Command{
	Use:   "back <draft-id>",
	Short: "Go one step back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := newClient().DraftBack(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printDraftSummary(draft)
		return nil
	},
}

var draftOp curriculum.Operation

var draftOpCmd = &cobra.Command{
	Use:   "op <draft-id>",
	Short: "Apply one curriculum edit",
	Long: `Apply one curriculum edit to a draft.

Examples:
  coursectl draft op <id> --op add_module
  coursectl draft op <id> --op set_lesson_type --module 1 --lesson 1 --type QUIZ
  coursectl draft op <id> --op delete_module --module 2 --confirm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newClient().ApplyCurriculum(cmd.Context(), args[0], draftOp)
		if err != nil {
			return err
		}
		for _, notice := range result.Notices {
			fmt.Printf("[%s] %s\n", notice.Level, notice.Message)
		}
		if result.Position != 0 {
			fmt.Printf("created at position %d\n", result.Position)
		}
		fmt.Printf("%d modules, %d issues\n", result.Curriculum.Len(), len(result.Issues))
		return nil
	},
}

var draftPublishCmd = &cobra.Command{
	Use:   "publish <draft-id>",
	Short: "Publish the draft as a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, err := newClient().PublishDraft(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("course %d saved as %s (%s)\n", course.ID, course.Slug, course.Status)
		return nil
	},
}

func printDraftSummary(draft *apiclient.DraftView) {
	fmt.Printf("draft %s\n", draft.ID)
	for i, step := range draft.Steps {
		marker := " "
		if i == draft.Cursor.Index {
			marker = ">"
		}
		fmt.Printf(" %s %d. %s\n", marker, i+1, step)
	}
	for _, issue := range draft.Issues {
		fmt.Printf("  ! %s\n", issue.Message)
	}
}

func init() {
	draftStartCmd.Flags().UintVar(&draftFromCourse, "course", 0, "Existing course ID to edit")

	flags := draftOpCmd.Flags()
	flags.StringVar((*string)(&draftOp.Kind), "op", "", "Operation, e.g. add_module, add_lesson, set_lesson_type")
	flags.IntVar(&draftOp.Module, "module", 0, "Module position")
	flags.IntVar(&draftOp.Lesson, "lesson", 0, "Lesson position")
	flags.IntVar(&draftOp.Question, "question", 0, "Question position")
	flags.IntVar(&draftOp.Option, "option", 0, "Option position")
	flags.StringVar(&draftOp.Type, "type", "", "Lesson or question type")
	flags.StringVar(&draftOp.Field, "field", "", "Field to update")
	flags.StringVar(&draftOp.Value, "value", "", "New field value")
	flags.StringVar((*string)(&draftOp.Content), "content", "", "Content to remove: video, file, description or notes")
	flags.StringVar(&draftOp.Name, "name", "", "Name of the content to remove")
	flags.BoolVar(&draftOp.Confirmed, "confirm", false, "Confirm destructive edits")
	_ = draftOpCmd.MarkFlagRequired("op")

	draftCmd.AddCommand(draftStartCmd, draftShowCmd, draftNextCmd, draftBackCmd, draftOpCmd, draftPublishCmd)
}
