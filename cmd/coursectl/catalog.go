package main

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"coursehub-backend/internal/models"
	"coursehub-backend/pkg/apiclient"
	"coursehub-backend/pkg/utils"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Browse the published catalog",
}

var (
	listSearch   string
	listCategory uint
	listLevel    string
	listPrice    string
	listSort     string
	listPage     int
)

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := url.Values{}
		if listSearch != "" {
			filter.Set("search", listSearch)
		}
		if listCategory != 0 {
			filter.Set("category_id", strconv.FormatUint(uint64(listCategory), 10))
		}
		if listLevel != "" {
			filter.Set("level", listLevel)
		}
		if listPrice != "" {
			filter.Set("price", listPrice)
		}
		if listSort != "" {
			filter.Set("sort", listSort)
		}
		if listPage > 0 {
			filter.Set("page", strconv.Itoa(listPage))
		}

		result, err := newClient().ListCourses(cmd.Context(), filter)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tTITLE\tLEVEL\tPRICE")
		for _, course := range result.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", course.ID, course.Slug, course.Title, course.Level, utils.FormatPrice(course.PriceCents, course.Currency))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("page %d, %d of %d courses\n", result.Page, len(result.Items), result.Total)
		return nil
	},
}

var coursesShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a course with its curriculum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, err := newClient().GetCourse(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(course)
	},
}

var slugExclude uint

var slugCmd = &cobra.Command{
	Use:   "slug",
	Short: "Course slug helpers",
}

var slugCheckCmd = &cobra.Command{
	Use:   "check <slug>",
	Short: "Check whether a course slug is free",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newClient().CheckSlug(cmd.Context(), args[0], slugExclude)
		if err != nil {
			return err
		}
		if result.Available {
			fmt.Printf("%s is available\n", result.Slug)
			return nil
		}
		fmt.Printf("%s is taken", result.Slug)
		if result.Suggestion != "" {
			fmt.Printf(", try %s", result.Suggestion)
		}
		fmt.Println()
		return nil
	},
}

var searchDelay time.Duration

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search-as-you-type lookups",
}

var searchCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Type a category name line by line and see live suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		suggester := apiclient.NewSuggester(cmd.Context(), searchDelay,
			client.SearchCategories,
			func(query string, categories []models.Category, err error) {
				if err != nil {
					printError(err)
					return
				}
				names := make([]string, 0, len(categories))
				for _, category := range categories {
					names = append(names, category.Name)
				}
				fmt.Printf("%q -> %s\n", query, strings.Join(names, ", "))
			},
		)
		defer suggester.Close()

		fmt.Println("type to search, Ctrl+D to quit")
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			suggester.Update(strings.TrimSpace(scanner.Text()))
		}
		// let the last lookup land before exiting
		time.Sleep(searchDelay + time.Second)
		return scanner.Err()
	},
}

func init() {
	coursesListCmd.Flags().StringVar(&listSearch, "search", "", "Title search")
	coursesListCmd.Flags().UintVar(&listCategory, "category", 0, "Category ID")
	coursesListCmd.Flags().StringVar(&listLevel, "level", "", "BEGINNER, INTERMEDIATE, ADVANCED or ALL_LEVELS")
	coursesListCmd.Flags().StringVar(&listPrice, "price", "", "free or paid")
	coursesListCmd.Flags().StringVar(&listSort, "sort", "", "Sort order")
	coursesListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	coursesCmd.AddCommand(coursesListCmd, coursesShowCmd)

	slugCheckCmd.Flags().UintVar(&slugExclude, "exclude", 0, "Course ID allowed to keep the slug")
	slugCmd.AddCommand(slugCheckCmd)

	searchCategoriesCmd.Flags().DurationVar(&searchDelay, "debounce", apiclient.DefaultDebounce, "Debounce delay")
	searchCmd.AddCommand(searchCategoriesCmd)
}
